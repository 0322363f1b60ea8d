package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

// DefaultResendBaseURL is Resend's REST API root.
const DefaultResendBaseURL = "https://api.resend.com"

// ResendMailer delivers email through the Resend HTTP API. It makes exactly
// one attempt per Send.
type ResendMailer struct {
	client  *http.Client
	baseURL string
	apiKey  string
	from    string
}

// ResendOption configures ResendMailer.
type ResendOption func(*ResendMailer)

// WithClient sets the HTTP client (default: 10s timeout).
func WithClient(c *http.Client) ResendOption {
	return func(m *ResendMailer) {
		m.client = c
	}
}

// WithBaseURL overrides DefaultResendBaseURL.
func WithBaseURL(u string) ResendOption {
	return func(m *ResendMailer) {
		if u != "" {
			m.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func NewResendMailer(apiKey, from string, opts ...ResendOption) *ResendMailer {
	m := &ResendMailer{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: DefaultResendBaseURL,
		apiKey:  apiKey,
		from:    from,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send implements ports.Mailer.
func (m *ResendMailer) Send(ctx context.Context, e ports.Email) error {
	body, err := json.Marshal(resendRequest{
		From:    m.from,
		To:      []string{e.To},
		Subject: e.Subject,
		HTML:    e.HTML,
		Text:    e.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

var _ ports.Mailer = (*ResendMailer)(nil)
