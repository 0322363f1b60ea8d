package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/whisperbox/whisperbox-api/internal/api/metrics"
	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

// DefaultBaseURL is the moderationapi.com REST endpoint.
const DefaultBaseURL = "https://moderationapi.com/api/v1"

// HTTPModerator submits text to moderationapi.com's text moderation endpoint.
type HTTPModerator struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// HTTPModeratorOption configures HTTPModerator.
type HTTPModeratorOption func(*HTTPModerator)

// WithClient sets the HTTP client (default: 10s timeout).
func WithClient(c *http.Client) HTTPModeratorOption {
	return func(m *HTTPModerator) {
		m.client = c
	}
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) HTTPModeratorOption {
	return func(m *HTTPModerator) {
		if u != "" {
			m.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func NewHTTPModerator(apiKey string, opts ...HTTPModeratorOption) *HTTPModerator {
	m := &HTTPModerator{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type categoryJSON struct {
	Label string   `json:"label"`
	Score *float64 `json:"score"`
}

type moderateResponse struct {
	Status   string        `json:"status"`
	Flagged  bool          `json:"flagged"`
	NSFW     *categoryJSON `json:"nsfw"`
	Toxicity *categoryJSON `json:"toxicity"`
	Sexual   *categoryJSON `json:"sexual"`
	SelfHarm *categoryJSON `json:"self_harm"`
	Violence *categoryJSON `json:"violence"`
}

func (r moderateResponse) verdict() domain.ModerationVerdict {
	v := domain.ModerationVerdict{
		Flagged:    r.Flagged,
		Categories: make(map[domain.ModerationCategory]domain.CategoryResult),
	}
	for c, cat := range map[domain.ModerationCategory]*categoryJSON{
		domain.CategoryNSFW:     r.NSFW,
		domain.CategoryToxicity: r.Toxicity,
		domain.CategorySexual:   r.Sexual,
		domain.CategorySelfHarm: r.SelfHarm,
		domain.CategoryViolence: r.Violence,
	} {
		if cat != nil {
			v.Categories[c] = domain.CategoryResult{Label: cat.Label, Score: cat.Score}
		}
	}
	return v
}

// Moderate implements ports.Moderator. Transport failures, non-2xx answers
// and undecodable bodies are all reported as errors.
func (m *HTTPModerator) Moderate(ctx context.Context, content string) (v domain.ModerationVerdict, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.ModerationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(map[string]string{"value": content})
	if err != nil {
		return v, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/moderate/text", bytes.NewReader(body))
	if err != nil {
		return v, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return v, fmt.Errorf("moderation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return v, &statusError{status: resp.StatusCode, body: string(snippet)}
	}

	var out moderateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return v, fmt.Errorf("decode moderation response: %w", err)
	}
	return out.verdict(), nil
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("moderation service returned %d: %s", e.status, e.body)
}

var _ ports.Moderator = (*HTTPModerator)(nil)
