package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash"
)

const prompt = "Create a list of three uplifting and supportive messages formatted as a single string. " +
	"Each message should be separated by '||'. These messages are for an anonymous social messaging " +
	"platform and should be suitable for a diverse audience. Focus on universal themes of encouragement " +
	"and positivity, avoiding personal or sensitive topics. For example: 'Believe in yourself; you are " +
	"capable of amazing things!||Remember, every day is a new opportunity to shine and grow!||You are " +
	"not alone; your journey is unique and beautiful!'. Keep each message under 120 characters."

var errEmptyCompletion = errors.New("gemini returned no text")

// GeminiSuggester asks the Gemini generateContent API for message prompts.
type GeminiSuggester struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

// Option configures GeminiSuggester.
type Option func(*GeminiSuggester)

// WithClient sets the HTTP client (default: 20s timeout).
func WithClient(c *http.Client) Option {
	return func(s *GeminiSuggester) {
		s.client = c
	}
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(s *GeminiSuggester) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(s *GeminiSuggester) {
		if model != "" {
			s.model = model
		}
	}
}

// NewGeminiSuggester returns a suggester; with an empty apiKey every call
// fails with domain.ErrSuggestNotConfigured.
func NewGeminiSuggester(apiKey string, opts ...Option) *GeminiSuggester {
	s := &GeminiSuggester{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Suggest implements ports.Suggester.
func (s *GeminiSuggester) Suggest(ctx context.Context) ([]string, error) {
	if s.apiKey == "" {
		return nil, domain.ErrSuggestNotConfigured
	}

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, url.PathEscape(s.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// Header, not query string: transport errors echo the URL.
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gemini returned %d: %s", resp.StatusCode, snippet)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	var text strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	suggestions := Split(text.String())
	if len(suggestions) == 0 {
		return nil, errEmptyCompletion
	}
	return suggestions, nil
}

// Split breaks a "||"-separated completion into trimmed, non-empty prompts.
func Split(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "||") {
		p = strings.Trim(strings.TrimSpace(p), `'"`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ ports.Suggester = (*GeminiSuggester)(nil)
