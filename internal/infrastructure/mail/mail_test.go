package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

func TestResendMailer_Send(t *testing.T) {
	var got resendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id":"re_123"}`))
	}))
	defer srv.Close()

	m := NewResendMailer("re_key", "whisperbox <noreply@whisperbox.dev>", WithBaseURL(srv.URL))
	err := m.Send(context.Background(), ports.Email{To: "ana@x.com", Subject: "code", HTML: "<p>1</p>", Text: "1"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if auth != "Bearer re_key" {
		t.Fatalf("unexpected auth %q", auth)
	}
	if len(got.To) != 1 || got.To[0] != "ana@x.com" || got.From != "whisperbox <noreply@whisperbox.dev>" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestResendMailer_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewResendMailer("bad", "a@b.c", WithBaseURL(srv.URL)).Send(context.Background(), ports.Email{To: "x@y.z"})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestLogMailer_Send(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(zerolog.New(&buf))

	if err := m.Send(context.Background(), ports.Email{To: "ana@x.com", Subject: "s", Text: "code 123456"}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "123456") {
		t.Fatalf("expected body in log, got %s", buf.String())
	}
}
