package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"conflict", domain.ErrVerifiedUsernameExists, http.StatusBadRequest, "Verified username already exists"},
		{"expired", domain.ErrCodeExpired, http.StatusBadRequest, "Verification code expired"},
		{"incorrect", domain.ErrCodeIncorrect, http.StatusBadRequest, "Incorrect verification code"},
		{"not found", domain.ErrPendingNotFound, http.StatusNotFound, "User not found"},
		{"already verified", domain.ErrUserVerified, http.StatusUnauthorized, "User already verified, please sign in"},
		{"rejected", domain.ErrNotAcceptingMessages, http.StatusForbidden, "User is not accepting messages"},
		{"delivery", domain.DeliveryFailed("Failed to send verification email"), http.StatusInternalServerError, "Failed to send verification email"},
		{"moderation", domain.ErrModerationFailed, http.StatusInternalServerError, "Failed to validate message content"},
		{"wrapped", fmt.Errorf("delete message: %w", domain.ErrMessageNotFound), http.StatusNotFound, "Message not found or already deleted"},
		{"echo", echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"), http.StatusMethodNotAllowed, "method not allowed"},
		{"unknown", errors.New("mongo: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Success {
				t.Fatalf("expected success=false")
			}
			if body.Message != tt.wantMsg {
				t.Fatalf("expected message %q, got %q", tt.wantMsg, body.Message)
			}
		})
	}
}
