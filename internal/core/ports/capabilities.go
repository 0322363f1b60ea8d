package ports

import (
	"context"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

// Email is a single outbound message handed to a Mailer.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers email through an external provider. One attempt per call.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// Moderator submits content to an external content-safety service.
type Moderator interface {
	Moderate(ctx context.Context, content string) (domain.ModerationVerdict, error)
}

// Suggester asks an external text generator for message prompts.
type Suggester interface {
	Suggest(ctx context.Context) ([]string, error)
}

// IdempotencyGuard remembers submission keys for a bounded time.
type IdempotencyGuard interface {
	// Claim returns true when key has not been seen before and records it.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a failed submission can be retried.
	Release(ctx context.Context, key string) error
}
