package ports

import (
	"context"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

// SubmitMessageInput is an anonymous message addressed to a username.
type SubmitMessageInput struct {
	RecipientUsername string
	Content           string
	// IdempotencyKey is optional; a repeated key is acknowledged without storing twice.
	IdempotencyKey string
}

// SubmitMessageResult describes an accepted submission.
type SubmitMessageResult struct {
	MessageID string
	IsHarmful bool
	// Replayed is true when the idempotency key had already been used.
	Replayed bool
}

// MessageService is the message intake pipeline plus inbox management.
type MessageService interface {
	SubmitMessage(ctx context.Context, in SubmitMessageInput) (*SubmitMessageResult, error)
	ListMessages(ctx context.Context, accountID string) ([]*domain.Message, error)
	DeleteMessage(ctx context.Context, accountID, messageID string) error
	AcceptingMessages(ctx context.Context, accountID string) (bool, error)
	SetAcceptingMessages(ctx context.Context, accountID string, accepting bool) error
	CountMessages(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
	// RepairLink re-attaches a stored message to its recipient.
	RepairLink(ctx context.Context, u domain.UnlinkedMessage) error
}
