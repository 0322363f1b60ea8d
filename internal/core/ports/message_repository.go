package ports

import (
	"context"
	"time"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

// MessageRepository stores message documents independently of their owners.
type MessageRepository interface {
	// Create inserts m and sets m.ID.
	Create(ctx context.Context, m *domain.Message) error
	// FindByIDs returns the messages with the given IDs, newest first.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Message, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	// FindUnlinked returns messages created before olderThan that are missing
	// from their recipient's message list.
	FindUnlinked(ctx context.Context, olderThan time.Time, limit int) ([]domain.UnlinkedMessage, error)
}
