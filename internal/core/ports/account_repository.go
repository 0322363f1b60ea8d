package ports

import (
	"context"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

// AccountRepository stores verified accounts and their message references.
type AccountRepository interface {
	// Create inserts the account and returns it with its assigned ID.
	Create(ctx context.Context, a *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// LinkMessage adds messageID to the account's list; linking twice is a no-op.
	LinkMessage(ctx context.Context, accountID, messageID string) error
	// UnlinkMessage removes messageID and reports whether it was present.
	UnlinkMessage(ctx context.Context, accountID, messageID string) (bool, error)

	SetAcceptingMessages(ctx context.Context, accountID string, accepting bool) error
	Count(ctx context.Context) (int64, error)
}
