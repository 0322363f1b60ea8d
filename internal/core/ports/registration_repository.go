package ports

import (
	"context"
	"time"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

// PendingRegistrationRepository stores signups that have not been verified yet.
// Lookups that miss return domain.ErrDocumentNotFound; inserts that collide on a
// unique index return domain.ErrDuplicateUsername or domain.ErrDuplicateEmail.
type PendingRegistrationRepository interface {
	Create(ctx context.Context, p *domain.PendingRegistration) error
	FindByUsername(ctx context.Context, username string) (*domain.PendingRegistration, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateCode replaces the verification code and expiry of an existing record.
	UpdateCode(ctx context.Context, username, code string, expiry time.Time) error

	// Claim atomically removes and returns the record for username when its
	// stored code equals code. At most one concurrent caller wins.
	Claim(ctx context.Context, username, code string) (*domain.PendingRegistration, error)
}
