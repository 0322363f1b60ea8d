package ports

import (
	"context"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

// AuthService signs verified accounts in.
type AuthService interface {
	// SignIn accepts either an email or a username as identifier.
	SignIn(ctx context.Context, identifier, password string) (string, *domain.Account, error)
}
