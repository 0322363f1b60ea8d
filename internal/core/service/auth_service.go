package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

// AuthService implements credential sign-in for verified accounts.
type AuthService struct {
	accounts  ports.AccountRepository
	pending   ports.PendingRegistrationRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(accounts ports.AccountRepository, pending ports.PendingRegistrationRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{accounts: accounts, pending: pending, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *AuthService) SignIn(ctx context.Context, identifier, password string) (string, *domain.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	byEmail := strings.Contains(identifier, "@")
	var (
		acct *domain.Account
		err  error
	)
	if byEmail {
		acct, err = s.accounts.FindByEmail(ctx, identifier)
	} else {
		acct, err = s.accounts.FindByUsername(ctx, identifier)
	}
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return "", nil, s.unknownIdentifier(ctx, identifier, byEmail)
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(acct)
	if err != nil {
		return "", nil, err
	}
	return token, acct, nil
}

// unknownIdentifier tells a not-yet-verified signup apart from bad credentials.
func (s *AuthService) unknownIdentifier(ctx context.Context, identifier string, byEmail bool) error {
	exists := s.pending.ExistsByUsername
	if byEmail {
		exists = s.pending.ExistsByEmail
	}
	pending, err := exists(ctx, identifier)
	if err != nil {
		return err
	}
	if pending {
		return domain.ErrNotVerified
	}
	return domain.ErrInvalidCredentials
}

func (s *AuthService) generateToken(acct *domain.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      acct.ID,
		"username": acct.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

var _ ports.AuthService = (*AuthService)(nil)
