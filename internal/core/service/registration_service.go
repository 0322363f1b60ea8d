package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

const passwordCost = 10

// RegistrationService implements signup, code resend and code verification.
type RegistrationService struct {
	pending  ports.PendingRegistrationRepository
	accounts ports.AccountRepository
	issuer   ports.CodeIssuer
	log      zerolog.Logger

	now     func() time.Time
	newCode func() (string, error)
}

func NewRegistrationService(
	pending ports.PendingRegistrationRepository,
	accounts ports.AccountRepository,
	issuer ports.CodeIssuer,
	log zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		pending:  pending,
		accounts: accounts,
		issuer:   issuer,
		log:      log,
		now:      time.Now,
		newCode:  generateVerifyCode,
	}
}

// StartRegistration creates a pending registration and emails its code.
// When delivery fails the pending record is kept so ResendCode can recover it.
func (s *RegistrationService) StartRegistration(ctx context.Context, in ports.StartRegistrationInput) error {
	if !domain.ValidUsername(in.Username) {
		return domain.ErrInvalidUsername
	}
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return domain.NewError(domain.ErrValidation, "Email and password are required")
	}

	if err := s.ensureAvailable(ctx, in.Username, in.Email); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), passwordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	now := s.now().UTC()
	p := &domain.PendingRegistration{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	p.Refresh(code, now)

	if err := s.pending.Create(ctx, p); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateUsername):
			return domain.ErrUnverifiedUsernameExists
		case errors.Is(err, domain.ErrDuplicateEmail):
			return domain.ErrUnverifiedEmailExists
		}
		return fmt.Errorf("create pending registration: %w", err)
	}

	s.log.Info().Str("username", p.Username).Msg("pending registration created")
	return s.deliver(ctx, p)
}

// ensureAvailable rejects a username or email already held by a verified
// account or by another pending registration, in that order.
func (s *RegistrationService) ensureAvailable(ctx context.Context, username, email string) error {
	checks := []struct {
		exists func(context.Context, string) (bool, error)
		value  string
		err    error
	}{
		{s.accounts.ExistsByUsername, username, domain.ErrVerifiedUsernameExists},
		{s.accounts.ExistsByEmail, email, domain.ErrVerifiedEmailExists},
		{s.pending.ExistsByUsername, username, domain.ErrUnverifiedUsernameExists},
		{s.pending.ExistsByEmail, email, domain.ErrUnverifiedEmailExists},
	}
	for _, c := range checks {
		taken, err := c.exists(ctx, c.value)
		if err != nil {
			return fmt.Errorf("check availability: %w", err)
		}
		if taken {
			return c.err
		}
	}
	return nil
}

// ResendCode issues a fresh code with a new validity window.
func (s *RegistrationService) ResendCode(ctx context.Context, username string) error {
	verified, err := s.accounts.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("resend code: %w", err)
	}
	if verified {
		return domain.ErrUserVerified
	}

	p, err := s.pending.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return domain.ErrResendNotFound
		}
		return fmt.Errorf("resend code: %w", err)
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	p.Refresh(code, s.now().UTC())

	if err := s.pending.UpdateCode(ctx, username, p.VerifyCode, p.VerifyCodeExpiry); err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return domain.ErrResendNotFound
		}
		return fmt.Errorf("resend code: %w", err)
	}

	s.log.Info().Str("username", username).Msg("verification code refreshed")
	return s.deliver(ctx, p)
}

// VerifyCode promotes the pending registration to an account when code is
// correct and unexpired.
func (s *RegistrationService) VerifyCode(ctx context.Context, username, code string) error {
	p, err := s.pending.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return domain.ErrPendingNotFound
		}
		return fmt.Errorf("verify code: %w", err)
	}

	now := s.now().UTC()
	switch p.CheckCode(code, now) {
	case domain.CodeExpired:
		return domain.ErrCodeExpired
	case domain.CodeMismatch:
		return domain.ErrCodeIncorrect
	}

	// The account is inserted while the pending record still holds the
	// username, so a racing signup is rejected by one unique index or the other.
	account, err := s.accounts.Create(ctx, p.Promote(now))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateUsername):
			// A concurrent verifier promoted this registration first.
			return domain.ErrPendingNotFound
		case errors.Is(err, domain.ErrDuplicateEmail):
			return domain.ErrVerifiedEmailExists
		}
		return fmt.Errorf("verify code: create account: %w", err)
	}

	if _, err := s.pending.Claim(ctx, username, code); err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("account created but pending registration not removed")
	}

	s.log.Info().Str("username", username).Str("account_id", account.ID).Msg("account verified")
	return nil
}

// CheckUsername is a read-only availability probe.
func (s *RegistrationService) CheckUsername(ctx context.Context, username string) error {
	if !domain.ValidUsername(username) {
		return domain.ErrInvalidUsername
	}
	for _, exists := range []func(context.Context, string) (bool, error){
		s.accounts.ExistsByUsername,
		s.pending.ExistsByUsername,
	} {
		taken, err := exists(ctx, username)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			return domain.ErrUsernameTaken
		}
	}
	return nil
}

func (s *RegistrationService) deliver(ctx context.Context, p *domain.PendingRegistration) error {
	res := s.issuer.IssueCode(ctx, p.Email, p.Username, p.VerifyCode)
	if !res.Success {
		return domain.DeliveryFailed(res.Message)
	}
	return nil
}

// generateVerifyCode returns a uniformly random code in [100000, 999999].
func generateVerifyCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

var _ ports.RegistrationService = (*RegistrationService)(nil)
