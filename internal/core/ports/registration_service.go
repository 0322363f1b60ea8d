package ports

import "context"

// StartRegistrationInput carries the signup form.
type StartRegistrationInput struct {
	Username string
	Email    string
	Password string
}

// DeliveryResult reports whether a verification code reached the mail provider.
type DeliveryResult struct {
	Success bool
	Message string
}

// CodeIssuer delivers verification codes. It never returns an error; callers
// inspect the DeliveryResult.
type CodeIssuer interface {
	IssueCode(ctx context.Context, email, username, code string) DeliveryResult
}

// RegistrationService drives the NONE -> PENDING -> VERIFIED lifecycle.
type RegistrationService interface {
	StartRegistration(ctx context.Context, in StartRegistrationInput) error
	ResendCode(ctx context.Context, username string) error
	VerifyCode(ctx context.Context, username, code string) error
	// CheckUsername returns nil when username is well-formed and unused.
	CheckUsername(ctx context.Context, username string) error
}
