package domain

import "errors"

// Error kinds. Every failure surfaced by a service wraps exactly one of these,
// and the HTTP layer maps the kind to a status code with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrExpiredCode     = errors.New("verification code expired")
	ErrInvalidCode     = errors.New("incorrect verification code")
	ErrRejected        = errors.New("rejected")
	ErrAlreadyVerified = errors.New("already verified")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrDelivery        = errors.New("delivery failed")
	ErrModeration      = errors.New("moderation failed")
	ErrRateLimited     = errors.New("rate limited")
)

// Error is a classified failure carrying a short, user-facing message.
type Error struct {
	kind error
	msg  string
}

// NewError builds an Error of the given kind.
func NewError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Kind returns the sentinel this error is classified under.
func (e *Error) Kind() error { return e.kind }

// Registration failures.
var (
	ErrVerifiedUsernameExists   = NewError(ErrConflict, "Verified username already exists")
	ErrVerifiedEmailExists      = NewError(ErrConflict, "Verified user already exists with this email")
	ErrUnverifiedUsernameExists = NewError(ErrConflict, "Unverified username already exists")
	ErrUnverifiedEmailExists    = NewError(ErrConflict, "Unverified user already exists with this email")
	ErrUsernameTaken            = NewError(ErrConflict, "Username is already taken")

	ErrPendingNotFound    = NewError(ErrNotFound, "User not found")
	ErrResendNotFound     = NewError(ErrNotFound, "User not found, please sign up again")
	ErrUserVerified       = NewError(ErrAlreadyVerified, "User already verified, please sign in")
	ErrCodeExpired        = NewError(ErrExpiredCode, "Verification code expired")
	ErrCodeIncorrect      = NewError(ErrInvalidCode, "Incorrect verification code")
	ErrInvalidUsername    = NewError(ErrValidation, "Username must be 2-20 characters and contain only letters, digits or underscores")
	ErrInvalidCredentials = NewError(ErrUnauthenticated, "Incorrect username or password")
	ErrNotVerified        = NewError(ErrUnauthenticated, "Please verify your account before signing in")
)

// Messaging failures.
var (
	ErrAccountNotFound      = NewError(ErrNotFound, "User not found")
	ErrNotAcceptingMessages = NewError(ErrRejected, "User is not accepting messages")
	ErrMessageNotFound      = NewError(ErrNotFound, "Message not found or already deleted")
	ErrModerationFailed     = NewError(ErrModeration, "Failed to validate message content")
	ErrSuggestNotConfigured = NewError(ErrValidation, "Suggestion generator is not configured")
)

// Storage-level sentinels returned by repositories before services classify them.
var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDocumentNotFound  = errors.New("document not found")
)

// DeliveryFailed wraps a Code Issuer failure message as a delivery error.
func DeliveryFailed(msg string) *Error {
	return NewError(ErrDelivery, msg)
}
