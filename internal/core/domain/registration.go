package domain

import (
	"regexp"
	"time"
)

// VerificationCodeTTL is how long an issued code remains usable.
const VerificationCodeTTL = 30 * time.Minute

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{2,20}$`)

// ValidUsername reports whether s is an acceptable public username.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// PendingRegistration is a signup awaiting email-code confirmation.
type PendingRegistration struct {
	Username         string
	Email            string
	PasswordHash     string
	VerifyCode       string
	VerifyCodeExpiry time.Time
	CreatedAt        time.Time
}

// CodeCheck is the outcome of comparing a submitted code against a pending record.
type CodeCheck int

const (
	CodeAccepted CodeCheck = iota
	CodeExpired
	CodeMismatch
)

// CheckCode evaluates a submitted code at instant now. Expiry wins over a
// correct code: a code submitted at exactly VerifyCodeExpiry is expired.
func (p *PendingRegistration) CheckCode(code string, now time.Time) CodeCheck {
	notExpired := now.Before(p.VerifyCodeExpiry)
	if notExpired && p.VerifyCode == code {
		return CodeAccepted
	}
	if !notExpired {
		return CodeExpired
	}
	return CodeMismatch
}

// Refresh replaces the code and restarts its validity window from now.
func (p *PendingRegistration) Refresh(code string, now time.Time) {
	p.VerifyCode = code
	p.VerifyCodeExpiry = now.Add(VerificationCodeTTL)
}

// Promote builds the verified Account for this registration.
func (p *PendingRegistration) Promote(now time.Time) *Account {
	return &Account{
		Username:            p.Username,
		Email:               p.Email,
		PasswordHash:        p.PasswordHash,
		IsAcceptingMessages: true,
		MessageIDs:          []string{},
		CreatedAt:           now,
	}
}
