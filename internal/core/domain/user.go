package domain

import "time"

// Account is a verified user able to receive anonymous messages.
type Account struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email,omitempty"`
	PasswordHash        string    `json:"-"`
	IsAcceptingMessages bool      `json:"isAcceptingMessages"`
	MessageIDs          []string  `json:"-"`
	CreatedAt           time.Time `json:"createdAt"`
}

// HasMessage reports whether the account references messageID.
func (a *Account) HasMessage(messageID string) bool {
	for _, id := range a.MessageIDs {
		if id == messageID {
			return true
		}
	}
	return false
}
