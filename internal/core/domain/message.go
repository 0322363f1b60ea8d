package domain

import (
	"sort"
	"time"
)

// Message is an anonymous note delivered to exactly one Account.
type Message struct {
	ID          string    `json:"_id"`
	RecipientID string    `json:"-"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	IsHarmful   bool      `json:"isHarmful"`
}

// SortNewestFirst orders messages by CreatedAt descending, in place.
func SortNewestFirst(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
}

// UnlinkedMessage identifies a stored message missing from its recipient's list.
type UnlinkedMessage struct {
	MessageID   string
	RecipientID string
}
