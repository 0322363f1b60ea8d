package moderation

import (
	"context"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

// NoopModerator approves everything when MODERATION_ENABLED is false.
type NoopModerator struct{}

func NewNoopModerator() *NoopModerator {
	return &NoopModerator{}
}

// Moderate implements ports.Moderator with an all-neutral verdict.
func (NoopModerator) Moderate(context.Context, string) (domain.ModerationVerdict, error) {
	return domain.ModerationVerdict{}, nil
}

var _ ports.Moderator = (*NoopModerator)(nil)
