package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

// LogMailer writes outgoing email to the log instead of sending it. Used when
// MAIL_PROVIDER=log, typically in development.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send implements ports.Mailer.
func (m *LogMailer) Send(_ context.Context, e ports.Email) error {
	m.log.Info().
		Str("to", e.To).
		Str("subject", e.Subject).
		Str("body", e.Text).
		Msg("email (not sent, log provider)")
	return nil
}

var _ ports.Mailer = (*LogMailer)(nil)
