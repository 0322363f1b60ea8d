package service

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/rs/zerolog"

	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

const verificationSubject = "Your whisperbox verification code"

var verificationHTML = htmltemplate.Must(htmltemplate.New("verify-html").Parse(`<!DOCTYPE html>
<html lang="en">
<body>
  <h2>Hello {{.Username}},</h2>
  <p>Thank you for registering. Please use the following verification code to complete your registration:</p>
  <p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{.Code}}</p>
  <p>The code expires in 30 minutes. If you did not request this code, please ignore this email.</p>
</body>
</html>`))

var verificationText = texttemplate.Must(texttemplate.New("verify-text").Parse(
	"Hello {{.Username}},\n\nYour verification code is {{.Code}}. It expires in 30 minutes.\n"))

// CodeIssuer renders verification emails and hands them to a Mailer.
type CodeIssuer struct {
	mailer ports.Mailer
	log    zerolog.Logger
}

func NewCodeIssuer(mailer ports.Mailer, log zerolog.Logger) *CodeIssuer {
	return &CodeIssuer{mailer: mailer, log: log}
}

// IssueCode makes a single delivery attempt. Failures, including a panicking
// mailer, are reported in the result rather than returned.
func (i *CodeIssuer) IssueCode(ctx context.Context, email, username, code string) (res ports.DeliveryResult) {
	defer func() {
		if r := recover(); r != nil {
			i.log.Error().Interface("panic", r).Str("email", email).Msg("mailer panicked")
			res = ports.DeliveryResult{Success: false, Message: "Failed to send verification email"}
		}
	}()

	msg, err := renderVerificationEmail(email, username, code)
	if err != nil {
		i.log.Error().Err(err).Msg("render verification email")
		return ports.DeliveryResult{Success: false, Message: "Failed to send verification email"}
	}

	if err := i.mailer.Send(ctx, msg); err != nil {
		i.log.Error().Err(err).Str("email", email).Str("username", username).Msg("verification email delivery failed")
		return ports.DeliveryResult{Success: false, Message: "Failed to send verification email"}
	}

	return ports.DeliveryResult{Success: true, Message: "Verification email sent successfully"}
}

func renderVerificationEmail(email, username, code string) (ports.Email, error) {
	data := struct{ Username, Code string }{username, code}

	var html, text bytes.Buffer
	if err := verificationHTML.Execute(&html, data); err != nil {
		return ports.Email{}, fmt.Errorf("html body: %w", err)
	}
	if err := verificationText.Execute(&text, data); err != nil {
		return ports.Email{}, fmt.Errorf("text body: %w", err)
	}

	return ports.Email{
		To:      email,
		Subject: verificationSubject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

var _ ports.CodeIssuer = (*CodeIssuer)(nil)
