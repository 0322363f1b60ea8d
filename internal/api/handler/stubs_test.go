package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

type stubRegistrationService struct {
	startFn  func(ctx context.Context, in ports.StartRegistrationInput) error
	resendFn func(ctx context.Context, username string) error
	verifyFn func(ctx context.Context, username, code string) error
	checkFn  func(ctx context.Context, username string) error
}

func (s *stubRegistrationService) StartRegistration(ctx context.Context, in ports.StartRegistrationInput) error {
	return s.startFn(ctx, in)
}

func (s *stubRegistrationService) ResendCode(ctx context.Context, username string) error {
	return s.resendFn(ctx, username)
}

func (s *stubRegistrationService) VerifyCode(ctx context.Context, username, code string) error {
	return s.verifyFn(ctx, username, code)
}

func (s *stubRegistrationService) CheckUsername(ctx context.Context, username string) error {
	return s.checkFn(ctx, username)
}

type stubAuthService struct {
	signInFn func(ctx context.Context, identifier, password string) (string, *domain.Account, error)
}

func (s *stubAuthService) SignIn(ctx context.Context, identifier, password string) (string, *domain.Account, error) {
	return s.signInFn(ctx, identifier, password)
}

type stubMessageService struct {
	submitFn       func(ctx context.Context, in ports.SubmitMessageInput) (*ports.SubmitMessageResult, error)
	listFn         func(ctx context.Context, accountID string) ([]*domain.Message, error)
	deleteFn       func(ctx context.Context, accountID, messageID string) error
	acceptingFn    func(ctx context.Context, accountID string) (bool, error)
	setAcceptingFn func(ctx context.Context, accountID string, accepting bool) error
	messageCount   int64
	userCount      int64
}

func (s *stubMessageService) SubmitMessage(ctx context.Context, in ports.SubmitMessageInput) (*ports.SubmitMessageResult, error) {
	return s.submitFn(ctx, in)
}

func (s *stubMessageService) ListMessages(ctx context.Context, accountID string) ([]*domain.Message, error) {
	return s.listFn(ctx, accountID)
}

func (s *stubMessageService) DeleteMessage(ctx context.Context, accountID, messageID string) error {
	return s.deleteFn(ctx, accountID, messageID)
}

func (s *stubMessageService) AcceptingMessages(ctx context.Context, accountID string) (bool, error) {
	return s.acceptingFn(ctx, accountID)
}

func (s *stubMessageService) SetAcceptingMessages(ctx context.Context, accountID string, accepting bool) error {
	return s.setAcceptingFn(ctx, accountID, accepting)
}

func (s *stubMessageService) CountMessages(context.Context) (int64, error) { return s.messageCount, nil }

func (s *stubMessageService) CountUsers(context.Context) (int64, error) { return s.userCount, nil }

func (s *stubMessageService) RepairLink(context.Context, domain.UnlinkedMessage) error { return nil }

type stubSuggester struct {
	out []string
	err error
}

func (s stubSuggester) Suggest(context.Context) ([]string, error) { return s.out, s.err }

// newContext builds an echo context with the validator installed. A non-empty
// body is sent as JSON.
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// signedIn marks the context as authenticated the way the Auth middleware does.
func signedIn(c echo.Context, accountID string) echo.Context {
	c.Set("account_id", accountID)
	c.Set("username", "ana")
	return c
}
