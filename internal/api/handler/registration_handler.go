package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/whisperbox/whisperbox-api/internal/api/metrics"
	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

type RegistrationHandler struct {
	svc ports.RegistrationService
}

func NewRegistrationHandler(svc ports.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

type signUpRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type verifyCodeRequest struct {
	Username string `json:"username" validate:"required"`
	Code     string `json:"code"     validate:"required"`
}

type resendCodeRequest struct {
	Username string `json:"username" validate:"required"`
}

// CheckUsername reports whether a username is well-formed and free.
//
// @Summary      Check username availability
// @Tags         registration
// @Produce      json
// @Param        username  query     string  true  "Candidate username"
// @Success      200       {object}  envelope
// @Failure      400       {object}  envelope
// @Router       /check-username [get]
func (h *RegistrationHandler) CheckUsername(c echo.Context) error {
	if err := h.svc.CheckUsername(c.Request().Context(), c.QueryParam("username")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Username is unique")
}

// SignUp creates a pending registration and emails a verification code.
//
// @Summary      Sign up
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Signup form"
// @Success      201   {object}  envelope
// @Failure      400   {object}  envelope
// @Failure      429   {object}  envelope
// @Failure      500   {object}  envelope
// @Router       /sign-up [post]
func (h *RegistrationHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.svc.StartRegistration(c.Request().Context(), ports.StartRegistrationInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	observeStep("sign_up", err)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "User registered successfully. Please verify your email")
}

// VerifyCode promotes a pending registration to an account.
//
// @Summary      Verify signup code
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        body  body      verifyCodeRequest  true  "Username and code"
// @Success      200   {object}  envelope
// @Failure      400   {object}  envelope
// @Failure      404   {object}  envelope
// @Router       /verify-code [post]
func (h *RegistrationHandler) VerifyCode(c echo.Context) error {
	var req verifyCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.svc.VerifyCode(c.Request().Context(), req.Username, req.Code)
	observeStep("verify", err)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Account verified successfully")
}

// ResendCode issues a fresh verification code.
//
// @Summary      Resend verification code
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        body  body      resendCodeRequest  true  "Username"
// @Success      201   {object}  envelope
// @Failure      401   {object}  envelope
// @Failure      404   {object}  envelope
// @Failure      500   {object}  envelope
// @Router       /resend-code [post]
func (h *RegistrationHandler) ResendCode(c echo.Context) error {
	var req resendCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.svc.ResendCode(c.Request().Context(), req.Username)
	observeStep("resend", err)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "Verification code resent. Please check your email")
}

func observeStep(step string, err error) {
	metrics.RegistrationStepsTotal.WithLabelValues(step, kindLabel(err)).Inc()
	if step == "verify" {
		return
	}
	switch {
	case err == nil:
		metrics.VerificationEmailsTotal.WithLabelValues("sent").Inc()
	case errors.Is(err, domain.ErrDelivery):
		metrics.VerificationEmailsTotal.WithLabelValues("failed").Inc()
	}
}
