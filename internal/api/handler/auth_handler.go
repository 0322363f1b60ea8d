package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type signInRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password"   validate:"required"`
}

type signInResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    *domain.Account `json:"user"`
}

// SignIn authenticates a verified account by email or username and returns a JWT.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Email or username plus password"
// @Success      200   {object}  signInResponse
// @Failure      400   {object}  envelope
// @Failure      401   {object}  envelope
// @Router       /sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, acct, err := h.authService.SignIn(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, signInResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   token,
		User:    acct,
	})
}
