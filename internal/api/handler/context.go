package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

// errNotAuthenticated is returned when a protected handler runs without the
// claims the Auth middleware injects.
var errNotAuthenticated = domain.NewError(domain.ErrUnauthenticated, "Not authenticated")

// ctxAccount extracts the account identity injected by the Auth middleware.
// An empty account_id means the middleware did not run or the token lacked sub.
func ctxAccount(c echo.Context) (accountID, username string, err error) {
	accountID, _ = c.Get("account_id").(string)
	if accountID == "" {
		return "", "", errNotAuthenticated
	}
	username, _ = c.Get("username").(string)
	return accountID, username, nil
}
