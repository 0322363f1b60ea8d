package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

var (
	errMissingAuth  = domain.NewError(domain.ErrUnauthenticated, "Not authenticated")
	errInvalidToken = domain.NewError(domain.ErrUnauthenticated, "Invalid or expired token")
)

// Auth validates the bearer JWT and injects account_id (from sub) and
// username into the echo context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return errMissingAuth
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return errMissingAuth
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return errInvalidToken
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return errInvalidToken
			}
			username, _ := claims["username"].(string)

			c.Set("account_id", sub)
			c.Set("username", username)

			return next(c)
		}
	}
}
