package middleware // package middleware contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-orders-api/internal/utils"
)

// ContextEmail is the echo.Context key holding the authenticated email.
const ContextEmail = "email"

// SessionAuth returns an Echo middleware that validates the session token
// and stores its email claim under ContextEmail.  The token is read from a
// Bearer Authorization header first and from the session cookie otherwise;
// both channels carry the same artifact.
func SessionAuth(secret, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFrom(c, cookieName)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"status": http.StatusUnauthorized, "msg": "missing session token"})
			}
			claims, err := utils.ParseSessionToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"status": http.StatusUnauthorized, "msg": "invalid session token"})
			}
			c.Set(ContextEmail, claims.Email)
			return next(c)
		}
	}
}

func tokenFrom(c echo.Context, cookieName string) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if ck, err := c.Cookie(cookieName); err == nil {
		return ck.Value
	}
	return ""
}
