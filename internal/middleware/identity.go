package middleware

import "github.com/labstack/echo/v4"

// identity returns the authenticated email stored by SessionAuth, or
// "guest" when the request carries no verified session.
func identity(c echo.Context) string {
	if v, ok := c.Get(ContextEmail).(string); ok && v != "" {
		return v
	}
	return "guest"
}
