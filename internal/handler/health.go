package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health is the liveness probe used by load balancers.  It answers 200 when
// the database responds within two seconds and 503 otherwise.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			return respond(c, http.StatusServiceUnavailable, "database unavailable", nil)
		}
		return respond(c, http.StatusOK, "ok", nil)
	}
}
