package router // package router defines how HTTP routes are registered for the API

import (
	"context"
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-orders-api/internal/config"
	"github.com/iliyamo/movie-orders-api/internal/handler"
	"github.com/iliyamo/movie-orders-api/internal/middleware"
	"github.com/iliyamo/movie-orders-api/internal/repository"
	"github.com/iliyamo/movie-orders-api/internal/service"
)

// Store is the database side the routes need: per-request connections and
// a liveness ping.
type Store interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
	Ping(ctx context.Context) error
}

// Deps carries everything Register wires.  Redis and Events may be nil, in
// which case caching, rate limiting and event publishing are skipped.
type Deps struct {
	Cfg       config.Config
	Store     Store
	Creds     *service.Credentials
	Users     *repository.UserRepo
	Events    service.EventPublisher
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       logrus.FieldLogger
}

// Register mounts /healthz at the root and every API route under the
// configured prefix.
func Register(e *echo.Echo, d Deps) {
	// liveness stays outside the prefix so probes need no configuration
	e.GET("/healthz", handler.Health(d.Store))

	g := e.Group(d.Cfg.APIPrefix)
	RegisterAuth(g, d)
	RegisterResources(g, d)
}

// RegisterAuth mounts register, login and the session-protected /me.  The
// credential endpoints sit behind the rate limiter.
func RegisterAuth(g *echo.Group, d Deps) {
	a := handler.NewAuthHandler(d.Cfg, d.Store, d.Creds, d.Users, d.Log)
	limit := middleware.RateLimit(d.RateLimit, d.Redis, d.Log)
	// writes to users must evict cached user listings
	evict := middleware.InvalidateCache(d.Cache, d.Redis, d.Log, "users")

	g.POST("/register", a.Register, limit, evict)
	g.POST("/login", a.Login, limit)
	g.GET("/me", a.Me, middleware.SessionAuth(d.Cfg.JWTSecret, d.Cfg.CookieName))
}
