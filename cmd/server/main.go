package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-orders-api/internal/config"
	"github.com/iliyamo/movie-orders-api/internal/database"
	"github.com/iliyamo/movie-orders-api/internal/logging"
	"github.com/iliyamo/movie-orders-api/internal/middleware"
	"github.com/iliyamo/movie-orders-api/internal/queue"
	"github.com/iliyamo/movie-orders-api/internal/repository"
	"github.com/iliyamo/movie-orders-api/internal/router"
	"github.com/iliyamo/movie-orders-api/internal/service"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DBMigrate {
		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := database.Migrate(mctx, db, cfg.DBDriver)
		cancel()
		if err != nil {
			return err
		}
		log.WithField("driver", cfg.DBDriver).Info("schema migrated")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unreachable; cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}

	// a nil *queue.Publisher must not reach the interface
	var events service.EventPublisher
	if qc := config.LoadQueueConfig(); qc.Enabled {
		events = queue.NewPublisher(qc.URL, log).WithDialTimeout(qc.DialTimeout)
		consumer := queue.NewConsumer(qc.URL, qc.LogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("event consumer stopped")
			}
		}()
	}

	users := repository.NewUserRepo()
	creds := service.NewCredentials(cfg, users, events, log)

	e := newEcho(cfg, log)
	router.Register(e, router.Deps{
		Cfg:       cfg,
		Store:     database.NewProvider(db),
		Creds:     creds,
		Users:     users,
		Events:    events,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Log:       log,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}

func newEcho(cfg config.Config, log logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestLogger(log))
	return e
}
