package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/movie-orders-api/internal/config"
)

// ErrConnect signals that the backing store could not hand out a
// connection.  Handlers map it to 500 without attempting the operation.
var ErrConnect = errors.New("database unavailable")

// Open builds the process-wide handle for the configured driver and
// verifies it with a ping.
func Open(cfg config.Config) (*sql.DB, error) {
	driver := strings.ToLower(cfg.DBDriver)
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case "mysql":
		db, err = sql.Open("mysql", MySQLDSN(cfg))
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(30 * time.Minute)
	case "sqlite":
		db, err = OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.DBDriver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return db, nil
}

// MySQLDSN renders the connection string.  parseTime -> DATETIME as
// time.Time, loc=UTC keeps times consistent, clientFoundRows makes an UPDATE
// that matches a row report it as affected even when no value changed.
func MySQLDSN(cfg config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPass
	mc.Net = "tcp"
	mc.Addr = cfg.DBHost + ":" + cfg.DBPort
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.ClientFoundRows = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// OpenSQLite opens a SQLite database at path (":memory:" for a private
// in-memory store).  The pool is pinned to a single connection that never
// expires so an in-memory database survives between requests.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

// Provider hands out one connection per request.
type Provider struct {
	db *sql.DB
}

func NewProvider(db *sql.DB) *Provider { return &Provider{db: db} }

// Acquire reserves a single connection from the pool and checks it is alive.
// The caller owns the connection and must Close it on every exit path.
func (p *Provider) Acquire(ctx context.Context) (*sql.Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return conn, nil
}

// Ping reports whether the store is reachable; used by the health check.
func (p *Provider) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
