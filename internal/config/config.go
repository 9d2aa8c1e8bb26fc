package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  A Config is built once at startup and passed by
// value to the constructors that need it; nothing reads the environment
// after Load returns.
type Config struct {
	Env         string        `envconfig:"APP_ENV" default:"dev"`             // application environment (dev, test, prod)
	Port        string        `envconfig:"APP_PORT" required:"true"`          // HTTP port to listen on
	APIPrefix   string        `envconfig:"API_PREFIX" default:"/api"`         // path prefix for resource routes
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	DBDriver    string        `envconfig:"DB_DRIVER" default:"mysql"`         // mysql or sqlite
	DBHost      string        `envconfig:"DB_HOST"`
	DBUser      string        `envconfig:"DB_USER"`
	DBPass      string        `envconfig:"DB_PASSWORD"`                       // empty allowed
	DBName      string        `envconfig:"DB_NAME"`
	DBPort      string        `envconfig:"DB_PORT" default:"3306"`
	DBPath      string        `envconfig:"DB_PATH" default:"movie-orders.db"` // sqlite file
	DBMigrate   bool          `envconfig:"DB_MIGRATE" default:"false"`
	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	CookieName  string        `envconfig:"SESSION_COOKIE" default:"newUser"`
	BcryptCost  int           `envconfig:"BCRYPT_COST" default:"12"`
	CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load reads an optional .env file, then parses the environment into a
// Config.  Missing or invalid values cause the program to exit with a fatal
// log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: could not read .env: %v", err)
	}
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse builds a Config from the current environment without touching .env.
func Parse() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c Config) Validate() error {
	// envconfig accepts a variable that is set but empty
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	switch strings.ToLower(c.DBDriver) {
	case "mysql":
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return errors.New("DB_HOST, DB_USER and DB_NAME are required for mysql")
		}
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost)
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("API_PREFIX must start with '/': %q", c.APIPrefix)
	}
	return nil
}
