package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		userID   INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		userName VARCHAR(100) NOT NULL,
		lastName VARCHAR(100) NOT NULL,
		gender   VARCHAR(20)  NOT NULL,
		age      INT          NOT NULL,
		emailAdd VARCHAR(255) NOT NULL,
		userPass VARCHAR(255) NOT NULL,
		UNIQUE KEY uq_users_email (emailAdd)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS movies (
		movieID      INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_poster VARCHAR(512),
		movie_title  VARCHAR(255) NOT NULL,
		release_year INT,
		rating       DECIMAL(3,1),
		duration     VARCHAR(50),
		discription  TEXT,
		star         VARCHAR(255)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		orderID INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		price   DECIMAL(10,2) NOT NULL,
		userID  INT UNSIGNED  NOT NULL,
		movieID INT UNSIGNED  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		userID   INTEGER PRIMARY KEY AUTOINCREMENT,
		userName TEXT NOT NULL,
		lastName TEXT NOT NULL,
		gender   TEXT NOT NULL,
		age      INTEGER NOT NULL,
		emailAdd TEXT NOT NULL UNIQUE,
		userPass TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS movies (
		movieID      INTEGER PRIMARY KEY AUTOINCREMENT,
		movie_poster TEXT,
		movie_title  TEXT NOT NULL,
		release_year INTEGER,
		rating       REAL,
		duration     TEXT,
		discription  TEXT,
		star         TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		orderID INTEGER PRIMARY KEY AUTOINCREMENT,
		price   REAL NOT NULL,
		userID  INTEGER NOT NULL,
		movieID INTEGER NOT NULL
	)`,
}

// Migrate creates the users, movies and orders tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "mysql":
		stmts = mysqlSchema
	case "sqlite":
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
