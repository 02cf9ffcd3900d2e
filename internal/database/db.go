package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema defines the three tables the service owns. Messages carry
// foreign keys to users on both ends, so inserting a message for an
// unknown party fails at the store and surfaces as a domain error.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username      VARCHAR(50)  NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		first_name    VARCHAR(50)  NOT NULL,
		last_name     VARCHAR(50)  NOT NULL,
		phone         VARCHAR(30)  NOT NULL,
		join_at       DATETIME     NOT NULL,
		last_login_at DATETIME     NOT NULL,
		PRIMARY KEY (username)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		from_username VARCHAR(50)     NOT NULL,
		to_username   VARCHAR(50)     NOT NULL,
		body          TEXT            NOT NULL,
		sent_at       DATETIME        NOT NULL,
		read_at       DATETIME        NULL,
		PRIMARY KEY (id),
		FOREIGN KEY (from_username) REFERENCES users (username),
		FOREIGN KEY (to_username)   REFERENCES users (username)
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username   VARCHAR(50)     NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_refresh_tokens_hash (token_hash),
		FOREIGN KEY (username) REFERENCES users (username)
	)`,
}

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
