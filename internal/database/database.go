package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// ErrNotFound is returned when a record does not exist under the caller's
// ownership scope. Handlers map it to 404 regardless of whether the record
// belongs to another user.
var ErrNotFound = errors.New("record not found")

// DB wraps sql.DB with application defaults
type DB struct {
	*sql.DB
}

// New opens a PostgreSQL connection pool and verifies connectivity
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}
