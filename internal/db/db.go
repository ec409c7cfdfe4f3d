// Package db opens the SQLite store shared by comments, users and keys.
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is ~/.config/fc/comments.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "fc", "comments.db"), nil
}

// dsn builds a go-sqlite3 connection string. The pragmas are applied to
// every pooled connection, not just the first one.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", "5000")
	return "file:" + path + "?" + q.Encode()
}

// Open opens or creates the database at path and brings its schema up
// to date.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	d, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := d.Ping(); err != nil {
		return nil, closeOnError(d, fmt.Errorf("connecting to %s: %w", path, err))
	}
	if err := migrate(d); err != nil {
		return nil, closeOnError(d, err)
	}
	return d, nil
}

func closeOnError(d *sql.DB, err error) error {
	if cerr := d.Close(); cerr != nil {
		return fmt.Errorf("%w (closing: %v)", err, cerr)
	}
	return err
}
