package db

import (
	"database/sql"
	"fmt"
)

// schema holds one entry per schema version. PRAGMA user_version records
// how many have been applied; append new steps, never edit old ones.
var schema = [][]string{
	{
		`CREATE TABLE users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			email      TEXT    NOT NULL UNIQUE,
			name       TEXT    NOT NULL DEFAULT '',
			username   TEXT    NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE comments (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			content_type TEXT    NOT NULL,
			object_pk    TEXT    NOT NULL,
			user_id      INTEGER REFERENCES users(id) ON DELETE SET NULL,
			user_name    TEXT    NOT NULL DEFAULT '',
			user_email   TEXT    NOT NULL DEFAULT '',
			user_url     TEXT    NOT NULL DEFAULT '',
			comment      TEXT    NOT NULL,
			ip_address   TEXT,
			is_public    INTEGER NOT NULL DEFAULT 1,
			is_removed   INTEGER NOT NULL DEFAULT 0,
			submit_date  DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX idx_comments_target ON comments (content_type, object_pk, submit_date)`,
		`CREATE TABLE sessions (
			id         TEXT     PRIMARY KEY,
			email      TEXT     NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE api_keys (
			id           INTEGER  PRIMARY KEY AUTOINCREMENT,
			name         TEXT     NOT NULL,
			email        TEXT     NOT NULL,
			key_prefix   TEXT     NOT NULL,
			key_hash     TEXT     NOT NULL UNIQUE,
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_used_at DATETIME
		)`,
	},
	{
		// Demo target for listings.property comments.
		`CREATE TABLE properties (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			address    TEXT    NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	},
}

// SchemaVersion is the version Open migrates to.
func SchemaVersion() int { return len(schema) }

func migrate(d *sql.DB) error {
	var version int
	if err := d.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > len(schema) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", version, len(schema))
	}

	for v := version; v < len(schema); v++ {
		if err := applyStep(d, v+1, schema[v]); err != nil {
			return fmt.Errorf("migrating to version %d: %w", v+1, err)
		}
	}
	return nil
}

func applyStep(d *sql.DB, version int, stmts []string) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
