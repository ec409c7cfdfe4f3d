package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// KeyPrefix starts every raw API key.
const KeyPrefix = "fc_"

// ErrKeyNotFound is returned for unknown or revoked keys.
var ErrKeyNotFound = errors.New("api key not found")

// APIKey is a stored key. The raw key is never kept, only its hash.
type APIKey struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Hint       string     `json:"hint"` // leading characters of the raw key
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// APIKeyStore lets scripts and the CLI comment as a registered email.
type APIKeyStore struct {
	db *sql.DB
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(db *sql.DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Issue creates a key labelled name for email. The raw key is returned
// once and cannot be recovered later.
func (s *APIKeyStore) Issue(ctx context.Context, name, email string) (string, *APIKey, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}
	raw := KeyPrefix + hex.EncodeToString(b)
	key := &APIKey{Name: name, Email: email, Hint: raw[:len(KeyPrefix)+6], CreatedAt: time.Now().UTC()}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO api_keys (name, email, key_prefix, key_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		key.Name, key.Email, key.Hint, digest(raw), key.CreatedAt,
	)
	if err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}
	if key.ID, err = res.LastInsertId(); err != nil {
		return "", nil, fmt.Errorf("reading key id: %w", err)
	}
	return raw, key, nil
}

// List returns the keys owned by email, newest first.
func (s *APIKeyStore) List(ctx context.Context, email string) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, key_prefix, created_at, last_used_at
			FROM api_keys WHERE email = ? ORDER BY id DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.Name, &k.Email, &k.Hint, &k.CreatedAt, &lastUsed); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		if lastUsed.Valid {
			k.LastUsedAt = &lastUsed.Time
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}
	return keys, nil
}

// Revoke deletes key id if email owns it.
func (s *APIKeyStore) Revoke(ctx context.Context, id int64, email string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE id = ? AND email = ?", id, email)
	if err != nil {
		return fmt.Errorf("revoking key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking revoked key: %w", err)
	}
	if n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// Owner returns the email a raw key belongs to and stamps its last use.
func (s *APIKeyStore) Owner(ctx context.Context, raw string) (string, error) {
	hash := digest(raw)

	var email string
	err := s.db.QueryRowContext(ctx, "SELECT email FROM api_keys WHERE key_hash = ?", hash).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up key: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE api_keys SET last_used_at = ? WHERE key_hash = ?", time.Now().UTC(), hash,
	); err != nil {
		return "", fmt.Errorf("stamping key use: %w", err)
	}
	return email, nil
}

func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
