package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// SessionCookie is the cookie shared with the host site's login flow.
const SessionCookie = "fc_session"

const sessionTTL = 14 * 24 * time.Hour

var (
	// ErrNoSession means the request carries no usable session cookie.
	ErrNoSession = errors.New("no session")
	// ErrSessionExpired means the session existed but is past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// SessionStore reads commenter sessions from the sessions table.
type SessionStore struct {
	db     *sql.DB
	secure bool
}

// NewSessionStore creates a session store. secure marks issued cookies Secure.
func NewSessionStore(db *sql.DB, secure bool) *SessionStore {
	return &SessionStore{db: db, secure: secure}
}

// Start records a session for email and returns the cookie to hand out.
func (s *SessionStore) Start(ctx context.Context, email string) (*http.Cookie, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	id := base64.RawURLEncoding.EncodeToString(b)
	expires := time.Now().Add(sessionTTL).UTC()

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, email, expires_at) VALUES (?, ?, ?)",
		id, email, expires,
	); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	return &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Email returns the address behind the request's session cookie.
// Expired rows are deleted on sight.
func (s *SessionStore) Email(ctx context.Context, r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSession
	}

	var email string
	var expires time.Time
	err = s.db.QueryRowContext(ctx,
		"SELECT email, expires_at FROM sessions WHERE id = ?", cookie.Value,
	).Scan(&email, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("reading session: %w", err)
	}

	if !time.Now().Before(expires) {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", cookie.Value); err != nil {
			return "", fmt.Errorf("dropping expired session: %w", err)
		}
		return "", ErrSessionExpired
	}
	return email, nil
}

// Cleanup deletes expired sessions and reports how many were removed.
func (s *SessionStore) Cleanup(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleaning up sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting removed sessions: %w", err)
	}
	return n, nil
}
