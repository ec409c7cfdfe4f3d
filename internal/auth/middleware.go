package auth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	Email string
	User  *User // nil when the email has no user record
}

// Name returns the caller's full name or username, if known.
func (c *Caller) Name() string {
	if c.User == nil {
		return ""
	}
	return c.User.DisplayName()
}

// UserID returns the caller's user ID, or nil when unregistered.
func (c *Caller) UserID() *int64 {
	if c.User == nil {
		return nil
	}
	id := c.User.ID
	return &id
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying the caller.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored by Identify, or nil for anonymous requests.
func CallerFrom(ctx context.Context) *Caller {
	c, _ := ctx.Value(callerKey{}).(*Caller)
	return c
}

// rateLimiter tracks failed API key attempts per IP.
type rateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{attempts: make(map[string][]time.Time)}
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// prune drops attempts outside the window and forgets idle IPs. Caller holds mu.
func (rl *rateLimiter) prune(ip string, now time.Time) []time.Time {
	cutoff := now.Add(-rateLimitWindow)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}

// clientIP strips the source port so every connection from a host shares one budget.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// limited reports whether ip has exceeded the failure budget.
func (rl *rateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip, time.Now())) >= rateLimitMaxFail
}

// recordFailure records a failed attempt.
func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	rl.attempts[ip] = append(rl.prune(ip, now), now)
}

// Identity resolves callers from session cookies or bearer API keys.
type Identity struct {
	sessions *SessionStore
	apiKeys  *APIKeyStore
	users    *UserStore
	limiter  *rateLimiter
}

// NewIdentity creates an identity resolver.
func NewIdentity(sessions *SessionStore, apiKeys *APIKeyStore, users *UserStore) *Identity {
	return &Identity{
		sessions: sessions,
		apiKeys:  apiKeys,
		users:    users,
		limiter:  newRateLimiter(),
	}
}

// Middleware attaches the caller (if any) to the request context.
// Requests without credentials pass through anonymously. A bearer key
// that fails validation gets 401, and 429 once an IP keeps failing.
func (id *Identity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, status := id.resolveEmail(r)
		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		if email == "" {
			next.ServeHTTP(w, r)
			return
		}

		caller := &Caller{Email: email}
		user, err := id.users.GetByEmail(r.Context(), email)
		switch {
		case err == nil:
			caller.User = user
		case errors.Is(err, ErrUserNotFound):
		default:
			slog.Error("resolving caller", "email", email, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// resolveEmail returns the caller email, or a non-zero HTTP status to abort with.
func (id *Identity) resolveEmail(r *http.Request) (string, int) {
	ctx := r.Context()
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		email, err := id.sessions.Email(ctx, r)
		switch {
		case err == nil:
			return email, 0
		case errors.Is(err, ErrNoSession), errors.Is(err, ErrSessionExpired):
		default:
			slog.Error("reading session", "error", err)
		}
		return "", 0
	}

	raw, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return "", http.StatusUnauthorized
	}

	ip := clientIP(r.RemoteAddr)
	if id.limiter.limited(ip) {
		return "", http.StatusTooManyRequests
	}

	email, err := id.apiKeys.Owner(ctx, raw)
	if errors.Is(err, ErrKeyNotFound) {
		id.limiter.recordFailure(ip)
		return "", http.StatusUnauthorized
	}
	if err != nil {
		slog.Error("validating API key", "error", err)
		return "", http.StatusInternalServerError
	}
	return email, 0
}
