// Package web provides the HTTP server for Ajax comment submission.
package web

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evcraddock/fluent-comments/internal/auth"
	"github.com/evcraddock/fluent-comments/internal/comment"
	"github.com/evcraddock/fluent-comments/internal/contenttype"
	"github.com/evcraddock/fluent-comments/internal/logging"
)

//go:embed templates
var templateFS embed.FS

// Server is the comments HTTP server.
type Server struct {
	cfg       Config
	comments  *comment.Repository
	types     *contenttype.Registry
	listeners *comment.Listeners
	signer    *comment.Signer
	identity  *auth.Identity
	templates *template.Template
	mux       *http.ServeMux
	handler   http.Handler
}

// NewServer creates a server that resolves targets through types and
// notifies listeners around each saved comment.
func NewServer(db *sql.DB, cfg Config, types *contenttype.Registry, listeners *comment.Listeners) (*Server, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key is required")
	}
	if listeners == nil {
		listeners = &comment.Listeners{}
	}

	funcMap := template.FuncMap{
		"linebreaks": tmplLinebreaks,
		"inc":        func(i int) int { return i + 1 },
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS,
		"templates/comments/*.html",
		"templates/*/layout/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	if tmpl.Lookup(cfg.fieldErrorsTemplate()) == nil {
		return nil, fmt.Errorf("unknown template pack %q", cfg.TemplatePack)
	}

	s := &Server{
		cfg:       cfg,
		comments:  comment.NewRepository(db),
		types:     types,
		listeners: listeners,
		signer:    comment.NewSigner([]byte(cfg.SecretKey)),
		identity: auth.NewIdentity(
			auth.NewSessionStore(db, cfg.Auth.SecureCookies),
			auth.NewAPIKeyStore(db),
			auth.NewUserStore(db),
		),
		templates: tmpl,
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("/comments/post/ajax/{$}", s.handlePostCommentAjax)
	s.mux.HandleFunc("GET /comments/form/{$}", s.handleCommentForm)
	s.mux.HandleFunc("GET /comments/list/{$}", s.handleCommentList)
	s.mux.HandleFunc("GET /comments/{id}/{$}", s.handleCommentDetail)

	csrf := http.NewCrossOriginProtection()
	for _, origin := range cfg.TrustedOrigins {
		if err := csrf.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("trusted origin %q: %w", origin, err)
		}
	}

	s.handler = logging.RequestLogger(csrf.Handler(s.identity.Middleware(s.mux)))

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting comments server", "addr", "http://localhost"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// renderString executes a named template into a string.
func (s *Server) renderString(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// render writes a named template as an HTML response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	out, err := s.renderString(name, data)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(out)); err != nil {
		logging.FromContext(r.Context()).Error("writing response", "error", err)
	}
}

// badRequest rejects the request with a plain-text diagnostic.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	logging.FromContext(r.Context()).Warn("bad request", "path", r.URL.Path, "reason", msg)
	http.Error(w, msg, http.StatusBadRequest)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func tmplLinebreaks(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
