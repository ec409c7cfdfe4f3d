package cli

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/fluent-comments/internal/auth"
	"github.com/evcraddock/fluent-comments/internal/comment"
	"github.com/evcraddock/fluent-comments/internal/contenttype"
	"github.com/evcraddock/fluent-comments/internal/email"
	"github.com/evcraddock/fluent-comments/internal/logging"
	"github.com/evcraddock/fluent-comments/internal/property"
	"github.com/evcraddock/fluent-comments/internal/web"
)

const sessionCleanupInterval = time.Hour

func newServeCmd() *cobra.Command {
	var (
		port       int
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the comments server",
		Long:  "Start an HTTP server that accepts Ajax comment submissions and renders comment forms.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, configFile)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	cmd.Flags().StringVar(&configFile, "config", "", "YAML file overriding FC_* settings")

	return cmd
}

func runServe(ctx context.Context, port int, configFile string) error {
	cfg, err := loadServeConfig(configFile)
	if err != nil {
		return err
	}

	if err := logging.Setup(os.Stdout, cfg.Auth.DevMode, cfg.LogLevel); err != nil {
		return err
	}

	if cfg.SecretKey == "" {
		if !cfg.Auth.DevMode {
			return errors.New("FC_SECRET_KEY is required (or set FC_DEV_MODE=true)")
		}
		cfg.SecretKey, err = randomSecret()
		if err != nil {
			return err
		}
		slog.Warn("no secret key configured, using a random one; forms will not survive a restart")
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	types := newRegistry(database)
	srv, err := web.NewServer(database, cfg.Config, types, newListeners(cfg))
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cleanupSessions(ctx, auth.NewSessionStore(database, cfg.Auth.SecureCookies))

	slog.Info("comment target types", "types", types.Types())
	if err := srv.ListenAndServe(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// newRegistry registers every commentable type.
func newRegistry(database *sql.DB) *contenttype.Registry {
	types := contenttype.NewRegistry()
	property.NewRepository(database).Register(types)
	return types
}

// newListeners assembles the save listeners from configuration.
func newListeners(cfg serveConfig) *comment.Listeners {
	listeners := &comment.Listeners{}
	if len(cfg.ClosedTypes) > 0 {
		listeners.OnBeforeSave(comment.NewClosedTypes(cfg.ClosedTypes...))
	}
	listeners.OnAfterSave(comment.LogListener{})
	if cfg.SMTP.IsConfigured() && len(cfg.Managers) > 0 {
		listeners.OnAfterSave(email.NewNotifier(cfg.SMTP, cfg.Managers, cfg.Auth.BaseURL))
	}
	return listeners
}

func cleanupSessions(ctx context.Context, sessions *auth.SessionStore) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		removed, err := sessions.Cleanup(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			slog.Error("cleaning up sessions", "error", err)
		case removed > 0:
			slog.Debug("expired sessions removed", "count", removed)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
