package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/fluent-comments/internal/auth"
	"github.com/evcraddock/fluent-comments/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the server and the stored API key",
		Long:  "Calls /health with the stored API key and reports who `fc post` will comment as.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

// Connection states reported by fc status.
const (
	stateConnected     = "connected"
	stateAuthenticated = "authenticated"
	stateBadKey        = "invalid_key"
	stateUnexpected    = "unexpected_response"
	stateUnreachable   = "unreachable"
)

type statusReport struct {
	Server    string `json:"server"`
	KeyHint   string `json:"key_hint,omitempty"`
	Commenter string `json:"commenter,omitempty"`
	State     string `json:"state"`
	Detail    string `json:"detail,omitempty"`
}

func checkStatus(ctx context.Context) statusReport {
	rep := statusReport{Server: getServerURL()}
	apiKey := getAPIKey()
	if apiKey != "" {
		rep.KeyHint = truncate(apiKey, len(auth.KeyPrefix)+6)
	}
	if cfg, err := loadConfig(); err == nil && cfg.Name != "" {
		rep.Commenter = cfg.Name
		if cfg.Email != "" {
			rep.Commenter += " <" + cfg.Email + ">"
		}
	}

	err := client.New(rep.Server, apiKey).Health(ctx)
	var apiErr *client.Error
	switch {
	case err == nil && apiKey == "":
		rep.State = stateConnected
	case err == nil:
		rep.State = stateAuthenticated
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		rep.State = stateBadKey
	case errors.As(err, &apiErr):
		rep.State = stateUnexpected
		rep.Detail = fmt.Sprintf("HTTP %d", apiErr.StatusCode)
	default:
		rep.State = stateUnreachable
		rep.Detail = err.Error()
	}
	return rep
}

func runStatus() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rep := checkStatus(ctx)
	if isJSON() {
		return printJSON(rep)
	}

	fmt.Printf("Server:    %s\n", rep.Server)
	fmt.Printf("API key:   %s\n", orDash(rep.KeyHint))
	fmt.Printf("Commenter: %s\n", orDash(rep.Commenter))
	switch rep.State {
	case stateConnected:
		fmt.Println("Status:    ✓ connected (posting anonymously)")
	case stateAuthenticated:
		fmt.Println("Status:    ✓ connected and authenticated")
	case stateBadKey:
		fmt.Println("Status:    ✗ invalid API key")
		fmt.Println("\nRun 'fc login' with a key from 'fc key create'.")
	default:
		fmt.Printf("Status:    ✗ %s (%s)\n", rep.State, rep.Detail)
	}
	return nil
}
