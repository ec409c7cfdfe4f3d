package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/fluent-comments/internal/auth"
	"github.com/evcraddock/fluent-comments/internal/client"
)

func newLoginCmd() *cobra.Command {
	var server, name, email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key for posting",
		Long: "Prompts for an API key (created on the server host with `fc key create`),\n" +
			"checks that the server is reachable and saves both to the config file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(loginOptions{server: server, name: name, email: email}, os.Stdin)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or http://localhost:8080)")
	cmd.Flags().StringVar(&name, "name", "", "default commenter name for `fc post`")
	cmd.Flags().StringVar(&email, "email", "", "default commenter email for `fc post`")

	return cmd
}

type loginOptions struct {
	server, name, email string
}

func runLogin(opts loginOptions, in io.Reader) error {
	serverURL := opts.server
	if serverURL == "" {
		serverURL = getServerURL()
	}

	fmt.Print("Paste your API key: ")
	key, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("reading input: %w", err)
	}

	key = strings.TrimSpace(key)
	if err := validateAPIKey(key); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.New(serverURL, key).Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot reach %s: %v\n", serverURL, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.APIKey = key
	if opts.server != "" {
		cfg.ServerURL = opts.server
	}
	if opts.name != "" {
		cfg.Name = opts.name
	}
	if opts.email != "" {
		cfg.Email = opts.email
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println("✓ API key saved. Comments you post will carry your identity.")
	return nil
}

// validateAPIKey checks that the key is non-empty and has the expected prefix.
func validateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("no API key provided")
	}
	if !strings.HasPrefix(key, auth.KeyPrefix) {
		return fmt.Errorf("invalid API key format (should start with %s)", auth.KeyPrefix)
	}
	return nil
}
