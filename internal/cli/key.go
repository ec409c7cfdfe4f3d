package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/fluent-comments/internal/auth"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage API keys",
		Long:  "API keys let scripts and `fc post` comment as a known user.",
	}

	var email string
	cmd.PersistentFlags().StringVar(&email, "email", "", "owner of the keys (required)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create an API key and print it once",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runKeyCreate(args[0], email)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List API keys",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runKeyList(email)
			},
		},
		&cobra.Command{
			Use:   "revoke <id>",
			Short: "Revoke an API key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runKeyRevoke(args[0], email)
			},
		},
	)

	return cmd
}

func runKeyCreate(name, email string) error {
	if email == "" {
		return errors.New("--email is required")
	}
	return withDB(func(database *sql.DB) error {
		if _, err := auth.NewUserStore(database).GetByEmail(context.Background(), email); err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return fmt.Errorf("no user with email %s (add one with `fc user add`)", email)
			}
			return err
		}

		raw, key, err := auth.NewAPIKeyStore(database).Issue(context.Background(), name, email)
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(map[string]interface{}{"key": raw, "id": key.ID, "name": key.Name})
		}
		fmt.Printf("API key #%d created for %s:\n\n  %s\n\nStore it now; it cannot be shown again.\n", key.ID, email, raw)
		return nil
	})
}

func runKeyList(email string) error {
	if email == "" {
		return errors.New("--email is required")
	}
	return withDB(func(database *sql.DB) error {
		keys, err := auth.NewAPIKeyStore(database).List(context.Background(), email)
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(keys)
		}
		return printKeyTable(keys)
	})
}

func runKeyRevoke(arg, email string) error {
	if email == "" {
		return errors.New("--email is required")
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid key ID: %s", arg)
	}
	return withDB(func(database *sql.DB) error {
		if err := auth.NewAPIKeyStore(database).Revoke(context.Background(), id, email); err != nil {
			if errors.Is(err, auth.ErrKeyNotFound) {
				return fmt.Errorf("no key #%d for %s", id, email)
			}
			return err
		}
		fmt.Printf("API key #%d revoked.\n", id)
		return nil
	})
}
