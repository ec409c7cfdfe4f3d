package cli

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/fluent-comments/internal/auth"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage known users",
		Long:  "Users give authenticated commenters a name, email and user ID.",
	}

	var name, username string
	add := &cobra.Command{
		Use:   "add <email>",
		Short: "Add a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(args[0], name, username)
		},
	}
	add.Flags().StringVar(&name, "name", "", "full name")
	add.Flags().StringVar(&username, "username", "", "username, shown when there is no full name")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "list",
			Short: "List users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runUserList()
			},
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Remove a user; their comments are kept",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runUserRemove(args[0])
			},
		},
	)

	return cmd
}

func runUserAdd(email, name, username string) error {
	return withDB(func(database *sql.DB) error {
		u, err := auth.NewUserStore(database).Add(context.Background(), email, name, username)
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(u)
		}
		fmt.Printf("User #%d added: %s\n", u.ID, u.Email)
		return nil
	})
}

func runUserList() error {
	return withDB(func(database *sql.DB) error {
		users, err := auth.NewUserStore(database).List(context.Background())
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(users)
		}
		return printUserTable(users)
	})
}

func runUserRemove(arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user ID: %s", arg)
	}
	return withDB(func(database *sql.DB) error {
		if err := auth.NewUserStore(database).Delete(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("User #%d removed.\n", id)
		return nil
	})
}
