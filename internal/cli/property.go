package cli

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/fluent-comments/internal/property"
)

func newPropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "Manage properties that can be commented on",
		Long:  "Properties are the demo " + property.ContentType + " target type.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <address>",
			Short: "Add a property",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runPropertyAdd,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List properties",
			Args:  cobra.NoArgs,
			RunE:  runPropertyList,
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Remove a property",
			Args:  cobra.ExactArgs(1),
			RunE:  runPropertyRemove,
		},
	)

	return cmd
}

func runPropertyAdd(cmd *cobra.Command, args []string) error {
	address := strings.TrimSpace(strings.Join(args, " "))
	if address == "" {
		return fmt.Errorf("address is required")
	}

	return withDB(func(database *sql.DB) error {
		p, err := property.NewRepository(database).Insert(context.Background(), address)
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(p)
		}
		fmt.Printf("Property #%d added: %s\n", p.ID, p.Address)
		return nil
	})
}

func runPropertyList(cmd *cobra.Command, args []string) error {
	return withDB(func(database *sql.DB) error {
		props, err := property.NewRepository(database).List(context.Background())
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(props)
		}
		return printPropertyTable(props)
	})
}

func runPropertyRemove(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid property ID: %s", args[0])
	}

	return withDB(func(database *sql.DB) error {
		if err := property.NewRepository(database).Delete(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("Property #%d removed.\n", id)
		return nil
	})
}
