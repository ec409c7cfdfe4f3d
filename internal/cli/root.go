// Package cli defines the cobra command tree for fc.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/fluent-comments/internal/client"
	"github.com/evcraddock/fluent-comments/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fc",
		Short:         "Ajax comment posting for any registered object",
		Long:          "Serve an Ajax comment endpoint with preview support, and manage the comments, users and API keys behind it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/fc/comments.db)")

	root.AddCommand(
		newServeCmd(),
		newCommentsCmd(),
		newPostCmd(),
		newPropertyCmd(),
		newUserCmd(),
		newKeyCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag or default path.
func openDB() (*sql.DB, error) {
	path := flagDB
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// withDB opens the database, runs fn and closes it again.
func withDB(fn func(*sql.DB) error) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)
	return fn(database)
}

// newAPIClient creates an HTTP client for the comments server.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
