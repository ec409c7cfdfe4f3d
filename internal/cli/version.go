package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/evcraddock/fluent-comments/internal/db"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and database schema information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if isJSON() {
				return printJSON(map[string]interface{}{
					"version": Version,
					"go":      runtime.Version(),
					"schema":  db.SchemaVersion(),
				})
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "fc %s (%s, schema v%d)\n", Version, runtime.Version(), db.SchemaVersion())
			return err
		},
	}
}
