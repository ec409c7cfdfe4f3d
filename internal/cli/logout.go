package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API key",
		Long: "Removes the API key from the config file so `fc post` comments anonymously.\n" +
			"With --forget the saved commenter name and email are cleared as well.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(forget)
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "also clear the saved name and email")

	return cmd
}

func runLogout(forget bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	changed := cfg.APIKey != ""
	cfg.APIKey = ""
	if forget && (cfg.Name != "" || cfg.Email != "") {
		cfg.Name, cfg.Email = "", ""
		changed = true
	}
	if !changed {
		fmt.Println("Nothing stored.")
		return nil
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	if forget {
		fmt.Println("✓ API key and commenter identity removed.")
	} else {
		fmt.Println("✓ API key removed. Comments will be posted anonymously.")
	}
	return nil
}
