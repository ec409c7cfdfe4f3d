package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/fluent-comments/internal/client"
)

func newPostCmd() *cobra.Command {
	var sub client.Submission

	cmd := &cobra.Command{
		Use:   `post <content_type> <object_pk> "text"`,
		Short: "Post a comment through the Ajax endpoint",
		Long: "Fetch a signed comment form from the server and submit it like a browser would.\n" +
			"With an API key the server fills in your name and email.",
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub.ContentType = args[0]
			sub.ObjectPK = args[1]
			sub.Comment = strings.Join(args[2:], " ")
			return runPost(cmd.Context(), sub)
		},
	}

	cmd.Flags().StringVar(&sub.Name, "name", "", "author name (default: from config)")
	cmd.Flags().StringVar(&sub.Email, "email", "", "author email (default: from config)")
	cmd.Flags().StringVar(&sub.URL, "url", "", "author website")
	cmd.Flags().BoolVar(&sub.Preview, "preview", false, "render the comment without saving it")

	return cmd
}

func runPost(ctx context.Context, sub client.Submission) error {
	if strings.TrimSpace(sub.Comment) == "" {
		return fmt.Errorf("comment text is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg, err := loadConfig(); err == nil {
		if sub.Name == "" {
			sub.Name = cfg.Name
		}
		if sub.Email == "" {
			sub.Email = cfg.Email
		}
	}

	res, err := newAPIClient().Post(ctx, sub)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(res)
	}
	return printResult(res)
}
