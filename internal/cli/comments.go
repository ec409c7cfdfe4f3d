package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/fluent-comments/internal/comment"
)

func newCommentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments <content_type> <object_pk>",
		Short: "List comments on an object",
		Long:  "List the public comments on an object, oldest first, e.g. `fc comments listings.property 3`.",
		Args:  cobra.ExactArgs(2),
		RunE:  runComments,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommentRemove,
	})

	return cmd
}

func runComments(cmd *cobra.Command, args []string) error {
	return withDB(func(database *sql.DB) error {
		target, err := newRegistry(database).Lookup(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		comments, err := comment.NewRepository(database).ListForTarget(cmd.Context(), target.ContentType, target.PK())
		if err != nil {
			return err
		}

		if isJSON() {
			return printJSON(comments)
		}

		fmt.Printf("Comments on %s (%s #%s):\n\n", target, target.ContentType, target.PK())
		printCommentList(comments)
		return nil
	})
}

func runCommentRemove(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid comment ID: %s", args[0])
	}

	return withDB(func(database *sql.DB) error {
		err := comment.NewRepository(database).Delete(context.Background(), id)
		if errors.Is(err, comment.ErrNotFound) {
			return fmt.Errorf("comment #%d not found", id)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Comment #%d removed.\n", id)
		return nil
	})
}
