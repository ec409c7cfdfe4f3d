package cli

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"regexp"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/fluent-comments/internal/auth"
	"github.com/evcraddock/fluent-comments/internal/client"
	"github.com/evcraddock/fluent-comments/internal/comment"
	"github.com/evcraddock/fluent-comments/internal/property"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printCommentList prints comments in text format.
func printCommentList(comments []*comment.Comment) {
	if len(comments) == 0 {
		fmt.Println("No comments.")
		return
	}

	for _, c := range comments {
		author := c.UserName
		if author == "" {
			author = "anonymous"
		}
		fmt.Printf("[%s] #%d (%s)\n", c.SubmitDate.Local().Format("2006-01-02 15:04"), c.ID, author)
		for _, line := range strings.Split(c.Body, "\n") {
			fmt.Printf("  %s\n", line)
		}
		fmt.Println()
	}
}

// printResult prints a submission envelope in text format.
func printResult(res *client.Result) error {
	switch {
	case !res.Success:
		fmt.Println("Comment not accepted:")
		fields := make([]string, 0, len(res.Errors))
		for field := range res.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Printf("  %s: %s\n", field, stripTags(res.Errors[field]))
		}
		return fmt.Errorf("%d field(s) invalid", len(fields))
	case res.Action == "preview":
		fmt.Println("Preview (not saved):")
	case res.CommentID != nil:
		fmt.Printf("Comment #%d posted.\n", *res.CommentID)
	}
	if res.HTML != nil {
		fmt.Printf("  %s\n", stripTags(*res.HTML))
	}
	return nil
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(props []*property.Property) error {
	if len(props) == 0 {
		fmt.Println("No properties found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tADDRESS\tADDED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, p := range props {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n",
			p.ID, truncate(p.Address, 50), p.CreatedAt.Local().Format("2006-01-02")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d properties\n", len(props))
	return nil
}

// printUserTable prints users as a formatted table.
func printUserTable(users []*auth.User) error {
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tEMAIL\tNAME\tUSERNAME"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, u := range users {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			u.ID, u.Email, orDash(u.Name), orDash(u.Username)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printKeyTable prints API keys as a formatted table.
func printKeyTable(keys []auth.APIKey) error {
	if len(keys) == 0 {
		fmt.Println("No API keys.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tPREFIX\tCREATED\tLAST USED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, k := range keys {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Local().Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s…\t%s\t%s\n",
			k.ID, k.Name, k.Hint, k.CreatedAt.Local().Format("2006-01-02"), lastUsed); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripTags reduces rendered HTML to readable single-line text.
func stripTags(s string) string {
	s = strings.ReplaceAll(s, "<br>", " / ")
	s = html.UnescapeString(tagPattern.ReplaceAllString(s, " "))
	return strings.Join(strings.Fields(s), " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
