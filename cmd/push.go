package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dt-pm-tools/jiramd/internal/jira"
	"github.com/dt-pm-tools/jiramd/internal/markdown"
)

var (
	pushFile   string
	pushDryRun bool
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push only the document body back to Jira (description field)",
	Long: `Reads a markdown file with YAML frontmatter and pushes ONLY the body content
back to the Jira issue's description field. Title, labels, status, and other
metadata in the frontmatter are NOT pushed — they are read-only context.

Use --dry-run to preview the ADF output without applying.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pushFile == "" {
			return fmt.Errorf("--file (-f) is required")
		}

		if err := loadConfig(); err != nil {
			return err
		}

		content, err := os.ReadFile(pushFile)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		ticket, err := markdown.Unmarshal(string(content))
		if err != nil {
			return fmt.Errorf("parsing markdown: %w", err)
		}

		adf, warnings := markdown.ParseWithWarnings(ticket.Body)
		printWarnings(warnings)

		client := jira.NewClient(appConfig)

		// Conflict check: compare updated timestamps.
		if ticket.Updated != "" {
			current, err := client.GetIssue(ticket.Key)
			if err != nil {
				return fmt.Errorf("checking for conflicts on %s: %w", ticket.Key, err)
			}
			if remote := currentUpdated(current); remote != "" && ticket.Updated != remote {
				return conflictError(ticket.Key, ticket.Updated, remote)
			}
		}

		if pushDryRun {
			fmt.Fprintf(os.Stderr, "Dry run: would push body to %s\n\n", ticket.Key)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(adf); err != nil {
				return fmt.Errorf("encoding ADF: %w", err)
			}
			return nil
		}

		payload := jira.UpdatePayload{
			Fields: jira.UpdateFields{
				Description: adf,
			},
		}
		if err := client.UpdateIssue(ticket.Key, payload); err != nil {
			return fmt.Errorf("pushing body to %s: %w", ticket.Key, err)
		}

		fmt.Fprintf(os.Stderr, "Pushed body to %s\n", ticket.Key)
		return nil
	},
}

// currentUpdated reduces the remote timestamp to the same plain-date form
// the frontmatter carries.
func currentUpdated(issue *jira.Issue) string {
	if issue.Fields.Updated == "" {
		return ""
	}
	return markdown.FormatDate(issue.Fields.Updated)
}

func conflictError(key, local, remote string) error {
	return fmt.Errorf("conflict: %s was modified in Jira since your last pull.\n  Local:  %s\n  Jira:   %s\nRe-pull the ticket before pushing.", key, local, remote)
}

func init() {
	pushCmd.Flags().StringVarP(&pushFile, "file", "f", "", "markdown file to push (required)")
	pushCmd.Flags().BoolVar(&pushDryRun, "dry-run", false, "preview ADF output without pushing")
	rootCmd.AddCommand(pushCmd)
}
