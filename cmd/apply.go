package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dt-pm-tools/jiramd/internal/jira"
	"github.com/dt-pm-tools/jiramd/internal/markdown"
)

var (
	applyFile string
	dryRun    bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Push markdown changes back to Jira",
	Long:  `Reads a markdown file with YAML frontmatter, compares it to the current Jira state, and applies changes. Use --dry-run to preview without applying.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if applyFile == "" {
			return fmt.Errorf("--file (-f) is required")
		}

		if err := loadConfig(); err != nil {
			return err
		}

		content, err := os.ReadFile(applyFile)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		ticket, err := markdown.Unmarshal(string(content))
		if err != nil {
			return fmt.Errorf("parsing markdown: %w", err)
		}

		client := jira.NewClient(appConfig)

		current, err := client.GetIssue(ticket.Key)
		if err != nil {
			return fmt.Errorf("fetching current state of %s: %w", ticket.Key, err)
		}

		if remote := currentUpdated(current); ticket.Updated != "" && remote != "" && ticket.Updated != remote {
			return conflictError(ticket.Key, ticket.Updated, remote)
		}

		payload, warnings, err := markdown.ToUpdatePayload(ticket)
		if err != nil {
			return fmt.Errorf("building update payload: %w", err)
		}
		printWarnings(warnings)

		changes := computeChanges(current, ticket, payload)
		if len(changes) == 0 {
			fmt.Println("No changes detected.")
			return nil
		}

		fmt.Printf("Changes to %s:\n", ticket.Key)
		for _, change := range changes {
			fmt.Printf("  %s\n", change)
		}
		fmt.Println()

		if dryRun {
			fmt.Println("(dry run - no changes applied)")
			return nil
		}

		hasFieldChanges := payload.Fields.Summary != current.Fields.Summary ||
			!labelsEqual(payload.Fields.Labels, current.Fields.Labels) ||
			payload.Fields.Description != nil

		if hasFieldChanges {
			if err := client.UpdateIssue(ticket.Key, *payload); err != nil {
				return fmt.Errorf("updating issue: %w", err)
			}
			fmt.Printf("Updated fields for %s\n", ticket.Key)
		}

		if ticket.Status != "" && !strings.EqualFold(ticket.Status, current.Fields.Status.Name) {
			if err := transitionIssue(client, ticket.Key, ticket.Status); err != nil {
				return fmt.Errorf("transitioning status: %w", err)
			}
			fmt.Printf("Transitioned %s to '%s'\n", ticket.Key, ticket.Status)
		}

		fmt.Println("Done.")
		return nil
	},
}

func computeChanges(current *jira.Issue, ticket *markdown.Ticket, payload *jira.UpdatePayload) []string {
	var changes []string

	if payload.Fields.Summary != current.Fields.Summary {
		changes = append(changes, fmt.Sprintf("title: %q -> %q", current.Fields.Summary, payload.Fields.Summary))
	}
	if !labelsEqual(payload.Fields.Labels, current.Fields.Labels) {
		changes = append(changes, fmt.Sprintf("labels: %v -> %v", current.Fields.Labels, payload.Fields.Labels))
	}
	// Description changes are not diffed node by node; just note the update.
	if payload.Fields.Description != nil {
		changes = append(changes, "description: (updated)")
	}
	if ticket.Status != "" && !strings.EqualFold(ticket.Status, current.Fields.Status.Name) {
		changes = append(changes, fmt.Sprintf("status: %q -> %q", current.Fields.Status.Name, ticket.Status))
	}

	return changes
}

func labelsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}

func transitionIssue(client *jira.Client, key string, targetStatus string) error {
	transitions, err := client.GetTransitions(key)
	if err != nil {
		return fmt.Errorf("fetching transitions: %w", err)
	}

	for _, t := range transitions {
		if strings.EqualFold(t.To.Name, targetStatus) || strings.EqualFold(t.Name, targetStatus) {
			return client.DoTransition(key, t.ID)
		}
	}

	var available []string
	for _, t := range transitions {
		available = append(available, fmt.Sprintf("'%s' (-> %s)", t.Name, t.To.Name))
	}
	return fmt.Errorf("no transition found to status %q; available transitions: %s",
		targetStatus, strings.Join(available, ", "))
}

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "markdown file to apply (required)")
	applyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview changes without applying")
	rootCmd.AddCommand(applyCmd)
}
