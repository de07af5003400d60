package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dt-pm-tools/jiramd/internal/jira"
	"github.com/dt-pm-tools/jiramd/internal/markdown"
)

var commentMessage string

var commentCmd = &cobra.Command{
	Use:   "comment <issue-key>",
	Short: "Add a markdown comment to a Jira issue",
	Long:  `Converts a markdown comment to ADF and posts it to the issue. Pass the text with -m, or pipe it on stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		issueKey := strings.ToUpper(args[0])

		text := commentMessage
		if text == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = string(data)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("empty comment; pass text with -m or on stdin")
		}

		body, warnings := markdown.ParseWithWarnings(text)
		printWarnings(warnings)

		client := jira.NewClient(appConfig)
		if err := client.AddComment(issueKey, body); err != nil {
			return fmt.Errorf("adding comment to %s: %w", issueKey, err)
		}

		fmt.Fprintf(os.Stderr, "Comment added to %s\n", issueKey)
		return nil
	},
}

func init() {
	commentCmd.Flags().StringVarP(&commentMessage, "message", "m", "", "comment text in markdown")
	rootCmd.AddCommand(commentCmd)
}
