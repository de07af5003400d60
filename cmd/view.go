package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dt-pm-tools/jiramd/internal/jira"
	"github.com/dt-pm-tools/jiramd/internal/markdown"
	"github.com/dt-pm-tools/jiramd/internal/preview"
)

var viewWidth int

var viewCmd = &cobra.Command{
	Use:   "view <issue-key>",
	Short: "Fetch a Jira issue and render it in the terminal",
	Long:  `Fetches a Jira issue by key, converts it to markdown and renders it as styled text at the terminal width. Read-only; nothing is written to disk.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		issueKey := strings.ToUpper(args[0])

		client := jira.NewClient(appConfig)
		issue, err := client.GetIssue(issueKey)
		if err != nil {
			return fmt.Errorf("fetching issue %s: %w", issueKey, err)
		}

		width := viewWidth
		if width <= 0 {
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				width = w
			} else {
				width = 80
			}
		}

		theme := preview.DefaultTheme

		fmt.Printf("%s: %s\n", issue.Key, issue.Fields.Summary)
		fmt.Printf("%s | %s", issue.Fields.IssueType.Name, issue.Fields.Status.Name)
		if issue.Fields.Assignee != nil {
			fmt.Printf(" | %s", issue.Fields.Assignee.DisplayName)
		}
		fmt.Println()
		fmt.Println()

		if issue.Fields.Description != nil {
			body := markdown.Render(issue.Fields.Description, appConfig.URL)
			fmt.Println(preview.Render(body, theme, width))
		} else {
			fmt.Println("(No description)")
		}

		if issue.Fields.Comment != nil {
			for _, c := range issue.Fields.Comment.Comments {
				author := c.Author.DisplayName
				if author == "" {
					author = c.Author.EmailAddress
				}
				fmt.Printf("\n--- %s - %s ---\n\n", author, markdown.FormatDate(c.Created))
				if c.Body != nil {
					body := markdown.Render(c.Body, appConfig.URL)
					fmt.Println(preview.Render(body, theme, width))
				}
			}
		}

		return nil
	},
}

func init() {
	viewCmd.Flags().IntVar(&viewWidth, "width", 0, "render width (default: terminal width)")
	rootCmd.AddCommand(viewCmd)
}
