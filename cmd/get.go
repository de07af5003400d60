package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dt-pm-tools/jiramd/internal/jira"
	"github.com/dt-pm-tools/jiramd/internal/markdown"
)

var outputDir string

var getCmd = &cobra.Command{
	Use:   "get <issue-key>",
	Short: "Fetch a Jira issue and output as markdown",
	Long:  `Fetches a Jira issue by key and converts it to markdown with YAML frontmatter. Writes to stdout by default, or to a file with --output-dir.`,
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

		md, err := markdown.Marshal(issue, appConfig.URL)
		if err != nil {
			return fmt.Errorf("converting to markdown: %w", err)
		}

		if outputDir != "" {
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			filename := filepath.Join(outputDir, issueKey+".md")
			if err := os.WriteFile(filename, []byte(md), 0644); err != nil {
				return fmt.Errorf("writing file: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Written to %s\n", filename)
		} else {
			fmt.Print(md)
		}

		return nil
	},
}

func init() {
	getCmd.Flags().StringVar(&outputDir, "output-dir", "", "write output to <dir>/<KEY>.md instead of stdout")
	rootCmd.AddCommand(getCmd)
}
