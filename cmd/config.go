package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dt-pm-tools/jiramd/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure Jira connection settings",
	Long:  `Interactively set up Jira URL, email, and API token. Settings are saved to ~/.jiramd.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)

		// Existing values become the prompt defaults.
		existing, _ := config.Load(cfgFile)

		url := prompt(reader, "Jira URL", existing.URL, "https://your-org.atlassian.net")
		email := prompt(reader, "Email", existing.Email, "")

		fmt.Print("API Token (input hidden): ")
		tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
		token := strings.TrimSpace(string(tokenBytes))
		if token == "" {
			token = existing.Token
		}

		cfg := config.Config{URL: url, Email: email, Token: token}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.Save(cfg, path); err != nil {
			return err
		}

		fmt.Printf("Configuration saved to %s\n", path)
		return nil
	},
}

// prompt reads one line, falling back to def when the user just hits enter.
func prompt(reader *bufio.Reader, label, def, example string) string {
	switch {
	case def != "":
		fmt.Printf("%s [%s]: ", label, def)
	case example != "":
		fmt.Printf("%s (e.g., %s): ", label, example)
	default:
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func init() {
	rootCmd.AddCommand(configCmd)
}
