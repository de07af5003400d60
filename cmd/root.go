package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dt-pm-tools/jiramd/internal/config"
)

var (
	cfgFile   string
	appConfig config.Config
	version   = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:     "jiramd",
	Short:   "Jira <-> Markdown bidirectional sync tool",
	Long:    `A CLI tool for pulling Jira tickets to markdown and pushing markdown changes back to Jira. Keeps Jira access under explicit human control.`,
	Version: version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.jiramd.yaml)")
}

// loadConfig loads and validates configuration. Commands that need Jira access call this.
func loadConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w\nRun 'jiramd config' to set up credentials", err)
	}
	appConfig = cfg
	return nil
}

// printWarnings reports conversion warnings on stderr. Warnings never block
// a push; the converted document is still valid, just degraded.
func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}
