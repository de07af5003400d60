package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds tracker connection settings.
type Config struct {
	URL   string `yaml:"url"   mapstructure:"url"`
	Email string `yaml:"email" mapstructure:"email"`
	Token string `yaml:"token" mapstructure:"token"`
}

// envOverrides maps config keys to the environment variables that override
// them.
var envOverrides = map[string]string{
	"url":   "JIRA_URL",
	"email": "JIRA_EMAIL",
	"token": "JIRA_TOKEN",
}

// DefaultPath returns the default config file path (~/.jiramd.yaml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jiramd.yaml"
	}
	return filepath.Join(home, ".jiramd.yaml")
}

// Load reads config from the YAML file and applies env var overrides.
// A missing file is not an error so env-only setups work; configPath may
// be empty to use the default path.
func Load(configPath string) (Config, error) {
	if configPath == "" {
		configPath = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	for key, env := range envOverrides {
		v.BindEnv(key, env)
	}

	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return cfg, nil
}

// Validate checks that required fields are present, naming every missing
// one at once.
func (c Config) Validate() error {
	var missing []string
	if c.URL == "" {
		missing = append(missing, "url (JIRA_URL)")
	}
	if c.Email == "" {
		missing = append(missing, "email (JIRA_EMAIL)")
	}
	if c.Token == "" {
		missing = append(missing, "token (JIRA_TOKEN)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Save writes the config to the given path (or default path if empty).
// The file holds an API token, hence the restrictive mode.
func Save(cfg Config, configPath string) error {
	if configPath == "" {
		configPath = DefaultPath()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
