package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/fluent-comments/internal/email"
	"github.com/evcraddock/fluent-comments/internal/web"
)

// CLIConfig holds client settings persisted to disk.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`

	// Name and Email sign anonymous comments posted with `fc post`.
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "fc", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	var cfg CLIConfig
	if err := readYAML(path, &cfg); err != nil && !os.IsNotExist(err) {
		return CLIConfig{}, err
	}
	return cfg, nil
}

// saveConfig writes the CLI config to disk.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// readYAML decodes the file at path over v. Keys absent from the file
// leave v untouched. A missing file is returned as-is for os.IsNotExist.
func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// getServerURL returns the server URL from env var, config, or default.
func getServerURL() string {
	if v := os.Getenv("FC_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return "http://localhost:8080"
}

// getAPIKey returns the API key from env var or config.
func getAPIKey() string {
	if v := os.Getenv("FC_API_KEY"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.APIKey
	}
	return ""
}

// serveConfig is the server configuration: environment first, then
// an optional YAML file passed with --config.
type serveConfig struct {
	web.Config `yaml:",inline"`

	LogLevel    string           `yaml:"log_level"`
	ClosedTypes []string         `yaml:"closed_types"`
	Managers    []string         `yaml:"managers"`
	SMTP        email.SMTPConfig `yaml:"smtp"`
}

// loadServeConfig reads FC_* variables and overlays path when set.
func loadServeConfig(path string) (serveConfig, error) {
	cfg := serveConfig{
		Config:      web.ConfigFromEnv(),
		LogLevel:    os.Getenv("FC_LOG_LEVEL"),
		ClosedTypes: web.SplitList(os.Getenv("FC_CLOSED_TYPES")),
		Managers:    web.SplitList(os.Getenv("FC_MANAGERS")),
		SMTP:        email.SMTPConfigFromEnv(),
	}
	if path == "" {
		return cfg, nil
	}
	if err := readYAML(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return serveConfig{}, fmt.Errorf("config file %s not found", path)
		}
		return serveConfig{}, err
	}
	return cfg, nil
}
