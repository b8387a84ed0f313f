package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading via Viper.
//
// Create with [NewLoader], then call [Loader.Load] or [Loader.LoadFromFile].
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration [Loader] with environment variable
// support configured.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("JIRAFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind the connection settings explicitly so the documented variable
	// names work regardless of key nesting.
	v.BindEnv("jira.base_url", "JIRAFLOW_JIRA_URL")
	v.BindEnv("jira.username", "JIRAFLOW_JIRA_USERNAME")
	v.BindEnv("jira.token", "JIRAFLOW_JIRA_TOKEN")

	// Scalar defaults registered with viper so bound env values are
	// visible to Unmarshal. Structured defaults come from DefaultConfig.
	v.SetDefault("jira.base_url", "")
	v.SetDefault("jira.username", "")
	v.SetDefault("jira.token", "")

	return &Loader{v: v}
}

// Load reads configuration from the standard locations.
//
// Priority: JIRAFLOW_CONFIG_PATH, then the user config directory, then
// ./jiraflow.yaml; a missing file is not an error, defaults apply.
// Environment variables override file values either way.
func (l *Loader) Load() (*Config, error) {
	if path := os.Getenv("JIRAFLOW_CONFIG_PATH"); path != "" {
		return l.LoadFromFile(path)
	}

	l.v.SetConfigName("jiraflow")
	l.v.SetConfigType("yaml")
	if dir, err := ConfigDir(); err == nil {
		l.v.AddConfigPath(dir)
	}
	l.v.AddConfigPath(".")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshal()
}

// LoadFromFile reads configuration from an explicit path. The file must
// exist.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return l.unmarshal()
}

// MustLoad loads configuration from the standard locations, panicking on
// failure. Intended for command wiring where a broken config file should
// abort immediately.
func MustLoad() *Config {
	cfg, err := NewLoader().Load()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// unmarshal overlays whatever viper read onto the defaults. Keys absent
// from the file and environment keep their default values.
func (l *Loader) unmarshal() (*Config, error) {
	cfg := DefaultConfig()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

// ConfigDir returns the platform-standard jiraflow configuration directory.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(base, "jiraflow"), nil
}

// DefaultConfigPath returns the full path of the user-level config file.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "jiraflow.yaml"), nil
}

// EnsureConfigDir creates the configuration directory if it does not exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
