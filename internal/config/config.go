// Package config handles configuration loading and validation for taskr.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Theme names
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// ErrNoAPI is returned when a command needs the API but no base URL is set
var ErrNoAPI = errors.New("api.base_url is not configured (set it in the config file or TASKR_API_URL)")

// Config holds the application configuration.
type Config struct {
	API     APIConfig  `yaml:"api"`
	Auth    AuthConfig `yaml:"auth"`
	UI      UIConfig   `yaml:"ui"`
	Web     WebConfig  `yaml:"web"`
	DataDir string     `yaml:"-"` // set by caller, not from config file
}

// APIConfig locates the task tracker API
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"TASKR_API_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TASKR_API_TIMEOUT"`
}

// AuthConfig describes the identity provider's hosted login
type AuthConfig struct {
	Domain      string `yaml:"domain" env:"TASKR_AUTH_DOMAIN"`
	ClientID    string `yaml:"client_id" env:"TASKR_AUTH_CLIENT_ID"`
	RedirectURI string `yaml:"redirect_uri" env:"TASKR_AUTH_REDIRECT_URI"`
	LogoutURI   string `yaml:"logout_uri" env:"TASKR_AUTH_LOGOUT_URI"`
}

// UIConfig tunes the terminal UI
type UIConfig struct {
	Theme         string        `yaml:"theme" env:"TASKR_THEME"`
	MentionSettle time.Duration `yaml:"mention_settle" env:"TASKR_MENTION_SETTLE"`
	Markdown      bool          `yaml:"markdown" env:"TASKR_MARKDOWN"`
}

// WebConfig configures the preview server
type WebConfig struct {
	Address string `yaml:"address" env:"TASKR_WEB_ADDR"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		UI: UIConfig{
			Theme:         ThemeDark,
			MentionSettle: 600 * time.Millisecond,
			Markdown:      true,
		},
		Web: WebConfig{
			Address: "127.0.0.1:8787",
		},
	}
}

// Load reads configuration from the given path, overlays TASKR_* environment
// variables and sets the data directory. A missing file yields defaults.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.DataDir = dataDir

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Web.Address == "" {
		c.Web.Address = defaults.Web.Address
	}
}

// RequireAPI reports ErrNoAPI when no base URL is configured
func (c *Config) RequireAPI() error {
	if c.API.BaseURL == "" {
		return ErrNoAPI
	}
	return nil
}

// RequireAuth reports which identity provider settings are missing
func (c *Config) RequireAuth() error {
	if c.Auth.Domain == "" || c.Auth.ClientID == "" || c.Auth.RedirectURI == "" {
		return errors.New("auth.domain, auth.client_id and auth.redirect_uri must be configured to log in")
	}
	return nil
}
