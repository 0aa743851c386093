package config

import (
	"fmt"
	"net/url"

	"github.com/hay-kot/criterio"
)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	return criterio.ValidateStruct(
		criterio.Run("api.base_url", c.API.BaseURL, isHTTPURL),
		criterio.Run("auth.domain", c.Auth.Domain, isHTTPURL),
		criterio.Run("auth.redirect_uri", c.Auth.RedirectURI, isHTTPURL),
		criterio.Run("auth.logout_uri", c.Auth.LogoutURI, isHTTPURL),
		criterio.Run("ui.theme", c.UI.Theme, isTheme),
		c.validateDurations(),
	)
}

func (c *Config) validateDurations() error {
	var errs criterio.FieldErrorsBuilder
	if c.API.Timeout < 0 {
		errs = errs.Append("api.timeout", fmt.Errorf("must be positive, got %s", c.API.Timeout))
	}
	if c.UI.MentionSettle < 0 {
		errs = errs.Append("ui.mention_settle", fmt.Errorf("cannot be negative, got %s", c.UI.MentionSettle))
	}
	return errs.ToError()
}

// isHTTPURL validates an optional absolute http(s) URL.
func isHTTPURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host, got %q", raw)
	}
	return nil
}

// isTheme validates a theme name.
func isTheme(name string) error {
	switch name {
	case ThemeDark, ThemeLight:
		return nil
	default:
		return fmt.Errorf("unknown theme %q (want %s or %s)", name, ThemeDark, ThemeLight)
	}
}
