package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "/tmp/taskr")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/taskr", cfg.DataDir)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, ThemeDark, cfg.UI.Theme)
	assert.Equal(t, 600*time.Millisecond, cfg.UI.MentionSettle)
	assert.True(t, cfg.UI.Markdown)
	assert.ErrorIs(t, cfg.RequireAPI(), ErrNoAPI)
	assert.Error(t, cfg.RequireAuth())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.example.com/prod
  timeout: 5s
auth:
  domain: https://auth.example.com
  client_id: abc
  redirect_uri: https://app.example.com/callback.html
ui:
  theme: light
  mention_settle: 250ms
  markdown: false
`)

	cfg, err := Load(path, "/tmp/taskr")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/prod", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, ThemeLight, cfg.UI.Theme)
	assert.Equal(t, 250*time.Millisecond, cfg.UI.MentionSettle)
	assert.False(t, cfg.UI.Markdown)
	assert.Equal(t, "127.0.0.1:8787", cfg.Web.Address)
	assert.NoError(t, cfg.RequireAPI())
	assert.NoError(t, cfg.RequireAuth())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "api:\n  base_url: https://file.example.com\n")
	t.Setenv("TASKR_API_URL", "https://env.example.com")
	t.Setenv("TASKR_THEME", "light")

	cfg, err := Load(path, "/tmp/taskr")
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	assert.Equal(t, ThemeLight, cfg.UI.Theme)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: ftp://example.com
ui:
  theme: sepia
`)

	_, err := Load(path, "/tmp/taskr")
	require.Error(t, err)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	var fields []string
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "api.base_url")
	assert.Contains(t, fields, "ui.theme")
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "api: [unclosed"), "/tmp/taskr")
	assert.ErrorContains(t, err, "parse config file")
}

func TestValidateRequiresDataDir(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorContains(t, cfg.Validate(), "data directory")
}

func TestValidateDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/taskr"
	cfg.UI.MentionSettle = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "cannot be negative")
}
