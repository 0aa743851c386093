package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestSettingsRoundTrip(t *testing.T) {
	database := openTestDB(t)

	v, err := database.GetSetting(SettingTheme)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, database.SetSetting(SettingTheme, "light"))
	require.NoError(t, database.SetSetting(SettingTheme, "dark"))

	v, err = database.GetSetting(SettingTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	require.NoError(t, database.DeleteSetting(SettingTheme))
	v, err = database.GetSetting(SettingTheme)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestClearSessionKeepsSettings(t *testing.T) {
	database := openTestDB(t)

	require.NoError(t, database.SetSetting(SettingTheme, "light"))
	require.NoError(t, database.SetSessionValue(SessionIDToken, "id"))
	require.NoError(t, database.SetSessionValue(SessionAccessToken, "access"))

	require.NoError(t, database.ClearSession())

	v, err := database.GetSessionValue(SessionIDToken)
	require.NoError(t, err)
	assert.Empty(t, v)

	theme, err := database.GetSetting(SettingTheme)
	require.NoError(t, err)
	assert.Equal(t, "light", theme)
}
