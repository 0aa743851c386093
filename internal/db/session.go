package db

import "database/sql"

// Session keys for identity tokens
const (
	SessionIDToken     = "id_token"
	SessionAccessToken = "access_token"
)

// SetSessionValue stores a session-scoped value
func (db *DB) SetSessionValue(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// GetSessionValue retrieves a session-scoped value, "" when absent
func (db *DB) GetSessionValue(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM session WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// ClearSession drops every session-scoped value
func (db *DB) ClearSession() error {
	_, err := db.Exec("DELETE FROM session")
	return err
}
