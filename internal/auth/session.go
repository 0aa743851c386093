// Package auth holds the signed-in session: the access token, its decoded
// claims, and the forced-logout path taken when the API rejects the token.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tgienger/taskr/internal/db"
	"github.com/tgienger/taskr/internal/models"
)

var (
	// ErrNotLoggedIn is returned when no usable access token is stored
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrSessionExpired is returned once the session has been forced out
	ErrSessionExpired = errors.New("session expired, please login again")
)

// AdminGroup is the identity-provider group that grants admin rights
const AdminGroup = "admin"

// Claims are the fields read from the access token payload
type Claims struct {
	Sub             string   `json:"sub"`
	Username        string   `json:"username"`
	CognitoUsername string   `json:"cognito:username"`
	Email           string   `json:"email"`
	Groups          []string `json:"cognito:groups"`
	Exp             int64    `json:"exp"`
}

// Name returns the best display name available in the claims
func (c Claims) Name() string {
	for _, v := range []string{c.Username, c.CognitoUsername, c.Email} {
		if v != "" {
			return v
		}
	}
	return "unknown"
}

// IsAdmin reports membership in the admin group
func (c Claims) IsAdmin() bool {
	return slices.Contains(c.Groups, AdminGroup)
}

// Expired reports whether the token's exp claim is in the past. Tokens
// without exp never expire client-side; the API decides.
func (c Claims) Expired(now time.Time) bool {
	return c.Exp > 0 && now.Unix() >= c.Exp
}

// DecodeClaims reads the payload segment of a JWT without verifying it.
// Verification is the API's job; the client only needs display fields.
func DecodeClaims(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("malformed token: expected 3 segments, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, fmt.Errorf("decode token payload: %w", err)
	}

	var c Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return Claims{}, fmt.Errorf("parse token claims: %w", err)
	}
	return c, nil
}

// TokenStore persists tokens between runs. *db.DB implements it.
type TokenStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
	SetSessionValue(key, value string) error
	ClearSession() error
}

// Session is the explicit session context threaded through the API client
// and renderers.
type Session struct {
	store  TokenStore
	token  string
	claims Claims

	mu        sync.Mutex
	loggedOut bool
	onLogout  []func()
}

// New builds a session from a raw access token. store may be nil, in which
// case nothing is persisted.
func New(store TokenStore, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	claims, err := DecodeClaims(token)
	if err != nil {
		return nil, err
	}
	return &Session{store: store, token: token, claims: claims}, nil
}

// Open restores the session saved by a previous login
func Open(store TokenStore) (*Session, error) {
	token, err := store.GetSetting(db.SettingAccessToken)
	if err != nil {
		return nil, fmt.Errorf("read access token: %w", err)
	}
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	s, err := New(store, token)
	if err != nil {
		return nil, err
	}
	if s.claims.Expired(time.Now()) {
		_ = s.Logout()
		return nil, ErrSessionExpired
	}
	return s, nil
}

// Login persists the tokens delivered by the identity provider. The access
// token is durable; the identity token is session-scoped.
func Login(store TokenStore, tokens Tokens) (*Session, error) {
	s, err := New(store, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return s, nil
	}

	if err := store.SetSessionValue(db.SessionIDToken, tokens.IDToken); err != nil {
		return nil, fmt.Errorf("store id token: %w", err)
	}
	if err := store.SetSessionValue(db.SessionAccessToken, tokens.AccessToken); err != nil {
		return nil, fmt.Errorf("store access token: %w", err)
	}
	if err := store.SetSetting(db.SettingAccessToken, tokens.AccessToken); err != nil {
		return nil, fmt.Errorf("store access token: %w", err)
	}
	return s, nil
}

// Token returns the bearer token
func (s *Session) Token() string {
	return s.token
}

// Claims returns the decoded token claims
func (s *Session) Claims() Claims {
	return s.claims
}

// Viewer returns the identity used for permission and display checks
func (s *Session) Viewer() models.Viewer {
	return models.Viewer{
		Sub:   s.claims.Sub,
		Name:  s.claims.Name(),
		Admin: s.claims.IsAdmin(),
	}
}

// OnLogout registers fn to run after the session ends
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// LoggedOut reports whether the session has ended
func (s *Session) LoggedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedOut
}

// Logout clears stored tokens and ends the session. Calling it twice is safe.
func (s *Session) Logout() error {
	s.mu.Lock()
	if s.loggedOut {
		s.mu.Unlock()
		return nil
	}
	s.loggedOut = true
	hooks := slices.Clone(s.onLogout)
	s.mu.Unlock()

	var err error
	if s.store != nil {
		err = errors.Join(
			s.store.ClearSession(),
			s.store.DeleteSetting(db.SettingAccessToken),
		)
	}

	for _, fn := range hooks {
		fn()
	}
	return err
}
