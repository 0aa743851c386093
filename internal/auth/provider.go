package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ErrLoginFailed is returned when the callback lacks either token
var ErrLoginFailed = errors.New("login failed")

// Provider describes the hosted login pages of the identity provider
type Provider struct {
	Domain      string
	ClientID    string
	RedirectURI string
	LogoutURI   string
}

// Tokens are delivered in the callback fragment of the implicit flow
type Tokens struct {
	IDToken     string
	AccessToken string
}

// LoginURL builds the authorize URL and the state value it carries
func (p Provider) LoginURL() (string, string) {
	state := uuid.NewString()
	q := url.Values{}
	q.Set("response_type", "token")
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", p.RedirectURI)
	q.Set("state", state)
	return strings.TrimRight(p.Domain, "/") + "/login?" + q.Encode(), state
}

// LogoutURL builds the provider logout URL
func (p Provider) LogoutURL() string {
	q := url.Values{}
	q.Set("client_id", p.ClientID)
	q.Set("logout_uri", p.LogoutURI)
	return strings.TrimRight(p.Domain, "/") + "/logout?" + q.Encode()
}

// ParseCallback extracts tokens from a pasted callback. It accepts the full
// redirect URL, a "#..." fragment, or the bare fragment parameters. When
// wantState is non-empty the fragment's state must match it.
func ParseCallback(raw, wantState string) (Tokens, error) {
	raw = strings.TrimSpace(raw)

	fragment := raw
	if i := strings.Index(raw, "#"); i >= 0 {
		fragment = raw[i+1:]
	} else if strings.Contains(raw, "://") {
		return Tokens{}, fmt.Errorf("%w: no token received", ErrLoginFailed)
	}
	if fragment == "" {
		return Tokens{}, fmt.Errorf("%w: no token received", ErrLoginFailed)
	}

	params, err := url.ParseQuery(fragment)
	if err != nil {
		return Tokens{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if wantState != "" && params.Get("state") != wantState {
		return Tokens{}, fmt.Errorf("%w: state mismatch", ErrLoginFailed)
	}

	tokens := Tokens{
		IDToken:     params.Get("id_token"),
		AccessToken: params.Get("access_token"),
	}
	if tokens.IDToken == "" || tokens.AccessToken == "" {
		return Tokens{}, ErrLoginFailed
	}
	return tokens, nil
}
