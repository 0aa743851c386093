package commands

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tgienger/taskr/internal/api"
	"github.com/tgienger/taskr/internal/auth"
	"github.com/tgienger/taskr/internal/comments"
	"github.com/tgienger/taskr/internal/config"
	"github.com/tgienger/taskr/internal/db"
	"github.com/tgienger/taskr/internal/logging"
	"github.com/tgienger/taskr/internal/mentions"
	"github.com/tgienger/taskr/internal/models"
	"github.com/tgienger/taskr/internal/tasks"
)

// App holds what every command shares. Commands receive a pointer before the
// root Before hook runs, so the fields are populated in place.
type App struct {
	Config *config.Config
	Store  *db.DB
	Log    zerolog.Logger

	// HTTPClient overrides the transport used for API calls
	HTTPClient *http.Client

	session *auth.Session
	client  *api.Client
}

// Services is the client-side state built on top of an authenticated API client
type Services struct {
	Client  *api.Client
	Session *auth.Session
	Viewer  models.Viewer
	Tasks   *tasks.State
	Inbox   *mentions.Inbox
	Threads *comments.Threads
}

// Provider describes the configured identity provider
func (a *App) Provider() auth.Provider {
	return auth.Provider{
		Domain:      a.Config.Auth.Domain,
		ClientID:    a.Config.Auth.ClientID,
		RedirectURI: a.Config.Auth.RedirectURI,
		LogoutURI:   a.Config.Auth.LogoutURI,
	}
}

// Session restores the session saved by the last login
func (a *App) Session() (*auth.Session, error) {
	if a.session != nil && !a.session.LoggedOut() {
		return a.session, nil
	}

	s, err := auth.Open(a.Store)
	if err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) || errors.Is(err, auth.ErrSessionExpired) {
			return nil, fmt.Errorf("%w: run 'taskr login'", err)
		}
		return nil, fmt.Errorf("open session: %w", err)
	}

	a.session = s
	a.client = nil
	return s, nil
}

// Client returns an API client bound to the current session
func (a *App) Client() (*api.Client, error) {
	if err := a.Config.RequireAPI(); err != nil {
		return nil, err
	}

	s, err := a.Session()
	if err != nil {
		return nil, err
	}
	if a.client != nil && a.client.Session() == s {
		return a.client, nil
	}

	opts := []api.Option{api.WithLogger(logging.Component(a.Log, "api"))}
	if a.HTTPClient != nil {
		opts = append(opts, api.WithHTTPClient(a.HTTPClient))
	}
	opts = append(opts, api.WithTimeout(a.Config.API.Timeout))

	a.client = api.New(a.Config.API.BaseURL, s, opts...)
	return a.client, nil
}

// Services wires the task list, mention inbox and comment threads to the client
func (a *App) Services() (*Services, error) {
	client, err := a.Client()
	if err != nil {
		return nil, err
	}

	inbox := mentions.NewInbox(client)
	state := tasks.NewState(client,
		tasks.WithMentions(inbox),
		tasks.WithLogger(logging.Component(a.Log, "tasks")),
	)

	return &Services{
		Client:  client,
		Session: client.Session(),
		Viewer:  client.Session().Viewer(),
		Tasks:   state,
		Inbox:   inbox,
		Threads: comments.NewThreads(client, state),
	}, nil
}

// Theme resolves the theme: the saved choice wins over the config file
func (a *App) Theme() string {
	if saved, err := a.Store.GetSetting(db.SettingTheme); err == nil && saved != "" {
		return saved
	}
	return a.Config.UI.Theme
}
