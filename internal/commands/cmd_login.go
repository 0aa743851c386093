package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/tgienger/taskr/internal/auth"
	"github.com/tgienger/taskr/internal/render"
)

type LoginCmd struct {
	flags *Flags
	app   *App
	in    io.Reader

	// flags
	callback string
}

// NewLoginCmd creates a new login command
func NewLoginCmd(flags *Flags, app *App) *LoginCmd {
	return &LoginCmd{flags: flags, app: app, in: os.Stdin}
}

// Register adds the login, logout and whoami commands to the application
func (cmd *LoginCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "login",
			Usage:     "Sign in through the identity provider",
			UsageText: "taskr login [--callback URL]",
			Description: `Prints the provider's login URL. After signing in, paste the address your
browser was redirected to. The access token is saved for later runs.

Use --callback to pass the redirect address directly.`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "callback",
					Usage:       "redirect URL (or fragment) returned by the provider",
					Destination: &cmd.callback,
				},
			},
			Action: cmd.runLogin,
		},
		&cli.Command{
			Name:   "logout",
			Usage:  "Forget the saved session",
			Action: cmd.runLogout,
		},
		&cli.Command{
			Name:   "whoami",
			Usage:  "Show the signed-in user",
			Action: cmd.runWhoami,
		},
	)
	return app
}

func (cmd *LoginCmd) runLogin(ctx context.Context, c *cli.Command) error {
	if err := cmd.app.Config.RequireAuth(); err != nil {
		return err
	}
	out := c.Root().Writer

	raw, state := cmd.callback, ""
	if raw == "" {
		var loginURL string
		loginURL, state = cmd.app.Provider().LoginURL()
		_, _ = fmt.Fprintf(out, "Open this URL in your browser and sign in:\n\n  %s\n\n", loginURL)

		var err error
		raw, err = cmd.readCallback()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}

	tokens, err := auth.ParseCallback(raw, state)
	if err != nil {
		return err
	}

	sess, err := auth.Login(cmd.app.Store, tokens)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	v := sess.Viewer()
	cmd.app.Log.Info().Str("sub", v.Sub).Msg("logged in")
	_, _ = fmt.Fprintf(out, "Logged in as %s (%s)\n", v.Name, render.Role(v))
	return nil
}

func (cmd *LoginCmd) readCallback() (string, error) {
	if cmd.in == os.Stdin && stdinIsTerminal() {
		var raw string
		err := huh.NewInput().
			Title("Callback URL").
			Description("Paste the address your browser was redirected to").
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("callback is required")
				}
				return nil
			}).
			Value(&raw).
			Run()
		return raw, err
	}

	line, err := bufio.NewReader(cmd.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read callback: %w", err)
	}
	return line, nil
}

func (cmd *LoginCmd) runLogout(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer

	sess, err := auth.Open(cmd.app.Store)
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn), errors.Is(err, auth.ErrSessionExpired):
		_, _ = fmt.Fprintln(out, "Not logged in")
		return nil
	case err != nil:
		return err
	}

	if err := sess.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	_, _ = fmt.Fprintln(out, "Logged out")

	if cmd.app.Config.RequireAuth() == nil {
		_, _ = fmt.Fprintf(out, "To end the provider session too, open:\n\n  %s\n", cmd.app.Provider().LogoutURL())
	}
	return nil
}

func (cmd *LoginCmd) runWhoami(ctx context.Context, c *cli.Command) error {
	sess, err := cmd.app.Session()
	if err != nil {
		return err
	}

	claims := sess.Claims()
	v := sess.Viewer()

	w := newTable(c.Root().Writer)
	_, _ = fmt.Fprintf(w, "NAME\t%s\n", v.Name)
	_, _ = fmt.Fprintf(w, "ROLE\t%s\n", render.Role(v))
	_, _ = fmt.Fprintf(w, "SUB\t%s\n", v.Sub)
	if claims.Email != "" {
		_, _ = fmt.Fprintf(w, "EMAIL\t%s\n", claims.Email)
	}
	if claims.Exp > 0 {
		_, _ = fmt.Fprintf(w, "EXPIRES\t%s\n", time.Unix(claims.Exp, 0).Local().Format(time.RFC1123))
	}
	return w.Flush()
}
