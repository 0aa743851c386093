package commands

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/tgienger/taskr/internal/logging"
	"github.com/tgienger/taskr/internal/ui"
	"github.com/tgienger/taskr/internal/ui/views"
)

type TuiCmd struct {
	flags *Flags
	app   *App
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, app *App) *TuiCmd {
	return &TuiCmd{
		flags: flags,
		app:   app,
	}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "tui",
		Usage:  "Open the interactive task tracker",
		Action: cmd.run,
	})
	return app
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	cfg := cmd.app.Config

	app := ui.NewApp(ui.Options{
		Deps: views.Deps{
			Tasks:    svc.Tasks,
			Threads:  svc.Threads,
			Inbox:    svc.Inbox,
			Audit:    svc.Client,
			Users:    svc.Client,
			Viewer:   svc.Viewer,
			Timeout:  cfg.API.Timeout,
			Markdown: cfg.UI.Markdown,
			Log:      logging.Component(cmd.app.Log, "tui"),
		},
		Store:  cmd.app.Store,
		Theme:  cfg.UI.Theme,
		Settle: cfg.UI.MentionSettle,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	// A 401 from any request ends the session; show the expired screen
	svc.Session.OnLogout(func() {
		p.Send(ui.SessionExpiredMsg{})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	if app.Expired() {
		fmt.Fprintln(os.Stderr, "Session expired. Run 'taskr login' to sign in again.")
	}
	return nil
}
