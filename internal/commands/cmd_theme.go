package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tgienger/taskr/internal/config"
	"github.com/tgienger/taskr/internal/db"
)

type ThemeCmd struct {
	flags *Flags
	app   *App
}

// NewThemeCmd creates a new theme command
func NewThemeCmd(flags *Flags, app *App) *ThemeCmd {
	return &ThemeCmd{flags: flags, app: app}
}

// Register adds the theme command to the application
func (cmd *ThemeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "theme",
		Usage:     "Show or set the color theme",
		UsageText: "taskr theme [dark|light]",
		Action:    cmd.run,
	})
	return app
}

func (cmd *ThemeCmd) run(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer

	name := c.Args().First()
	if name == "" {
		_, _ = fmt.Fprintln(out, cmd.app.Theme())
		return nil
	}

	if name != config.ThemeDark && name != config.ThemeLight {
		return fmt.Errorf("unknown theme %q (want %s or %s)", name, config.ThemeDark, config.ThemeLight)
	}
	if err := cmd.app.Store.SetSetting(db.SettingTheme, name); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Theme set to %s\n", name)
	return nil
}
