package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/tgienger/taskr/internal/logging"
	"github.com/tgienger/taskr/internal/render"
	"github.com/tgienger/taskr/internal/web"
)

type ServeCmd struct {
	flags *Flags
	app   *App

	// flags
	addr string
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags, app *App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve read-only HTML previews of your tasks",
		UsageText: "taskr serve [--addr HOST:PORT]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (defaults to web.address)",
				Sources:     cli.EnvVars("TASKR_WEB_ADDR"),
				Destination: &cmd.addr,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	renderer, err := render.New()
	if err != nil {
		return err
	}

	addr := cmd.addr
	if addr == "" {
		addr = cmd.app.Config.Web.Address
	}

	srv := web.NewServer(web.Deps{
		Tasks:    svc.Tasks,
		Inbox:    svc.Inbox,
		Comments: svc.Client,
		Audit:    svc.Client,
		Renderer: renderer,
		Viewer:   svc.Viewer,
		Theme:    cmd.app.Theme(),
		Log:      logging.Component(cmd.app.Log, "web"),
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintf(c.Root().Writer, "Serving previews on http://%s (ctrl+c to stop)\n", addr)
	return srv.Run(ctx, addr)
}
