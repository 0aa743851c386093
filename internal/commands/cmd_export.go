package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tgienger/taskr/internal/audit"
	"github.com/tgienger/taskr/internal/render"
	"github.com/tgienger/taskr/internal/tasks"
)

type ExportCmd struct {
	flags *Flags
	app   *App

	// flags
	page     string
	taskID   string
	output   string
	status   string
	priority string
	category string
}

// NewExportCmd creates a new export command
func NewExportCmd(flags *Flags, app *App) *ExportCmd {
	return &ExportCmd{flags: flags, app: app}
}

// Register adds the export command to the application
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "export",
		Usage:     "Render a page to a standalone HTML file",
		UsageText: "taskr export [--page tasks|comments|mentions|audit] [--task ID] [-o FILE]",
		Description: `Renders the same HTML the preview server serves. The tasks page accepts the
--status, --priority and --category filters. The comments page needs --task.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "page",
				Value:       "tasks",
				Usage:       "tasks, comments, mentions or audit",
				Destination: &cmd.page,
			},
			&cli.StringFlag{
				Name:        "task",
				Usage:       "task id for the comments page",
				Destination: &cmd.taskID,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "write to file instead of stdout",
				Destination: &cmd.output,
			},
			&cli.StringFlag{Name: "status", Destination: &cmd.status},
			&cli.StringFlag{Name: "priority", Destination: &cmd.priority},
			&cli.StringFlag{Name: "category", Destination: &cmd.category},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	renderer, err := render.New()
	if err != nil {
		return err
	}

	page, data, err := cmd.build(ctx, svc)
	if err != nil {
		return err
	}

	var out io.Writer = c.Root().Writer
	if cmd.output != "" {
		f, err := os.Create(cmd.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := renderer.Render(out, page, data); err != nil {
		return err
	}
	if cmd.output != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", cmd.output)
	}
	return nil
}

func (cmd *ExportCmd) build(ctx context.Context, svc *Services) (string, any, error) {
	header := func(active string) render.Header {
		return render.NewHeader(svc.Viewer, svc.Inbox.Unread(), cmd.app.Theme(), active, time.Now())
	}

	switch cmd.page {
	case "tasks":
		filter, err := tasks.ParseFilter(cmd.status, cmd.priority, cmd.category)
		if err != nil {
			return "", nil, err
		}
		if err := svc.Tasks.Load(ctx); err != nil {
			return "", nil, err
		}
		return render.PageTasks, render.NewTasksPage(header("tasks"), svc.Tasks.Tasks(), filter, svc.Viewer), nil

	case "comments":
		if cmd.taskID == "" {
			return "", nil, errors.New("--task is required for the comments page")
		}
		if err := svc.Tasks.Load(ctx); err != nil {
			return "", nil, err
		}
		t, ok := svc.Tasks.Find(cmd.taskID)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", tasks.ErrNotFound, cmd.taskID)
		}
		panel, err := openThread(ctx, svc, t.ID)
		if err != nil {
			return "", nil, err
		}
		return render.PageComments, render.NewCommentsPage(header("tasks"), t, panel.Comments, svc.Viewer), nil

	case "mentions":
		if err := svc.Inbox.Refresh(ctx); err != nil {
			return "", nil, err
		}
		return render.PageMentions, render.NewMentionsPage(header("mentions"), svc.Inbox.Mentions()), nil

	case "audit":
		entries, err := audit.Fetch(ctx, svc.Client, svc.Viewer)
		if err != nil {
			return "", nil, err
		}
		if err := svc.Inbox.Refresh(ctx); err != nil {
			cmd.app.Log.Warn().Err(err).Msg("refresh mentions")
		}
		return render.PageAudit, render.NewAuditPage(header("audit"), entries), nil

	default:
		return "", nil, fmt.Errorf("unknown page %q (want tasks, comments, mentions or audit)", cmd.page)
	}
}
