package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tgienger/taskr/internal/api"
	"github.com/tgienger/taskr/internal/models"
	"github.com/tgienger/taskr/internal/render"
	"github.com/tgienger/taskr/internal/tasks"
)

type TasksCmd struct {
	flags *Flags
	app   *App

	// flags
	status      string
	priority    string
	category    string
	description string
	jsonOutput  bool
	yes         bool
}

// NewTasksCmd creates a new tasks command
func NewTasksCmd(flags *Flags, app *App) *TasksCmd {
	return &TasksCmd{flags: flags, app: app}
}

// Register adds the tasks command to the application
func (cmd *TasksCmd) Register(app *cli.Command) *cli.Command {
	statusFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:        "status",
			Aliases:     []string{"s"},
			Usage:       "todo, in-progress or done",
			Destination: &cmd.status,
		}
	}
	priorityFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:        "priority",
			Aliases:     []string{"p"},
			Usage:       "low, medium or high",
			Destination: &cmd.priority,
		}
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "tasks",
		Usage: "List and change tasks",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List tasks, newest first",
				UsageText: "taskr tasks ls [--status S] [--priority P] [--category C] [--json]",
				Flags: []cli.Flag{
					statusFlag(),
					priorityFlag(),
					&cli.StringFlag{
						Name:        "category",
						Usage:       "only tasks in this category",
						Destination: &cmd.category,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "add",
				Usage:     "Create a task",
				UsageText: "taskr tasks add [options] <title...>",
				Flags: []cli.Flag{
					statusFlag(),
					priorityFlag(),
					&cli.StringFlag{
						Name:        "category",
						Usage:       "category (defaults to general)",
						Destination: &cmd.category,
					},
					&cli.StringFlag{
						Name:        "description",
						Aliases:     []string{"d"},
						Usage:       "task description (markdown)",
						Destination: &cmd.description,
					},
				},
				Action: cmd.runAdd,
			},
			{
				Name:      "set",
				Usage:     "Change a task's status or priority",
				UsageText: "taskr tasks set <id> [--status S] [--priority P]",
				Flags:     []cli.Flag{statusFlag(), priorityFlag()},
				Action:    cmd.runSet,
			},
			{
				Name:      "rm",
				Usage:     "Delete a task you own",
				UsageText: "taskr tasks rm <id> [--yes]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "skip confirmation",
						Destination: &cmd.yes,
					},
				},
				Action: cmd.runRemove,
			},
		},
	})
	return app
}

func (cmd *TasksCmd) runList(ctx context.Context, c *cli.Command) error {
	filter, err := tasks.ParseFilter(cmd.status, cmd.priority, cmd.category)
	if err != nil {
		return err
	}

	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	if err := svc.Tasks.Load(ctx); err != nil {
		return err
	}

	visible := svc.Tasks.Apply(filter)
	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, t := range visible {
			if err := writeJSONLine(out, t); err != nil {
				return fmt.Errorf("encode task: %w", err)
			}
		}
		return nil
	}

	if len(visible) == 0 {
		fmt.Fprintf(os.Stderr, "No tasks found (%s)\n", filter)
		return nil
	}

	w := newTable(out)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tCATEGORY\tOWNER\tCOMMENTS\tUPDATED")
	for _, row := range render.TaskRows(visible, svc.Viewer) {
		owner := row.Owner
		if row.Yours {
			owner += " (You)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			row.ID, truncate(row.Title, 40), row.Status, row.Priority, row.Category, owner, row.CommentCount, row.Updated)
	}
	_ = w.Flush()

	if !filter.IsZero() {
		fmt.Fprintf(os.Stderr, "Showing %d of %d tasks\n", len(visible), len(svc.Tasks.Tasks()))
	}
	return nil
}

func (cmd *TasksCmd) runAdd(ctx context.Context, c *cli.Command) error {
	title, err := tasks.ValidateTitle(joinArgs(c.Args().Slice()))
	if err != nil {
		return err
	}

	task := api.NewTask{
		Title:       title,
		Description: cmd.description,
		Category:    cmd.category,
	}
	if cmd.status != "" {
		if task.Status, err = models.ParseStatus(cmd.status); err != nil {
			return err
		}
	}
	if cmd.priority != "" {
		if task.Priority, err = models.ParsePriority(cmd.priority); err != nil {
			return err
		}
	}

	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	if err := svc.Tasks.Create(ctx, task); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Created task %q\n", title)
	return nil
}

func (cmd *TasksCmd) runSet(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("task id is required")
	}

	var patch tasks.Patch
	if cmd.status != "" {
		s, err := models.ParseStatus(cmd.status)
		if err != nil {
			return err
		}
		patch.Status = &s
	}
	if cmd.priority != "" {
		p, err := models.ParsePriority(cmd.priority)
		if err != nil {
			return err
		}
		patch.Priority = &p
	}
	if patch.IsZero() {
		return errors.New("nothing to change; pass --status or --priority")
	}

	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	if err := svc.Tasks.Load(ctx); err != nil {
		return err
	}
	if _, ok := svc.Tasks.Find(id); !ok {
		return fmt.Errorf("%w: %s", tasks.ErrNotFound, id)
	}
	if err := svc.Tasks.Update(ctx, id, patch); err != nil {
		return err
	}

	t, _ := svc.Tasks.Find(id)
	_, _ = fmt.Fprintf(c.Root().Writer, "%s: status %s, priority %s\n", t.Title, t.Status, t.Priority)
	return nil
}

func (cmd *TasksCmd) runRemove(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("task id is required")
	}

	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	if err := svc.Tasks.Load(ctx); err != nil {
		return err
	}

	t, ok := svc.Tasks.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", tasks.ErrNotFound, id)
	}
	if !tasks.CanDelete(t, svc.Viewer) {
		return errors.New("only the owner or an admin can delete this task")
	}

	ok, err = confirm(fmt.Sprintf("Delete %q?", t.Title), cmd.yes)
	if err != nil || !ok {
		return err
	}

	if err := svc.Tasks.Delete(ctx, id); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Deleted %q\n", t.Title)
	return nil
}
