package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tgienger/taskr/internal/comments"
)

type CommentsCmd struct {
	flags *Flags
	app   *App

	// flags
	jsonOutput bool
	yes        bool
}

// NewCommentsCmd creates a new comments command
func NewCommentsCmd(flags *Flags, app *App) *CommentsCmd {
	return &CommentsCmd{flags: flags, app: app}
}

// Register adds the comments command to the application
func (cmd *CommentsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "comments",
		Aliases: []string{"c"},
		Usage:   "Read and write task comments",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List a task's comments, newest first",
				UsageText: "taskr comments ls <task-id> [--json]",
				Flags: []cli.Flag{
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
				Usage:     "Comment on a task; @name mentions a user",
				UsageText: "taskr comments add <task-id> <text...>",
				Action:    cmd.runAdd,
			},
			{
				Name:      "edit",
				Usage:     "Replace the text of your comment",
				UsageText: "taskr comments edit <task-id> <comment-id> <text...>",
				Action:    cmd.runEdit,
			},
			{
				Name:      "rm",
				Usage:     "Delete your comment",
				UsageText: "taskr comments rm <task-id> <comment-id> [--yes]",
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

// openThread opens the task's panel and loads its comments
func openThread(ctx context.Context, svc *Services, taskID string) (comments.Panel, error) {
	if !svc.Threads.IsOpen(taskID) {
		svc.Threads.Toggle(taskID)
	}
	if err := svc.Threads.Load(ctx, taskID); err != nil {
		return comments.Panel{}, err
	}
	svc.Threads.Settle(taskID)
	return svc.Threads.Panel(taskID), nil
}

func (cmd *CommentsCmd) runList(ctx context.Context, c *cli.Command) error {
	taskID := c.Args().First()
	if taskID == "" {
		return errors.New("task id is required")
	}

	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	panel, err := openThread(ctx, svc, taskID)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, cm := range panel.Comments {
			if err := writeJSONLine(out, cm); err != nil {
				return fmt.Errorf("encode comment: %w", err)
			}
		}
		return nil
	}

	if len(panel.Comments) == 0 {
		fmt.Fprintln(os.Stderr, "No comments yet")
		return nil
	}

	w := newTable(out)
	_, _ = fmt.Fprintln(w, "ID\tAUTHOR\tWHEN\tCOMMENT")
	for _, cm := range panel.Comments {
		author := cm.UserName
		if comments.CanModify(cm, svc.Viewer) {
			author += " *"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cm.ID, author, cm.CreatedAt.LocalString(), truncate(cm.Text, 60))
	}
	return w.Flush()
}

func (cmd *CommentsCmd) runAdd(ctx context.Context, c *cli.Command) error {
	taskID := c.Args().First()
	if taskID == "" {
		return errors.New("task id is required")
	}
	text := joinArgs(c.Args().Tail())
	if text == "" {
		return comments.ErrEmptyComment
	}

	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	if err := svc.Threads.Add(ctx, taskID, text); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(c.Root().Writer, "Comment added")
	return nil
}

// ownComment loads the thread and checks the viewer may change the comment
func (cmd *CommentsCmd) ownComment(ctx context.Context, svc *Services, taskID, commentID string) error {
	panel, err := openThread(ctx, svc, taskID)
	if err != nil {
		return err
	}
	cm, ok := panel.Find(commentID)
	if !ok {
		return fmt.Errorf("%w: %s", comments.ErrUnknownComment, commentID)
	}
	if !comments.CanModify(cm, svc.Viewer) {
		return errors.New("only the author or an admin can change this comment")
	}
	return nil
}

func (cmd *CommentsCmd) runEdit(ctx context.Context, c *cli.Command) error {
	args := c.Args().Slice()
	if len(args) < 2 {
		return errors.New("task id and comment id are required")
	}
	taskID, commentID := args[0], args[1]
	text := joinArgs(args[2:])
	if text == "" {
		return comments.ErrEmptyComment
	}

	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	if err := cmd.ownComment(ctx, svc, taskID, commentID); err != nil {
		return err
	}
	if _, err := svc.Threads.StartEdit(taskID, commentID); err != nil {
		return err
	}
	if err := svc.Threads.SaveEdit(ctx, taskID, text); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(c.Root().Writer, "Comment updated")
	return nil
}

func (cmd *CommentsCmd) runRemove(ctx context.Context, c *cli.Command) error {
	args := c.Args().Slice()
	if len(args) < 2 {
		return errors.New("task id and comment id are required")
	}
	taskID, commentID := args[0], args[1]

	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	if err := cmd.ownComment(ctx, svc, taskID, commentID); err != nil {
		return err
	}
	if err := svc.Threads.RequestDelete(taskID, commentID); err != nil {
		return err
	}

	ok, err := confirm("Delete this comment?", cmd.yes)
	if err != nil || !ok {
		svc.Threads.AbortDelete(taskID)
		return err
	}

	if err := svc.Threads.ConfirmDelete(ctx, taskID); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(c.Root().Writer, "Comment deleted")
	return nil
}
