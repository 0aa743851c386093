package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tgienger/taskr/internal/mentions"
	"github.com/tgienger/taskr/internal/models"
)

type MentionsCmd struct {
	flags *Flags
	app   *App

	// flags
	unreadOnly bool
	jsonOutput bool
}

// NewMentionsCmd creates a new mentions command
func NewMentionsCmd(flags *Flags, app *App) *MentionsCmd {
	return &MentionsCmd{flags: flags, app: app}
}

// Register adds the mentions command to the application
func (cmd *MentionsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "mentions",
		Aliases: []string{"m"},
		Usage:   "Comments that mention you",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List mentions, newest first",
				UsageText: "taskr mentions ls [--unread] [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "unread",
						Aliases:     []string{"u"},
						Usage:       "only unread mentions",
						Destination: &cmd.unreadOnly,
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
				Name:      "read",
				Usage:     "Mark a mention as read",
				UsageText: "taskr mentions read <sk>",
				Action:    cmd.runRead,
			},
		},
	})
	return app
}

func (cmd *MentionsCmd) runList(ctx context.Context, c *cli.Command) error {
	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	if err := svc.Inbox.Refresh(ctx); err != nil {
		return err
	}

	var list []models.Mention
	for _, m := range svc.Inbox.Mentions() {
		if cmd.unreadOnly && m.IsRead() {
			continue
		}
		list = append(list, m)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, m := range list {
			if err := writeJSONLine(out, m); err != nil {
				return fmt.Errorf("encode mention: %w", err)
			}
		}
		return nil
	}

	if len(list) == 0 {
		fmt.Fprintln(os.Stderr, "No mentions")
		return nil
	}

	w := newTable(out)
	_, _ = fmt.Fprintln(w, "\tFROM\tTASK\tDATE\tCOMMENT\tSK")
	for _, m := range list {
		dot := "●"
		if m.IsRead() {
			dot = " "
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			dot, mentions.Author(m), truncate(mentions.TaskTitle(m), 30), mentions.DisplayDate(m), truncate(m.Comment, 40), m.SK)
	}
	_ = w.Flush()

	fmt.Fprintf(os.Stderr, "%d unread\n", svc.Inbox.Unread())
	return nil
}

func (cmd *MentionsCmd) runRead(ctx context.Context, c *cli.Command) error {
	sk := c.Args().First()
	if sk == "" {
		return errors.New("mention key is required")
	}

	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}
	if err := svc.Inbox.Refresh(ctx); err != nil {
		return err
	}
	if err := svc.Inbox.MarkRead(ctx, sk); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Marked read (%d unread)\n", svc.Inbox.Unread())
	return nil
}
