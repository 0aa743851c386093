package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tgienger/taskr/internal/audit"
)

type AuditCmd struct {
	flags *Flags
	app   *App

	// flags
	jsonOutput bool
}

// NewAuditCmd creates a new audit command
func NewAuditCmd(flags *Flags, app *App) *AuditCmd {
	return &AuditCmd{flags: flags, app: app}
}

// Register adds the audit and users commands to the application
func (cmd *AuditCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "audit",
			Usage:     "Show the change log (admins only)",
			UsageText: "taskr audit [--json]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "json",
					Usage:       "output as JSON lines",
					Destination: &cmd.jsonOutput,
				},
			},
			Action: cmd.runAudit,
		},
		&cli.Command{
			Name:   "users",
			Usage:  "List the accounts that can be @mentioned",
			Action: cmd.runUsers,
		},
	)
	return app
}

func (cmd *AuditCmd) runAudit(ctx context.Context, c *cli.Command) error {
	svc, err := cmd.app.Services()
	if err != nil {
		return err
	}

	entries, err := audit.Fetch(ctx, svc.Client, svc.Viewer)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, e := range entries {
			if err := writeJSONLine(out, e); err != nil {
				return fmt.Errorf("encode audit entry: %w", err)
			}
		}
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No audit entries")
		return nil
	}

	w := newTable(out)
	_, _ = fmt.Fprintln(w, "WHEN\tACTION\tCHANGE\tTASK\tBY")
	for _, e := range entries {
		change, ok := e.Change()
		if !ok {
			change = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.When().LocalString(), strings.ToUpper(e.Action), change, truncate(audit.TaskTitle(e), 40), e.Actor())
	}
	return w.Flush()
}

func (cmd *AuditCmd) runUsers(ctx context.Context, c *cli.Command) error {
	client, err := cmd.app.Client()
	if err != nil {
		return err
	}

	users, err := client.ListUsers(ctx)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	for _, u := range users {
		_, _ = fmt.Fprintln(out, u.Username)
	}
	return nil
}
