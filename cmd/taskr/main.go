package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/tgienger/taskr/internal/commands"
	"github.com/tgienger/taskr/internal/config"
	"github.com/tgienger/taskr/internal/db"
	"github.com/tgienger/taskr/internal/logging"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func build() string {
	v, c, d := version, commit, date

	// go install leaves the ldflags unset; fall back to the embedded build info
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	if len(c) > 7 {
		c = c[:7]
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		database  *db.DB
		taskrApp  = &commands.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "taskr",
		Usage:     "Shared task tracker for the terminal",
		UsageText: "taskr [global options] command [command options]",
		Description: `taskr is a client for a shared task tracking service. Tasks can be filtered,
commented on and shared; @name in a comment notifies that user.

Run 'taskr login' once to sign in, then 'taskr' with no arguments to open
the interactive tracker.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal)",
				Sources:     cli.EnvVars("TASKR_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/taskr.log)",
				Sources:     cli.EnvVars("TASKR_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKR_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TASKR_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; the terminal belongs to the UI
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "taskr.log")
			}

			logger, closer, err := logging.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			database, err = db.New(cfg.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			// Commands already hold a pointer to the app
			taskrApp.Config = cfg
			taskrApp.Store = database
			taskrApp.Log = logger

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, taskrApp)

	app = tuiCmd.Register(app)
	app = commands.NewLoginCmd(flags, taskrApp).Register(app)
	app = commands.NewTasksCmd(flags, taskrApp).Register(app)
	app = commands.NewCommentsCmd(flags, taskrApp).Register(app)
	app = commands.NewMentionsCmd(flags, taskrApp).Register(app)
	app = commands.NewAuditCmd(flags, taskrApp).Register(app)
	app = commands.NewExportCmd(flags, taskrApp).Register(app)
	app = commands.NewServeCmd(flags, taskrApp).Register(app)
	app = commands.NewThemeCmd(flags, taskrApp).Register(app)

	// Open the TUI when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'taskr --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
