package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/pkgconn/internal/cli/list"
	"github.com/nightconcept/pkgconn/internal/cli/session"
	"github.com/nightconcept/pkgconn/internal/cli/show"
	"github.com/nightconcept/pkgconn/internal/cli/status"
	"github.com/nightconcept/pkgconn/internal/cli/watch"
)

// The main function, where the program execution begins.
func main() {
	app := &cli.App{
		Name:    "pkgconn",
		Usage:   "Inspect the packages Composer installed in a project",
		Version: "v0.1.0",
		Flags: []cli.Flag{
			session.DirFlag(),
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log debug events to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelWarn
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
		Action: func(c *cli.Context) error {
			// Default action if no command is specified
			_ = cli.ShowAppHelp(c)
			return nil
		},
		Commands: []*cli.Command{
			list.ListCmd,
			show.ShowCmd,
			status.StatusCmd,
			watch.WatchCmd,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
