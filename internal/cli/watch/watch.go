package watch

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/pkgconn/internal/cli/session"
	"github.com/nightconcept/pkgconn/internal/core/watcher"
)

// WatchCmd reloads the project whenever composer.json or composer.lock
// changes and reports the new package count.
var WatchCmd = &cli.Command{
	Name:  "watch",
	Usage: "Reloads the project when composer.json or composer.lock changes.",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "delay",
			Usage: "how long to let a burst of file events settle",
			Value: watcher.DefaultDelay,
		},
	},
	Action: func(c *cli.Context) error {
		s, err := session.Open(c)
		if err != nil {
			return err
		}
		changedColor := color.New(color.FgYellow).SprintFunc()
		errColor := color.New(color.FgRed).SprintFunc()

		fmt.Printf("Watching %s (%d packages)\n", s.Dir, s.Conn.Packages().Len())

		err = watcher.Watch(c.Context, s.Dir, c.Duration("delay"), func(names []string) {
			if !s.Conn.StateChanged() {
				slog.Debug("project files touched without change", "files", names)
				return
			}
			if err := s.Conn.Setup(s.Dir); err != nil {
				fmt.Printf("%s %s\n", errColor("reload failed:"), s.Conn.LastError())
				return
			}
			fmt.Printf("%s %s, %d packages\n", changedColor("changed:"), strings.Join(names, ", "), s.Conn.Packages().Len())
		})
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
		return nil
	},
}
