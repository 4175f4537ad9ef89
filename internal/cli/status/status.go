package status

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/pkgconn/internal/cli/session"
	"github.com/nightconcept/pkgconn/internal/core/config"
	"github.com/nightconcept/pkgconn/internal/core/connector"
)

// StatusCmd reports what the connector loaded and whether a saved
// snapshot is still current.
var StatusCmd = &cli.Command{
	Name:  "status",
	Usage: "Displays the loaded project state.",
	Flags: []cli.Flag{
		&cli.PathFlag{
			Name:  "save",
			Usage: "write a snapshot of the loaded state to `FILE`",
		},
		&cli.PathFlag{
			Name:  "check",
			Usage: "report whether the snapshot in `FILE` is out of date",
		},
		&cli.BoolFlag{
			Name:  "init-settings",
			Usage: "write the settings in effect to " + config.SettingsFileName + " in the project directory",
		},
	},
	Action: func(c *cli.Context) error {
		if path := c.Path("check"); path != "" {
			return checkSnapshot(c, path)
		}

		s, err := session.Open(c)
		if err != nil {
			return err
		}
		printState(s.Conn.State(), s.Conn.Packages().Len())

		if path := c.Path("save"); path != "" {
			data, err := s.Conn.MarshalSnapshot()
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return cli.Exit(fmt.Sprintf("Error writing snapshot %s: %v", path, err), 1)
			}
			fmt.Printf("snapshot saved to %s\n", path)
		}

		if c.Bool("init-settings") {
			if err := config.WriteSettings(s.Dir, s.Settings); err != nil {
				return cli.Exit(fmt.Sprintf("Error writing %s: %v", config.SettingsFileName, err), 1)
			}
			fmt.Printf("settings written to %s\n", filepath.Join(s.Dir, config.SettingsFileName))
		}
		return nil
	},
}

func checkSnapshot(c *cli.Context, path string) error {
	settings, err := session.Settings(c)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cli.Exit(fmt.Sprintf("Error: snapshot %s not found.", path), 1)
		}
		return cli.Exit(fmt.Sprintf("Error reading snapshot %s: %v", path, err), 1)
	}

	conn := connector.New(session.Options(settings)...)
	if err := conn.UnmarshalSnapshot(data); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	if conn.StateChanged() {
		fmt.Println(color.New(color.FgYellow).Sprint("changed"))
		return nil
	}
	fmt.Println(color.New(color.FgGreen).Sprint("unchanged"))
	return nil
}

func printState(st connector.State, count int) {
	keyColor := color.New(color.FgCyan).SprintFunc()
	row := func(key, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Printf("%s %s\n", keyColor(key+":"), value)
	}

	row("base", st.BasePath)
	row("manifest", st.ManifestPath)
	row("lock", st.LockPath)
	row("vendor", st.VendorDir)
	row("autoload", st.AutoloadPath)
	row("locked", fmt.Sprint(st.Locked))
	row("packages", fmt.Sprint(count))
	row("fingerprint", st.Fingerprint)
}
