// Package session opens the connector the pkgconn commands work on.
package session

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/pkgconn/internal/core/config"
	"github.com/nightconcept/pkgconn/internal/core/connector"
)

const DirFlagName = "dir"

// DirFlag is the global flag naming the project directory.
func DirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    DirFlagName,
		Aliases: []string{"C"},
		Usage:   "project directory holding composer.json",
		EnvVars: []string{"PKGCONN_DIR"},
		Value:   ".",
	}
}

// Session is a loaded project plus the tool settings found next to it.
type Session struct {
	Dir      string
	Settings *config.Settings
	Conn     *connector.Connector
}

// Dir returns the project directory chosen on the command line.
func Dir(c *cli.Context) string {
	if dir := c.String(DirFlagName); dir != "" {
		return dir
	}
	return "."
}

// Settings loads pkgconn.toml from the project directory, falling back to
// the defaults when there is none.
func Settings(c *cli.Context) (*config.Settings, error) {
	dir := Dir(c)
	settings, err := config.LoadSettingsOrDefault(dir)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error loading %s: %v", config.SettingsFileName, err), 1)
	}
	return settings, nil
}

// Options turns settings into connector options.
func Options(settings *config.Settings) []connector.Option {
	return []connector.Option{
		connector.WithLogger(slog.Default()),
		connector.WithStackSize(settings.StackSize),
		connector.WithMessages(settings.Messages),
	}
}

// Open loads settings and sets up a connector on the project directory.
func Open(c *cli.Context) (*Session, error) {
	settings, err := Settings(c)
	if err != nil {
		return nil, err
	}
	dir := Dir(c)
	conn := connector.New(Options(settings)...)
	if err := conn.Setup(dir); err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error: %s", conn.LastError()), 1)
	}
	return &Session{Dir: dir, Settings: settings, Conn: conn}, nil
}
