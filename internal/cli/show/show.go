package show

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/nightconcept/pkgconn/internal/cli/session"
	"github.com/nightconcept/pkgconn/internal/core/config"
	"github.com/nightconcept/pkgconn/internal/core/packages"
)

// ShowCmd prints one installed package.
var ShowCmd = &cli.Command{
	Name:      "show",
	Usage:     "Displays an installed package by full or short name.",
	ArgsUsage: "<name>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "type",
			Usage: `type filter: a type name, a flag mask or "@plugin,module,theme,other"`,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "output format: text, yaml or json",
		},
		&cli.StringFlag{
			Name:  "field",
			Usage: "print a single field, e.g. version or notificationUrl",
		},
		&cli.StringFlag{
			Name:  "constraint",
			Usage: `check the installed version against a constraint, e.g. "^3.3"`,
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("Error: show expects exactly one package name.", 1)
		}
		s, err := session.Open(c)
		if err != nil {
			return err
		}

		filterSpec := s.Settings.TypeFilter
		if c.IsSet("type") {
			filterSpec = c.String("type")
		}
		format := s.Settings.Format
		if c.IsSet("format") {
			format = c.String("format")
		}

		filter, err := packages.ParseTypeFilter(filterSpec)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}

		ix, ok := s.Conn.Package(c.Args().First(), filter)
		if !ok {
			return cli.Exit(fmt.Sprintf("Error: %s", s.Conn.LastError()), 1)
		}
		sel, _ := ix.Selection()

		if field := c.String("field"); field != "" {
			value := ix.Field(field)
			if value == nil {
				return cli.Exit(fmt.Sprintf("Error: package %s has no field %q.", sel.FullName, field), 1)
			}
			fmt.Println(formatValue(value))
			return nil
		}

		if constraint := c.String("constraint"); constraint != "" {
			satisfied, err := s.Conn.Satisfies(sel.FullName, constraint)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			if !satisfied {
				return cli.Exit(fmt.Sprintf("%s %s does not satisfy %s", sel.FullName, sel.Version, constraint), 1)
			}
			fmt.Printf("%s %s satisfies %s\n", sel.FullName, sel.Version, constraint)
			return nil
		}

		switch format {
		case config.FormatJSON:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sel.Record.Fields)
		case config.FormatYAML:
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(sel.Record.Fields); err != nil {
				return err
			}
			return enc.Close()
		case config.FormatText, "":
			printText(s, sel)
			return nil
		default:
			return cli.Exit(fmt.Sprintf("Error: unknown format %q.", format), 1)
		}
	},
}

func printText(s *session.Session, sel packages.Selection) {
	nameColor := color.New(color.FgMagenta, color.Bold).SprintFunc()
	versionColor := color.New(color.FgYellow).SprintFunc()
	keyColor := color.New(color.FgCyan).SprintFunc()
	okColor := color.New(color.FgGreen).SprintFunc()
	warnColor := color.New(color.FgRed).SprintFunc()

	fmt.Printf("%s@%s\n", nameColor(sel.FullName), versionColor(sel.Version))
	if _, installed := s.Conn.IsInstalled(sel.FullName); installed {
		fmt.Printf("%s %s\n", keyColor("status:"), okColor("installed"))
	} else {
		fmt.Printf("%s %s (%s)\n", keyColor("status:"), warnColor("not installed"), s.Conn.LastError())
	}

	keys := make([]string, 0, len(sel.Record.Fields))
	for key := range sel.Record.Fields {
		switch key {
		case "name", "version":
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%s %s\n", keyColor(key+":"), formatValue(sel.Record.Fields[key]))
	}
}

// formatValue prints strings bare and everything else as compact JSON.
func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
