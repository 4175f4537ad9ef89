package list

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/pkgconn/internal/cli/session"
	"github.com/nightconcept/pkgconn/internal/core/packages"
	"github.com/nightconcept/pkgconn/internal/core/project"
)

// ListCmd defines the structure for the 'list' command.
var ListCmd = &cli.Command{
	Name:    "list",
	Aliases: []string{"ls"},
	Usage:   "Displays installed packages from composer.lock.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "type",
			Usage: `only packages matching a type filter: a type name, a flag mask or "@plugin,module,theme,other"`,
		},
	},
	Action: func(c *cli.Context) error {
		s, err := session.Open(c)
		if err != nil {
			return err
		}
		filterSpec := c.String("type")
		if !c.IsSet("type") {
			filterSpec = s.Settings.TypeFilter
		}
		filter, err := packages.ParseTypeFilter(filterSpec)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}

		manifestColor := color.New(color.FgMagenta, color.Bold, color.Underline).SprintFunc()
		vendorColor := color.New(color.FgHiBlack, color.Bold, color.Underline).SprintFunc()
		headerColor := color.New(color.FgCyan, color.Bold).SprintFunc()
		nameColor := color.New(color.FgWhite).SprintFunc()
		versionColor := color.New(color.FgYellow).SprintFunc()
		typeColor := color.New(color.FgHiBlack).SprintFunc()

		st := s.Conn.State()
		fmt.Printf("%s %s\n", manifestColor(st.ManifestPath), vendorColor(st.VendorDir))
		fmt.Println()
		fmt.Println(headerColor("packages:"))

		if !s.Conn.Locked() {
			fmt.Println("No composer.lock data found.")
			return nil
		}

		var shown []project.PackageRecord
		for _, rec := range s.Conn.ListInstalled() {
			if packages.IsType(rec.Type, filter) {
				shown = append(shown, rec)
			}
		}
		if len(shown) == 0 {
			if filter.IsNone() {
				fmt.Println("No installed packages found.")
			} else {
				fmt.Printf("No installed packages of type %s.\n", filter)
			}
			return nil
		}

		for _, rec := range shown {
			fmt.Printf("%s %s %s\n", nameColor(rec.Name), versionColor(rec.Version), typeColor(displayType(rec.Type)))
		}
		return nil
	},
}

func displayType(t string) string {
	if t == "" {
		return "(no type)"
	}
	return t
}
