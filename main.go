package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/fxlens/internal/analyze"
	"github.com/dtnitsch/fxlens/internal/common"
	"github.com/dtnitsch/fxlens/internal/db"
	"github.com/dtnitsch/fxlens/internal/fetch"
	"github.com/dtnitsch/fxlens/internal/serve"
	"github.com/dtnitsch/fxlens/pkg/help"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(common.ExitCode(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                 "fxlens",
		Usage:                "convert prices as you type them",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"FXLENS_CONFIG"}, Usage: "config file (default: ~/.config/fxlens/config.yaml)"},
			&cli.StringFlag{Name: "db", Usage: "SQLite database path (default: db.path)"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
		},
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert the amount found in some text",
				ArgsUsage: "<text>",
				Flags:     analyze.Flags(),
				Action:    analyze.ConvertAction,
			},
			{
				Name:      "check-url",
				Usage:     "Report whether the URL filter allows conversions on pages",
				ArgsUsage: "[url...]",
				Flags:     fetch.Flags(),
				Action:    fetch.CheckURLAction,
			},
			{
				Name:      "scan",
				Usage:     "Fetch pages and list the elements that would be watched",
				ArgsUsage: "[url...]",
				Flags:     fetch.ScanFlags(),
				Action:    fetch.ScanAction,
			},
			{
				Name:  "settings",
				Usage: "Read and change stored settings",
				Subcommands: []*cli.Command{
					{
						Name:      "get",
						Usage:     "Print all settings or one key",
						ArgsUsage: "[key]",
						Flags: []cli.Flag{
							db.FormatFlag(),
							&cli.BoolFlag{Name: "export", Usage: "print as a settings file for 'settings watch'"},
						},
						Action: db.SettingsGetAction,
					},
					{
						Name:      "set",
						Usage:     "Store one setting",
						ArgsUsage: "<key> <value>",
						Flags:     []cli.Flag{db.FormatFlag()},
						Action:    db.SettingsSetAction,
					},
					{
						Name:   "swap",
						Usage:  "Exchange the from and to currencies",
						Flags:  []cli.Flag{db.FormatFlag()},
						Action: db.SettingsSwapAction,
					},
					{
						Name:  "watch",
						Usage: "Apply a YAML settings file now and on every save",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "file", Usage: "settings file (default: settings.file)"},
						},
						Action: db.SettingsWatchAction,
					},
				},
			},
			{
				Name:  "rates",
				Usage: "Look up and cache exchange rates",
				Subcommands: []*cli.Command{
					{
						Name:      "get",
						Usage:     "Rate for a pair, from cache when fresh",
						ArgsUsage: "<FROM> <TO>",
						Flags:     []cli.Flag{db.FormatFlag()},
						Action:    db.RatesGetAction,
					},
					{
						Name:      "refresh",
						Usage:     "Fetch a pair live and store it",
						ArgsUsage: "<FROM> <TO>",
						Flags:     []cli.Flag{db.FormatFlag()},
						Action:    db.RatesRefreshAction,
					},
					{
						Name:   "list",
						Usage:  "Print every stored rate",
						Flags:  []cli.Flag{db.FormatFlag()},
						Action: db.RatesListAction,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP message API",
				Flags:  serve.Flags(),
				Action: serve.ServeAction,
			},
			{
				Name:   "try",
				Usage:  "Type into a sample checkout form in the terminal",
				Action: serve.TryAction,
			},
			{
				Name:    "quickstart",
				Aliases: []string{"coldstart"},
				Usage:   "Print a quick reference",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}
}
