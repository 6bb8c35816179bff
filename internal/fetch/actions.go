// Package fetch implements the scan and check-url commands.
package fetch

import (
	"fmt"
	"os"
	"time"

	"github.com/dtnitsch/fxlens/internal/common"
	"github.com/dtnitsch/fxlens/pkg/fetcher"
	"github.com/dtnitsch/fxlens/pkg/urlgate"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// ScanAction fetches pages and lists the elements the stored filters would
// watch, with any amount already in them.
func ScanAction(c *cli.Context) error {
	urls, err := urlArgs(c)
	if err != nil {
		return err
	}

	env, err := common.Bootstrap(c)
	if err != nil {
		return err
	}
	defer env.Close()

	_, filter, err := env.Settings.Load(c.Context)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	s := &Scanner{
		Fetcher: fetcher.NewFetcher(fetcher.WithTimeout(c.Duration("timeout"))),
		Filter:  filter,
		Workers: c.Int("workers"),
		Logger:  env.Logger,
	}
	results := s.Run(c.Context, urls)

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	env.Logger.Info("scan finished", zap.Int("pages", len(results)), zap.Int("failed", failed))
	return common.Emit(os.Stdout, c.String("format"), Summarize(results, 5))
}

// CheckURLAction reports whether the stored URL filter lets conversions run
// on each URL. Nothing is fetched.
func CheckURLAction(c *cli.Context) error {
	urls, err := urlArgs(c)
	if err != nil {
		return err
	}

	env, err := common.Bootstrap(c)
	if err != nil {
		return err
	}
	defer env.Close()

	_, filter, err := env.Settings.Load(c.Context)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	return common.Emit(os.Stdout, c.String("format"), CheckURLs(urlgate.New(filter, env.Logger), urls))
}

// CheckURLs runs each URL through gate.
func CheckURLs(gate *urlgate.Gate, urls []string) []URLCheck {
	out := make([]URLCheck, 0, len(urls))
	for _, u := range urls {
		out = append(out, URLCheck{
			URL:     u,
			Domain:  urlgate.Domain(u),
			Mode:    gate.Mode().String(),
			Allowed: gate.Allowed(u),
		})
	}
	return out
}

// urlArgs collects URLs from --urls and positional arguments.
func urlArgs(c *cli.Context) ([]string, error) {
	raw := append(common.SplitList(c.String("urls")), c.Args().Slice()...)
	if len(raw) == 0 {
		return nil, common.Usagef("no URLs given. Example: fxlens %s --urls \"https://shop.example/cart\"", c.Command.Name)
	}
	urls, invalid := common.SanitizeAndValidateURLs(raw)
	if len(invalid) > 0 {
		return nil, common.Usagef("invalid URLs: %v", invalid)
	}
	return urls, nil
}

// Flags are shared by scan and check-url.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "urls", Usage: "comma separated list of URLs"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "yaml", Usage: "output format: yaml or json"},
	}
}

// ScanFlags adds the fetch tuning flags.
func ScanFlags() []cli.Flag {
	return append(Flags(),
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: 4, Usage: "concurrent fetches"},
		&cli.DurationFlag{Name: "timeout", Value: 15 * time.Second, Usage: "per page fetch timeout"},
	)
}
