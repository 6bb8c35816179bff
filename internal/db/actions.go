// Package db implements the settings and rates commands, which read and
// write the local database.
package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dtnitsch/fxlens/internal/common"
	"github.com/dtnitsch/fxlens/models"
	dbpkg "github.com/dtnitsch/fxlens/pkg/db"
	"github.com/dtnitsch/fxlens/pkg/settings"
	"github.com/dtnitsch/fxlens/pkg/tooltip"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// SettingsGetAction prints every stored setting, or one when a key is given.
func SettingsGetAction(c *cli.Context) error {
	env, err := common.Bootstrap(c)
	if err != nil {
		return err
	}
	defer env.Close()

	v, err := SettingValues(c.Context, env.Settings, c.Args().First())
	if err != nil {
		return err
	}
	if c.Bool("export") {
		// Same shape settings watch reads.
		out, err := settings.MarshalYAML(v)
		if err != nil {
			return fmt.Errorf("failed to export settings: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	}
	return common.Emit(os.Stdout, c.String("format"), v)
}

// SettingsSetAction stores one setting: fxlens settings set <key> <value>.
func SettingsSetAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return common.Usagef("usage: fxlens settings set <key> <value>")
	}
	key := c.Args().Get(0)
	value := strings.Join(c.Args().Slice()[1:], " ")

	env, err := common.Bootstrap(c)
	if err != nil {
		return err
	}
	defer env.Close()

	msg, err := settings.NewEditor(env.Settings).SetString(c.Context, key, value)
	if errors.Is(err, settings.ErrUnknownKey) {
		return common.Usagef("unknown setting %q (known: %s)", key, strings.Join(settings.Keys, ", "))
	}
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	env.Logger.Info("setting stored", zap.String("key", key), zap.String("action", msg.Action))
	return common.Emit(os.Stdout, c.String("format"), msg)
}

// SettingsSwapAction exchanges the from and to currencies.
func SettingsSwapAction(c *cli.Context) error {
	env, err := common.Bootstrap(c)
	if err != nil {
		return err
	}
	defer env.Close()

	msg, err := settings.NewEditor(env.Settings).Swap(c.Context)
	if err != nil {
		return fmt.Errorf("failed to swap currencies: %w", err)
	}
	return common.Emit(os.Stdout, c.String("format"), msg)
}

// SettingsWatchAction mirrors a YAML settings file into the database until
// interrupted, logging every change batch.
func SettingsWatchAction(c *cli.Context) error {
	env, err := common.Bootstrap(c)
	if err != nil {
		return err
	}
	defer env.Close()

	path := env.Config.Settings.File
	if c.IsSet("file") {
		path = c.String("file")
	}
	if path == "" {
		return common.Usagef("no settings file: pass --file or set settings.file in the config")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	unsubscribe := env.Settings.Subscribe(func(changes []settings.Change) {
		for _, ch := range changes {
			env.Logger.Info("setting changed", zap.String("key", ch.Key), zap.ByteString("value", ch.NewValue))
		}
	})
	defer unsubscribe()

	fw, err := settings.NewFileWatcher(path, env.Settings, env.Logger)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}
	defer fw.Stop()

	<-ctx.Done()
	env.Logger.Info("stopping settings watch")
	return nil
}

// SettingValues returns all settings keyed by storage name, or just key.
func SettingValues(ctx context.Context, store *settings.Store, key string) (map[string]any, error) {
	s, f, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	all := settings.Values(s, f)
	if key == "" {
		return all, nil
	}
	v, ok := all[key]
	if !ok {
		return nil, common.Usagef("unknown setting %q", key)
	}
	return map[string]any{key: v}, nil
}

var timeNow = time.Now

// RateView is one cached rate as printed by the rates commands.
type RateView struct {
	Pair      string  `json:"pair" yaml:"pair"`
	Rate      float64 `json:"rate" yaml:"rate"`
	Source    string  `json:"source,omitempty" yaml:"source,omitempty"`
	FetchedAt string  `json:"fetched_at" yaml:"fetched_at"`
	Age       string  `json:"age" yaml:"age"`
}

// RatesListAction prints every cached rate.
func RatesListAction(c *cli.Context) error {
	env, err := common.Bootstrap(c)
	if err != nil {
		return err
	}
	defer env.Close()

	records, err := env.DB.ListRates(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list rates: %w", err)
	}
	if len(records) == 0 {
		env.Logger.Info("no cached rates, try 'fxlens rates refresh USD EUR'")
	}
	return common.Emit(os.Stdout, c.String("format"), RecordViews(records))
}

// RatesGetAction looks up one pair through the cache.
func RatesGetAction(c *cli.Context) error {
	return rateAction(c, false)
}

// RatesRefreshAction fetches one pair live, bypassing the cache.
func RatesRefreshAction(c *cli.Context) error {
	return rateAction(c, true)
}

func rateAction(c *cli.Context, refresh bool) error {
	if c.NArg() != 2 {
		return common.Usagef("usage: fxlens rates %s <FROM> <TO>", c.Command.Name)
	}
	from, to := strings.ToUpper(c.Args().Get(0)), strings.ToUpper(c.Args().Get(1))
	for _, code := range []string{from, to} {
		if !settings.ValidCurrency(code) {
			return common.Usagef("invalid currency code %q", code)
		}
	}

	env, err := common.Bootstrap(c)
	if err != nil {
		return err
	}
	defer env.Close()

	var q models.Quote
	if refresh {
		q, err = env.Rates.Refresh(c.Context, from, to)
	} else {
		q, err = env.Rates.GetRate(c.Context, from, to)
	}
	if err != nil {
		return fmt.Errorf("failed to get rate %s→%s: %w", from, to, err)
	}
	return common.Emit(os.Stdout, c.String("format"), QuoteView(q))
}

// QuoteView formats a quote for output.
func QuoteView(q models.Quote) RateView {
	return RateView{
		Pair:      dbpkg.PairKey(q.From, q.To),
		Rate:      q.Rate,
		Source:    string(q.Source),
		FetchedAt: q.FetchedAt.UTC().Format("2006-01-02 15:04:05"),
		Age:       tooltip.LastUpdated(q.FetchedAt, timeNow()),
	}
}

// RecordViews formats stored rate rows for output.
func RecordViews(records []dbpkg.RateRecord) []RateView {
	out := make([]RateView, 0, len(records))
	for _, r := range records {
		out = append(out, RateView{
			Pair:      r.Pair,
			Rate:      r.Rate,
			FetchedAt: r.FetchedAt.UTC().Format("2006-01-02 15:04:05"),
			Age:       tooltip.LastUpdated(r.FetchedAt, timeNow()),
		})
	}
	return out
}

// FormatFlag is shared by every settings and rates subcommand.
func FormatFlag() cli.Flag {
	return &cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "yaml", Usage: "output format: yaml or json"}
}
