// Package serve implements the long-running commands: the HTTP message API
// and the interactive terminal form.
package serve

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/fxlens/internal/common"
	"github.com/dtnitsch/fxlens/internal/server"
	"github.com/dtnitsch/fxlens/internal/tui"
	"github.com/dtnitsch/fxlens/pkg/pipeline"
	"github.com/dtnitsch/fxlens/pkg/rates"
	"github.com/dtnitsch/fxlens/pkg/settings"
	"github.com/dtnitsch/fxlens/pkg/tooltip"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// ServeAction runs the HTTP API with background rate refresh and, when
// configured, a watched settings file. It stops on SIGINT or SIGTERM.
func ServeAction(c *cli.Context) error {
	env, err := common.Bootstrap(c)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.Config
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopWatch, err := watchSettings(ctx, env)
	if err != nil {
		return err
	}
	defer stopWatch()

	refresher := rates.NewRefresher(env.Rates, cfg.Rates.RefreshInterval, currentPair(ctx, env), env.Logger)
	go refresher.Run(ctx)

	srv, err := server.NewServer(env.Rates, env.Settings, env.Logger, &server.Config{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		Pipeline: cfg.Pipeline,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	env.Logger.Info("message API listening", zap.String("addr", cfg.Server.Addr()))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	env.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}

// TryAction opens a small checkout form in the terminal. Typing into it
// drives the same pipeline a browser page would.
func TryAction(c *cli.Context) error {
	env, err := common.Bootstrap(c)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGTERM)
	defer stop()

	s, f, err := env.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Logging to the terminal would tear the form.
	logger := env.Logger.WithOptions(zap.IncreaseLevel(zap.ErrorLevel))

	exec := &tui.Executor{}
	view := &tooltip.Recorder{}
	p := pipeline.New(env.Config.Pipeline, s, f, env.Rates, view, logger, pipeline.WithExecutor(exec))
	defer p.Close()

	unsubscribe := env.Settings.Subscribe(p.ApplyChanges)
	defer unsubscribe()

	stopWatch, err := watchSettings(ctx, &common.Env{Config: env.Config, Logger: logger, Settings: env.Settings})
	if err != nil {
		return err
	}
	defer stopWatch()

	if err := tui.Run(ctx, p, view, exec); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("terminal form failed: %w", err)
	}
	return nil
}

// watchSettings starts a FileWatcher when settings.file is configured.
func watchSettings(ctx context.Context, env *common.Env) (func(), error) {
	path := env.Config.Settings.File
	if path == "" {
		return func() {}, nil
	}
	fw, err := settings.NewFileWatcher(path, env.Settings, env.Logger)
	if err != nil {
		return nil, err
	}
	if err := fw.Start(ctx); err != nil {
		return nil, err
	}
	return fw.Stop, nil
}

// currentPair reads the stored pair on every refresh tick.
func currentPair(ctx context.Context, env *common.Env) rates.PairFunc {
	return func() (string, string) {
		s, _, err := env.Settings.Load(ctx)
		if err != nil {
			env.Logger.Warn("failed to load settings for refresh", zap.Error(err))
		}
		return s.FromCurrency, s.ToCurrency
	}
}

// Flags are the serve command's flags.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Usage: "listen address (default: server.host)"},
		&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port (default: server.port)"},
	}
}
