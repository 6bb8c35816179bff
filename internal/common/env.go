package common

import (
	"errors"
	"fmt"

	"github.com/dtnitsch/fxlens/internal/config"
	"github.com/dtnitsch/fxlens/internal/logging"
	"github.com/dtnitsch/fxlens/pkg/db"
	"github.com/dtnitsch/fxlens/pkg/rates"
	"github.com/dtnitsch/fxlens/pkg/settings"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Env is what every command needs: config, logger, database, settings and
// rates.
type Env struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *db.DB
	Settings *settings.Store
	Rates    *rates.Service
}

// Bootstrap loads config from --config, honours --quiet and --db, opens the
// database and warms the rate cache.
func Bootstrap(c *cli.Context) (*Env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if c.Bool("quiet") {
		level = logging.QuietLevel
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	dbPath := cfg.DB.Path
	if c.IsSet("db") {
		dbPath = c.String("db")
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	env := &Env{
		Config:   cfg,
		Logger:   logger,
		DB:       database,
		Settings: settings.NewStore(database, logger),
		Rates:    rates.NewService(cfg.Rates, database, logger),
	}
	if n, err := env.Rates.Warm(c.Context); err != nil {
		logger.Warn("failed to warm rate cache", zap.Error(err))
	} else {
		logger.Debug("rate cache ready", zap.Int("pairs", n), zap.String("db", database.Path()))
	}
	return env, nil
}

// Close releases the database and flushes the logger.
func (e *Env) Close() error {
	err := e.DB.Close()
	_ = e.Logger.Sync()
	return err
}

// ExitCode maps an error to the process exit status: 1 for usage errors,
// 2 for everything else.
func ExitCode(err error) int {
	var ue *UsageError
	if errors.As(err, &ue) {
		return 1
	}
	return 2
}

// UsageError marks bad arguments.
type UsageError struct{ Msg string }

func (e *UsageError) Error() string { return e.Msg }

// Usagef builds a UsageError.
func Usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}
