package rates

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PairFunc returns the pair to keep fresh. It's called on every tick so
// currency changes are picked up without restarting.
type PairFunc func() (from, to string)

// Refresher re-fetches one pair on an interval until its context ends.
type Refresher struct {
	svc      *Service
	interval time.Duration
	pair     PairFunc
	logger   *zap.Logger
}

// NewRefresher creates a refresher. interval <= 0 uses the service config.
func NewRefresher(svc *Service, interval time.Duration, pair PairFunc, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = svc.cfg.RefreshInterval
	}
	if interval <= 0 {
		interval = DefaultConfig().RefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{svc: svc, interval: interval, pair: pair, logger: logger}
}

// Run refreshes once immediately, then every interval. It blocks until ctx
// is done.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	from, to := r.pair()
	q, err := r.svc.Refresh(ctx, from, to)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("periodic rate refresh failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
		}
		return
	}
	r.logger.Debug("rate refreshed", zap.String("from", q.From), zap.String("to", q.To), zap.Float64("rate", q.Rate))
}
