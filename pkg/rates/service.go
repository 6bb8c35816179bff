// Package rates answers exchange-rate queries from a live API with a
// freshness cache, a local store and a hardcoded fallback table behind it.
package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/caching"
	"github.com/dtnitsch/fxlens/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNoRate is returned when no source has a rate and identity fallback is off.
var ErrNoRate = errors.New("no exchange rate available")

// Provider looks up the rate for a currency pair.
type Provider interface {
	GetRate(ctx context.Context, from, to string) (models.Quote, error)
}

// Store persists the last known rate per pair. *db.DB satisfies it.
type Store interface {
	SaveRate(ctx context.Context, from, to string, rate float64, fetchedAt time.Time) error
	GetRate(ctx context.Context, from, to string) (*db.RateRecord, error)
	ListRates(ctx context.Context) ([]db.RateRecord, error)
}

// Config controls the rate service.
type Config struct {
	BaseURL           string        `koanf:"base_url"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	RefreshInterval   time.Duration `koanf:"refresh_interval"`
	IdentityFallback  bool          `koanf:"identity_fallback"`
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		CacheTTL:          5 * time.Minute,
		RequestTimeout:    5 * time.Second,
		RequestsPerSecond: 1,
		Burst:             3,
		RefreshInterval:   5 * time.Minute,
		IdentityFallback:  true,
	}
}

// Service implements Provider.
type Service struct {
	cfg     Config
	source  Source
	store   Store
	cache   *caching.Cache[float64]
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSource replaces the live HTTP source.
func WithSource(src Source) Option {
	return func(s *Service) { s.source = src }
}

// WithClock replaces time.Now for the service and its cache.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.cache.WithClock(now)
	}
}

// NewService creates a rate service. store may be nil.
func NewService(cfg Config, store Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	s := &Service{
		cfg:     cfg,
		store:   store,
		cache:   caching.NewCache[float64](cfg.CacheTTL),
		logger:  logger,
		metrics: NewMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = NewLiveSource(cfg.BaseURL, nil, cfg.RequestsPerSecond, cfg.Burst)
	}
	return s
}

// GetRate returns the rate for from→to. Lookup order: identity for equal
// codes, fresh cache, live API, stored rate, fallback table, then identity
// (or ErrNoRate when IdentityFallback is off).
func (s *Service) GetRate(ctx context.Context, from, to string) (models.Quote, error) {
	from, to = normalize(from), normalize(to)
	if from == "" || to == "" {
		return models.Quote{}, fmt.Errorf("invalid currency pair %q/%q", from, to)
	}

	if from == to {
		return s.answer(models.Quote{From: from, To: to, Rate: 1, Source: models.RateSourceIdentity}), nil
	}

	pair := db.PairKey(from, to)
	if r, at, ok := s.cache.Get(pair); ok {
		return s.answer(models.Quote{From: from, To: to, Rate: r, Source: models.RateSourceCache, FetchedAt: at}), nil
	}

	q, liveErr := s.fetchLive(ctx, from, to)
	if liveErr == nil {
		return s.answer(q), nil
	}
	s.metrics.LiveFailuresTotal.Inc()
	s.logger.Warn("live rate fetch failed, using fallback chain",
		zap.String("pair", pair), zap.Error(liveErr))

	if s.store != nil {
		rec, err := s.store.GetRate(ctx, from, to)
		switch {
		case err == nil:
			return s.answer(models.Quote{From: from, To: to, Rate: rec.Rate, Source: models.RateSourceStored, FetchedAt: rec.FetchedAt}), nil
		case !errors.Is(err, db.ErrNotFound):
			s.logger.Warn("stored rate lookup failed", zap.String("pair", pair), zap.Error(err))
		}
	}

	if r, ok := Fallback(pair); ok {
		return s.answer(models.Quote{From: from, To: to, Rate: r, Source: models.RateSourceFallback}), nil
	}

	if s.cfg.IdentityFallback {
		s.logger.Warn("no rate for pair, using 1.0", zap.String("pair", pair))
		return s.answer(models.Quote{From: from, To: to, Rate: 1, Source: models.RateSourceIdentity}), nil
	}
	return models.Quote{}, fmt.Errorf("%s: %w (live: %v)", pair, ErrNoRate, liveErr)
}

// Refresh bypasses the cache and fetches from→to from the live source.
func (s *Service) Refresh(ctx context.Context, from, to string) (models.Quote, error) {
	from, to = normalize(from), normalize(to)
	if from == to {
		return models.Quote{From: from, To: to, Rate: 1, Source: models.RateSourceIdentity}, nil
	}
	q, err := s.fetchLive(ctx, from, to)
	if err != nil {
		s.metrics.LiveFailuresTotal.Inc()
		return models.Quote{}, err
	}
	return q, nil
}

// Convert multiplies amount by the from→to rate.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, models.Quote, error) {
	q, err := s.GetRate(ctx, from, to)
	if err != nil {
		return decimal.Zero, models.Quote{}, err
	}
	return amount.Mul(decimal.NewFromFloat(q.Rate)), q, nil
}

// Warm loads persisted rates into the cache, keeping their original fetch
// time so old rates are not treated as fresh. Returns how many were loaded.
func (s *Service) Warm(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	recs, err := s.store.ListRates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to warm rate cache: %w", err)
	}
	for _, rec := range recs {
		s.cache.SetAt(rec.Pair, rec.Rate, rec.FetchedAt)
	}
	s.logger.Debug("rate cache warmed", zap.Int("pairs", len(recs)))
	return len(recs), nil
}

// fetchLive queries the source for from's table, caches every rate in it
// and persists the requested pair.
func (s *Service) fetchLive(ctx context.Context, from, to string) (models.Quote, error) {
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	table, err := s.source.Rates(ctx, from)
	s.metrics.LiveFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return models.Quote{}, err
	}

	r, ok := table[to]
	if !ok {
		return models.Quote{}, fmt.Errorf("live rates for %s have no %s", from, to)
	}

	now := s.now()
	for code, v := range table {
		s.cache.SetAt(db.PairKey(from, code), v, now)
	}

	if s.store != nil {
		if err := s.store.SaveRate(ctx, from, to, r, now); err != nil {
			s.logger.Warn("failed to persist rate", zap.String("pair", db.PairKey(from, to)), zap.Error(err))
		}
	}

	return models.Quote{From: from, To: to, Rate: r, Source: models.RateSourceLive, FetchedAt: now}, nil
}

func (s *Service) answer(q models.Quote) models.Quote {
	s.metrics.LookupsTotal.WithLabelValues(string(q.Source)).Inc()
	return q
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
