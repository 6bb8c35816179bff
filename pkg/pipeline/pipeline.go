// Package pipeline turns DOM signals into conversion tooltips: URL gate,
// element filter, debounce, amount extraction, rate lookup, fees, render.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/classifier"
	"github.com/dtnitsch/fxlens/pkg/debounce"
	"github.com/dtnitsch/fxlens/pkg/eventloop"
	"github.com/dtnitsch/fxlens/pkg/extractor"
	"github.com/dtnitsch/fxlens/pkg/rates"
	"github.com/dtnitsch/fxlens/pkg/settings"
	"github.com/dtnitsch/fxlens/pkg/tooltip"
	"github.com/dtnitsch/fxlens/pkg/urlgate"
	"go.uber.org/zap"
)

// Config tunes the pipeline.
type Config struct {
	Debounce      time.Duration `koanf:"debounce"`
	LookupTimeout time.Duration `koanf:"lookup_timeout"`
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Debounce:      debounce.DefaultDelay,
		LookupTimeout: 10 * time.Second,
	}
}

type element struct {
	last    string
	hasLast bool
	state   State
	seq     uint64
}

// Pipeline owns one page's conversion state. All methods are safe to call
// from any goroutine; debounced work and lookup completions run through the
// executor.
type Pipeline struct {
	mu sync.Mutex

	cfg        Config
	settings   models.ConversionSettings
	filter     models.FilterConfig
	gate       *urlgate.Gate
	classifier *classifier.Classifier
	pageURL    string
	urlDenied  bool
	detached   bool
	gen        uint64 // bumped on every config change
	elements   map[ElementKey]*element
	lastResult *models.ConversionResult

	exec     debounce.Executor
	sched    *debounce.Scheduler
	provider rates.Provider
	view     tooltip.View
	logger   *zap.Logger
	metrics  *Metrics

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	exec  debounce.Executor
	clock debounce.Clock
}

// WithExecutor runs debounced work and lookup completions on exec, e.g. an
// eventloop.Loop. The default serializes with a mutex.
func WithExecutor(exec debounce.Executor) Option {
	return func(o *options) { o.exec = exec }
}

// WithClock replaces the debounce clock, mainly for tests.
func WithClock(c debounce.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New builds a pipeline from loaded settings and filters.
func New(cfg Config, s models.ConversionSettings, f models.FilterConfig, provider rates.Provider, view tooltip.View, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Debounce = debounce.Clamp(cfg.Debounce)
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultConfig().LookupTimeout
	}

	o := options{exec: &eventloop.Serial{}}
	for _, opt := range opts {
		opt(&o)
	}
	var schedOpts []debounce.Option
	if o.clock != nil {
		schedOpts = append(schedOpts, debounce.WithClock(o.clock))
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		cfg:      cfg,
		settings: s,
		filter:   f.Clone(),
		elements: make(map[ElementKey]*element),
		exec:     o.exec,
		sched:    debounce.New(o.exec, schedOpts...),
		provider: provider,
		view:     view,
		logger:   logger,
		metrics:  NewMetrics(),
		ctx:      ctx,
		cancel:   cancel,
	}
	p.compileLocked()
	return p
}

// HandleSignal routes one DOM event. Blur always hides the tooltip and
// changes nothing else.
func (p *Pipeline) HandleSignal(sig Signal) {
	p.metrics.SignalsTotal.WithLabelValues(sig.Kind.String()).Inc()

	p.mu.Lock()
	defer p.mu.Unlock()

	if sig.Kind == SignalBlur {
		p.view.Hide()
		return
	}
	if p.suppressedLocked() {
		return
	}
	if !p.classifier.IsMonitored(sig.Element) {
		return
	}

	el := p.elementLocked(sig.Key)
	el.state = StatePendingDebounce

	key, anchor, text := sig.Key, sig.Anchor, sig.Text
	p.sched.Schedule(key, p.cfg.Debounce, func() {
		t := ""
		if text != nil {
			t = text()
		}
		p.ProcessText(key, t, anchor)
	})
}

// ProcessText runs one conversion cycle for key's current text. Hosts that
// debounce themselves may call it directly.
func (p *Pipeline) ProcessText(key ElementKey, text string, anchor tooltip.Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()

	el := p.elementLocked(key)
	el.state = p.restingStateLocked(key)

	if p.suppressedLocked() {
		p.view.Hide()
		return
	}

	// A cleared field forgets its last text so retyping it renders again.
	if strings.TrimSpace(text) == "" {
		el.last, el.hasLast = "", false
		p.view.Hide()
		return
	}

	if el.hasLast && el.last == text {
		p.metrics.DedupSkipsTotal.Inc()
		return
	}
	el.last, el.hasLast = text, true

	match, ok := extractor.Extract(text)
	if !ok {
		p.metrics.ExtractionMissesTotal.Inc()
		p.view.Hide()
		return
	}

	el.seq++
	el.state = StateConverting
	seq, gen := el.seq, p.gen
	s := p.settings

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		ctx, cancel := context.WithTimeout(p.ctx, p.cfg.LookupTimeout)
		q, err := p.provider.GetRate(ctx, s.FromCurrency, s.ToCurrency)
		cancel()
		p.exec.Post(func() { p.complete(key, seq, gen, anchor, match, s, q, err) })
	}()
}

// complete renders a finished lookup unless the config changed meanwhile.
func (p *Pipeline) complete(key ElementKey, seq, gen uint64, anchor tooltip.Rect, match models.AmountMatch, s models.ConversionSettings, q models.Quote, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if el, ok := p.elements[key]; ok && el.seq == seq && el.state == StateConverting {
		el.state = p.restingStateLocked(key)
	}

	if gen != p.gen || p.suppressedLocked() {
		p.metrics.ConversionsTotal.WithLabelValues("stale").Inc()
		return
	}

	if err != nil {
		p.metrics.ConversionsTotal.WithLabelValues("failed").Inc()
		p.logger.Warn("currency conversion failed",
			zap.String("from", s.FromCurrency), zap.String("to", s.ToCurrency), zap.Error(err))
		p.view.Hide()
		return
	}

	result := buildResult(match, s, q)
	p.lastResult = &result
	p.metrics.ConversionsTotal.WithLabelValues("rendered").Inc()
	p.view.Show(anchor, tooltip.Compose(result))
}

// State returns key's processing state. Unknown keys are idle.
func (p *Pipeline) State(key ElementKey) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[key]; ok {
		return el.state
	}
	return StateIdle
}

// Suppressed reports whether the page ignores signals: disabled, URL
// denied or detached.
func (p *Pipeline) Suppressed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.suppressedLocked()
}

// Forget drops everything held for key, including a pending run.
func (p *Pipeline) Forget(key ElementKey) {
	p.sched.Cancel(key)
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, key)
}

// SetPageURL records the page location and re-evaluates the URL filter.
func (p *Pipeline) SetPageURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageURL = url
	p.evaluateURLLocked()
}

// Rescan returns the subset of elements the current filters monitor. Hosts
// call it after DOM mutations.
func (p *Pipeline) Rescan(elements []classifier.ElementDescriptor) []classifier.ElementDescriptor {
	p.mu.Lock()
	c := p.classifier
	p.mu.Unlock()

	var out []classifier.ElementDescriptor
	for _, el := range elements {
		if c.IsMonitored(el) {
			out = append(out, el)
		}
	}
	return out
}

// Detach marks the page's messaging channel as gone. The page stays
// suppressed for good.
func (p *Pipeline) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.detached {
		return
	}
	p.detached = true
	p.sched.Stop()
	p.view.Hide()
	p.logger.Info("messaging channel closed, suppressing conversions", zap.String("url", p.pageURL))
}

// ApplyChanges merges a storage change batch. Any change hides the
// tooltip.
func (p *Pipeline) ApplyChanges(changes []settings.Change) {
	if len(changes) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	s, f, err := settings.Merge(p.settings, p.filter, changes)
	if err != nil {
		p.logger.Warn("ignoring undecodable setting changes", zap.Error(err))
	}
	recompile := false
	for _, c := range changes {
		if settings.IsFilterKey(c.Key) {
			recompile = true
			break
		}
	}
	p.settings, p.filter = s, f
	if recompile {
		p.compileLocked()
	}
	p.configChangedLocked()
}

// Snapshot returns copies of the current settings and filters.
func (p *Pipeline) Snapshot() (models.ConversionSettings, models.FilterConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings, p.filter.Clone()
}

// LastResult returns the most recently rendered conversion.
func (p *Pipeline) LastResult() (models.ConversionResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastResult == nil {
		return models.ConversionResult{}, false
	}
	return *p.lastResult, true
}

// Wait blocks until every in-flight rate lookup has been handed to the
// executor.
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}

// Close cancels pending work and in-flight lookups and waits for them.
func (p *Pipeline) Close() {
	p.sched.Stop()
	p.cancel()
	p.inflight.Wait()
}

func (p *Pipeline) elementLocked(key ElementKey) *element {
	el, ok := p.elements[key]
	if !ok {
		el = &element{}
		p.elements[key] = el
	}
	return el
}

// restingStateLocked is where an element goes when its current step ends.
func (p *Pipeline) restingStateLocked(key ElementKey) State {
	if p.sched.IsPending(key) {
		return StatePendingDebounce
	}
	return StateIdle
}

func (p *Pipeline) suppressedLocked() bool {
	return !p.settings.Enabled || p.urlDenied || p.detached
}

func (p *Pipeline) compileLocked() {
	p.gate = urlgate.New(p.filter, p.logger)
	p.classifier = classifier.New(p.filter, p.logger)
	p.evaluateURLLocked()
}

func (p *Pipeline) evaluateURLLocked() {
	if p.pageURL == "" {
		p.urlDenied = false
		return
	}
	p.urlDenied = !p.gate.Allowed(p.pageURL)
}

// configChangedLocked invalidates in-flight results and dedup memory so the
// next signal renders with the new config.
func (p *Pipeline) configChangedLocked() {
	p.gen++
	for _, el := range p.elements {
		el.last, el.hasLast = "", false
	}
	p.view.Hide()
}
