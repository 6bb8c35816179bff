package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/classifier"
	"github.com/dtnitsch/fxlens/pkg/debounce"
	"github.com/dtnitsch/fxlens/pkg/settings"
	"github.com/dtnitsch/fxlens/pkg/tooltip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeRates returns a fixed rate, or err, and counts calls. When hold is
// set, lookups block until it's closed.
type fakeRates struct {
	mu    sync.Mutex
	rate  float64
	err   error
	hold  chan struct{}
	calls int
	pairs []string
}

func (f *fakeRates) GetRate(ctx context.Context, from, to string) (models.Quote, error) {
	f.mu.Lock()
	f.calls++
	f.pairs = append(f.pairs, from+"_"+to)
	hold, rate, err := f.hold, f.rate, f.err
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return models.Quote{}, ctx.Err()
		}
	}
	if err != nil {
		return models.Quote{}, err
	}
	return models.Quote{From: from, To: to, Rate: rate, Source: models.RateSourceLive}, nil
}

func (f *fakeRates) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type harness struct {
	p     *Pipeline
	view  *tooltip.Recorder
	rates *fakeRates
	clock *debounce.ManualClock
}

func newHarness(t *testing.T, mutate func(*models.ConversionSettings, *models.FilterConfig)) *harness {
	t.Helper()
	s, f := models.DefaultSettings(), models.DefaultFilterConfig()
	if mutate != nil {
		mutate(&s, &f)
	}
	h := &harness{
		view:  &tooltip.Recorder{},
		rates: &fakeRates{rate: 0.0067},
		clock: debounce.NewManualClock(time.Unix(0, 0)),
	}
	h.p = New(DefaultConfig(), s, f, h.rates, h.view, nil, WithClock(h.clock))
	t.Cleanup(h.p.Close)
	return h
}

var textInput = classifier.Static{Tag: "input", Attrs: map[string]string{"type": "text"}}

func (h *harness) signal(kind SignalKind, key ElementKey, text string) {
	h.p.HandleSignal(Signal{
		Kind:    kind,
		Key:     key,
		Element: textInput,
		Text:    StaticText(text),
		Anchor:  tooltip.Rect{Left: 10, Top: 20, Width: 100, Height: 30},
	})
}

// settle fires due debounce timers and waits for lookups to finish.
func (h *harness) settle() {
	h.clock.Advance(debounce.DefaultDelay)
	h.p.Wait()
}

func TestPipeline_TypedAmountRendersTooltip(t *testing.T) {
	h := newHarness(t, nil)

	h.signal(SignalInput, "price", "¥10,000")
	assert.Equal(t, StatePendingDebounce, h.p.State("price"))
	assert.Equal(t, 0, h.view.Shows())

	h.settle()

	ev, visible := h.view.Current()
	require.True(t, visible)
	assert.Equal(t, "¥10,000 → $67.00", ev.Content.Headline)
	assert.Equal(t, tooltip.Rect{Left: 10, Top: 20, Width: 100, Height: 30}, ev.Anchor)
	assert.Equal(t, StateIdle, h.p.State("price"))

	res, ok := h.p.LastResult()
	require.True(t, ok)
	assert.Equal(t, "67", res.Total.String())
}

func TestPipeline_BurstIsDebounced(t *testing.T) {
	h := newHarness(t, nil)

	for _, text := range []string{"1", "12", "120", "1200"} {
		h.signal(SignalInput, "price", text)
		h.clock.Advance(50 * time.Millisecond)
	}
	h.settle()

	assert.Equal(t, 1, h.rates.Calls())
	ev, _ := h.view.Current()
	assert.Equal(t, "¥1,200 → $8.04", ev.Content.Headline)
}

func TestPipeline_SameTextIsDeduplicated(t *testing.T) {
	h := newHarness(t, nil)

	h.p.ProcessText("a", "$25", tooltip.Rect{})
	h.p.Wait()
	h.p.ProcessText("a", "$25", tooltip.Rect{})
	h.p.Wait()
	assert.Equal(t, 1, h.view.Shows())
	assert.Equal(t, 1, h.rates.Calls())

	// Dedup is per element
	h.p.ProcessText("b", "$25", tooltip.Rect{})
	h.p.Wait()
	assert.Equal(t, 2, h.view.Shows())
}

func TestPipeline_EmptyAndNoAmountHide(t *testing.T) {
	h := newHarness(t, nil)

	h.p.ProcessText("a", "100", tooltip.Rect{})
	h.p.Wait()
	_, visible := h.view.Current()
	require.True(t, visible)

	h.p.ProcessText("a", "   ", tooltip.Rect{})
	_, visible = h.view.Current()
	assert.False(t, visible)

	h.p.ProcessText("a", "100", tooltip.Rect{})
	h.p.Wait()
	h.p.ProcessText("a", "no digits here", tooltip.Rect{})
	_, visible = h.view.Current()
	assert.False(t, visible)
	assert.Equal(t, 2, h.rates.Calls())
}

func TestPipeline_BlurHidesWithoutChangingState(t *testing.T) {
	h := newHarness(t, nil)

	h.p.ProcessText("a", "100", tooltip.Rect{})
	h.p.Wait()
	h.signal(SignalInput, "a", "200")
	h.signal(SignalBlur, "a", "")

	_, visible := h.view.Current()
	assert.False(t, visible)
	assert.Equal(t, StatePendingDebounce, h.p.State("a"))

	h.settle()
	_, visible = h.view.Current()
	assert.True(t, visible)
}

func TestPipeline_RejectedElementIgnored(t *testing.T) {
	h := newHarness(t, nil)

	h.p.HandleSignal(Signal{Kind: SignalInput, Key: "btn", Element: classifier.Static{Tag: "button"}, Text: StaticText("100")})
	h.settle()

	assert.Equal(t, StateIdle, h.p.State("btn"))
	assert.Equal(t, 0, h.rates.Calls())
}

func TestPipeline_SuppressedByURL(t *testing.T) {
	h := newHarness(t, func(_ *models.ConversionSettings, f *models.FilterConfig) {
		f.URLFilterMode = models.FilterBlocklist
		f.BlocklistURLs = []string{"bank.example"}
	})

	h.p.SetPageURL("https://www.bank.example/transfer")
	assert.True(t, h.p.Suppressed())
	h.signal(SignalInput, "a", "100")
	h.settle()
	assert.Equal(t, 0, h.rates.Calls())

	h.p.SetPageURL("https://shop.example/cart")
	assert.False(t, h.p.Suppressed())
	h.signal(SignalInput, "a", "100")
	h.settle()
	assert.Equal(t, 1, h.rates.Calls())
}

func TestPipeline_DisabledWhilePendingHides(t *testing.T) {
	h := newHarness(t, nil)

	h.signal(SignalInput, "a", "100")
	ack := h.p.Handle(models.Message{Action: models.ActionToggleEnabled, Enabled: boolPtr(false)})
	require.True(t, ack.Success)

	h.settle()
	assert.Equal(t, 0, h.rates.Calls())
	_, visible := h.view.Current()
	assert.False(t, visible)
}

func TestPipeline_LookupFailureHides(t *testing.T) {
	h := newHarness(t, nil)
	h.rates.err = errors.New("no rate")

	h.p.ProcessText("a", "100", tooltip.Rect{})
	h.p.Wait()

	assert.Equal(t, 0, h.view.Shows())
	_, visible := h.view.Current()
	assert.False(t, visible)
	assert.Equal(t, StateIdle, h.p.State("a"))
}

func TestPipeline_OtherElementsStaySchedulableDuringLookup(t *testing.T) {
	h := newHarness(t, nil)
	h.rates.hold = make(chan struct{})

	h.p.ProcessText("slow", "100", tooltip.Rect{})
	assert.Equal(t, StateConverting, h.p.State("slow"))

	h.signal(SignalInput, "other", "5")
	assert.Equal(t, StatePendingDebounce, h.p.State("other"))
	h.clock.Advance(debounce.DefaultDelay)
	assert.Equal(t, StateConverting, h.p.State("other"))

	close(h.rates.hold)
	h.p.Wait()
	assert.Equal(t, StateIdle, h.p.State("slow"))
	assert.Equal(t, StateIdle, h.p.State("other"))
	assert.Equal(t, 2, h.view.Shows())
}

func TestPipeline_ConfigChangeDropsInFlightResult(t *testing.T) {
	h := newHarness(t, nil)
	h.rates.hold = make(chan struct{})

	h.p.ProcessText("a", "100", tooltip.Rect{})
	ack := h.p.Handle(models.Message{Action: models.ActionCurrencyChanged, FromCurrency: "eur", ToCurrency: "gbp"})
	require.True(t, ack.Success)

	close(h.rates.hold)
	h.p.Wait()
	assert.Equal(t, 0, h.view.Shows())

	// Same text converts again under the new pair
	h.rates.mu.Lock()
	h.rates.hold = nil
	h.rates.mu.Unlock()
	h.p.ProcessText("a", "100", tooltip.Rect{})
	h.p.Wait()
	ev, visible := h.view.Current()
	require.True(t, visible)
	assert.Equal(t, "EUR", ev.Content.Result.FromCurrency)
	assert.Equal(t, "GBP", ev.Content.Result.ToCurrency)
}

func TestPipeline_FeesInRender(t *testing.T) {
	h := newHarness(t, func(s *models.ConversionSettings, _ *models.FilterConfig) {
		s.FromCurrency, s.ToCurrency = "USD", "EUR"
		s.ProcessingFeeEnabled = true
		s.TariffEnabled = true
		s.TariffPercentage = 16.5
	})
	h.rates.rate = 1

	h.p.ProcessText("a", "100", tooltip.Rect{})
	h.p.Wait()

	res, ok := h.p.LastResult()
	require.True(t, ok)
	assert.Equal(t, "5", res.FeeAmount.String())
	assert.Equal(t, "16.5", res.TariffAmount.String())
	assert.Equal(t, "121.5", res.Total.String())

	ev, _ := h.view.Current()
	assert.Equal(t, "$100.00 → €121.50", ev.Content.Headline)
	assert.Equal(t, "Base: €100.00 + Fee: €5.00 (5%) + Tariff: €16.50 (16.5%)", ev.Content.Breakdown)
}

func TestPipeline_ApplyChanges(t *testing.T) {
	h := newHarness(t, nil)
	h.p.SetPageURL("https://shop.example/")

	h.p.ProcessText("a", "100", tooltip.Rect{})
	h.p.Wait()

	h.p.ApplyChanges([]settings.Change{
		{Key: settings.KeyURLFilterMode, NewValue: []byte(`"allowlist"`)},
		{Key: settings.KeyAllowlistURLs, NewValue: []byte(`["other.example"]`)},
		{Key: settings.KeyProcessingFee, NewValue: []byte(`true`)},
	})

	_, visible := h.view.Current()
	assert.False(t, visible)
	assert.True(t, h.p.Suppressed())

	s, f := h.p.Snapshot()
	assert.True(t, s.ProcessingFeeEnabled)
	assert.Equal(t, []string{"other.example"}, f.AllowlistURLs)
}

func TestPipeline_DetachSuppressesForGood(t *testing.T) {
	h := newHarness(t, nil)

	h.signal(SignalInput, "a", "100")
	h.p.Detach()
	h.p.Detach()
	assert.True(t, h.p.Suppressed())

	h.settle()
	assert.Equal(t, 0, h.rates.Calls())

	h.p.Handle(models.Message{Action: models.ActionToggleEnabled, Enabled: boolPtr(true)})
	assert.True(t, h.p.Suppressed())
}

func TestPipeline_ForgetCancelsPending(t *testing.T) {
	h := newHarness(t, nil)

	h.signal(SignalInput, "a", "100")
	h.p.Forget("a")
	h.settle()

	assert.Equal(t, 0, h.rates.Calls())
	assert.Equal(t, StateIdle, h.p.State("a"))
}

func TestPipeline_Rescan(t *testing.T) {
	h := newHarness(t, func(_ *models.ConversionSettings, f *models.FilterConfig) {
		f.SelectorFilterMode = models.FilterBlocklist
		f.BlockedSelectors = []string{".ad"}
	})

	els := []classifier.ElementDescriptor{
		classifier.Static{Tag: "input"},
		classifier.Static{Tag: "input", Attrs: map[string]string{"class": "ad"}},
		classifier.Static{Tag: "div"},
		classifier.Static{Tag: "textarea"},
	}
	assert.Len(t, h.p.Rescan(els), 2)
}

func TestParseSignalKind(t *testing.T) {
	for k, name := range signalNames {
		got, err := ParseSignalKind(name)
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseSignalKind("FocusOut")
	require.NoError(t, err)
	assert.Equal(t, SignalBlur, got)

	_, err = ParseSignalKind("scroll")
	assert.Error(t, err)
}

func boolPtr(b bool) *bool { return &b }
