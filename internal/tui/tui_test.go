package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/debounce"
	"github.com/dtnitsch/fxlens/pkg/pipeline"
	"github.com/dtnitsch/fxlens/pkg/tooltip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRate float64

func (r fixedRate) GetRate(_ context.Context, from, to string) (models.Quote, error) {
	return models.Quote{From: from, To: to, Rate: float64(r), Source: models.RateSourceFallback}, nil
}

func newTestModel(t *testing.T, f models.FilterConfig) (*Model, *debounce.ManualClock, *pipeline.Pipeline) {
	t.Helper()
	clock := debounce.NewManualClock(time.Unix(0, 0))
	view := &tooltip.Recorder{}
	p := pipeline.New(pipeline.DefaultConfig(), models.DefaultSettings(), f, fixedRate(0.01), view, nil,
		pipeline.WithClock(clock), pipeline.WithExecutor(&Executor{}))
	t.Cleanup(p.Close)

	m := NewModel(p, view)
	m.Init()
	return m, clock, p
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func settle(clock *debounce.ManualClock, p *pipeline.Pipeline) {
	clock.Advance(debounce.NoisyDelay)
	p.Wait()
}

func TestTypingShowsTooltip(t *testing.T) {
	m, clock, p := newTestModel(t, models.DefaultFilterConfig())

	typeText(m, "5000")
	assert.Equal(t, pipeline.StatePendingDebounce, p.State("price"))
	settle(clock, p)

	ev, visible := m.view.Current()
	require.True(t, visible)
	assert.Equal(t, "¥5,000 → $50.00", ev.Content.Headline)
	assert.Contains(t, m.View(), "¥5,000 → $50.00")
}

func TestMovingFocusHides(t *testing.T) {
	m, clock, p := newTestModel(t, models.DefaultFilterConfig())

	typeText(m, "5000")
	settle(clock, p)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})

	_, visible := m.view.Current()
	assert.False(t, visible)
	assert.Equal(t, 1, m.focus)
}

func TestNonTextFieldIgnored(t *testing.T) {
	m, clock, p := newTestModel(t, models.DefaultFilterConfig())

	m.focus = 3 // quantity
	m.fields[0].input.Blur()
	m.fields[3].input.Focus()
	typeText(m, "7")
	settle(clock, p)

	assert.Equal(t, pipeline.StateIdle, p.State("quantity"))
	assert.Equal(t, 0, m.view.Shows())
}

func TestBlockedFieldIgnored(t *testing.T) {
	m, clock, p := newTestModel(t, models.FilterConfig{
		SelectorFilterMode: models.FilterBlocklist,
		BlockedSelectors:   []string{".promo"},
	})

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, 4, m.focus)
	typeText(m, "99")
	settle(clock, p)
	assert.Equal(t, 0, m.view.Shows())
}

func TestQuitDetaches(t *testing.T) {
	m, _, p := newTestModel(t, models.DefaultFilterConfig())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.True(t, p.Suppressed())
	assert.Empty(t, m.View())
}

func TestExecutorRunsInlineUntilAttached(t *testing.T) {
	var e Executor
	ran := false
	e.Post(func() { ran = true })
	assert.True(t, ran)
}
