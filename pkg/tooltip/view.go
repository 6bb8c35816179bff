// Package tooltip formats conversion results and shows them through a
// View. Only one tooltip is ever visible.
package tooltip

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View displays a single floating tooltip.
type View interface {
	Show(anchor Rect, content Content)
	Hide()
}

// EventKind distinguishes Recorder events.
type EventKind string

const (
	EventShow EventKind = "show"
	EventHide EventKind = "hide"
)

// Event is one call recorded by a Recorder.
type Event struct {
	Kind    EventKind `json:"kind"`
	Anchor  Rect      `json:"anchor"`
	Content Content   `json:"content"`
	At      time.Time `json:"at"`
}

// Recorder is a View that keeps every call. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	events  []Event
	visible bool
	last    Event
}

func (r *Recorder) Show(anchor Rect, content Content) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := Event{Kind: EventShow, Anchor: anchor, Content: content, At: time.Now()}
	r.events = append(r.events, ev)
	r.visible = true
	r.last = ev
}

func (r *Recorder) Hide() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: EventHide, At: time.Now()})
	r.visible = false
}

// Current returns the visible tooltip, if any.
func (r *Recorder) Current() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.visible
}

// Events returns a copy of everything recorded.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Shows counts Show calls.
func (r *Recorder) Shows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == EventShow {
			n++
		}
	}
	return n
}

// Reset forgets all events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.visible = false
	r.last = Event{}
}

// Palette matches the browser tooltip.
var (
	tooltipBackground = lipgloss.Color("#2d3748")
	tooltipBorder     = lipgloss.Color("#4a5568")
	tooltipText       = lipgloss.Color("#ffffff")
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(tooltipBorder).
			Background(tooltipBackground).
			Foreground(tooltipText).
			Padding(0, 1)
	headlineStyle  = lipgloss.NewStyle().Bold(true)
	rateStyle      = lipgloss.NewStyle().Faint(true)
	breakdownStyle = lipgloss.NewStyle().Faint(true).Italic(true)
)

// Render draws content as a bordered terminal box.
func Render(c Content) string {
	body := headlineStyle.Render(c.Headline) + "\n" + rateStyle.Render(c.RateLine)
	if c.Breakdown != "" {
		body += "\n" + breakdownStyle.Render(c.Breakdown)
	}
	return boxStyle.Render(body)
}

// TerminalView writes each shown tooltip to w and remembers the current
// rendering for callers that redraw themselves.
type TerminalView struct {
	mu      sync.Mutex
	w       io.Writer
	current string
}

// NewTerminalView writes to w. A nil w only keeps the rendering.
func NewTerminalView(w io.Writer) *TerminalView {
	return &TerminalView{w: w}
}

func (v *TerminalView) Show(_ Rect, content Content) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = Render(content)
	if v.w != nil {
		_, _ = fmt.Fprintln(v.w, v.current)
	}
}

func (v *TerminalView) Hide() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = ""
}

// String returns the visible rendering, or "" when hidden.
func (v *TerminalView) String() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}
