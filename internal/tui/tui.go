// Package tui is an interactive form whose fields are watched by a
// conversion pipeline, the terminal stand-in for a checkout page.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dtnitsch/fxlens/pkg/classifier"
	"github.com/dtnitsch/fxlens/pkg/pipeline"
	"github.com/dtnitsch/fxlens/pkg/tooltip"
)

// PageURL is the location the form pretends to live at.
const PageURL = "https://checkout.fxlens.local/cart"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7fafc")).
			Background(lipgloss.Color("#2d3748")).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a0aec0")).
			Width(14)

	focusedLabelStyle = labelStyle.
				Foreground(lipgloss.Color("#68d391")).
				Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)
)

// runMsg carries pipeline work onto the bubbletea loop.
type runMsg struct{ fn func() }

// Executor runs pipeline callbacks as bubbletea messages, so they never
// race with Update.
type Executor struct {
	mu   sync.Mutex
	prog *tea.Program
}

// Attach binds the executor to a program. Until then work runs inline.
func (e *Executor) Attach(p *tea.Program) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prog = p
}

func (e *Executor) Post(fn func()) {
	e.mu.Lock()
	p := e.prog
	e.mu.Unlock()
	if p == nil {
		fn()
		return
	}
	p.Send(runMsg{fn: fn})
}

type field struct {
	key   pipeline.ElementKey
	label string
	hint  string
	el    classifier.ElementDescriptor
	input textinput.Model
}

// Model is the form.
type Model struct {
	fields   []*field
	focus    int
	pipeline *pipeline.Pipeline
	view     *tooltip.Recorder
	width    int
	quitting bool
}

// NewModel builds the form. view must be the Recorder p renders into.
func NewModel(p *pipeline.Pipeline, view *tooltip.Recorder) *Model {
	m := &Model{
		pipeline: p,
		view:     view,
		fields: []*field{
			newField("price", "Price", "any amount, e.g. ¥12,800",
				classifier.Static{Tag: "input", Attrs: map[string]string{"type": "text", "id": "price"}}),
			newField("shipping", "Shipping", "watched through its class name",
				classifier.Static{Tag: "div", Attrs: map[string]string{"class": "shipping-textbox"}}),
			newField("notes", "Notes", "free text, last number wins",
				classifier.Static{Tag: "textarea", Attrs: map[string]string{"id": "notes"}}),
			newField("quantity", "Quantity", "a range slider, never watched",
				classifier.Static{Tag: "input", Attrs: map[string]string{"type": "range", "id": "quantity"}}),
			newField("promo", "Promo code", "add .promo to blocked selectors to ignore it",
				classifier.Static{Tag: "input", Attrs: map[string]string{"type": "text", "class": "promo"}}),
		},
	}
	m.fields[0].input.Focus()
	return m
}

func newField(key, label, hint string, el classifier.ElementDescriptor) *field {
	in := textinput.New()
	in.Prompt = "› "
	in.CharLimit = 64
	in.Width = 32
	return &field{key: pipeline.ElementKey(key), label: label, hint: hint, el: el, input: in}
}

func (m *Model) Init() tea.Cmd {
	m.pipeline.SetPageURL(PageURL)
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runMsg:
		msg.fn()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			m.pipeline.Detach()
			return m, tea.Quit
		case "tab", "down", "enter":
			return m, m.move(1)
		case "shift+tab", "up":
			return m, m.move(-1)
		}
	}

	f := m.fields[m.focus]
	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		kind := pipeline.SignalKeyUp
		if f.input.Value() != before {
			kind = pipeline.SignalInput
		}
		m.signal(kind, f)
	}
	return m, cmd
}

// move blurs the focused field and focuses the next one in dir.
func (m *Model) move(dir int) tea.Cmd {
	cur := m.fields[m.focus]
	cur.input.Blur()
	m.signal(pipeline.SignalBlur, cur)

	m.focus = (m.focus + dir + len(m.fields)) % len(m.fields)
	next := m.fields[m.focus]
	cmd := next.input.Focus()
	m.signal(pipeline.SignalFocus, next)
	return cmd
}

func (m *Model) signal(kind pipeline.SignalKind, f *field) {
	m.pipeline.HandleSignal(pipeline.Signal{
		Kind:    kind,
		Key:     f.key,
		Element: f.el,
		Text:    func() string { return f.input.Value() },
		Anchor:  tooltip.Rect{Top: float64(m.indexOf(f)), Width: float64(f.input.Width), Height: 1},
	})
}

func (m *Model) indexOf(f *field) int {
	for i, x := range m.fields {
		if x == f {
			return i
		}
	}
	return -1
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("fxlens · "+PageURL) + "\n\n")

	ev, visible := m.view.Current()
	for i, f := range m.fields {
		label := labelStyle.Render(f.label)
		if i == m.focus {
			label = focusedLabelStyle.Render(f.label)
		}
		fmt.Fprintf(&b, "%s %s  %s\n", label, f.input.View(), hintStyle.Render(f.hint))

		if visible && int(ev.Anchor.Top) == i {
			b.WriteString(lipgloss.NewStyle().MarginLeft(15).Render(tooltip.Render(ev.Content)) + "\n")
		}
	}

	s, _ := m.pipeline.Snapshot()
	status := fmt.Sprintf("%s → %s", s.FromCurrency, s.ToCurrency)
	if m.pipeline.Suppressed() {
		status += " · suppressed"
	}
	b.WriteString(footerStyle.Render(status + " · tab/↑↓ move · esc quit"))
	return b.String()
}

// Run starts the form on the terminal and blocks until the user quits.
func Run(ctx context.Context, p *pipeline.Pipeline, view *tooltip.Recorder, exec *Executor) error {
	prog := tea.NewProgram(NewModel(p, view), tea.WithContext(ctx))
	exec.Attach(prog)
	_, err := prog.Run()
	return err
}
