package pipeline

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/fxlens/pkg/classifier"
	"github.com/dtnitsch/fxlens/pkg/tooltip"
)

// SignalKind is the DOM event behind a Signal.
type SignalKind int

const (
	SignalInput SignalKind = iota
	SignalFocus
	SignalKeyUp
	SignalChange
	SignalPaste
	SignalClick
	SignalBlur
)

var signalNames = map[SignalKind]string{
	SignalInput:  "input",
	SignalFocus:  "focus",
	SignalKeyUp:  "keyup",
	SignalChange: "change",
	SignalPaste:  "paste",
	SignalClick:  "click",
	SignalBlur:   "blur",
}

func (k SignalKind) String() string {
	if s, ok := signalNames[k]; ok {
		return s
	}
	return fmt.Sprintf("SignalKind(%d)", int(k))
}

// ParseSignalKind maps a DOM event name to a SignalKind. "focusout" is
// accepted as blur.
func ParseSignalKind(s string) (SignalKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "focusout" {
		return SignalBlur, nil
	}
	for k, name := range signalNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown signal kind %q", s)
}

func (k SignalKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *SignalKind) UnmarshalText(text []byte) error {
	parsed, err := ParseSignalKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ElementKey identifies an element for the lifetime of its page. Hosts
// call Forget when the element goes away.
type ElementKey string

// Signal is one DOM event on one element. Text is read when the debounced
// work fires, not when the signal arrives.
type Signal struct {
	Kind    SignalKind
	Key     ElementKey
	Element classifier.ElementDescriptor
	Text    func() string
	Anchor  tooltip.Rect
}

// StaticText returns a Text func for a fixed string.
func StaticText(s string) func() string {
	return func() string { return s }
}

// State is an element's position in the processing cycle.
type State int

const (
	StateIdle State = iota
	StatePendingDebounce
	StateConverting
)

func (s State) String() string {
	switch s {
	case StatePendingDebounce:
		return "pending_debounce"
	case StateConverting:
		return "converting"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
