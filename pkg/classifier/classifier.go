// Package classifier decides whether a DOM element should be watched for
// typed amounts.
package classifier

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/dtnitsch/fxlens/models"
	"go.uber.org/zap"
)

// textInputTypes are the input subtypes that accept free text.
var textInputTypes = map[string]struct{}{
	"text":     {},
	"search":   {},
	"url":      {},
	"tel":      {},
	"email":    {},
	"password": {},
	"number":   {},
}

// textboxRoles are ARIA roles used by custom text-entry widgets.
var textboxRoles = map[string]struct{}{
	"textbox":    {},
	"searchbox":  {},
	"combobox":   {},
	"spinbutton": {},
}

// classMarkers are class-name fragments used by non-native input widgets
// (MUI, Ant, Bootstrap and hand-rolled price fields).
var classMarkers = []string{
	"input",
	"textbox",
	"text-field",
	"textfield",
	"form-control",
	"editable",
}

// LooksLikeTextEntry is the basic eligibility check: a native text control,
// an editable region, or something that advertises itself as one.
func LooksLikeTextEntry(el ElementDescriptor) bool {
	if el == nil {
		return false
	}

	switch el.TagName() {
	case "input":
		typ, ok := el.Attr("type")
		typ = strings.ToLower(strings.TrimSpace(typ))
		if !ok || typ == "" {
			typ = "text"
		}
		if _, ok := textInputTypes[typ]; ok {
			return true
		}
	case "textarea":
		return true
	}

	if v, ok := el.Attr("contenteditable"); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "true", "plaintext-only":
			return true
		}
	}

	if role, ok := el.Attr("role"); ok {
		if _, ok := textboxRoles[strings.ToLower(strings.TrimSpace(role))]; ok {
			return true
		}
	}

	if class, ok := el.Attr("class"); ok {
		for _, token := range strings.Fields(strings.ToLower(class)) {
			for _, marker := range classMarkers {
				if strings.Contains(token, marker) {
					return true
				}
			}
		}
	}

	return false
}

// Classifier applies basic eligibility plus the selector filter from a
// FilterConfig. It's immutable once built.
type Classifier struct {
	mode       models.FilterMode
	allowed    []cascadia.Sel
	blocked    []cascadia.Sel
	hasAllowed bool // raw allow-set was non-empty, even if nothing compiled
}

// New compiles the selector half of cfg. Selectors that fail to parse are
// logged and never match.
func New(cfg models.FilterConfig, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		mode:       cfg.SelectorFilterMode,
		allowed:    compileAll(nonEmpty(cfg.AllowedSelectors), logger),
		blocked:    compileAll(nonEmpty(cfg.BlockedSelectors), logger),
		hasAllowed: len(cfg.AllowedSelectors) > 0,
	}
}

// IsMonitored is a one-shot helper that compiles cfg and classifies el.
func IsMonitored(el ElementDescriptor, cfg models.FilterConfig) bool {
	return New(cfg, nil).IsMonitored(el)
}

// IsMonitored reports whether el should be watched.
//
// In allowlist mode with a non-empty allow-set the selectors are
// authoritative and the basic eligibility check is skipped, so bespoke
// widgets can be opted in. Blocklist mode still requires eligibility.
func (c *Classifier) IsMonitored(el ElementDescriptor) bool {
	if el == nil {
		return false
	}

	if c.mode == models.FilterAllowlist && c.hasAllowed {
		return matchAny(c.allowed, el)
	}

	if !LooksLikeTextEntry(el) {
		return false
	}

	if c.mode == models.FilterBlocklist {
		return !matchAny(c.blocked, el)
	}
	return true
}

// Mode returns the selector filter mode.
func (c *Classifier) Mode() models.FilterMode {
	return c.mode
}

// ValidSelectors drops blank and unparseable selectors, keeping order.
func ValidSelectors(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, err := cascadia.ParseGroup(line); err != nil {
			continue
		}
		out = append(out, line)
	}
	return out
}

func matchAny(sels []cascadia.Sel, el ElementDescriptor) bool {
	for _, s := range sels {
		if el.Matches(s) {
			return true
		}
	}
	return false
}

func compileAll(raw []string, logger *zap.Logger) []cascadia.Sel {
	var out []cascadia.Sel
	for _, r := range raw {
		group, err := cascadia.ParseGroup(r)
		if err != nil {
			logger.Warn("invalid selector", zap.String("selector", r), zap.Error(err))
			continue
		}
		out = append(out, group...)
	}
	return out
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
