package models

import (
	"fmt"
	"strings"
)

// FilterMode selects how a pattern list restricts processing.
type FilterMode int

const (
	// FilterDisabled ignores the pattern lists entirely.
	FilterDisabled FilterMode = iota
	FilterAllowlist           // Only matching targets are processed
	FilterBlocklist           // Matching targets are skipped
)

// String returns the storage form used by the settings store.
func (m FilterMode) String() string {
	switch m {
	case FilterAllowlist:
		return "allowlist"
	case FilterBlocklist:
		return "blocklist"
	default:
		return "disabled"
	}
}

// ParseFilterMode maps a stored mode string to a FilterMode.
// Unknown values resolve to FilterDisabled.
func ParseFilterMode(s string) FilterMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allowlist":
		return FilterAllowlist
	case "blocklist":
		return FilterBlocklist
	default:
		return FilterDisabled
	}
}

func (m FilterMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *FilterMode) UnmarshalText(text []byte) error {
	if m == nil {
		return fmt.Errorf("nil FilterMode")
	}
	*m = ParseFilterMode(string(text))
	return nil
}
