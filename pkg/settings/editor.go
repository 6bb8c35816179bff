package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/classifier"
	"github.com/dtnitsch/fxlens/pkg/urlgate"
)

var (
	// ErrInvalidPercentage is returned for tariff percentages outside [0, 100].
	ErrInvalidPercentage = errors.New("tariff percentage must be between 0 and 100")
	// ErrInvalidCurrency is returned for codes that aren't three letters.
	ErrInvalidCurrency = errors.New("currency code must be three letters")
)

// Side says which currency the user just picked.
type Side int

const (
	SideFrom Side = iota
	SideTo
)

// Replacement candidates, in preference order, when both sides end up equal.
var (
	toAlternatives   = []string{"USD", "EUR", "GBP", "JPY"}
	fromAlternatives = []string{"JPY", "USD", "EUR", "GBP"}
)

// ResolveCurrencies keeps the side the user changed and moves the other one
// to the first alternative that differs when both are equal.
func ResolveCurrencies(from, to string, changed Side) (string, string) {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if from != to {
		return from, to
	}
	if changed == SideFrom {
		return from, firstOther(toAlternatives, from)
	}
	return firstOther(fromAlternatives, to), to
}

func firstOther(candidates []string, not string) string {
	for _, c := range candidates {
		if c != not {
			return c
		}
	}
	return candidates[0]
}

// ValidCurrency reports whether code is three ASCII letters.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// Editor validates user edits, writes them to the store and returns the
// message that tells running pipelines about the edit.
type Editor struct {
	store *Store
}

func NewEditor(store *Store) *Editor {
	return &Editor{store: store}
}

func (e *Editor) SetEnabled(ctx context.Context, on bool) (models.Message, error) {
	if _, err := e.store.Set(ctx, map[string]any{KeyEnabled: on}); err != nil {
		return models.Message{}, err
	}
	return models.Message{Action: models.ActionToggleEnabled, Enabled: &on}, nil
}

func (e *Editor) SetProcessingFee(ctx context.Context, on bool) (models.Message, error) {
	if _, err := e.store.Set(ctx, map[string]any{KeyProcessingFee: on}); err != nil {
		return models.Message{}, err
	}
	return models.Message{Action: models.ActionProcessingFeeChanged, ProcessingFee: &on}, nil
}

func (e *Editor) SetTariff(ctx context.Context, on bool) (models.Message, error) {
	if _, err := e.store.Set(ctx, map[string]any{KeyTariff: on}); err != nil {
		return models.Message{}, err
	}
	return models.Message{Action: models.ActionTariffChanged, Tariff: &on}, nil
}

// SetTariffPercentage rejects NaN and values outside [0, 100].
func (e *Editor) SetTariffPercentage(ctx context.Context, pct float64) (models.Message, error) {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return models.Message{}, fmt.Errorf("%w: %v", ErrInvalidPercentage, pct)
	}
	if _, err := e.store.Set(ctx, map[string]any{KeyTariffPercentage: pct}); err != nil {
		return models.Message{}, err
	}
	return models.Message{Action: models.ActionTariffPercentageChanged, TariffPercentage: &pct}, nil
}

// SetCurrencies stores a pair, auto-swapping the unchanged side when the
// two would be equal.
func (e *Editor) SetCurrencies(ctx context.Context, from, to string, changed Side) (models.Message, error) {
	if !ValidCurrency(from) {
		return models.Message{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, from)
	}
	if !ValidCurrency(to) {
		return models.Message{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, to)
	}
	from, to = ResolveCurrencies(from, to, changed)

	if _, err := e.store.Set(ctx, map[string]any{KeyFromCurrency: from, KeyToCurrency: to}); err != nil {
		return models.Message{}, err
	}
	return models.Message{Action: models.ActionCurrencyChanged, FromCurrency: from, ToCurrency: to}, nil
}

// Swap exchanges the stored from and to currencies.
func (e *Editor) Swap(ctx context.Context) (models.Message, error) {
	s, _, err := e.store.Load(ctx)
	if err != nil {
		return models.Message{}, err
	}
	return e.SetCurrencies(ctx, s.ToCurrency, s.FromCurrency, SideTo)
}

// SetURLFilter normalises both pattern lists before storing them.
func (e *Editor) SetURLFilter(ctx context.Context, mode models.FilterMode, allow, block []string) (models.Message, error) {
	allow, block = urlgate.NormalizePatterns(allow), urlgate.NormalizePatterns(block)
	_, err := e.store.Set(ctx, map[string]any{
		KeyURLFilterMode: mode,
		KeyAllowlistURLs: nonNil(allow),
		KeyBlocklistURLs: nonNil(block),
	})
	if err != nil {
		return models.Message{}, err
	}
	return models.Message{
		Action:        models.ActionURLFilterChanged,
		URLFilterMode: &mode,
		AllowlistURLs: nonNil(allow),
		BlocklistURLs: nonNil(block),
	}, nil
}

// SetSelectorFilter drops blank and unparseable selectors before storing.
func (e *Editor) SetSelectorFilter(ctx context.Context, mode models.FilterMode, allowed, blocked []string) (models.Message, error) {
	allowed, blocked = classifier.ValidSelectors(allowed), classifier.ValidSelectors(blocked)
	_, err := e.store.Set(ctx, map[string]any{
		KeySelectorFilterMode: mode,
		KeyAllowedSelectors:   allowed,
		KeyBlockedSelectors:   blocked,
	})
	if err != nil {
		return models.Message{}, err
	}
	return models.Message{
		Action:             models.ActionSelectorFilterChanged,
		SelectorFilterMode: &mode,
		AllowedSelectors:   allowed,
		BlockedSelectors:   blocked,
	}, nil
}

// SetString parses a textual value for key and routes it through the
// matching setter. Lists are newline or comma separated.
func (e *Editor) SetString(ctx context.Context, key, value string) (models.Message, error) {
	switch key {
	case KeyEnabled, KeyProcessingFee, KeyTariff:
		on, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return models.Message{}, fmt.Errorf("setting %s: %w", key, err)
		}
		switch key {
		case KeyEnabled:
			return e.SetEnabled(ctx, on)
		case KeyProcessingFee:
			return e.SetProcessingFee(ctx, on)
		default:
			return e.SetTariff(ctx, on)
		}

	case KeyTariffPercentage:
		pct, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return models.Message{}, fmt.Errorf("setting %s: %w", key, err)
		}
		return e.SetTariffPercentage(ctx, pct)

	case KeyFromCurrency, KeyToCurrency:
		s, _, err := e.store.Load(ctx)
		if err != nil {
			return models.Message{}, err
		}
		if key == KeyFromCurrency {
			return e.SetCurrencies(ctx, value, s.ToCurrency, SideFrom)
		}
		return e.SetCurrencies(ctx, s.FromCurrency, value, SideTo)

	case KeyURLFilterMode, KeyAllowlistURLs, KeyBlocklistURLs:
		_, f, err := e.store.Load(ctx)
		if err != nil {
			return models.Message{}, err
		}
		switch key {
		case KeyURLFilterMode:
			f.URLFilterMode = models.ParseFilterMode(value)
		case KeyAllowlistURLs:
			f.AllowlistURLs = splitList(value)
		default:
			f.BlocklistURLs = splitList(value)
		}
		return e.SetURLFilter(ctx, f.URLFilterMode, f.AllowlistURLs, f.BlocklistURLs)

	case KeySelectorFilterMode, KeyAllowedSelectors, KeyBlockedSelectors:
		_, f, err := e.store.Load(ctx)
		if err != nil {
			return models.Message{}, err
		}
		switch key {
		case KeySelectorFilterMode:
			f.SelectorFilterMode = models.ParseFilterMode(value)
		case KeyAllowedSelectors:
			f.AllowedSelectors = urlgate.SplitLines(value)
		default:
			f.BlockedSelectors = urlgate.SplitLines(value)
		}
		return e.SetSelectorFilter(ctx, f.SelectorFilterMode, f.AllowedSelectors, f.BlockedSelectors)
	}

	return models.Message{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Normalize decodes a batch of raw values over s and f and applies the
// setter rules to it: currency auto-swap, the tariff range check and list
// clean-up. Keys that fail to decode or validate are left out of the result
// and reported in the joined error.
func Normalize(s models.ConversionSettings, f models.FilterConfig, values map[string]json.RawMessage) (map[string]any, error) {
	f = f.Clone()
	touched := make(map[string]bool, len(values))
	var errs []error
	for key, raw := range values {
		if !IsKey(key) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownKey, key))
			continue
		}
		if err := apply(&s, &f, key, raw); err != nil {
			errs = append(errs, err)
			continue
		}
		touched[key] = true
	}

	out := make(map[string]any)
	if touched[KeyEnabled] {
		out[KeyEnabled] = s.Enabled
	}
	if touched[KeyProcessingFee] {
		out[KeyProcessingFee] = s.ProcessingFeeEnabled
	}
	if touched[KeyTariff] {
		out[KeyTariff] = s.TariffEnabled
	}

	if touched[KeyTariffPercentage] {
		pct := s.TariffPercentage
		if math.IsNaN(pct) || pct < 0 || pct > 100 {
			errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidPercentage, pct))
		} else {
			out[KeyTariffPercentage] = pct
		}
	}

	if touched[KeyFromCurrency] || touched[KeyToCurrency] {
		switch {
		case !ValidCurrency(s.FromCurrency):
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidCurrency, s.FromCurrency))
		case !ValidCurrency(s.ToCurrency):
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidCurrency, s.ToCurrency))
		default:
			side := SideFrom
			if !touched[KeyFromCurrency] {
				side = SideTo
			}
			out[KeyFromCurrency], out[KeyToCurrency] = ResolveCurrencies(s.FromCurrency, s.ToCurrency, side)
		}
	}

	if touched[KeyURLFilterMode] || touched[KeyAllowlistURLs] || touched[KeyBlocklistURLs] {
		out[KeyURLFilterMode] = f.URLFilterMode
		out[KeyAllowlistURLs] = nonNil(urlgate.NormalizePatterns(f.AllowlistURLs))
		out[KeyBlocklistURLs] = nonNil(urlgate.NormalizePatterns(f.BlocklistURLs))
	}

	if touched[KeySelectorFilterMode] || touched[KeyAllowedSelectors] || touched[KeyBlockedSelectors] {
		out[KeySelectorFilterMode] = f.SelectorFilterMode
		out[KeyAllowedSelectors] = nonNil(classifier.ValidSelectors(f.AllowedSelectors))
		out[KeyBlockedSelectors] = nonNil(classifier.ValidSelectors(f.BlockedSelectors))
	}

	return out, errors.Join(errs...)
}

// splitList splits URL patterns on newlines and commas. Selectors are not
// split on commas since a comma is part of selector-group syntax.
func splitList(value string) []string {
	return urlgate.SplitLines(strings.ReplaceAll(value, ",", "\n"))
}
