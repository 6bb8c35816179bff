package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dtnitsch/fxlens/models"
)

// Change is one key's transition, as raw JSON. A nil NewValue means the key
// was removed and falls back to its default.
type Change struct {
	Key      string          `json:"key"`
	OldValue json.RawMessage `json:"oldValue,omitempty"`
	NewValue json.RawMessage `json:"newValue,omitempty"`
}

// Merge applies a change batch to copies of s and f. Undecodable values
// leave the field untouched and are reported in the joined error; the rest
// of the batch still applies.
func Merge(s models.ConversionSettings, f models.FilterConfig, changes []Change) (models.ConversionSettings, models.FilterConfig, error) {
	f = f.Clone()
	var errs []error
	for _, c := range changes {
		if err := apply(&s, &f, c.Key, c.NewValue); err != nil {
			errs = append(errs, err)
		}
	}
	return s, f, errors.Join(errs...)
}

// apply decodes raw into the field for key. Nil or null resets the field.
func apply(s *models.ConversionSettings, f *models.FilterConfig, key string, raw json.RawMessage) error {
	if raw == nil || string(bytes.TrimSpace(raw)) == "null" {
		resetField(s, f, key)
		return nil
	}

	var err error
	switch key {
	case KeyEnabled:
		err = decodeInto(raw, &s.Enabled)
	case KeyProcessingFee:
		err = decodeInto(raw, &s.ProcessingFeeEnabled)
	case KeyTariff:
		err = decodeInto(raw, &s.TariffEnabled)
	case KeyTariffPercentage:
		err = decodeInto(raw, &s.TariffPercentage)
	case KeyFromCurrency:
		err = decodeCurrency(raw, &s.FromCurrency)
	case KeyToCurrency:
		err = decodeCurrency(raw, &s.ToCurrency)
	case KeyURLFilterMode:
		err = decodeInto(raw, &f.URLFilterMode)
	case KeyAllowlistURLs:
		err = decodeInto(raw, &f.AllowlistURLs)
	case KeyBlocklistURLs:
		err = decodeInto(raw, &f.BlocklistURLs)
	case KeySelectorFilterMode:
		err = decodeInto(raw, &f.SelectorFilterMode)
	case KeyAllowedSelectors:
		err = decodeInto(raw, &f.AllowedSelectors)
	case KeyBlockedSelectors:
		err = decodeInto(raw, &f.BlockedSelectors)
	default:
		return nil // foreign keys share the store
	}
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// decodeInto only assigns on success so a bad value keeps the old one.
func decodeInto[T any](raw json.RawMessage, dst *T) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}

func decodeCurrency(raw json.RawMessage, dst *string) error {
	var code string
	if err := json.Unmarshal(raw, &code); err != nil {
		return err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return errors.New("empty currency code")
	}
	*dst = code
	return nil
}

func resetField(s *models.ConversionSettings, f *models.FilterConfig, key string) {
	ds, df := models.DefaultSettings(), models.DefaultFilterConfig()
	switch key {
	case KeyEnabled:
		s.Enabled = ds.Enabled
	case KeyProcessingFee:
		s.ProcessingFeeEnabled = ds.ProcessingFeeEnabled
	case KeyTariff:
		s.TariffEnabled = ds.TariffEnabled
	case KeyTariffPercentage:
		s.TariffPercentage = ds.TariffPercentage
	case KeyFromCurrency:
		s.FromCurrency = ds.FromCurrency
	case KeyToCurrency:
		s.ToCurrency = ds.ToCurrency
	case KeyURLFilterMode:
		f.URLFilterMode = df.URLFilterMode
	case KeyAllowlistURLs:
		f.AllowlistURLs = df.AllowlistURLs
	case KeyBlocklistURLs:
		f.BlocklistURLs = df.BlocklistURLs
	case KeySelectorFilterMode:
		f.SelectorFilterMode = df.SelectorFilterMode
	case KeyAllowedSelectors:
		f.AllowedSelectors = df.AllowedSelectors
	case KeyBlockedSelectors:
		f.BlockedSelectors = df.BlockedSelectors
	}
}

// Values flattens snapshots into storage-key form.
func Values(s models.ConversionSettings, f models.FilterConfig) map[string]any {
	return map[string]any{
		KeyEnabled:            s.Enabled,
		KeyProcessingFee:      s.ProcessingFeeEnabled,
		KeyTariff:             s.TariffEnabled,
		KeyTariffPercentage:   s.TariffPercentage,
		KeyFromCurrency:       s.FromCurrency,
		KeyToCurrency:         s.ToCurrency,
		KeyURLFilterMode:      f.URLFilterMode,
		KeyAllowlistURLs:      nonNil(f.AllowlistURLs),
		KeyBlocklistURLs:      nonNil(f.BlocklistURLs),
		KeySelectorFilterMode: f.SelectorFilterMode,
		KeyAllowedSelectors:   nonNil(f.AllowedSelectors),
		KeyBlockedSelectors:   nonNil(f.BlockedSelectors),
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
