// Package models defines data structures for settings, filters and conversions.
package models

// ConversionSettings holds the user-facing conversion options.
// Every field always carries a value; missing keys take DefaultSettings.
type ConversionSettings struct {
	Enabled              bool    `json:"enabled" yaml:"enabled"`
	FromCurrency         string  `json:"fromCurrency" yaml:"fromCurrency"`
	ToCurrency           string  `json:"toCurrency" yaml:"toCurrency"`
	ProcessingFeeEnabled bool    `json:"processingFee" yaml:"processingFee"`
	TariffEnabled        bool    `json:"tariff" yaml:"tariff"`
	TariffPercentage     float64 `json:"tariffPercentage" yaml:"tariffPercentage"`
}

// FilterConfig is an immutable snapshot of URL and selector filters.
// Replace it wholesale; use Clone before handing out slices.
type FilterConfig struct {
	URLFilterMode      FilterMode `json:"urlFilterMode" yaml:"urlFilterMode"`
	AllowlistURLs      []string   `json:"allowlistUrls" yaml:"allowlistUrls"`
	BlocklistURLs      []string   `json:"blocklistUrls" yaml:"blocklistUrls"`
	SelectorFilterMode FilterMode `json:"selectorFilterMode" yaml:"selectorFilterMode"`
	AllowedSelectors   []string   `json:"allowedSelectors" yaml:"allowedSelectors"`
	BlockedSelectors   []string   `json:"blockedSelectors" yaml:"blockedSelectors"`
}

// URLFilter is the URL half of a FilterConfig, as carried by urlFilterChanged.
type URLFilter struct {
	Mode      FilterMode `json:"urlFilterMode"`
	Allowlist []string   `json:"allowlistUrls"`
	Blocklist []string   `json:"blocklistUrls"`
}

// SelectorFilter is the selector half of a FilterConfig.
type SelectorFilter struct {
	Mode    FilterMode `json:"selectorFilterMode"`
	Allowed []string   `json:"allowedSelectors"`
	Blocked []string   `json:"blockedSelectors"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() ConversionSettings {
	return ConversionSettings{
		Enabled:          true,
		FromCurrency:     "JPY",
		ToCurrency:       "USD",
		TariffPercentage: 16.5,
	}
}

// DefaultFilterConfig returns the filter lists used when nothing is stored.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		URLFilterMode:      FilterDisabled,
		AllowlistURLs:      []string{"ebay.com", "amazon.com", "aliexpress.com"},
		BlocklistURLs:      []string{"chrome://", "chrome-extension://"},
		SelectorFilterMode: FilterDisabled,
		AllowedSelectors:   []string{".price", "#price-input", "[data-price]", ".currency-input"},
		BlockedSelectors:   []string{".advertisement", ".ad", "#popup", ".modal"},
	}
}

// Clone returns a deep copy so callers can't alias the snapshot's slices.
func (f FilterConfig) Clone() FilterConfig {
	out := f
	out.AllowlistURLs = cloneStrings(f.AllowlistURLs)
	out.BlocklistURLs = cloneStrings(f.BlocklistURLs)
	out.AllowedSelectors = cloneStrings(f.AllowedSelectors)
	out.BlockedSelectors = cloneStrings(f.BlockedSelectors)
	return out
}

// URLFilter returns the URL half of the config.
func (f FilterConfig) URLFilter() URLFilter {
	return URLFilter{
		Mode:      f.URLFilterMode,
		Allowlist: cloneStrings(f.AllowlistURLs),
		Blocklist: cloneStrings(f.BlocklistURLs),
	}
}

// SelectorFilter returns the selector half of the config.
func (f FilterConfig) SelectorFilter() SelectorFilter {
	return SelectorFilter{
		Mode:    f.SelectorFilterMode,
		Allowed: cloneStrings(f.AllowedSelectors),
		Blocked: cloneStrings(f.BlockedSelectors),
	}
}

// WithURLFilter returns a copy with the URL half replaced.
func (f FilterConfig) WithURLFilter(u URLFilter) FilterConfig {
	out := f.Clone()
	out.URLFilterMode = u.Mode
	out.AllowlistURLs = cloneStrings(u.Allowlist)
	out.BlocklistURLs = cloneStrings(u.Blocklist)
	return out
}

// WithSelectorFilter returns a copy with the selector half replaced.
func (f FilterConfig) WithSelectorFilter(s SelectorFilter) FilterConfig {
	out := f.Clone()
	out.SelectorFilterMode = s.Mode
	out.AllowedSelectors = cloneStrings(s.Allowed)
	out.BlockedSelectors = cloneStrings(s.Blocked)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
