package settings

// Storage keys. The names are shared with the settings file and the
// message protocol, so they must not change.
const (
	KeyEnabled            = "enabled"
	KeyProcessingFee      = "processingFee"
	KeyTariff             = "tariff"
	KeyTariffPercentage   = "tariffPercentage"
	KeyFromCurrency       = "fromCurrency"
	KeyToCurrency         = "toCurrency"
	KeyURLFilterMode      = "urlFilterMode"
	KeyAllowlistURLs      = "allowlistUrls"
	KeyBlocklistURLs      = "blocklistUrls"
	KeySelectorFilterMode = "selectorFilterMode"
	KeyAllowedSelectors   = "allowedSelectors"
	KeyBlockedSelectors   = "blockedSelectors"
)

// Keys lists every storage key in a stable order.
var Keys = []string{
	KeyEnabled,
	KeyProcessingFee,
	KeyTariff,
	KeyTariffPercentage,
	KeyFromCurrency,
	KeyToCurrency,
	KeyURLFilterMode,
	KeyAllowlistURLs,
	KeyBlocklistURLs,
	KeySelectorFilterMode,
	KeyAllowedSelectors,
	KeyBlockedSelectors,
}

var knownKeys = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Keys))
	for _, k := range Keys {
		m[k] = struct{}{}
	}
	return m
}()

// IsKey reports whether key is a storage key.
func IsKey(key string) bool {
	_, ok := knownKeys[key]
	return ok
}

// IsFilterKey reports whether key belongs to the URL or selector filter.
func IsFilterKey(key string) bool {
	switch key {
	case KeyURLFilterMode, KeyAllowlistURLs, KeyBlocklistURLs,
		KeySelectorFilterMode, KeyAllowedSelectors, KeyBlockedSelectors:
		return true
	}
	return false
}
