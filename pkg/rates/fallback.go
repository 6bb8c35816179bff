package rates

// fallbackRates are last-resort rates used when both the live API and the
// local store have nothing for a pair.
var fallbackRates = map[string]float64{
	"JPY_USD": 0.0067,
	"USD_JPY": 149.25,
	"EUR_USD": 1.1,
	"USD_EUR": 0.91,
	"GBP_USD": 1.27,
	"USD_GBP": 0.79,
}

// Fallback returns the hardcoded rate for a FROM_TO pair key.
func Fallback(pair string) (float64, bool) {
	r, ok := fallbackRates[pair]
	return r, ok
}
