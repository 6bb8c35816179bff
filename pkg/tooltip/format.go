package tooltip

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// symbols follows en-US currency display.
var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"CNY": "CN¥",
	"CAD": "CA$",
	"AUD": "A$",
	"SGD": "SGD ",
	"CHF": "CHF ",
}

// zeroDecimal currencies have no minor unit in display.
var zeroDecimal = map[string]bool{
	"JPY": true,
	"KRW": true,
}

// Decimals returns the display precision for code.
func Decimals(code string) int32 {
	if zeroDecimal[strings.ToUpper(code)] {
		return 0
	}
	return 2
}

// FormatMoney renders amount with the currency's symbol, thousands
// separators and display precision, e.g. "$1,234.50" or "¥1,235".
func FormatMoney(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	places := Decimals(code)

	fixed := amount.Abs().StringFixed(places)
	intPart, frac, _ := strings.Cut(fixed, ".")

	n, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		n = big.NewInt(0)
	}
	grouped := humanize.BigComma(n)
	if frac != "" {
		grouped += "." + frac
	}

	sign := ""
	if amount.Round(places).IsNegative() {
		sign = "-"
	}

	sym, ok := symbols[code]
	if !ok {
		sym = code + " "
	}
	return sign + sym + grouped
}

// FormatRate renders a rate with six decimals.
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.6f", rate)
}

// LastUpdated describes how long ago t was, relative to now.
func LastUpdated(t, now time.Time) string {
	minutes := int(now.Sub(t) / time.Minute)
	switch {
	case minutes < 1:
		return "Updated just now"
	case minutes < 60:
		return fmt.Sprintf("Updated %d %s ago", minutes, plural(minutes, "min"))
	default:
		hours := minutes / 60
		return fmt.Sprintf("Updated %d %s ago", hours, plural(hours, "hour"))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
