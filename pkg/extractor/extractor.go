// Package extractor pulls a best-guess monetary amount out of free text.
package extractor

import (
	"regexp"
	"strings"

	"github.com/dtnitsch/fxlens/models"
	"github.com/shopspring/decimal"
)

// digitGroup is a comma-grouped number with up to two fractional digits.
const digitGroup = `([0-9,]+(?:\.[0-9]{1,2})?)`

// isoCodes are the three-letter codes recognised next to a number.
const isoCodes = `(?:USD|EUR|GBP|JPY|CNY|KRW|CAD|AUD|CHF|SGD)`

// currencyPatterns are tried in order; the first class with a usable match wins.
var currencyPatterns = []*regexp.Regexp{
	// $1,000 or €1000.50
	regexp.MustCompile(`[$€£¥₹₩]\s*` + digitGroup),
	// 1000円 or 1,000₹
	regexp.MustCompile(digitGroup + `\s*[円₹₩]`),
	// 1000 USD
	regexp.MustCompile(`(?i)` + digitGroup + `\s*` + isoCodes),
	// USD 1000
	regexp.MustCompile(`(?i)` + isoCodes + `\s*` + digitGroup),
}

var bareNumber = regexp.MustCompile(digitGroup)

// Extract returns the amount the text most likely refers to.
//
// Currency-marked tokens take priority over bare numbers. Without a marker
// the last number in the text is used, since that's what was typed most
// recently.
func Extract(text string) (models.AmountMatch, bool) {
	for _, pattern := range currencyPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, ok := parseGroup(m[1]); ok {
			return models.AmountMatch{Value: v, SourceText: m[0]}, true
		}
	}

	matches := bareNumber.FindAllString(text, -1)
	if len(matches) == 0 {
		return models.AmountMatch{}, false
	}
	last := matches[len(matches)-1]
	v, ok := parseGroup(last)
	if !ok {
		return models.AmountMatch{}, false
	}
	return models.AmountMatch{Value: v, SourceText: last}, true
}

// Amount is Extract without the source text.
func Amount(text string) (decimal.Decimal, bool) {
	m, ok := Extract(text)
	return m.Value, ok
}

// parseGroup strips grouping separators and rejects anything that isn't
// a positive number.
func parseGroup(group string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(group, ",", "")
	if cleaned == "" || cleaned == "." {
		return decimal.Decimal{}, false
	}
	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if !v.IsPositive() {
		return decimal.Decimal{}, false
	}
	return v, true
}
