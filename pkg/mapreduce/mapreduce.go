// Package mapreduce tallies the currency markers seen across scanned pages,
// which hints at a site's source currency.
package mapreduce

import (
	"strings"
	"unicode"
)

// Marker returns the currency marker of an extracted token: the symbol or
// ISO code with digits and separators removed. Bare numbers have none.
func Marker(sourceText string) string {
	m := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || unicode.IsSpace(r) || r == ',' || r == '.' {
			return -1
		}
		return r
	}, sourceText)
	return strings.ToUpper(m)
}

// Map counts the markers in one page's extracted tokens.
func Map(sourceTexts []string) map[string]int {
	counts := make(map[string]int)
	for _, s := range sourceTexts {
		if m := Marker(s); m != "" {
			counts[m]++
		}
	}
	return counts
}

// Reduce aggregates per-page counts into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)

	for _, counts := range intermediate {
		for marker, count := range counts {
			finalResults[marker] += count
		}
	}

	return finalResults
}
