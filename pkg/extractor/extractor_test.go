package extractor

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		want       string
		wantSource string
		wantOK     bool
	}{
		{name: "dollar with grouping", text: "$1,234.50", want: "1234.5", wantSource: "$1,234.50", wantOK: true},
		{name: "yen symbol and suffix", text: "¥1000円", want: "1000", wantSource: "¥1000", wantOK: true},
		{name: "suffix glyph only", text: "price 2,500円", want: "2500", wantSource: "2,500円", wantOK: true},
		{name: "trailing iso code", text: "abc 42 USD", want: "42", wantSource: "42 USD", wantOK: true},
		{name: "leading iso code lowercase", text: "eur 19.99 total", want: "19.99", wantSource: "eur 19.99", wantOK: true},
		{name: "symbol with whitespace", text: "€  7", want: "7", wantSource: "€  7", wantOK: true},
		{name: "no numbers", text: "no numbers", wantOK: false},
		{name: "empty", text: "", wantOK: false},
		{name: "zero rejected", text: "0", wantOK: false},
		{name: "zero with symbol falls back to bare", text: "$0 then 15", want: "15", wantSource: "15", wantOK: true},
		{name: "commas only", text: ",,,", wantOK: false},
		{name: "one fractional digit", text: "3.5", want: "3.5", wantSource: "3.5", wantOK: true},
		{name: "extra fractional digits truncated", text: "1.234", want: "4", wantSource: "4", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.True(t, got.Value.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got.Value, tt.want)
			assert.Equal(t, tt.wantSource, got.SourceText)
		})
	}
}

func TestExtract_CurrencyMarkerBeatsBareNumbers(t *testing.T) {
	texts := []string{
		"order 12 of 30 costs $45.10 plus 99",
		"99 items 5 boxes ¥3,000 and 7",
		"x GBP 12.00 then 10 11",
	}
	want := []string{"45.1", "3000", "12"}

	for i, text := range texts {
		got, ok := Amount(text)
		require.True(t, ok, text)
		assert.True(t, got.Equal(decimal.RequireFromString(want[i])), "%q: got %s", text, got)
	}
}

func TestExtract_FirstMarkerClassWins(t *testing.T) {
	// The symbol class is tried before the ISO code class even though the
	// ISO token comes first in the text.
	got, ok := Amount("USD 10 or $20")
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.NewFromInt(20)))

	// Within one class the first match in scan order is used.
	got, ok = Amount("$5 and $6")
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.NewFromInt(5)))
}

func TestExtract_LastBareNumberWins(t *testing.T) {
	tests := map[string]string{
		"1 2 3":                  "3",
		"qty 4, price 1,250.75":  "1250.75",
		"10 then 20 then 30.5":   "30.5",
		"from 100 down to 80":    "80",
	}

	for text, want := range tests {
		got, ok := Amount(text)
		require.True(t, ok, text)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%q: got %s want %s", text, got, want)
	}
}
