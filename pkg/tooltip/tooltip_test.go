package tooltip

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/fxlens/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount string
		code   string
		want   string
	}{
		{"1234.5", "USD", "$1,234.50"},
		{"0.675", "USD", "$0.68"},
		{"1234567.891", "eur", "€1,234,567.89"},
		{"1234.5", "JPY", "¥1,235"},
		{"999", "KRW", "₩999"},
		{"12", "GBP", "£12.00"},
		{"12", "CHF", "CHF 12.00"},
		{"12", "XYZ", "XYZ 12.00"},
		{"-5", "USD", "-$5.00"},
		{"-0.001", "USD", "$0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.amount+" "+tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(d(tt.amount), tt.code))
		})
	}
}

func TestCompose(t *testing.T) {
	r := models.ConversionResult{
		FromCurrency: "JPY",
		ToCurrency:   "USD",
		FromAmount:   d("10000"),
		ToAmount:     d("67"),
		Rate:         0.0067,
		Total:        d("67"),
	}

	c := Compose(r)
	assert.Equal(t, "¥10,000 → $67.00", c.Headline)
	assert.Equal(t, "Rate: 1 JPY = 0.006700 USD", c.RateLine)
	assert.Empty(t, c.Breakdown)
	assert.Len(t, c.Lines(), 2)

	r.FeeEnabled = true
	r.FeeAmount = d("3.35")
	r.Total = d("70.35")
	c = Compose(r)
	assert.Equal(t, "¥10,000 → $70.35", c.Headline)
	assert.Equal(t, "Base: $67.00 + Fee: $3.35 (5%)", c.Breakdown)

	r.TariffEnabled = true
	r.TariffPercentage = 16.5
	r.TariffAmount = d("11.055")
	r.Total = d("81.405")
	c = Compose(r)
	assert.Equal(t, "Base: $67.00 + Fee: $3.35 (5%) + Tariff: $11.06 (16.5%)", c.Breakdown)
	assert.Equal(t, 3, strings.Count(c.String(), "\n")+1)
}

func TestPlace(t *testing.T) {
	vp := Viewport{Width: 1000, Height: 800}
	size := Size{Width: 200, Height: 60}

	tests := []struct {
		name   string
		anchor Rect
		vp     Viewport
		want   Point
	}{
		{"below", Rect{Left: 100, Top: 100, Width: 150, Height: 30}, vp, Point{X: 100, Y: 135}},
		{"clamped right", Rect{Left: 900, Top: 100, Width: 80, Height: 30}, vp, Point{X: 790, Y: 135}},
		{"flipped above", Rect{Left: 100, Top: 750, Width: 150, Height: 30}, vp, Point{X: 100, Y: 685}},
		{"scrolled", Rect{Left: 100, Top: 100, Width: 150, Height: 30}, Viewport{Width: 1000, Height: 800, ScrollY: 400}, Point{X: 100, Y: 535}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Place(tt.anchor, size, tt.vp))
		})
	}
}

func TestLastUpdated(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "Updated just now"},
		{time.Minute, "Updated 1 min ago"},
		{59 * time.Minute, "Updated 59 mins ago"},
		{61 * time.Minute, "Updated 1 hour ago"},
		{5 * time.Hour, "Updated 5 hours ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LastUpdated(now.Add(-tt.ago), now))
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_, visible := r.Current()
	assert.False(t, visible)

	c := Content{Headline: "a"}
	r.Show(Rect{Left: 1}, c)
	ev, visible := r.Current()
	assert.True(t, visible)
	assert.Equal(t, "a", ev.Content.Headline)

	r.Hide()
	_, visible = r.Current()
	assert.False(t, visible)
	assert.Equal(t, 1, r.Shows())
	assert.Len(t, r.Events(), 2)

	r.Reset()
	assert.Empty(t, r.Events())
}

func TestTerminalView(t *testing.T) {
	var buf bytes.Buffer
	v := NewTerminalView(&buf)

	v.Show(Rect{}, Content{Headline: "¥100 → $0.67", RateLine: "Rate: 1 JPY = 0.006700 USD"})
	assert.Contains(t, buf.String(), "¥100 → $0.67")
	assert.Contains(t, v.String(), "Rate: 1 JPY")

	v.Hide()
	assert.Empty(t, v.String())
}
