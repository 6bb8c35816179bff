package settings

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/dtnitsch/fxlens/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCurrencies(t *testing.T) {
	tests := []struct {
		name             string
		from, to         string
		changed          Side
		wantFrom, wantTo string
	}{
		{"distinct", "jpy", "usd", SideFrom, "JPY", "USD"},
		{"from changed to USD", "USD", "USD", SideFrom, "USD", "EUR"},
		{"from changed to EUR", "EUR", "EUR", SideFrom, "EUR", "USD"},
		{"to changed to JPY", "JPY", "JPY", SideTo, "USD", "JPY"},
		{"to changed to USD", "USD", "USD", SideTo, "JPY", "USD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := ResolveCurrencies(tt.from, tt.to, tt.changed)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func TestEditor_SetCurrenciesAndSwap(t *testing.T) {
	store, _ := newTestStore(t)
	ed := NewEditor(store)
	ctx := context.Background()

	msg, err := ed.SetCurrencies(ctx, "EUR", "EUR", SideFrom)
	require.NoError(t, err)
	assert.Equal(t, models.ActionCurrencyChanged, msg.Action)
	assert.Equal(t, "EUR", msg.FromCurrency)
	assert.Equal(t, "USD", msg.ToCurrency)

	msg, err = ed.Swap(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", msg.FromCurrency)
	assert.Equal(t, "EUR", msg.ToCurrency)

	s, _, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", s.FromCurrency)
	assert.Equal(t, "EUR", s.ToCurrency)

	_, err = ed.SetCurrencies(ctx, "EURO", "USD", SideFrom)
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestEditor_SetTariffPercentage(t *testing.T) {
	store, _ := newTestStore(t)
	ed := NewEditor(store)
	ctx := context.Background()

	for _, bad := range []float64{-1, 100.5, math.NaN()} {
		_, err := ed.SetTariffPercentage(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidPercentage, "pct %v", bad)
	}

	msg, err := ed.SetTariffPercentage(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, msg.TariffPercentage)
	assert.Equal(t, 100.0, *msg.TariffPercentage)
	assert.Equal(t, models.ActionTariffPercentageChanged, msg.Action)
}

func TestEditor_Filters(t *testing.T) {
	store, _ := newTestStore(t)
	ed := NewEditor(store)
	ctx := context.Background()

	msg, err := ed.SetURLFilter(ctx, models.FilterAllowlist, []string{"https://Shop.Example/", "shop.example", ""}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ActionURLFilterChanged, msg.Action)
	assert.NotNil(t, msg.BlocklistURLs)

	msg, err = ed.SetSelectorFilter(ctx, models.FilterBlocklist, nil, []string{".ad", "[[[", " "})
	require.NoError(t, err)
	assert.Equal(t, []string{".ad"}, msg.BlockedSelectors)

	_, f, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.FilterAllowlist, f.URLFilterMode)
	assert.Equal(t, models.FilterBlocklist, f.SelectorFilterMode)
	assert.Equal(t, []string{".ad"}, f.BlockedSelectors)
	assert.Empty(t, f.AllowedSelectors)
}

func TestEditor_SetString(t *testing.T) {
	store, _ := newTestStore(t)
	ed := NewEditor(store)
	ctx := context.Background()

	tests := []struct {
		key, value string
		action     string
		wantErr    bool
	}{
		{KeyEnabled, "false", models.ActionToggleEnabled, false},
		{KeyProcessingFee, "true", models.ActionProcessingFeeChanged, false},
		{KeyTariff, "1", models.ActionTariffChanged, false},
		{KeyTariffPercentage, "7.5", models.ActionTariffPercentageChanged, false},
		{KeyTariffPercentage, "abc", "", true},
		{KeyFromCurrency, "usd", models.ActionCurrencyChanged, false},
		{KeyBlocklistURLs, "ads.example, tracker.example", models.ActionURLFilterChanged, false},
		{KeyURLFilterMode, "blocklist", models.ActionURLFilterChanged, false},
		{KeyAllowedSelectors, ".qty\n.price", models.ActionSelectorFilterChanged, false},
		{KeyEnabled, "maybe", "", true},
		{"colour", "red", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			msg, err := ed.SetString(ctx, tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.action, msg.Action)
		})
	}

	s, f, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, s.Enabled)
	assert.True(t, s.TariffEnabled)
	assert.Equal(t, 7.5, s.TariffPercentage)
	// JPY default "to" side is USD, so choosing USD as "from" moves "to"
	assert.Equal(t, "USD", s.FromCurrency)
	assert.Equal(t, "EUR", s.ToCurrency)
	assert.Equal(t, []string{"ads.example", "tracker.example"}, f.BlocklistURLs)
	assert.Equal(t, models.FilterBlocklist, f.URLFilterMode)
	assert.Equal(t, []string{".qty", ".price"}, f.AllowedSelectors)
}

func TestNormalize(t *testing.T) {
	s, f := models.DefaultSettings(), models.DefaultFilterConfig()
	raw := func(doc string) json.RawMessage { return json.RawMessage(doc) }

	tests := []struct {
		name    string
		values  map[string]json.RawMessage
		want    map[string]any
		wantErr error
	}{
		{
			name:   "equal from is auto-swapped",
			values: map[string]json.RawMessage{KeyFromCurrency: raw(`"usd"`)},
			want:   map[string]any{KeyFromCurrency: "USD", KeyToCurrency: "EUR"},
		},
		{
			name:   "equal to keeps to",
			values: map[string]json.RawMessage{KeyToCurrency: raw(`"JPY"`)},
			want:   map[string]any{KeyFromCurrency: "USD", KeyToCurrency: "JPY"},
		},
		{
			name:    "percentage above range is dropped",
			values:  map[string]json.RawMessage{KeyTariffPercentage: raw(`150`), KeyTariff: raw(`true`)},
			want:    map[string]any{KeyTariff: true},
			wantErr: ErrInvalidPercentage,
		},
		{
			name:    "bad currency is dropped",
			values:  map[string]json.RawMessage{KeyFromCurrency: raw(`"EURO"`)},
			want:    map[string]any{},
			wantErr: ErrInvalidCurrency,
		},
		{
			name:    "unknown key is dropped",
			values:  map[string]json.RawMessage{"bogus": raw(`1`)},
			want:    map[string]any{},
			wantErr: ErrUnknownKey,
		},
		{
			name:   "url lists are normalised",
			values: map[string]json.RawMessage{KeyAllowlistURLs: raw(`["  Shop.com ", "", "shop.com"]`)},
			want: map[string]any{
				KeyURLFilterMode: models.FilterDisabled,
				KeyAllowlistURLs: []string{"shop.com"},
				KeyBlocklistURLs: []string{"chrome://", "chrome-extension://"},
			},
		},
		{
			name:   "blank and invalid selectors are dropped",
			values: map[string]json.RawMessage{KeyBlockedSelectors: raw(`["#search", "  ", "[["]`)},
			want: map[string]any{
				KeySelectorFilterMode: f.SelectorFilterMode,
				KeyAllowedSelectors:   []string{".price", "#price-input", "[data-price]", ".currency-input"},
				KeyBlockedSelectors:   []string{"#search"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(s, f, tt.values)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
