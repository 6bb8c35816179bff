package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountMatch is a single amount pulled out of page text.
type AmountMatch struct {
	Value      decimal.Decimal `json:"value"`
	SourceText string          `json:"source_text"` // the matched token, e.g. "$1,234.50"
}

// Breakdown splits a converted amount into base, fee and tariff parts.
type Breakdown struct {
	Base   decimal.Decimal `json:"base" yaml:"base"`
	Fee    decimal.Decimal `json:"fee" yaml:"fee"`
	Tariff decimal.Decimal `json:"tariff" yaml:"tariff"`
	Total  decimal.Decimal `json:"total" yaml:"total"`
}

// RateSource records where a rate came from.
type RateSource string

const (
	RateSourceLive     RateSource = "live"
	RateSourceCache    RateSource = "cache"
	RateSourceStored   RateSource = "stored"
	RateSourceFallback RateSource = "fallback"
	RateSourceIdentity RateSource = "identity"
)

// Quote is a rate for one currency pair.
type Quote struct {
	From      string     `json:"from" yaml:"from"`
	To        string     `json:"to" yaml:"to"`
	Rate      float64    `json:"rate" yaml:"rate"`
	Source    RateSource `json:"source" yaml:"source"`
	FetchedAt time.Time  `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
}

// ConversionResult is produced per pipeline run and consumed by the renderer.
type ConversionResult struct {
	FromCurrency string          `json:"from_currency" yaml:"from_currency"`
	ToCurrency   string          `json:"to_currency" yaml:"to_currency"`
	FromAmount   decimal.Decimal `json:"from_amount" yaml:"from_amount"`
	ToAmount     decimal.Decimal `json:"to_amount" yaml:"to_amount"`
	Rate         float64         `json:"rate" yaml:"rate"`
	RateSource   RateSource      `json:"rate_source" yaml:"rate_source"`
	FeeAmount    decimal.Decimal `json:"fee_amount" yaml:"fee_amount"`
	TariffAmount decimal.Decimal `json:"tariff_amount" yaml:"tariff_amount"`
	Total        decimal.Decimal `json:"total" yaml:"total"`

	FeeEnabled       bool    `json:"fee_enabled" yaml:"fee_enabled"`
	TariffEnabled    bool    `json:"tariff_enabled" yaml:"tariff_enabled"`
	TariffPercentage float64 `json:"tariff_percentage,omitempty" yaml:"tariff_percentage,omitempty"`
}
