package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/extractor"
	"github.com/dtnitsch/fxlens/pkg/fees"
	"github.com/dtnitsch/fxlens/pkg/rates"
	"github.com/shopspring/decimal"
)

// ErrNoAmount is returned by Convert when text holds no amount.
var ErrNoAmount = errors.New("no amount found")

// Convert runs one conversion outside any page: extract, look up, apply
// fees. Used by the CLI and the HTTP convert endpoint.
func Convert(ctx context.Context, provider rates.Provider, s models.ConversionSettings, text string) (models.ConversionResult, error) {
	match, ok := extractor.Extract(text)
	if !ok {
		return models.ConversionResult{}, ErrNoAmount
	}
	q, err := provider.GetRate(ctx, s.FromCurrency, s.ToCurrency)
	if err != nil {
		return models.ConversionResult{}, fmt.Errorf("failed to get rate %s→%s: %w", s.FromCurrency, s.ToCurrency, err)
	}
	return buildResult(match, s, q), nil
}

func buildResult(match models.AmountMatch, s models.ConversionSettings, q models.Quote) models.ConversionResult {
	base := match.Value.Mul(decimal.NewFromFloat(q.Rate))
	b := fees.ApplySettings(base, s)
	return models.ConversionResult{
		FromCurrency:     s.FromCurrency,
		ToCurrency:       s.ToCurrency,
		FromAmount:       match.Value,
		ToAmount:         b.Base,
		Rate:             q.Rate,
		RateSource:       q.Source,
		FeeAmount:        b.Fee,
		TariffAmount:     b.Tariff,
		Total:            b.Total,
		FeeEnabled:       s.ProcessingFeeEnabled,
		TariffEnabled:    s.TariffEnabled,
		TariffPercentage: s.TariffPercentage,
	}
}
