// Package fees computes the processing fee and tariff added on top of a
// converted amount.
package fees

import (
	"math"

	"github.com/dtnitsch/fxlens/models"
	"github.com/shopspring/decimal"
)

// FeeRate is the card processing fee.
var FeeRate = decimal.RequireFromString("0.05")

var hundred = decimal.NewFromInt(100)

// Apply returns the breakdown for base. Fee and tariff are both taken on
// base, not compounded. Out-of-range percentages are used as given; NaN
// and infinite ones add no tariff.
func Apply(base decimal.Decimal, feeEnabled, tariffEnabled bool, tariffPercent float64) models.Breakdown {
	b := models.Breakdown{
		Base:   base,
		Fee:    decimal.Zero,
		Tariff: decimal.Zero,
	}
	if feeEnabled {
		b.Fee = base.Mul(FeeRate)
	}
	if tariffEnabled && !math.IsNaN(tariffPercent) && !math.IsInf(tariffPercent, 0) {
		b.Tariff = base.Mul(decimal.NewFromFloat(tariffPercent)).Div(hundred)
	}
	b.Total = b.Base.Add(b.Fee).Add(b.Tariff)
	return b
}

// ApplySettings is Apply with the switches taken from s.
func ApplySettings(base decimal.Decimal, s models.ConversionSettings) models.Breakdown {
	return Apply(base, s.ProcessingFeeEnabled, s.TariffEnabled, s.TariffPercentage)
}
