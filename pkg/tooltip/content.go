package tooltip

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/fees"
)

// Content is what a View displays for one conversion.
type Content struct {
	Headline  string                  `json:"headline"`
	RateLine  string                  `json:"rate_line"`
	Breakdown string                  `json:"breakdown,omitempty"`
	Result    models.ConversionResult `json:"result"`
}

// Lines returns the non-empty display lines in order.
func (c Content) Lines() []string {
	lines := []string{c.Headline, c.RateLine}
	if c.Breakdown != "" {
		lines = append(lines, c.Breakdown)
	}
	return lines
}

func (c Content) String() string {
	return strings.Join(c.Lines(), "\n")
}

// Compose builds tooltip text from a conversion result. The headline shows
// the total including any fee or tariff; the breakdown line appears only
// when one of them is enabled.
func Compose(r models.ConversionResult) Content {
	c := Content{
		Headline: fmt.Sprintf("%s → %s",
			FormatMoney(r.FromAmount, r.FromCurrency),
			FormatMoney(r.Total, r.ToCurrency)),
		RateLine: fmt.Sprintf("Rate: 1 %s = %s %s", r.FromCurrency, FormatRate(r.Rate), r.ToCurrency),
		Result:   r,
	}

	if r.FeeEnabled || r.TariffEnabled {
		parts := []string{"Base: " + FormatMoney(r.ToAmount, r.ToCurrency)}
		if r.FeeEnabled {
			parts = append(parts, fmt.Sprintf("Fee: %s (%s%%)",
				FormatMoney(r.FeeAmount, r.ToCurrency),
				fees.FeeRate.Shift(2).String()))
		}
		if r.TariffEnabled {
			parts = append(parts, fmt.Sprintf("Tariff: %s (%s%%)",
				FormatMoney(r.TariffAmount, r.ToCurrency),
				strconv.FormatFloat(r.TariffPercentage, 'f', -1, 64)))
		}
		c.Breakdown = strings.Join(parts, " + ")
	}
	return c
}
