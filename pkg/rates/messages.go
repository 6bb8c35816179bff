package rates

import (
	"context"
	"errors"
	"strings"

	"github.com/dtnitsch/fxlens/models"
	"github.com/shopspring/decimal"
)

// Conversion is the payload of a convertCurrency acknowledgement.
type Conversion struct {
	Amount    decimal.Decimal `json:"amount"`
	Converted decimal.Decimal `json:"convertedAmount"`
	Quote     models.Quote    `json:"quote"`
}

// Handle answers the rate messages the page side sends: convertCurrency and
// getExchangeRate. Other actions are unknown here.
func (s *Service) Handle(ctx context.Context, msg models.Message) models.Ack {
	from := strings.TrimSpace(msg.FromCurrency)
	to := strings.TrimSpace(msg.ToCurrency)

	switch msg.Action {
	case models.ActionGetExchangeRate:
		if from == "" || to == "" {
			return models.Fail("invalid_message", msg.Action+" requires fromCurrency/toCurrency")
		}
		q, err := s.GetRate(ctx, from, to)
		if err != nil {
			return rateFailure(err)
		}
		return models.OK(q)

	case models.ActionConvertCurrency:
		if from == "" || to == "" {
			return models.Fail("invalid_message", msg.Action+" requires fromCurrency/toCurrency")
		}
		amount := decimal.NewFromFloat(msg.Amount)
		converted, q, err := s.Convert(ctx, amount, from, to)
		if err != nil {
			return rateFailure(err)
		}
		return models.OK(Conversion{Amount: amount, Converted: converted, Quote: q})

	default:
		return models.NewUnknownActionAck(msg.Action)
	}
}

func rateFailure(err error) models.Ack {
	if errors.Is(err, ErrNoRate) {
		return models.Fail("rate_unavailable", err.Error())
	}
	return models.Fail("rate_error", err.Error())
}
