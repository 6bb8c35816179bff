package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/dtnitsch/fxlens/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	s := models.DefaultSettings()
	s.TariffEnabled = true
	rates := &fakeRates{rate: 0.01}

	res, err := Convert(context.Background(), rates, s, "total ¥2,000")
	require.NoError(t, err)
	assert.Equal(t, "2000", res.FromAmount.String())
	assert.Equal(t, "20", res.ToAmount.String())
	assert.Equal(t, "3.3", res.TariffAmount.String())
	assert.Equal(t, "23.3", res.Total.String())
	assert.Equal(t, []string{"JPY_USD"}, rates.pairs)
}

func TestConvert_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Convert(ctx, &fakeRates{rate: 1}, models.DefaultSettings(), "nothing")
	assert.ErrorIs(t, err, ErrNoAmount)

	boom := errors.New("boom")
	_, err = Convert(ctx, &fakeRates{err: boom}, models.DefaultSettings(), "5")
	assert.ErrorIs(t, err, boom)
}
