package risk

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasmarkets/venue-sim/internal/domain"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLimitsDisabledByDefault(t *testing.T) {
	var l Limits
	assert.NoError(t, l.Check(dec("1000000"), dec("1000000")))
}

func TestLimitsMaxQty(t *testing.T) {
	l := Limits{MaxQty: dec("5")}
	assert.NoError(t, l.Check(dec("5"), dec("100")))
	err := l.Check(dec("5.0001"), dec("100"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRiskLimit))
}

func TestLimitsMaxNotional(t *testing.T) {
	l := Limits{MaxNotional: dec("100000")}
	assert.NoError(t, l.Check(dec("2"), dec("50000")))
	err := l.Check(dec("2.1"), dec("50000"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRiskLimit))
}

func TestPreTradeBuyBlocksOnInsufficientQuote(t *testing.T) {
	p := PreTrade(domain.Buy, dec("3"), dec("50000"),
		dec("100000"), dec("50"), dec("100000"))

	assert.Equal(t, StatusBlock, p.Status)
	assert.Equal(t, "Insufficient USD", p.Message)
	assert.True(t, p.RequiredAmount.Equal(dec("150000")))
	assert.True(t, p.AmountAfter.Equal(dec("-50000")))
	assert.True(t, p.ExposureChange.Equal(dec("3")))
}

func TestPreTradeBuyOK(t *testing.T) {
	p := PreTrade(domain.Buy, dec("1"), dec("50000"),
		dec("100000"), dec("50"), dec("100000"))

	assert.Equal(t, StatusOK, p.Status)
	assert.Empty(t, p.Message)
	assert.True(t, p.AmountAfter.Equal(dec("50000")))
	assert.True(t, p.AssetAfter.Equal(dec("51")))
	assert.Empty(t, p.Warnings)
}

func TestPreTradeWarnings(t *testing.T) {
	// notional above 500k
	p := PreTrade(domain.Buy, dec("20"), dec("50000"),
		dec("2000000"), dec("50"), dec("2000000"))
	assert.Contains(t, p.Warnings, "High notional")

	// post-trade quote under 10% of starting quote
	p = PreTrade(domain.Buy, dec("1.9"), dec("50000"),
		dec("100000"), dec("50"), dec("100000"))
	assert.Contains(t, p.Warnings, "Low buffer")
}

func TestPreTradeSellBlocksOnInsufficientBase(t *testing.T) {
	p := PreTrade(domain.Sell, dec("60"), dec("50000"),
		dec("100000"), dec("50"), dec("100000"))

	assert.Equal(t, StatusBlock, p.Status)
	assert.Equal(t, "Insufficient BTC", p.Message)
	assert.True(t, p.RequiredAmount.Equal(dec("60")))
	assert.True(t, p.ExposureChange.Equal(dec("-60")))
}

func TestPreTradeSellOK(t *testing.T) {
	p := PreTrade(domain.Sell, dec("2"), dec("50000"),
		dec("100000"), dec("50"), dec("100000"))

	assert.Equal(t, StatusOK, p.Status)
	assert.True(t, p.AmountAfter.Equal(dec("48")))
	assert.True(t, p.AssetAfter.Equal(dec("200000")))
}
