package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atlasmarkets/venue-sim/internal/domain"
)

var (
	highNotionalThreshold = decimal.NewFromInt(500000)
	lowBufferFraction     = decimal.NewFromFloat(0.1)
)

// Limits are optional pre-trade ceilings consulted before any reservation.
// A zero value disables the corresponding check.
type Limits struct {
	MaxQty      decimal.Decimal
	MaxNotional decimal.Decimal
}

func (l Limits) Check(qty, price decimal.Decimal) error {
	if l.MaxQty.IsPositive() && qty.GreaterThan(l.MaxQty) {
		return fmt.Errorf("%w: quantity %s exceeds max %s",
			domain.ErrRiskLimit, qty, l.MaxQty)
	}
	if l.MaxNotional.IsPositive() {
		notional := qty.Mul(price)
		if notional.GreaterThan(l.MaxNotional) {
			return fmt.Errorf("%w: notional %s exceeds max %s",
				domain.ErrRiskLimit, notional, l.MaxNotional)
		}
	}
	return nil
}

type Status string

const (
	StatusOK    Status = "OK"
	StatusBlock Status = "BLOCK"
)

// Preview is the advisory pre-trade view shown next to the order ticket. It
// never blocks submission by itself; the engine's balance check is the
// authoritative gate.
type Preview struct {
	Status         Status          `json:"status"`
	Message        string          `json:"message,omitempty"`
	RequiredAmount decimal.Decimal `json:"required_amount"`
	AmountAfter    decimal.Decimal `json:"amount_after"`
	AssetAfter     decimal.Decimal `json:"asset_after"`
	ExposureChange decimal.Decimal `json:"exposure_change"`
	Warnings       []string        `json:"warnings"`
}

// PreTrade computes the would-be balance movement for an order. For a BUY the
// required amount is quote notional; for a SELL it is base quantity. Warnings
// flag notional above 500k and a post-trade quote buffer under 10% of the
// starting quote balance.
func PreTrade(side domain.Side, qty, price, usdAvailable, btcAvailable, startingUSD decimal.Decimal) Preview {
	total := qty.Mul(price)
	warnings := []string{}

	if total.GreaterThan(highNotionalThreshold) {
		warnings = append(warnings, "High notional")
	}
	lowBuffer := startingUSD.Mul(lowBufferFraction)

	if side == domain.Buy {
		usdAfter := usdAvailable.Sub(total)
		if usdAfter.LessThan(lowBuffer) && !usdAfter.IsNegative() {
			warnings = append(warnings, "Low buffer")
		}
		p := Preview{
			Status:         StatusOK,
			RequiredAmount: total,
			AmountAfter:    usdAfter,
			AssetAfter:     btcAvailable.Add(qty),
			ExposureChange: qty,
			Warnings:       warnings,
		}
		if total.GreaterThan(usdAvailable) {
			p.Status = StatusBlock
			p.Message = "Insufficient USD"
		}
		return p
	}

	if usdAvailable.LessThan(lowBuffer) {
		warnings = append(warnings, "Low buffer")
	}
	p := Preview{
		Status:         StatusOK,
		RequiredAmount: qty,
		AmountAfter:    btcAvailable.Sub(qty),
		AssetAfter:     usdAvailable.Add(total),
		ExposureChange: qty.Neg(),
		Warnings:       warnings,
	}
	if qty.GreaterThan(btcAvailable) {
		p.Status = StatusBlock
		p.Message = "Insufficient BTC"
	}
	return p
}
