package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlasmarkets/venue-sim/internal/domain"
	"github.com/atlasmarkets/venue-sim/internal/metrics"
	"github.com/atlasmarkets/venue-sim/internal/risk"
)

type SubmitOrderRequest struct {
	CommandID string          `json:"command_id,omitempty"`
	Type      string          `json:"type,omitempty"` // NEW assumed when empty
	OrderID   string          `json:"order_id,omitempty"`
	ClientID  string          `json:"client_id" binding:"required"`
	Symbol    string          `json:"symbol" binding:"required"`
	Side      string          `json:"side" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Price     decimal.Decimal `json:"price" binding:"required"`
}

func (r *SubmitOrderRequest) Command() domain.OrderCommand {
	return domain.OrderCommand{
		CommandID: r.CommandID,
		Type:      domain.CommandNew,
		OrderID:   r.OrderID,
		ClientID:  r.ClientID,
		Symbol:    r.Symbol,
		Side:      domain.Side(r.Side),
		Quantity:  r.Quantity,
		Price:     r.Price,
	}
}

type SubmitOrderResponse struct {
	OrderID string             `json:"order_id"`
	Status  domain.OrderStatus `json:"status"`
	Reason  string             `json:"reason,omitempty"`
}

type CancelOrderRequest struct {
	OrderID  string `json:"order_id" binding:"required"`
	ClientID string `json:"client_id,omitempty"`
}

type CancelOrderResponse struct {
	OrderID  string             `json:"order_id"`
	Status   domain.OrderStatus `json:"status"`
	Canceled bool               `json:"canceled"`
}

type BalancesResponse struct {
	Balances domain.Account `json:"balances"`
}

type OrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

type TradesResponse struct {
	Trades []domain.MarketDataUpdate `json:"trades"`
}

type OrderbookResponse struct {
	Symbol    string             `json:"symbol"`
	Bids      []domain.PriceLevel `json:"bids"`
	Asks      []domain.PriceLevel `json:"asks"`
	LastPrice decimal.Decimal     `json:"last_price"`
	Timestamp time.Time           `json:"timestamp"`
}

type RiskPreviewResponse struct {
	risk.Preview
	FillEstimate *metrics.FillEstimate `json:"fill_estimate,omitempty"`
}
