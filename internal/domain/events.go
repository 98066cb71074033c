package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is the tagged union broadcast to subscribers. Consumers dispatch
// with a type switch over the two variants instead of probing JSON fields.
type Event interface {
	EventName() string
}

type ExecType string

const (
	ExecFill     ExecType = "FILL"
	ExecRejected ExecType = "REJECTED"
	ExecCancel   ExecType = "CANCEL"
)

// ExecutionReport describes one order mutation: acceptance, fill, cancel or
// rejection. Rejections carry zeroed quantities and a reason.
type ExecutionReport struct {
	ExecID    string          `json:"exec_id"`
	OrderID   string          `json:"order_id"`
	ClientID  string          `json:"client_id,omitempty"`
	Symbol    string          `json:"symbol,omitempty"`
	Side      Side            `json:"side,omitempty"`
	OrderQty  decimal.Decimal `json:"order_qty"`
	Price     decimal.Decimal `json:"price"`
	Type      ExecType        `json:"type"`
	Status    OrderStatus     `json:"status"`
	LeavesQty decimal.Decimal `json:"leaves_qty"`
	CumQty    decimal.Decimal `json:"cum_qty"`
	AvgPx     decimal.Decimal `json:"avg_px"`
	Timestamp time.Time       `json:"timestamp"`
	Reason    string          `json:"reason,omitempty"`
}

func (ExecutionReport) EventName() string { return "execution_report" }

type MarketDataType string

const (
	MarketDataL2    MarketDataType = "L2"
	MarketDataTrade MarketDataType = "TRADE"
)

type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
}

type TradeInfo struct {
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
	Side  Side            `json:"side"`
}

// MarketDataUpdate is either a full L2 snapshot (Bids/Asks set) or a single
// trade print (Trade set), discriminated by Type on the wire.
type MarketDataUpdate struct {
	Type      MarketDataType `json:"type"`
	Symbol    string         `json:"symbol"`
	Bids      []PriceLevel   `json:"bids,omitempty"`
	Asks      []PriceLevel   `json:"asks,omitempty"`
	Trade     *TradeInfo     `json:"trade,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (MarketDataUpdate) EventName() string { return "market_data" }
