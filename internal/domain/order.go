package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string
type CommandType string
type OrderStatus string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"

	CommandNew     CommandType = "NEW"
	CommandCancel  CommandType = "CANCEL"
	CommandReplace CommandType = "REPLACE"

	StatusNew             OrderStatus = "NEW"
	StatusPendingSubmit   OrderStatus = "PENDING_SUBMIT"
	StatusLive            OrderStatus = "LIVE"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelPending   OrderStatus = "CANCEL_PENDING"
	StatusCanceled        OrderStatus = "CANCELED"
	StatusReplacePending  OrderStatus = "REPLACE_PENDING"
	StatusRejected        OrderStatus = "REJECTED"
)

// OrderCommand is the wire shape accepted from order entry. REPLACE is part
// of the schema but the venue does not process it.
type OrderCommand struct {
	CommandID string          `json:"command_id,omitempty"`
	Type      CommandType     `json:"type"`
	OrderID   string          `json:"order_id,omitempty"`
	ClientID  string          `json:"client_id"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// Order is owned exclusively by the engine; API consumers only ever see
// copies or execution reports derived from it.
type Order struct {
	OrderID   string          `json:"order_id"`
	ClientID  string          `json:"client_id"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Status    OrderStatus     `json:"status"`
	FilledQty decimal.Decimal `json:"filled_qty"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (o *Order) LeavesQty() decimal.Decimal {
	leaves := o.Quantity.Sub(o.FilledQty)
	if leaves.IsNegative() {
		return decimal.Zero
	}
	return leaves
}

// Terminal reports whether the order is excluded from further matching.
func (o *Order) Terminal() bool {
	switch o.Status {
	case StatusFilled, StatusCanceled, StatusRejected:
		return true
	}
	return false
}

func (o *Order) PartiallyFilled() bool {
	return o.FilledQty.GreaterThan(decimal.Zero) &&
		o.FilledQty.LessThan(o.Quantity)
}
