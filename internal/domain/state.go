package domain

import "github.com/shopspring/decimal"

// EngineState is the single blob persisted after every tick and restored
// verbatim on engine construction. The trade tape keeps the raw TRADE
// updates, newest first, capped at TapeLimit.
type EngineState struct {
	Balances  Account            `json:"balances"`
	Orders    map[string]*Order  `json:"orders"`
	Trades    []MarketDataUpdate `json:"trades"`
	LastPrice decimal.Decimal    `json:"lastPrice"`
}

const TapeLimit = 100
