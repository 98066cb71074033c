package domain

import "github.com/shopspring/decimal"

// Balance splits one asset ledger into funds free for new orders and funds
// earmarked against open ones. available + reserved only changes via order
// reservation or fill settlement.
type Balance struct {
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
}

func (b Balance) Total() decimal.Decimal {
	return b.Available.Add(b.Reserved)
}

// Account holds the single paper-trading account: quote currency (USD) and
// base asset (BTC).
type Account struct {
	USD Balance `json:"usd"`
	BTC Balance `json:"btc"`
}
