package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is a unit price of a coin in the reference currency.
type Price struct {
	Coin      string          `json:"coin"`
	Price     decimal.Decimal `json:"price"`
	FetchedAt time.Time       `json:"fetched_at"`
	Stale     bool            `json:"stale"`
}
