package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of deposit a transaction records.
type TransactionType string

// Transaction types.
const (
	TransactionTypeOnramp TransactionType = "ONRAMP"
	TransactionTypeSwap   TransactionType = "SWAP"
)

// Valid reports whether t is a known type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeOnramp || t == TransactionTypeSwap
}

// TransactionState is the processing state tag kept in transaction metadata.
type TransactionState string

// Transaction states.
const (
	TransactionStateConfirmed TransactionState = "CONFIRMED"
)

// TransactionMetadata is free-form data stored along a transaction.
type TransactionMetadata struct {
	State       TransactionState `json:"state"`
	PriceSource string           `json:"price_source,omitempty"`
	PriceStale  bool             `json:"price_stale,omitempty"`
	PricedAt    time.Time        `json:"priced_at"`
	Completed   bool             `json:"completed_goal,omitempty"`
	// Goal and ProgressPercent describe the goal right after the deposit was applied.
	Goal            *Goal   `json:"goal,omitempty"`
	ProgressPercent float64 `json:"progress_percent,omitempty"`
}

// Transaction records one deposit toward a goal. It is immutable once created.
type Transaction struct {
	ID         int64               `json:"id"`
	GoalID     int64               `json:"goal_id"`
	BatchID    string              `json:"batch_id"`
	Type       TransactionType     `json:"type"`
	FiatAmount decimal.Decimal     `json:"fiat_amount"`
	CoinAmount decimal.Decimal     `json:"coin_amount"`
	UnitPrice  decimal.Decimal     `json:"unit_price"`
	Network    string              `json:"network"`
	TxHash     string              `json:"tx_hash"`
	Metadata   TransactionMetadata `json:"metadata"`
	CreatedAt  time.Time           `json:"created_at"`
}

// CreateTransactionParams is the input data to persist a transaction.
type CreateTransactionParams struct {
	GoalID     int64
	BatchID    string
	Type       TransactionType
	FiatAmount decimal.Decimal
	CoinAmount decimal.Decimal
	UnitPrice  decimal.Decimal
	Network    string
	TxHash     string
	Metadata   TransactionMetadata
}

// ListTransactionsParams is the input data to page through the transactions of a goal.
type ListTransactionsParams struct {
	GoalID int64
	Limit  int32
	Offset int32
}
