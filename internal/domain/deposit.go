package domain

import "github.com/shopspring/decimal"

// RecordDepositParams is the input data of a deposit recording.
type RecordDepositParams struct {
	Owner   string
	GoalID  int64
	BatchID string // generated when empty
	Type    TransactionType
	Amount  decimal.Decimal // reference currency
}

// DepositResult is the result of a deposit recording. A replayed batch key yields the
// same result as its first recording.
type DepositResult struct {
	Transaction Transaction `json:"transaction"`
	// Goal is the goal as it was right after the deposit.
	Goal            Goal    `json:"goal"`
	ProgressPercent float64 `json:"progress_percent"`
	// Replayed is true when the batch key was already recorded and nothing was executed.
	Replayed bool `json:"-"`
}
