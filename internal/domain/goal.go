package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

// Goal statuses. COMPLETED is terminal.
const (
	GoalStatusActive    GoalStatus = "ACTIVE"
	GoalStatusPaused    GoalStatus = "PAUSED"
	GoalStatusCompleted GoalStatus = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalStatusActive, GoalStatusPaused, GoalStatusCompleted:
		return true
	}

	return false
}

// Frequency is how often a contribution is made.
type Frequency string

// Contribution frequencies.
const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}

	return false
}

// Goal holds a user's savings target for one coin.
type Goal struct {
	ID                 int64           `json:"id"`
	Owner              string          `json:"owner"`
	Coin               string          `json:"coin"`
	TargetAmount       decimal.Decimal `json:"target_amount"`
	InvestedAmount     decimal.Decimal `json:"invested_amount"`
	ContributionAmount decimal.Decimal `json:"contribution_amount"`
	Frequency          Frequency       `json:"frequency"`
	Status             GoalStatus      `json:"status"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CreateGoalParams is the input data to create a goal.
type CreateGoalParams struct {
	Owner              string          `json:"owner"`
	Coin               string          `json:"coin"`
	TargetAmount       decimal.Decimal `json:"target_amount"`
	ContributionAmount decimal.Decimal `json:"contribution_amount"`
	Frequency          Frequency       `json:"frequency"`
}

// UpdateGoalParams holds the optional changes of a goal update. Nil fields are left unchanged.
type UpdateGoalParams struct {
	Status             *GoalStatus      `json:"status,omitempty"`
	ContributionAmount *decimal.Decimal `json:"contribution_amount,omitempty"`
	Frequency          *Frequency       `json:"frequency,omitempty"`
}

// ListGoalsParams is the input data to page through the goals of an owner.
type ListGoalsParams struct {
	Owner  string
	Limit  int32
	Offset int32
}

// Estimate is the projected completion of a goal. It is never persisted.
type Estimate struct {
	IntervalsNeeded         int64           `json:"intervals_needed"`
	MonthsToComplete        int64           `json:"months_to_complete"`
	EstimatedCompletionDate time.Time       `json:"estimated_completion_date"`
	TotalCost               decimal.Decimal `json:"total_cost"`
	UnitPrice               decimal.Decimal `json:"unit_price"`
	PriceStale              bool            `json:"price_stale,omitempty"`
}

// GoalView is a goal with the read-only data derived from it.
type GoalView struct {
	Goal            Goal            `json:"goal"`
	ProgressPercent float64         `json:"progress_percent"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	CoinName        string          `json:"coin_name"`
	Estimate        *Estimate       `json:"estimate,omitempty"`
	Warning         string          `json:"warning,omitempty"`
}
