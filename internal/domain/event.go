package domain

import "time"

// EventType names a notification event.
type EventType string

// Notification events.
const (
	EventDepositRecorded EventType = "deposit.recorded"
	EventGoalCompleted   EventType = "goal.completed"
)

// Event is a notification about a goal.
type Event struct {
	Type          EventType    `json:"type"`
	Owner         string       `json:"owner"`
	GoalID        int64        `json:"goal_id"`
	TransactionID int64        `json:"transaction_id,omitempty"`
	OccurredAt    time.Time    `json:"occurred_at"`
	Transaction   *Transaction `json:"transaction,omitempty"`
}
