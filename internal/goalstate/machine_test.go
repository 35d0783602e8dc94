package goalstate

import (
	"testing"
	"time"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	testCreatedAt = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	testNow       = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
)

func goalWith(status domain.GoalStatus, invested, target string) domain.Goal {
	return domain.Goal{
		ID:                 1,
		Owner:              "alice",
		Coin:               "BTC",
		TargetAmount:       decimal.RequireFromString(target),
		InvestedAmount:     decimal.RequireFromString(invested),
		ContributionAmount: decimal.NewFromInt(500),
		Frequency:          domain.FrequencyMonthly,
		Status:             status,
		CreatedAt:          testCreatedAt,
		UpdatedAt:          testCreatedAt,
	}
}

func TestTransition(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		goal       domain.Goal
		to         domain.GoalStatus
		wantStatus domain.GoalStatus
		wantErr    error
	}{
		{name: "ActiveToPaused", goal: goalWith(domain.GoalStatusActive, "0", "1"), to: domain.GoalStatusPaused, wantStatus: domain.GoalStatusPaused},
		{name: "PausedToActive", goal: goalWith(domain.GoalStatusPaused, "0", "1"), to: domain.GoalStatusActive, wantStatus: domain.GoalStatusActive},
		{name: "ActiveToCompletedFunded", goal: goalWith(domain.GoalStatusActive, "1", "1"), to: domain.GoalStatusCompleted, wantStatus: domain.GoalStatusCompleted},
		{name: "PausedToCompletedFunded", goal: goalWith(domain.GoalStatusPaused, "1.2", "1"), to: domain.GoalStatusCompleted, wantStatus: domain.GoalStatusCompleted},
		{name: "ActiveToCompletedUnderfunded", goal: goalWith(domain.GoalStatusActive, "0.999", "1"), to: domain.GoalStatusCompleted, wantErr: domain.ErrInvalidStatusTransition},
		{name: "PausedToCompletedUnderfunded", goal: goalWith(domain.GoalStatusPaused, "0", "1"), to: domain.GoalStatusCompleted, wantErr: domain.ErrInvalidStatusTransition},
		{name: "CompletedToActive", goal: goalWith(domain.GoalStatusCompleted, "1", "1"), to: domain.GoalStatusActive, wantErr: domain.ErrGoalAlreadyCompleted},
		{name: "CompletedToPaused", goal: goalWith(domain.GoalStatusCompleted, "1", "1"), to: domain.GoalStatusPaused, wantErr: domain.ErrGoalAlreadyCompleted},
		{name: "CompletedToCompleted", goal: goalWith(domain.GoalStatusCompleted, "1", "1"), to: domain.GoalStatusCompleted, wantErr: domain.ErrGoalAlreadyCompleted},
		{name: "UnknownStatus", goal: goalWith(domain.GoalStatusActive, "0", "1"), to: domain.GoalStatus("ARCHIVED"), wantErr: domain.ErrInvalidStatus},
		{name: "CompletedToUnknownStatus", goal: goalWith(domain.GoalStatusCompleted, "1", "1"), to: domain.GoalStatus("ARCHIVED"), wantErr: domain.ErrGoalAlreadyCompleted},
		{name: "SameStatus", goal: goalWith(domain.GoalStatusActive, "0", "1"), to: domain.GoalStatusActive, wantStatus: domain.GoalStatusActive},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Transition(tc.goal, tc.to, testNow)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Equal(t, tc.goal, got)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, got.Status)

			if tc.wantStatus == domain.GoalStatusCompleted {
				require.NotNil(t, got.CompletedAt)
				require.Equal(t, testNow, *got.CompletedAt)
			} else {
				require.Nil(t, got.CompletedAt)
			}
		})
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	t.Parallel()

	start := goalWith(domain.GoalStatusActive, "0.3", "1")

	paused, err := Transition(start, domain.GoalStatusPaused, testNow)
	require.NoError(t, err)

	resumed, err := Transition(paused, domain.GoalStatusActive, testNow)
	require.NoError(t, err)

	ignore := cmpopts.IgnoreFields(domain.Goal{}, "UpdatedAt")
	equalDecimal := cmp.Comparer(func(x, y decimal.Decimal) bool { return x.Equal(y) })

	if diff := cmp.Diff(start, resumed, ignore, equalDecimal); diff != "" {
		t.Errorf("pause and resume changed the goal: %s", diff)
	}
}

func TestAutoComplete(t *testing.T) {
	t.Parallel()

	got, changed := AutoComplete(goalWith(domain.GoalStatusActive, "1.001", "1"), testNow)
	require.True(t, changed)
	require.Equal(t, domain.GoalStatusCompleted, got.Status)

	got, changed = AutoComplete(goalWith(domain.GoalStatusActive, "0.999", "1"), testNow)
	require.False(t, changed)
	require.Equal(t, domain.GoalStatusActive, got.Status)

	got, changed = AutoComplete(goalWith(domain.GoalStatusPaused, "2", "1"), testNow)
	require.False(t, changed)
	require.Equal(t, domain.GoalStatusPaused, got.Status)

	_, changed = AutoComplete(goalWith(domain.GoalStatusCompleted, "2", "1"), testNow)
	require.False(t, changed)
}

func TestShouldAutoComplete(t *testing.T) {
	t.Parallel()

	d := decimal.RequireFromString

	require.True(t, ShouldAutoComplete(d("1"), d("1")))
	require.True(t, ShouldAutoComplete(d("1.001"), d("1")))
	require.False(t, ShouldAutoComplete(d("0.999"), d("1")))
	require.False(t, ShouldAutoComplete(d("0"), d("0")))
}

func TestApplyUpdate(t *testing.T) {
	t.Parallel()

	policy := NewPolicy(decimal.Zero)

	paused := domain.GoalStatusPaused
	completed := domain.GoalStatusCompleted
	weekly := domain.FrequencyWeekly
	hourly := domain.Frequency("HOURLY")
	low := decimal.NewFromInt(99)
	high := decimal.NewFromInt(250)

	testCases := []struct {
		name    string
		goal    domain.Goal
		arg     domain.UpdateGoalParams
		check   func(t *testing.T, got domain.Goal)
		wantErr error
	}{
		{
			name: "AllFields",
			goal: goalWith(domain.GoalStatusActive, "0", "1"),
			arg:  domain.UpdateGoalParams{Status: &paused, ContributionAmount: &high, Frequency: &weekly},
			check: func(t *testing.T, got domain.Goal) {
				require.Equal(t, domain.GoalStatusPaused, got.Status)
				require.True(t, got.ContributionAmount.Equal(high))
				require.Equal(t, domain.FrequencyWeekly, got.Frequency)
				require.Equal(t, testNow, got.UpdatedAt)
			},
		},
		{
			name:    "ContributionBelowFloor",
			goal:    goalWith(domain.GoalStatusActive, "0", "1"),
			arg:     domain.UpdateGoalParams{ContributionAmount: &low, Status: &paused},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "UnknownFrequency",
			goal:    goalWith(domain.GoalStatusActive, "0", "1"),
			arg:     domain.UpdateGoalParams{Frequency: &hourly},
			wantErr: domain.ErrInvalidFrequency,
		},
		{
			name:    "CompletedGoal",
			goal:    goalWith(domain.GoalStatusCompleted, "1", "1"),
			arg:     domain.UpdateGoalParams{Frequency: &weekly},
			wantErr: domain.ErrGoalAlreadyCompleted,
		},
		{
			name:    "UnderfundedCompletion",
			goal:    goalWith(domain.GoalStatusActive, "0.5", "1"),
			arg:     domain.UpdateGoalParams{Status: &completed, Frequency: &weekly},
			wantErr: domain.ErrInvalidStatusTransition,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := policy.ApplyUpdate(tc.goal, tc.arg, testNow)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Equal(t, tc.goal, got)

				return
			}

			require.NoError(t, err)
			tc.check(t, got)
		})
	}
}

func TestValidateNew(t *testing.T) {
	t.Parallel()

	policy := NewPolicy(decimal.NewFromInt(100))

	valid := domain.CreateGoalParams{
		Owner:              "alice",
		Coin:               "BTC",
		TargetAmount:       decimal.NewFromInt(1),
		ContributionAmount: decimal.NewFromInt(100),
		Frequency:          domain.FrequencyDaily,
	}
	require.NoError(t, policy.ValidateNew(valid))

	arg := valid
	arg.Coin = "XYZ"
	require.ErrorIs(t, policy.ValidateNew(arg), domain.ErrUnknownCoin)

	arg = valid
	arg.TargetAmount = decimal.Zero
	require.ErrorIs(t, policy.ValidateNew(arg), domain.ErrInvalidAmount)

	arg = valid
	arg.ContributionAmount = decimal.RequireFromString("99.99")
	require.ErrorIs(t, policy.ValidateNew(arg), domain.ErrInvalidAmount)

	arg = valid
	arg.Frequency = ""
	require.ErrorIs(t, policy.ValidateNew(arg), domain.ErrInvalidFrequency)
}
