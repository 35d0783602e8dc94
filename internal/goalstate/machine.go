// Package goalstate validates goal status transitions and field updates.
//
// Goals move freely between ACTIVE and PAUSED. COMPLETED is reachable only once the
// invested amount covers the target and is terminal: neither status nor fields change
// afterward. All functions are pure; callers persist the returned goal.
package goalstate

import (
	"time"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/pkg/coinpkg"
	"github.com/shopspring/decimal"
)

// DefaultMinContribution is the smallest contribution in the reference currency.
var DefaultMinContribution = decimal.NewFromInt(100)

// Transition moves g to status to at the given time.
// Requesting the current status is a no-op. Any request on a completed goal fails
// with ErrGoalAlreadyCompleted, even for an unknown status.
func Transition(g domain.Goal, to domain.GoalStatus, at time.Time) (domain.Goal, error) {
	if g.Status == domain.GoalStatusCompleted {
		return g, domain.ErrGoalAlreadyCompleted
	}

	if !to.Valid() {
		return g, domain.ErrInvalidStatus
	}

	if g.Status == to {
		return g, nil
	}

	if to == domain.GoalStatusCompleted {
		if !ShouldAutoComplete(g.InvestedAmount, g.TargetAmount) {
			return g, domain.ErrInvalidStatusTransition
		}

		completedAt := at
		g.CompletedAt = &completedAt
	}

	g.Status = to
	g.UpdatedAt = at

	return g, nil
}

// ShouldAutoComplete reports whether invested covers target.
func ShouldAutoComplete(invested, target decimal.Decimal) bool {
	return target.IsPositive() && invested.GreaterThanOrEqual(target)
}

// AutoComplete completes an ACTIVE goal whose invested amount covers its target.
// It reports whether the status changed. Paused goals are left as they are.
func AutoComplete(g domain.Goal, at time.Time) (domain.Goal, bool) {
	if g.Status != domain.GoalStatusActive || !ShouldAutoComplete(g.InvestedAmount, g.TargetAmount) {
		return g, false
	}

	completed, err := Transition(g, domain.GoalStatusCompleted, at)
	if err != nil {
		return g, false
	}

	return completed, true
}

// Policy holds the configurable limits of goal fields.
type Policy struct {
	MinContribution decimal.Decimal
}

// NewPolicy returns a Policy with the given contribution floor, or the default one
// when minContribution is not positive.
func NewPolicy(minContribution decimal.Decimal) Policy {
	if !minContribution.IsPositive() {
		minContribution = DefaultMinContribution
	}

	return Policy{MinContribution: minContribution}
}

// ValidateNew checks the input of a goal creation.
func (p Policy) ValidateNew(arg domain.CreateGoalParams) error {
	if !coinpkg.IsSupportedCoin(arg.Coin) {
		return domain.ErrUnknownCoin
	}

	if !arg.TargetAmount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	if err := p.validateContribution(arg.ContributionAmount); err != nil {
		return err
	}

	if !arg.Frequency.Valid() {
		return domain.ErrInvalidFrequency
	}

	return nil
}

// ApplyUpdate validates every requested change first and then applies them all,
// so a rejected update leaves the goal untouched.
func (p Policy) ApplyUpdate(g domain.Goal, arg domain.UpdateGoalParams, at time.Time) (domain.Goal, error) {
	if g.Status == domain.GoalStatusCompleted {
		return g, domain.ErrGoalAlreadyCompleted
	}

	if arg.ContributionAmount != nil {
		if err := p.validateContribution(*arg.ContributionAmount); err != nil {
			return g, err
		}
	}

	if arg.Frequency != nil && !arg.Frequency.Valid() {
		return g, domain.ErrInvalidFrequency
	}

	updated := g

	if arg.Status != nil {
		var err error

		updated, err = Transition(updated, *arg.Status, at)
		if err != nil {
			return g, err
		}
	}

	if arg.ContributionAmount != nil {
		updated.ContributionAmount = *arg.ContributionAmount
	}

	if arg.Frequency != nil {
		updated.Frequency = *arg.Frequency
	}

	updated.UpdatedAt = at

	return updated, nil
}

func (p Policy) validateContribution(amount decimal.Decimal) error {
	if amount.LessThan(p.MinContribution) {
		return domain.ErrInvalidAmount
	}

	return nil
}
