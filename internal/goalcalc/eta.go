package goalcalc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultHorizonYears is the longest estimated duration a goal may have.
const DefaultHorizonYears = 10

const daysPerMonth = 365.25 / 12

// DurationTooLongError is returned when the estimated completion is past the horizon.
// It carries the computed estimate so callers may downgrade it to a warning.
type DurationTooLongError struct {
	Estimate     domain.Estimate
	HorizonYears int
}

func (e *DurationTooLongError) Error() string {
	return fmt.Sprintf("estimated completion takes %d intervals, more than %d years", e.Estimate.IntervalsNeeded, e.HorizonYears)
}

// Unwrap makes errors.Is(err, domain.ErrGoalDurationTooLong) hold.
func (e *DurationTooLongError) Unwrap() error {
	return domain.ErrGoalDurationTooLong
}

// PriceSource provides current coin prices.
//
//go:generate mockgen -source eta.go -destination eta_mock.go -package goalcalc
type PriceSource interface {
	GetPrice(ctx context.Context, coin string) (domain.Price, error)
}

// Estimator computes completion estimates from live prices.
type Estimator struct {
	prices       PriceSource
	timeout      time.Duration
	horizonYears int
	now          func() time.Time
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithClock replaces the clock used as the start of every estimate.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		e.now = now
	}
}

// WithHorizon replaces DefaultHorizonYears.
func WithHorizon(years int) Option {
	return func(e *Estimator) {
		if years > 0 {
			e.horizonYears = years
		}
	}
}

// NewEstimator returns an Estimator that bounds every price lookup by timeout.
func NewEstimator(prices PriceSource, timeout time.Duration, opts ...Option) *Estimator {
	e := &Estimator{
		prices:       prices,
		timeout:      timeout,
		horizonYears: DefaultHorizonYears,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Estimate returns when remaining coins are bought with contributions of the given
// size and frequency at the current price of coin.
func (e *Estimator) Estimate(ctx context.Context, coin string, remaining, contribution decimal.Decimal, frequency domain.Frequency) (domain.Estimate, error) {
	l := zerolog.Ctx(ctx)

	if err := validate(remaining, contribution, frequency); err != nil {
		return domain.Estimate{}, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	price, err := e.prices.GetPrice(ctx, coin)
	if err != nil {
		l.Info().Err(err).Str("coin", coin).Msg("estimate without price")
		return domain.Estimate{}, err
	}

	est, err := Project(e.now(), price.Price, remaining, contribution, frequency, e.horizonYears)
	if err != nil {
		var tooLong *DurationTooLongError
		if errors.As(err, &tooLong) {
			tooLong.Estimate.PriceStale = price.Stale
		}

		return est, err
	}

	est.PriceStale = price.Stale

	return est, nil
}

// Project computes an estimate starting at now for a known unit price.
func Project(now time.Time, unitPrice, remaining, contribution decimal.Decimal, frequency domain.Frequency, horizonYears int) (domain.Estimate, error) {
	if err := validate(remaining, contribution, frequency); err != nil {
		return domain.Estimate{}, err
	}

	if !unitPrice.IsPositive() {
		return domain.Estimate{}, domain.ErrInvalidInput
	}

	totalCost := remaining.Mul(unitPrice)

	est := domain.Estimate{
		TotalCost: totalCost.Round(2),
		UnitPrice: unitPrice,
	}

	intervals := totalCost.Div(contribution).Ceil()

	if intervals.GreaterThan(decimal.NewFromInt(maxIntervals(frequency, horizonYears))) {
		est.IntervalsNeeded = clampInt64(intervals)
		est.MonthsToComplete = monthsFor(frequency, est.IntervalsNeeded, 0)

		return domain.Estimate{}, &DurationTooLongError{Estimate: est, HorizonYears: horizonYears}
	}

	est.IntervalsNeeded = intervals.IntPart()
	est.EstimatedCompletionDate = advance(now, frequency, int(est.IntervalsNeeded))

	days := est.EstimatedCompletionDate.Sub(now).Hours() / 24
	est.MonthsToComplete = monthsFor(frequency, est.IntervalsNeeded, days)

	if est.EstimatedCompletionDate.After(now.AddDate(horizonYears, 0, 0)) {
		return domain.Estimate{}, &DurationTooLongError{Estimate: est, HorizonYears: horizonYears}
	}

	return est, nil
}

func validate(remaining, contribution decimal.Decimal, frequency domain.Frequency) error {
	if !contribution.IsPositive() || remaining.IsNegative() {
		return domain.ErrInvalidInput
	}

	if !frequency.Valid() {
		return domain.ErrInvalidFrequency
	}

	return nil
}

// maxIntervals is an upper bound of intervals that can fit into the horizon.
// Anything above it is too long without doing date arithmetic.
func maxIntervals(frequency domain.Frequency, years int) int64 {
	switch frequency {
	case domain.FrequencyDaily:
		return int64(years)*366 + 1
	case domain.FrequencyWeekly:
		return int64(years)*53 + 1
	default:
		return int64(years)*12 + 1
	}
}

func advance(t time.Time, frequency domain.Frequency, n int) time.Time {
	switch frequency {
	case domain.FrequencyDaily:
		return t.AddDate(0, 0, n)
	case domain.FrequencyWeekly:
		return t.AddDate(0, 0, 7*n)
	default:
		return AddMonths(t, n)
	}
}

// AddMonths adds n calendar months to t. The day is clamped to the last day of
// the resulting month, so Jan 31 plus one month is the end of February.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()

	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	if last := daysIn(first); d > last {
		d = last
	}

	return first.AddDate(0, 0, d-1)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func monthsFor(frequency domain.Frequency, intervals int64, days float64) int64 {
	if frequency == domain.FrequencyMonthly {
		return intervals
	}

	if days == 0 {
		if frequency == domain.FrequencyWeekly {
			days = float64(intervals) * 7
		} else {
			days = float64(intervals)
		}
	}

	return int64(math.Round(days / daysPerMonth))
}

func clampInt64(d decimal.Decimal) int64 {
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return math.MaxInt64
	}

	return d.IntPart()
}
