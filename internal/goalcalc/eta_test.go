package goalcalc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)

func TestProjectMonthlyScenario(t *testing.T) {
	t.Parallel()

	got, err := Project(testNow, d("60000"), d("0.1"), d("500"), domain.FrequencyMonthly, DefaultHorizonYears)
	require.NoError(t, err)

	require.Equal(t, int64(12), got.IntervalsNeeded)
	require.Equal(t, int64(12), got.MonthsToComplete)
	require.True(t, got.TotalCost.Equal(d("6000")))
	require.Equal(t, time.Date(2027, time.January, 31, 12, 0, 0, 0, time.UTC), got.EstimatedCompletionDate)
}

func TestProjectFrequencies(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		frequency     domain.Frequency
		remaining     string
		wantIntervals int64
		wantDate      time.Time
		wantMonths    int64
	}{
		{
			name:          "Daily",
			frequency:     domain.FrequencyDaily,
			remaining:     "0.01", // 600 / 100 = 6 days
			wantIntervals: 6,
			wantDate:      time.Date(2026, time.February, 6, 12, 0, 0, 0, time.UTC),
			wantMonths:    0,
		},
		{
			name:          "Weekly",
			frequency:     domain.FrequencyWeekly,
			remaining:     "0.1", // 6000 / 100 = 60 weeks
			wantIntervals: 60,
			wantDate:      testNow.AddDate(0, 0, 420),
			wantMonths:    14,
		},
		{
			name:          "MonthlyRoundsUp",
			frequency:     domain.FrequencyMonthly,
			remaining:     "0.00101", // 60.6 / 100 rounds up to one month
			wantIntervals: 1,
			wantDate:      time.Date(2026, time.February, 28, 12, 0, 0, 0, time.UTC),
			wantMonths:    1,
		},
		{
			name:          "NothingLeft",
			frequency:     domain.FrequencyWeekly,
			remaining:     "0",
			wantIntervals: 0,
			wantDate:      testNow,
			wantMonths:    0,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Project(testNow, d("60000"), d(tc.remaining), d("100"), tc.frequency, DefaultHorizonYears)
			require.NoError(t, err)

			require.Equal(t, tc.wantIntervals, got.IntervalsNeeded)
			require.Equal(t, tc.wantDate, got.EstimatedCompletionDate)
			require.Equal(t, tc.wantMonths, got.MonthsToComplete)
		})
	}
}

func TestProjectInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Project(testNow, d("60000"), d("0.1"), d("0"), domain.FrequencyMonthly, DefaultHorizonYears)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Project(testNow, d("60000"), d("0.1"), d("-5"), domain.FrequencyMonthly, DefaultHorizonYears)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Project(testNow, d("60000"), d("-0.1"), d("5"), domain.FrequencyMonthly, DefaultHorizonYears)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Project(testNow, d("60000"), d("0.1"), d("5"), domain.Frequency("HOURLY"), DefaultHorizonYears)
	require.ErrorIs(t, err, domain.ErrInvalidFrequency)

	_, err = Project(testNow, d("0"), d("0.1"), d("5"), domain.FrequencyDaily, DefaultHorizonYears)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProjectDurationTooLong(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		contribution string
		frequency    domain.Frequency
		wantDate     bool
	}{
		// 60000 / 100 = 600 months, far past the bound.
		{name: "FarBeyondHorizon", contribution: "100", frequency: domain.FrequencyMonthly},
		// 60000 / 496 rounds up to 121 months, one month past ten years.
		{name: "JustBeyondHorizon", contribution: "496", frequency: domain.FrequencyMonthly, wantDate: true},
		{name: "Daily", contribution: "10", frequency: domain.FrequencyDaily},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Project(testNow, d("60000"), d("1"), d(tc.contribution), tc.frequency, DefaultHorizonYears)
			require.Error(t, err)
			require.Empty(t, got)
			require.True(t, errors.Is(err, domain.ErrGoalDurationTooLong))

			var tooLong *DurationTooLongError
			require.ErrorAs(t, err, &tooLong)
			require.Positive(t, tooLong.Estimate.IntervalsNeeded)
			require.Equal(t, tc.wantDate, !tooLong.Estimate.EstimatedCompletionDate.IsZero())
		})
	}
}

func TestProjectMonotonic(t *testing.T) {
	t.Parallel()

	price := d("60000")
	frequencies := []domain.Frequency{domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyMonthly}

	for _, frequency := range frequencies {
		var prev time.Time

		for remaining := d("0.001"); remaining.LessThan(d("0.05")); remaining = remaining.Add(d("0.0013")) {
			got, err := Project(testNow, price, remaining, d("250"), frequency, DefaultHorizonYears)
			require.NoError(t, err)
			require.False(t, got.EstimatedCompletionDate.Before(prev), "%s: remaining %s finished earlier", frequency, remaining)

			prev = got.EstimatedCompletionDate
		}

		prev = time.Time{}

		for contribution := d("2000"); contribution.GreaterThan(d("100")); contribution = contribution.Sub(d("97")) {
			got, err := Project(testNow, price, d("0.05"), contribution, frequency, DefaultHorizonYears)
			require.NoError(t, err)
			require.False(t, got.EstimatedCompletionDate.Before(prev), "%s: contribution %s finished earlier", frequency, contribution)

			prev = got.EstimatedCompletionDate
		}
	}
}

func TestAddMonths(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		from time.Time
		n    int
		want time.Time
	}{
		{from: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), n: 1, want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{from: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), n: 1, want: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{from: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), n: 1, want: time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)},
		{from: time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), n: 1, want: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{from: time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), n: 3, want: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
		{from: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), n: 0, want: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)},
		{from: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), n: 25, want: time.Date(2027, 6, 10, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		if got := AddMonths(tc.from, tc.n); !got.Equal(tc.want) {
			t.Errorf("AddMonths(%v, %d) = %v, want %v", tc.from, tc.n, got, tc.want)
		}
	}
}

func TestEstimatorEstimate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		buildStubs func(prices *MockPriceSource)
		check      func(t *testing.T, got domain.Estimate, err error)
	}{
		{
			name: "OK",
			buildStubs: func(prices *MockPriceSource) {
				prices.EXPECT().
					GetPrice(gomock.Any(), gomock.Eq("BTC")).
					Times(1).
					DoAndReturn(func(ctx context.Context, coin string) (domain.Price, error) {
						if _, ok := ctx.Deadline(); !ok {
							t.Error("price lookup without deadline")
						}

						return domain.Price{Coin: coin, Price: d("60000"), FetchedAt: testNow}, nil
					})
			},
			check: func(t *testing.T, got domain.Estimate, err error) {
				require.NoError(t, err)
				require.Equal(t, int64(12), got.IntervalsNeeded)
				require.False(t, got.PriceStale)
			},
		},
		{
			name: "StalePrice",
			buildStubs: func(prices *MockPriceSource) {
				prices.EXPECT().
					GetPrice(gomock.Any(), gomock.Eq("BTC")).
					Times(1).
					Return(domain.Price{Coin: "BTC", Price: d("60000"), Stale: true}, nil)
			},
			check: func(t *testing.T, got domain.Estimate, err error) {
				require.NoError(t, err)
				require.True(t, got.PriceStale)
			},
		},
		{
			name: "PriceError",
			buildStubs: func(prices *MockPriceSource) {
				prices.EXPECT().
					GetPrice(gomock.Any(), gomock.Eq("BTC")).
					Times(1).
					Return(domain.Price{}, domain.ErrPriceUnavailable)
			},
			check: func(t *testing.T, got domain.Estimate, err error) {
				require.ErrorIs(t, err, domain.ErrPriceUnavailable)
				require.Empty(t, got)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			prices := NewMockPriceSource(ctrl)
			tc.buildStubs(prices)

			estimator := NewEstimator(prices, time.Second, WithClock(func() time.Time { return testNow }))

			got, err := estimator.Estimate(context.Background(), "BTC", d("0.1"), d("500"), domain.FrequencyMonthly)
			tc.check(t, got, err)
		})
	}
}

func TestEstimatorRejectsBeforePriceLookup(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	prices := NewMockPriceSource(ctrl)
	prices.EXPECT().GetPrice(gomock.Any(), gomock.Any()).Times(0)

	estimator := NewEstimator(prices, time.Second)

	_, err := estimator.Estimate(context.Background(), "BTC", decimal.NewFromInt(1), decimal.Zero, domain.FrequencyDaily)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
