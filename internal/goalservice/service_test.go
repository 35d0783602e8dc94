package goalservice

import (
	"context"
	"testing"
	"time"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/internal/goalcalc"
	"github.com/go-petr/wholecoin/internal/goalstate"
	"github.com/go-petr/wholecoin/internal/metrics"
	"github.com/go-petr/wholecoin/pkg/coinpkg"
	"github.com/go-petr/wholecoin/pkg/randompkg"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func randomGoal(owner string, invested string) domain.Goal {
	return domain.Goal{
		ID:                 randompkg.Intn(1000) + 1,
		Owner:              owner,
		Coin:               coinpkg.BTC,
		TargetAmount:       d("1"),
		InvestedAmount:     d(invested),
		ContributionAmount: d("500"),
		Frequency:          domain.FrequencyMonthly,
		Status:             domain.GoalStatusActive,
		CreatedAt:          testNow,
		UpdatedAt:          testNow,
	}
}

func testEstimate() domain.Estimate {
	return domain.Estimate{
		IntervalsNeeded:         12,
		MonthsToComplete:        12,
		EstimatedCompletionDate: testNow.AddDate(1, 0, 0),
		TotalCost:               d("6000"),
		UnitPrice:               d("60000"),
	}
}

type mocks struct {
	repo         *MockRepo
	transactions *MockTransactionRepo
	estimator    *MockEstimator
}

func newTestService(t *testing.T) (*Service, mocks, *metrics.Metrics) {
	ctrl := gomock.NewController(t)

	m := mocks{
		repo:         NewMockRepo(ctrl),
		transactions: NewMockTransactionRepo(ctrl),
		estimator:    NewMockEstimator(ctrl),
	}

	met := metrics.New(prometheus.NewRegistry())

	s := New(m.repo, m.transactions, m.estimator, goalstate.NewPolicy(d("100")), met)
	s.now = func() time.Time { return testNow }

	return s, m, met
}

func TestCreate(t *testing.T) {
	owner := randompkg.Owner()

	validArg := domain.CreateGoalParams{
		Owner:              owner,
		Coin:               coinpkg.BTC,
		TargetAmount:       d("0.1"),
		ContributionAmount: d("500"),
		Frequency:          domain.FrequencyMonthly,
	}

	created := domain.Goal{
		ID:                 7,
		Owner:              owner,
		Coin:               coinpkg.BTC,
		TargetAmount:       d("0.1"),
		InvestedAmount:     decimal.Zero,
		ContributionAmount: d("500"),
		Frequency:          domain.FrequencyMonthly,
		Status:             domain.GoalStatusActive,
	}

	testCases := []struct {
		name          string
		arg           domain.CreateGoalParams
		buildStubs    func(m mocks)
		checkResponse func(t *testing.T, got domain.GoalView, err error)
	}{
		{
			name: "OK",
			arg:  validArg,
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Create(gomock.Any(), validArg).Times(1).Return(created, nil)
				m.estimator.EXPECT().
					Estimate(gomock.Any(), coinpkg.BTC, gomock.Any(), gomock.Any(), domain.FrequencyMonthly).
					Times(1).
					Return(testEstimate(), nil)
			},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.NoError(t, err)
				require.Equal(t, created, got.Goal)
				require.Equal(t, "Bitcoin", got.CoinName)
				require.Zero(t, got.ProgressPercent)
				require.True(t, got.RemainingAmount.Equal(d("0.1")))
				require.NotNil(t, got.Estimate)
				require.Equal(t, int64(12), got.Estimate.IntervalsNeeded)
				require.Empty(t, got.Warning)
			},
		},
		{
			name: "DurationTooLongIsAWarning",
			arg:  validArg,
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Create(gomock.Any(), validArg).Times(1).Return(created, nil)
				m.estimator.EXPECT().
					Estimate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Estimate{}, &goalcalc.DurationTooLongError{
						Estimate:     domain.Estimate{IntervalsNeeded: 121, MonthsToComplete: 121},
						HorizonYears: 10,
					})
			},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.NoError(t, err)
				require.NotNil(t, got.Estimate)
				require.Equal(t, int64(121), got.Estimate.MonthsToComplete)
				require.NotEmpty(t, got.Warning)
			},
		},
		{
			name: "PriceUnavailableOmitsEstimate",
			arg:  validArg,
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Create(gomock.Any(), validArg).Times(1).Return(created, nil)
				m.estimator.EXPECT().
					Estimate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Estimate{}, domain.ErrPriceUnavailable)
			},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.NoError(t, err)
				require.Equal(t, created, got.Goal)
				require.Nil(t, got.Estimate)
				require.Empty(t, got.Warning)
			},
		},
		{
			name: "UnknownCoin",
			arg: domain.CreateGoalParams{
				Owner:              owner,
				Coin:               "XYZ",
				TargetAmount:       d("1"),
				ContributionAmount: d("500"),
				Frequency:          domain.FrequencyMonthly,
			},
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.ErrorIs(t, err, domain.ErrUnknownCoin)
				require.Empty(t, got)
			},
		},
		{
			name: "ContributionBelowFloor",
			arg: domain.CreateGoalParams{
				Owner:              owner,
				Coin:               coinpkg.ETH,
				TargetAmount:       d("1"),
				ContributionAmount: d("99.99"),
				Frequency:          domain.FrequencyWeekly,
			},
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
			},
		},
		{
			name: "RepoError",
			arg:  validArg,
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Create(gomock.Any(), validArg).Times(1).Return(domain.Goal{}, domain.ErrUserNotFound)
				m.estimator.EXPECT().Estimate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.ErrorIs(t, err, domain.ErrUserNotFound)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			s, m, met := newTestService(t)
			tc.buildStubs(m)

			got, err := s.Create(context.Background(), tc.arg)
			tc.checkResponse(t, got, err)

			if err == nil {
				require.Equal(t, float64(1), testutil.ToFloat64(met.GoalsCreatedTotal))
			}
		})
	}
}

func TestGet(t *testing.T) {
	owner := randompkg.Owner()

	testCases := []struct {
		name          string
		goal          domain.Goal
		buildStubs    func(m mocks, g domain.Goal)
		checkResponse func(t *testing.T, got domain.GoalView, err error)
	}{
		{
			name: "OK",
			goal: randomGoal(owner, "0.25"),
			buildStubs: func(m mocks, g domain.Goal) {
				m.repo.EXPECT().Get(gomock.Any(), owner, g.ID).Times(1).Return(g, nil)
				m.estimator.EXPECT().
					Estimate(gomock.Any(), g.Coin, gomock.Any(), gomock.Any(), g.Frequency).
					Times(1).
					DoAndReturn(func(_ context.Context, _ string, remaining, contribution decimal.Decimal, _ domain.Frequency) (domain.Estimate, error) {
						require.True(t, remaining.Equal(d("0.75")))
						require.True(t, contribution.Equal(d("500")))
						return testEstimate(), nil
					})
			},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.NoError(t, err)
				require.Equal(t, 25.0, got.ProgressPercent)
				require.NotNil(t, got.Estimate)
			},
		},
		{
			name: "TooLongIsOmittedOnRead",
			goal: randomGoal(owner, "0"),
			buildStubs: func(m mocks, g domain.Goal) {
				m.repo.EXPECT().Get(gomock.Any(), owner, g.ID).Times(1).Return(g, nil)
				m.estimator.EXPECT().
					Estimate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Estimate{}, &goalcalc.DurationTooLongError{HorizonYears: 10})
			},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.NoError(t, err)
				require.Nil(t, got.Estimate)
				require.Empty(t, got.Warning)
			},
		},
		{
			name: "CompletedOvershootSkipsEstimate",
			goal: func() domain.Goal {
				g := randomGoal(owner, "1.001")
				g.Status = domain.GoalStatusCompleted
				g.CompletedAt = &testNow
				return g
			}(),
			buildStubs: func(m mocks, g domain.Goal) {
				m.repo.EXPECT().Get(gomock.Any(), owner, g.ID).Times(1).Return(g, nil)
				m.estimator.EXPECT().Estimate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.NoError(t, err)
				require.Equal(t, 100.0, got.ProgressPercent)
				require.True(t, got.RemainingAmount.IsZero())
				require.Nil(t, got.Estimate)
			},
		},
		{
			name: "NotFound",
			goal: randomGoal(owner, "0"),
			buildStubs: func(m mocks, g domain.Goal) {
				m.repo.EXPECT().Get(gomock.Any(), owner, g.ID).Times(1).Return(domain.Goal{}, domain.ErrGoalNotFound)
			},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.ErrorIs(t, err, domain.ErrGoalNotFound)
				require.Empty(t, got)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			s, m, _ := newTestService(t)
			tc.buildStubs(m, tc.goal)

			got, err := s.Get(context.Background(), owner, tc.goal.ID)
			tc.checkResponse(t, got, err)
		})
	}
}

func TestList(t *testing.T) {
	owner := randompkg.Owner()
	s, m, _ := newTestService(t)

	goals := []domain.Goal{randomGoal(owner, "0.1"), randomGoal(owner, "0.2"), randomGoal(owner, "0.3")}
	goals[1].Coin = coinpkg.SOL

	m.repo.EXPECT().
		List(gomock.Any(), domain.ListGoalsParams{Owner: owner, Limit: 5, Offset: 5}).
		Times(1).
		Return(goals, nil)
	m.estimator.EXPECT().
		Estimate(gomock.Any(), coinpkg.BTC, gomock.Any(), gomock.Any(), gomock.Any()).
		Times(2).
		Return(testEstimate(), nil)
	m.estimator.EXPECT().
		Estimate(gomock.Any(), coinpkg.SOL, gomock.Any(), gomock.Any(), gomock.Any()).
		Times(1).
		Return(domain.Estimate{}, domain.ErrPriceUnavailable)

	got, err := s.List(context.Background(), owner, 5, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, v := range got {
		require.Equal(t, goals[i], v.Goal)
	}

	require.NotNil(t, got[0].Estimate)
	require.Nil(t, got[1].Estimate)
	require.Equal(t, "Solana", got[1].CoinName)
	require.NotNil(t, got[2].Estimate)
	require.Equal(t, 30.0, got[2].ProgressPercent)
}

func TestUpdate(t *testing.T) {
	owner := randompkg.Owner()
	paused := domain.GoalStatusPaused
	completed := domain.GoalStatusCompleted
	contribution := d("750")
	tooLow := d("10")

	testCases := []struct {
		name          string
		stored        domain.Goal
		arg           domain.UpdateGoalParams
		checkResponse func(t *testing.T, got domain.GoalView, err error)
	}{
		{
			name:   "Pause",
			stored: randomGoal(owner, "0.5"),
			arg:    domain.UpdateGoalParams{Status: &paused, ContributionAmount: &contribution},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.NoError(t, err)
				require.Equal(t, domain.GoalStatusPaused, got.Goal.Status)
				require.True(t, got.Goal.ContributionAmount.Equal(contribution))
				require.Equal(t, testNow, got.Goal.UpdatedAt)
			},
		},
		{
			name:   "CompleteBeforeTarget",
			stored: randomGoal(owner, "0.5"),
			arg:    domain.UpdateGoalParams{Status: &completed},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
			},
		},
		{
			name: "AlreadyCompleted",
			stored: func() domain.Goal {
				g := randomGoal(owner, "1")
				g.Status = domain.GoalStatusCompleted
				return g
			}(),
			arg: domain.UpdateGoalParams{Status: &paused},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.ErrorIs(t, err, domain.ErrGoalAlreadyCompleted)
			},
		},
		{
			name:   "ContributionBelowFloor",
			stored: randomGoal(owner, "0.5"),
			arg:    domain.UpdateGoalParams{ContributionAmount: &tooLow},
			checkResponse: func(t *testing.T, got domain.GoalView, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			s, m, _ := newTestService(t)

			m.repo.EXPECT().
				Modify(gomock.Any(), owner, tc.stored.ID, gomock.Any()).
				Times(1).
				DoAndReturn(func(_ context.Context, _ string, _ int64, fn func(domain.Goal) (domain.Goal, error)) (domain.Goal, error) {
					return fn(tc.stored)
				})
			m.estimator.EXPECT().
				Estimate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				AnyTimes().
				Return(testEstimate(), nil)

			got, err := s.Update(context.Background(), owner, tc.stored.ID, tc.arg)
			tc.checkResponse(t, got, err)
		})
	}
}

func TestListTransactions(t *testing.T) {
	owner := randompkg.Owner()
	goal := randomGoal(owner, "0.1")

	t.Run("OK", func(t *testing.T) {
		s, m, _ := newTestService(t)

		want := []domain.Transaction{{ID: 1, GoalID: goal.ID}, {ID: 2, GoalID: goal.ID}}

		m.repo.EXPECT().Get(gomock.Any(), owner, goal.ID).Times(1).Return(goal, nil)
		m.transactions.EXPECT().
			ListByGoal(gomock.Any(), domain.ListTransactionsParams{GoalID: goal.ID, Limit: 10, Offset: 0}).
			Times(1).
			Return(want, nil)

		got, err := s.ListTransactions(context.Background(), owner, goal.ID, 10, 1)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("OtherOwner", func(t *testing.T) {
		s, m, _ := newTestService(t)

		m.repo.EXPECT().Get(gomock.Any(), "mallory", goal.ID).Times(1).Return(domain.Goal{}, domain.ErrGoalNotFound)
		m.transactions.EXPECT().ListByGoal(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.ListTransactions(context.Background(), "mallory", goal.ID, 10, 1)
		require.ErrorIs(t, err, domain.ErrGoalNotFound)
	})
}
