// Package goalservice manages business logic layer of goals.
package goalservice

import (
	"context"
	"errors"
	"time"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/internal/goalcalc"
	"github.com/go-petr/wholecoin/internal/goalstate"
	"github.com/go-petr/wholecoin/internal/metrics"
	"github.com/go-petr/wholecoin/pkg/coinpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentEstimates bounds the price lookups of one List call.
const maxConcurrentEstimates = 4

// Repo provides data access layer interface needed by goal service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package goalservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateGoalParams) (domain.Goal, error)
	Get(ctx context.Context, owner string, id int64) (domain.Goal, error)
	List(ctx context.Context, arg domain.ListGoalsParams) ([]domain.Goal, error)
	Modify(ctx context.Context, owner string, id int64, fn func(domain.Goal) (domain.Goal, error)) (domain.Goal, error)
}

// TransactionRepo provides read access to recorded transactions.
type TransactionRepo interface {
	ListByGoal(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.Transaction, error)
}

// Estimator projects goal completion.
type Estimator interface {
	Estimate(ctx context.Context, coin string, remaining, contribution decimal.Decimal, frequency domain.Frequency) (domain.Estimate, error)
}

// Service facilitates goal service layer logic.
type Service struct {
	repo         Repo
	transactions TransactionRepo
	estimator    Estimator
	policy       goalstate.Policy
	metrics      *metrics.Metrics
	now          func() time.Time
}

// New returns goal service struct to manage goal business logic.
func New(gr Repo, tr TransactionRepo, e Estimator, p goalstate.Policy, m *metrics.Metrics) *Service {
	return &Service{
		repo:         gr,
		transactions: tr,
		estimator:    e,
		policy:       p,
		metrics:      m,
		now:          time.Now,
	}
}

// Create validates and stores a new ACTIVE goal. The returned view carries an ETA
// preview; a preview beyond the planning horizon is returned with a warning.
func (s *Service) Create(ctx context.Context, arg domain.CreateGoalParams) (domain.GoalView, error) {
	l := zerolog.Ctx(ctx)

	if err := s.policy.ValidateNew(arg); err != nil {
		l.Info().Err(err).Msgf("Create(ctx, %+v)", arg)
		return domain.GoalView{}, err
	}

	g, err := s.repo.Create(ctx, arg)
	if err != nil {
		return domain.GoalView{}, err
	}

	s.metrics.GoalsCreatedTotal.Inc()

	return s.view(ctx, g, true), nil
}

// Get returns the owner's goal with its progress and ETA.
func (s *Service) Get(ctx context.Context, owner string, id int64) (domain.GoalView, error) {
	g, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return domain.GoalView{}, err
	}

	return s.view(ctx, g, false), nil
}

// List returns a page of the owner's goals. ETAs are estimated concurrently.
func (s *Service) List(ctx context.Context, owner string, pageSize, pageID int32) ([]domain.GoalView, error) {
	goals, err := s.repo.List(ctx, domain.ListGoalsParams{
		Owner:  owner,
		Limit:  pageSize,
		Offset: (pageID - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}

	views := make([]domain.GoalView, len(goals))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEstimates)

	for i := range goals {
		i := i
		g.Go(func() error {
			views[i] = s.view(gctx, goals[i], false)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return views, nil
}

// Update changes the status, contribution or frequency of the owner's goal.
func (s *Service) Update(ctx context.Context, owner string, id int64, arg domain.UpdateGoalParams) (domain.GoalView, error) {
	g, err := s.repo.Modify(ctx, owner, id, func(g domain.Goal) (domain.Goal, error) {
		return s.policy.ApplyUpdate(g, arg, s.now().UTC())
	})
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Int64("goal_id", id).Msg("goal update rejected")
		return domain.GoalView{}, err
	}

	return s.view(ctx, g, false), nil
}

// ListTransactions returns a page of the transactions of the owner's goal.
func (s *Service) ListTransactions(ctx context.Context, owner string, goalID int64, pageSize, pageID int32) ([]domain.Transaction, error) {
	if _, err := s.repo.Get(ctx, owner, goalID); err != nil {
		return nil, err
	}

	return s.transactions.ListByGoal(ctx, domain.ListTransactionsParams{
		GoalID: goalID,
		Limit:  pageSize,
		Offset: (pageID - 1) * pageSize,
	})
}

// view derives the read-only data of g. ETA failures never fail the view: the
// estimate is left out, except for a too long duration when warn is set.
func (s *Service) view(ctx context.Context, g domain.Goal, warn bool) domain.GoalView {
	l := zerolog.Ctx(ctx)

	v := domain.GoalView{
		Goal:            g,
		RemainingAmount: goalcalc.Remaining(g.InvestedAmount, g.TargetAmount),
	}

	progress, err := goalcalc.CalculateProgress(g.InvestedAmount, g.TargetAmount)
	if err != nil {
		l.Error().Err(err).Int64("goal_id", g.ID).Msg("progress")
	}

	v.ProgressPercent = progress

	if coin, ok := coinpkg.Lookup(g.Coin); ok {
		v.CoinName = coin.Name
	}

	if g.Status == domain.GoalStatusCompleted || !v.RemainingAmount.IsPositive() {
		return v
	}

	est, err := s.estimator.Estimate(ctx, g.Coin, v.RemainingAmount, g.ContributionAmount, g.Frequency)
	if err == nil {
		v.Estimate = &est
		return v
	}

	var tooLong *goalcalc.DurationTooLongError
	if warn && errors.As(err, &tooLong) {
		v.Estimate = &tooLong.Estimate
		v.Warning = err.Error()

		return v
	}

	l.Warn().Err(err).Int64("goal_id", g.ID).Msg("estimate omitted")

	return v
}
