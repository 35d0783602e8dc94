// Package depositservice records simulated deposits toward goals.
package depositservice

import (
	"context"
	"errors"
	"time"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/internal/goalcalc"
	"github.com/go-petr/wholecoin/internal/goalstate"
	"github.com/go-petr/wholecoin/internal/idempotency"
	"github.com/go-petr/wholecoin/internal/metrics"
	"github.com/go-petr/wholecoin/pkg/coinpkg"
	"github.com/go-petr/wholecoin/pkg/dbpkg"
	"github.com/go-petr/wholecoin/pkg/errorspkg"
	"github.com/go-petr/wholecoin/pkg/walletpkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PriceSourceName is stored in the metadata of every recorded transaction.
const PriceSourceName = "coincap"

// GoalRepo provides the goal data access needed by the deposit flow.
//
//go:generate mockgen -source service.go -destination service_mock.go -package depositservice
type GoalRepo interface {
	Get(ctx context.Context, owner string, id int64) (domain.Goal, error)
	GetForUpdate(ctx context.Context, owner string, id int64) (domain.Goal, error)
	AddInvested(ctx context.Context, id int64, amount decimal.Decimal) (domain.Goal, error)
	Update(ctx context.Context, g domain.Goal) (domain.Goal, error)
}

// UserRepo provides the user data access needed by the deposit flow.
type UserRepo interface {
	Get(ctx context.Context, username string) (domain.User, error)
	DebitBalance(ctx context.Context, username string, amount decimal.Decimal) (domain.User, error)
}

// PriceSource provides current coin prices.
type PriceSource interface {
	GetPrice(ctx context.Context, coin string) (domain.Price, error)
}

// Limiter bounds how often one owner may deposit.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Notifier publishes deposit events.
type Notifier interface {
	Notify(ctx context.Context, e domain.Event) error
}

// TxRepos returns the repositories bound to the storage transaction db.
type TxRepos func(db dbpkg.SQLInterface) (UserRepo, GoalRepo)

// Deps groups the collaborators of Service.
type Deps struct {
	Goals        GoalRepo
	Users        UserRepo
	TxRepos      TxRepos
	Guard        *idempotency.Guard
	Prices       PriceSource
	PriceTimeout time.Duration
	Limiter      Limiter
	Notifier     Notifier
	Metrics      *metrics.Metrics
}

// Service facilitates deposit service layer logic.
type Service struct {
	goals        GoalRepo
	users        UserRepo
	txRepos      TxRepos
	guard        *idempotency.Guard
	prices       PriceSource
	priceTimeout time.Duration
	limiter      Limiter
	notifier     Notifier
	metrics      *metrics.Metrics
	now          func() time.Time
}

// New returns deposit service struct to manage deposit business logic.
func New(d Deps) *Service {
	return &Service{
		goals:        d.Goals,
		users:        d.Users,
		txRepos:      d.TxRepos,
		guard:        d.Guard,
		prices:       d.Prices,
		priceTimeout: d.PriceTimeout,
		limiter:      d.Limiter,
		notifier:     d.Notifier,
		metrics:      d.Metrics,
		now:          time.Now,
	}
}

// Record records a deposit of arg.Amount toward the owner's goal at most once per
// batch key. A retried key returns the result recorded first, with Replayed set, even
// when the goal has changed since.
func (s *Service) Record(ctx context.Context, arg domain.RecordDepositParams) (res domain.DepositResult, err error) {
	start := s.now()

	defer func() {
		s.metrics.ObserveDeposit(string(arg.Type), outcome(res, err), start)
	}()

	l := zerolog.Ctx(ctx)

	allowed, err := s.limiter.Allow(ctx, arg.Owner)
	if err != nil {
		l.Warn().Err(err).Send()
	}

	if !allowed {
		return domain.DepositResult{}, domain.ErrRateLimited
	}

	if !arg.Amount.IsPositive() {
		return domain.DepositResult{}, domain.ErrInvalidAmount
	}

	if arg.BatchID == "" {
		arg.BatchID = uuid.NewString()
	}

	key := idempotency.Key{BatchID: arg.BatchID, Type: arg.Type}

	existing, found, err := s.guard.Lookup(ctx, key)
	if err != nil {
		return domain.DepositResult{}, err
	}

	if found {
		return s.replay(ctx, arg, existing)
	}

	goal, err := s.goals.Get(ctx, arg.Owner, arg.GoalID)
	if err != nil {
		return domain.DepositResult{}, err
	}

	if goal.Status == domain.GoalStatusCompleted {
		return domain.DepositResult{}, domain.ErrGoalAlreadyCompleted
	}

	user, err := s.users.Get(ctx, arg.Owner)
	if err != nil {
		return domain.DepositResult{}, err
	}

	if !walletpkg.ValidAddress(user.WalletAddress) {
		return domain.DepositResult{}, domain.ErrWalletInvalid
	}

	if user.Balance.LessThan(arg.Amount) {
		return domain.DepositResult{}, domain.ErrInsufficientBalance
	}

	price, err := s.price(ctx, goal.Coin)
	if err != nil {
		return domain.DepositResult{}, err
	}

	coins, err := coinAmount(goal.Coin, arg.Amount, price.Price)
	if err != nil {
		return domain.DepositResult{}, err
	}

	var completed bool

	produce := func(ctx context.Context, db dbpkg.SQLInterface) (domain.CreateTransactionParams, error) {
		users, goals := s.txRepos(db)

		if _, err := users.DebitBalance(ctx, arg.Owner, arg.Amount); err != nil {
			return domain.CreateTransactionParams{}, err
		}

		g, err := goals.GetForUpdate(ctx, arg.Owner, arg.GoalID)
		if err != nil {
			return domain.CreateTransactionParams{}, err
		}

		// Completed by a concurrent deposit after the check above.
		if g.Status == domain.GoalStatusCompleted {
			return domain.CreateTransactionParams{}, domain.ErrGoalAlreadyCompleted
		}

		g, err = goals.AddInvested(ctx, g.ID, coins)
		if err != nil {
			return domain.CreateTransactionParams{}, err
		}

		g, completed = goalstate.AutoComplete(g, s.now().UTC())
		if completed {
			if g, err = goals.Update(ctx, g); err != nil {
				return domain.CreateTransactionParams{}, err
			}
		}

		hash, err := walletpkg.SimulatedSignature()
		if err != nil {
			l.Error().Err(err).Send()
			return domain.CreateTransactionParams{}, errorspkg.ErrInternal
		}

		progress, err := goalcalc.CalculateProgress(g.InvestedAmount, g.TargetAmount)
		if err != nil {
			l.Error().Err(err).Int64("goal_id", g.ID).Msg("progress")
		}

		return domain.CreateTransactionParams{
			GoalID:     g.ID,
			FiatAmount: arg.Amount,
			CoinAmount: coins,
			UnitPrice:  price.Price,
			Network:    walletpkg.Network,
			TxHash:     hash,
			Metadata: domain.TransactionMetadata{
				State:           domain.TransactionStateConfirmed,
				PriceSource:     PriceSourceName,
				PriceStale:      price.Stale,
				PricedAt:        price.FetchedAt,
				Completed:       completed,
				Goal:            &g,
				ProgressPercent: progress,
			},
		}, nil
	}

	result, err := s.guard.Ensure(ctx, key, produce)
	if err != nil {
		return domain.DepositResult{}, err
	}

	if result.Outcome == idempotency.AlreadyExisted {
		return s.replay(ctx, arg, result.Transaction)
	}

	l.Info().
		Int64("goal_id", result.Transaction.GoalID).
		Int64("transaction_id", result.Transaction.ID).
		Str("coin_amount", coins.String()).
		Bool("completed", completed).
		Msg("deposit recorded")

	s.publish(ctx, arg.Owner, result.Transaction, completed)

	return s.result(ctx, arg, result.Transaction, false)
}

// result builds the deposit result from the goal snapshot recorded with t, so every
// call for one batch key returns the same payload.
func (s *Service) result(ctx context.Context, arg domain.RecordDepositParams, t domain.Transaction, replayed bool) (domain.DepositResult, error) {
	res := domain.DepositResult{Transaction: t, Replayed: replayed}

	if t.Metadata.Goal != nil {
		res.Goal = *t.Metadata.Goal
		res.ProgressPercent = t.Metadata.ProgressPercent

		return res, nil
	}

	// Recorded without a snapshot.
	g, err := s.goals.Get(ctx, arg.Owner, t.GoalID)
	if err != nil {
		return domain.DepositResult{}, err
	}

	res.Goal = g

	res.ProgressPercent, err = goalcalc.CalculateProgress(g.InvestedAmount, g.TargetAmount)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("goal_id", g.ID).Msg("progress")
	}

	return res, nil
}

// replay returns the result of an already recorded batch key. A key recorded for
// another goal cannot be reused.
func (s *Service) replay(ctx context.Context, arg domain.RecordDepositParams, t domain.Transaction) (domain.DepositResult, error) {
	if t.GoalID != arg.GoalID {
		zerolog.Ctx(ctx).Info().
			Str("batch_id", arg.BatchID).
			Int64("goal_id", arg.GoalID).
			Int64("recorded_goal_id", t.GoalID).
			Msg("batch id reused for another goal")

		return domain.DepositResult{}, domain.ErrDuplicateBatch
	}

	return s.result(ctx, arg, t, true)
}

func (s *Service) price(ctx context.Context, coin string) (domain.Price, error) {
	if s.priceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.priceTimeout)
		defer cancel()
	}

	p, err := s.prices.GetPrice(ctx, coin)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("coin", coin).Msg("no price for deposit")

		if errors.Is(err, domain.ErrUnknownCoin) {
			return domain.Price{}, err
		}

		return domain.Price{}, domain.ErrPriceUnavailable
	}

	if !p.Price.IsPositive() {
		return domain.Price{}, domain.ErrPriceUnavailable
	}

	return p, nil
}

func (s *Service) publish(ctx context.Context, owner string, t domain.Transaction, completed bool) {
	l := zerolog.Ctx(ctx)
	at := s.now().UTC()

	events := []domain.Event{{
		Type:          domain.EventDepositRecorded,
		Owner:         owner,
		GoalID:        t.GoalID,
		TransactionID: t.ID,
		OccurredAt:    at,
		Transaction:   &t,
	}}

	if completed {
		s.metrics.GoalsCompletedTotal.Inc()

		events = append(events, domain.Event{
			Type:          domain.EventGoalCompleted,
			Owner:         owner,
			GoalID:        t.GoalID,
			TransactionID: t.ID,
			OccurredAt:    at,
		})
	}

	for _, e := range events {
		if err := s.notifier.Notify(ctx, e); err != nil {
			l.Error().Err(err).Str("event", string(e.Type)).Int64("goal_id", e.GoalID).Msg("notify")
		}
	}
}

// coinAmount converts fiat to coins of the given symbol, truncated to the coin's
// precision. A deposit too small to buy a single unit is rejected.
func coinAmount(symbol string, fiat, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	coin, ok := coinpkg.Lookup(symbol)
	if !ok {
		return decimal.Zero, domain.ErrUnknownCoin
	}

	amount := fiat.DivRound(unitPrice, coin.Decimals+4).Truncate(coin.Decimals)
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	return amount, nil
}

func outcome(res domain.DepositResult, err error) string {
	switch {
	case err == nil && res.Replayed:
		return metrics.OutcomeReplayed
	case err == nil:
		return metrics.OutcomeCreated
	case errorspkg.Code(err) == errorspkg.ErrInternal.Code:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeRejected
	}
}
