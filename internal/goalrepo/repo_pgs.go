// Package goalrepo manages repository layer of goals.
package goalrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/pkg/dbpkg"
	"github.com/go-petr/wholecoin/pkg/errorspkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates goal repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns goal RepoPGS running every statement on db, usually a
// transaction owned by the caller.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns goal RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const goalColumns = `id, owner, coin, target_amount, invested_amount, contribution_amount, frequency, status, completed_at, created_at, updated_at`

func scanGoal(row interface{ Scan(dest ...any) error }) (domain.Goal, error) {
	var (
		g           domain.Goal
		completedAt sql.NullTime
	)

	err := row.Scan(
		&g.ID,
		&g.Owner,
		&g.Coin,
		&g.TargetAmount,
		&g.InvestedAmount,
		&g.ContributionAmount,
		&g.Frequency,
		&g.Status,
		&completedAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return domain.Goal{}, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		g.CompletedAt = &t
	}

	return g, nil
}

func notFoundOrInternal(l *zerolog.Logger, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		l.Info().Err(err).Send()
		return domain.ErrGoalNotFound
	}

	l.Error().Err(err).Send()

	return errorspkg.ErrInternal
}

const createQuery = `
INSERT INTO goals (
    owner,
    coin,
    target_amount,
    contribution_amount,
    frequency
) VALUES (
    $1, $2, $3, $4, $5
) RETURNING ` + goalColumns

// Create creates an ACTIVE goal with nothing invested and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateGoalParams) (domain.Goal, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.Owner,
		arg.Coin,
		arg.TargetAmount,
		arg.ContributionAmount,
		arg.Frequency,
	)

	g, err := scanGoal(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)

		if constraint, _, ok := dbpkg.ConstraintViolation(err); ok {
			switch constraint {
			case "goals_owner_fkey":
				return domain.Goal{}, domain.ErrUserNotFound
			case "goals_target_amount_check", "goals_contribution_amount_check":
				return domain.Goal{}, domain.ErrInvalidAmount
			case "goals_frequency_check":
				return domain.Goal{}, domain.ErrInvalidFrequency
			}
		}

		return domain.Goal{}, errorspkg.ErrInternal
	}

	return g, nil
}

const getQuery = `
SELECT ` + goalColumns + `
FROM goals
WHERE id = $1 AND owner = $2
`

// Get returns the goal with the given id. Goals of other owners are reported as not found.
func (r *RepoPGS) Get(ctx context.Context, owner string, id int64) (domain.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, getQuery, id, owner))
	if err != nil {
		return domain.Goal{}, notFoundOrInternal(zerolog.Ctx(ctx), err)
	}

	return g, nil
}

const getForUpdateQuery = getQuery + `FOR UPDATE
`

// GetForUpdate returns the goal like Get and locks its row until the surrounding
// transaction ends.
func (r *RepoPGS) GetForUpdate(ctx context.Context, owner string, id int64) (domain.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, getForUpdateQuery, id, owner))
	if err != nil {
		return domain.Goal{}, notFoundOrInternal(zerolog.Ctx(ctx), err)
	}

	return g, nil
}

const listQuery = `
SELECT ` + goalColumns + `
FROM goals
WHERE owner = $1
ORDER BY id
LIMIT $2 OFFSET $3
`

// List returns the specified page of the owner's goals.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListGoalsParams) ([]domain.Goal, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, arg.Owner, arg.Limit, arg.Offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Goal{}

	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, g)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const updateQuery = `
UPDATE goals
SET
    status = $3,
    contribution_amount = $4,
    frequency = $5,
    completed_at = $6,
    updated_at = now()
WHERE id = $1 AND owner = $2
RETURNING ` + goalColumns

// Update stores the mutable settings of g: status, contribution, frequency and
// completion time. The invested amount is only changed by AddInvested.
func (r *RepoPGS) Update(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	var completedAt sql.NullTime
	if g.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *g.CompletedAt, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, updateQuery,
		g.ID,
		g.Owner,
		g.Status,
		g.ContributionAmount,
		g.Frequency,
		completedAt,
	)

	updated, err := scanGoal(row)
	if err != nil {
		return domain.Goal{}, notFoundOrInternal(zerolog.Ctx(ctx), err)
	}

	return updated, nil
}

const addInvestedQuery = `
UPDATE goals
SET
    invested_amount = invested_amount + $2,
    updated_at = now()
WHERE id = $1
RETURNING ` + goalColumns

// AddInvested increases the invested amount of the goal and returns the changed goal.
func (r *RepoPGS) AddInvested(ctx context.Context, id int64, amount decimal.Decimal) (domain.Goal, error) {
	l := zerolog.Ctx(ctx)

	g, err := scanGoal(r.db.QueryRowContext(ctx, addInvestedQuery, id, amount))
	if err != nil {
		if constraint, _, ok := dbpkg.ConstraintViolation(err); ok && constraint == "goals_invested_amount_check" {
			l.Error().Err(err).Send()
			return domain.Goal{}, domain.ErrInvalidAmount
		}

		return domain.Goal{}, notFoundOrInternal(l, err)
	}

	return g, nil
}

// Modify locks the goal, applies fn to it and stores the result of fn with Update,
// all within a single transaction. Errors of fn are returned unchanged.
func (r *RepoPGS) Modify(ctx context.Context, owner string, id int64, fn func(domain.Goal) (domain.Goal, error)) (domain.Goal, error) {
	if r.conn == nil {
		return r.modify(ctx, owner, id, fn)
	}

	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Goal{}, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	g, err := NewTxRepoPGS(tx).modify(ctx, owner, id, fn)
	if err != nil {
		return domain.Goal{}, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.Goal{}, errorspkg.ErrInternal
	}

	return g, nil
}

func (r *RepoPGS) modify(ctx context.Context, owner string, id int64, fn func(domain.Goal) (domain.Goal, error)) (domain.Goal, error) {
	g, err := r.GetForUpdate(ctx, owner, id)
	if err != nil {
		return domain.Goal{}, err
	}

	changed, err := fn(g)
	if err != nil {
		return domain.Goal{}, err
	}

	return r.Update(ctx, changed)
}
