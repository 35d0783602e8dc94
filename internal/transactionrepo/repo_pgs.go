// Package transactionrepo manages repository layer of deposit transactions.
package transactionrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/internal/idempotency"
	"github.com/go-petr/wholecoin/pkg/dbpkg"
	"github.com/go-petr/wholecoin/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transaction repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns transaction RepoPGS running every statement on db.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns transaction RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const transactionColumns = `id, goal_id, batch_id, type, fiat_amount, coin_amount, unit_price, network, tx_hash, metadata, created_at`

func scanTransaction(row interface{ Scan(dest ...any) error }) (domain.Transaction, error) {
	var (
		t        domain.Transaction
		metadata []byte
	)

	err := row.Scan(
		&t.ID,
		&t.GoalID,
		&t.BatchID,
		&t.Type,
		&t.FiatAmount,
		&t.CoinAmount,
		&t.UnitPrice,
		&t.Network,
		&t.TxHash,
		&metadata,
		&t.CreatedAt,
	)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
		return domain.Transaction{}, err
	}

	return t, nil
}

const createQuery = `
INSERT INTO transactions (
    goal_id,
    batch_id,
    type,
    fiat_amount,
    coin_amount,
    unit_price,
    network,
    tx_hash,
    metadata
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9
) RETURNING ` + transactionColumns

// Create creates the transaction and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	metadata, err := json.Marshal(arg.Metadata)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, errorspkg.ErrInternal
	}

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.GoalID,
		arg.BatchID,
		arg.Type,
		arg.FiatAmount,
		arg.CoinAmount,
		arg.UnitPrice,
		arg.Network,
		arg.TxHash,
		metadata,
	)

	t, err := scanTransaction(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)

		if constraint, _, ok := dbpkg.ConstraintViolation(err); ok {
			switch constraint {
			case "transactions_batch_id_type_key":
				return domain.Transaction{}, domain.ErrDuplicateBatch
			case "transactions_goal_id_fkey":
				return domain.Transaction{}, domain.ErrGoalNotFound
			case "transactions_fiat_amount_check":
				return domain.Transaction{}, domain.ErrInvalidAmount
			case "transactions_type_check":
				return domain.Transaction{}, domain.ErrInvalidTransactionType
			}
		}

		return domain.Transaction{}, errorspkg.ErrInternal
	}

	return t, nil
}

const getByBatchQuery = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE batch_id = $1 AND type = $2
`

// GetByBatch returns the transaction recorded for the batch key.
func (r *RepoPGS) GetByBatch(ctx context.Context, batchID string, txType domain.TransactionType) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	t, err := scanTransaction(r.db.QueryRowContext(ctx, getByBatchQuery, batchID, txType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrTransactionNotFound
		}

		l.Error().Err(err).Send()

		return domain.Transaction{}, errorspkg.ErrInternal
	}

	return t, nil
}

const listByGoalQuery = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE goal_id = $1
ORDER BY id
LIMIT $2 OFFSET $3
`

// ListByGoal returns the specified page of the goal's transactions.
func (r *RepoPGS) ListByGoal(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listByGoalQuery, arg.GoalID, arg.Limit, arg.Offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
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

const lockBatchQuery = `SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2::text))`

// Record runs produce and inserts the transaction it returns within a single
// database transaction.
//
// Callers with the same batch key are serialized by a transaction scoped advisory
// lock. The key is re-checked under the lock, so a second caller gets
// domain.ErrDuplicateBatch without running produce. The unique (batch_id, type)
// constraint backs the lock up.
func (r *RepoPGS) Record(ctx context.Context, key idempotency.Key, produce idempotency.Producer) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx).With().
		Str("batch_id", key.BatchID).
		Str("type", string(key.Type)).
		Logger()

	if r.conn == nil {
		l.Error().Msg("Record needs a repository with its own connection")
		return domain.Transaction{}, errorspkg.ErrInternal
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	if _, err := tx.ExecContext(ctx, lockBatchQuery, key.BatchID, string(key.Type)); err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, errorspkg.ErrInternal
	}

	txRepo := NewTxRepoPGS(tx)

	_, err = txRepo.GetByBatch(ctx, key.BatchID, key.Type)
	switch {
	case err == nil:
		l.Info().Msg("batch recorded by a concurrent request")
		return domain.Transaction{}, domain.ErrDuplicateBatch
	case !errors.Is(err, domain.ErrTransactionNotFound):
		return domain.Transaction{}, err
	}

	arg, err := produce(ctx, tx)
	if err != nil {
		l.Info().Err(err).Msg("producer failed, rolling back")
		return domain.Transaction{}, err
	}

	arg.BatchID = key.BatchID
	arg.Type = key.Type

	t, err := txRepo.Create(ctx, arg)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, errorspkg.ErrInternal
	}

	return t, nil
}
