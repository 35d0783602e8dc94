// Package idempotency records financial operations at most once per batch key.
//
// A batch key is the pair of a caller supplied batch id and a transaction type.
// The guard returns the transaction already recorded for a key without running
// anything, or runs the producer and persists its result exactly once. Concurrent
// callers with the same key are serialized by the Store; the losers get the
// winner's transaction back.
package idempotency

import (
	"context"
	"errors"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/pkg/dbpkg"
	"github.com/rs/zerolog"
)

// MaxBatchIDLength bounds the size of a batch id.
const MaxBatchIDLength = 128

// Key identifies an idempotent operation.
type Key struct {
	BatchID string
	Type    domain.TransactionType
}

// Producer performs the side effects of an operation and returns the transaction
// to persist. It runs inside the storage transaction that inserts the result, so
// db must be used for every write that has to be undone when recording fails.
type Producer func(ctx context.Context, db dbpkg.SQLInterface) (domain.CreateTransactionParams, error)

// Store persists transactions by batch key.
//
//go:generate mockgen -source guard.go -destination guard_mock.go -package idempotency
type Store interface {
	// GetByBatch returns domain.ErrTransactionNotFound when the key is unused.
	GetByBatch(ctx context.Context, batchID string, txType domain.TransactionType) (domain.Transaction, error)
	// Record serializes callers per key, runs produce and inserts its result in a
	// single storage transaction. It returns domain.ErrDuplicateBatch, with nothing
	// committed, when the key is already recorded.
	Record(ctx context.Context, key Key, produce Producer) (domain.Transaction, error)
}

// Outcome tells how a Result came about.
type Outcome int

// Outcomes of Ensure.
const (
	Created Outcome = iota + 1
	AlreadyExisted
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExisted:
		return "already_existed"
	}

	return "unknown"
}

// Result is the transaction recorded for a key and whether this call recorded it.
type Result struct {
	Outcome     Outcome
	Transaction domain.Transaction
}

// Guard enforces at most once recording on top of a Store.
type Guard struct {
	store Store
}

// New returns a Guard over store.
func New(store Store) *Guard {
	return &Guard{store: store}
}

// Validate checks that key can scope an operation.
func (k Key) Validate() error {
	if k.BatchID == "" || len(k.BatchID) > MaxBatchIDLength {
		return domain.ErrInvalidInput
	}

	if !k.Type.Valid() {
		return domain.ErrInvalidTransactionType
	}

	return nil
}

// Lookup returns the transaction recorded for key, if any.
func (g *Guard) Lookup(ctx context.Context, key Key) (domain.Transaction, bool, error) {
	if err := key.Validate(); err != nil {
		return domain.Transaction{}, false, err
	}

	t, err := g.store.GetByBatch(ctx, key.BatchID, key.Type)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return domain.Transaction{}, false, nil
		}

		return domain.Transaction{}, false, err
	}

	return t, true, nil
}

// Ensure returns the transaction recorded for key, running produce only when
// there is none. A producer error is returned unchanged and leaves nothing behind,
// so the same key can be retried.
func (g *Guard) Ensure(ctx context.Context, key Key, produce Producer) (Result, error) {
	l := zerolog.Ctx(ctx)

	existing, found, err := g.Lookup(ctx, key)
	if err != nil {
		return Result{}, err
	}

	if found {
		l.Info().Str("batch_id", key.BatchID).Str("type", string(key.Type)).Msg("batch already recorded")
		return Result{Outcome: AlreadyExisted, Transaction: existing}, nil
	}

	created, err := g.store.Record(ctx, key, produce)
	if err == nil {
		return Result{Outcome: Created, Transaction: created}, nil
	}

	if !errors.Is(err, domain.ErrDuplicateBatch) {
		return Result{}, err
	}

	// Lost the race to a concurrent caller with the same key.
	existing, err = g.store.GetByBatch(ctx, key.BatchID, key.Type)
	if err != nil {
		l.Error().Err(err).Str("batch_id", key.BatchID).Msg("re-read after duplicate batch")
		return Result{}, err
	}

	l.Info().Str("batch_id", key.BatchID).Str("type", string(key.Type)).Msg("concurrent batch already recorded")

	return Result{Outcome: AlreadyExisted, Transaction: existing}, nil
}
