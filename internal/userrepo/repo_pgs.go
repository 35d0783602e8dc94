// Package userrepo manages repository layer of users.
package userrepo

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

// RepoPGS facilitates user repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns user RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const userColumns = `username, hashed_password, full_name, email, wallet_address, balance, password_changed_at, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (domain.User, error) {
	var u domain.User

	err := row.Scan(
		&u.Username,
		&u.HashedPassword,
		&u.FullName,
		&u.Email,
		&u.WalletAddress,
		&u.Balance,
		&u.PasswordChangedAt,
		&u.CreatedAt,
	)

	return u, err
}

const createQuery = `
INSERT INTO users (
    username,
    hashed_password,
    full_name,
    email,
    wallet_address,
    balance
) VALUES (
    $1, $2, $3, $4, $5, $6
) RETURNING ` + userColumns

// Create creates the user and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.Username,
		arg.HashedPassword,
		arg.FullName,
		arg.Email,
		arg.WalletAddress,
		arg.Balance,
	)

	u, err := scanUser(row)
	if err != nil {
		l.Error().Err(err).Send()

		if constraint, class, ok := dbpkg.ConstraintViolation(err); ok && class == "unique_violation" {
			switch constraint {
			case "users_pkey":
				return domain.User{}, domain.ErrUsernameAlreadyExists
			case "users_email_key":
				return domain.User{}, domain.ErrEmailAlreadyExists
			}
		}

		return domain.User{}, errorspkg.ErrInternal
	}

	return u, nil
}

const getQuery = `
SELECT ` + userColumns + `
FROM users
WHERE username = $1
`

// Get returns the user with the given username.
func (r *RepoPGS) Get(ctx context.Context, username string) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	u, err := scanUser(r.db.QueryRowContext(ctx, getQuery, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Err(err).Str("username", username).Send()
			return domain.User{}, domain.ErrUserNotFound
		}

		l.Error().Err(err).Send()

		return domain.User{}, errorspkg.ErrInternal
	}

	return u, nil
}

const debitBalanceQuery = `
UPDATE users
SET balance = balance - $1
WHERE username = $2
RETURNING ` + userColumns

// DebitBalance subtracts amount from the balance of the user and returns the changed user.
func (r *RepoPGS) DebitBalance(ctx context.Context, username string, amount decimal.Decimal) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	u, err := scanUser(r.db.QueryRowContext(ctx, debitBalanceQuery, amount, username))
	if err != nil {
		l.Error().Err(err).Send()

		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}

		if constraint, _, ok := dbpkg.ConstraintViolation(err); ok && constraint == "users_balance_check" {
			return domain.User{}, domain.ErrInsufficientBalance
		}

		return domain.User{}, errorspkg.ErrInternal
	}

	return u, nil
}
