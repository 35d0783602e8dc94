// Package domain provides defenitions of all entities.
package domain

import "github.com/go-petr/wholecoin/pkg/errorspkg"

var (
	// ErrInvalidInput indicates a request value out of its allowed shape or range.
	ErrInvalidInput = errorspkg.New("VALIDATION", "invalid input")
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = errorspkg.New("INVALID_AMOUNT", "invalid amount")
	// ErrInvalidFrequency indicates a contribution frequency outside DAILY, WEEKLY, MONTHLY.
	ErrInvalidFrequency = errorspkg.New("INVALID_FREQUENCY", "invalid contribution frequency")
	// ErrInvalidStatus indicates an unknown goal status.
	ErrInvalidStatus = errorspkg.New("INVALID_STATUS", "invalid goal status")
	// ErrInvalidTransactionType indicates a transaction type outside ONRAMP and SWAP.
	ErrInvalidTransactionType = errorspkg.New("INVALID_TRANSACTION_TYPE", "invalid transaction type")

	// ErrGoalNotFound indicates that the goal is not found for the owner.
	ErrGoalNotFound = errorspkg.New("GOAL_NOT_FOUND", "goal not found")
	// ErrGoalAlreadyCompleted indicates a mutation attempt on a completed goal.
	ErrGoalAlreadyCompleted = errorspkg.New("GOAL_ALREADY_COMPLETED", "goal already completed")
	// ErrInvalidStatusTransition indicates a status change the goal lifecycle forbids.
	ErrInvalidStatusTransition = errorspkg.New("INVALID_STATUS_TRANSITION", "invalid status transition")
	// ErrGoalDurationTooLong indicates that the estimated completion is past the policy horizon.
	ErrGoalDurationTooLong = errorspkg.New("GOAL_DURATION_TOO_LONG", "goal would take too long to complete")

	// ErrTransactionNotFound indicates that no transaction exists for the batch key.
	ErrTransactionNotFound = errorspkg.New("TRANSACTION_NOT_FOUND", "transaction not found")
	// ErrDuplicateBatch indicates that a transaction for the batch key already exists.
	ErrDuplicateBatch = errorspkg.New("DUPLICATE_BATCH", "transaction for batch already exists")

	// ErrUnknownCoin indicates an unsupported coin symbol.
	ErrUnknownCoin = errorspkg.New("UNKNOWN_COIN", "unknown coin")
	// ErrPriceUnavailable indicates that no price could be fetched in time. The request may be retried.
	ErrPriceUnavailable = errorspkg.New("PRICE_UNAVAILABLE", "price unavailable, retry later")

	// ErrInsufficientBalance indicates that the user does not have sufficient balance.
	ErrInsufficientBalance = errorspkg.New("INSUFFICIENT_BALANCE", "insufficient balance")
	// ErrWalletInvalid indicates that the user has no usable wallet address.
	ErrWalletInvalid = errorspkg.New("WALLET_INVALID", "wallet address is missing or invalid")
	// ErrRateLimited indicates that the user exceeded the deposit rate.
	ErrRateLimited = errorspkg.New("RATE_LIMITED", "too many deposits, try again later")

	// ErrUsernameAlreadyExists indicates the the user with the given username already exists.
	ErrUsernameAlreadyExists = errorspkg.New("USERNAME_TAKEN", "username already exists")
	// ErrEmailAlreadyExists indicates the the user with the given email already exists.
	ErrEmailAlreadyExists = errorspkg.New("EMAIL_TAKEN", "email already exists")
	// ErrUserNotFound indicates the the user is not found.
	ErrUserNotFound = errorspkg.New("USER_NOT_FOUND", "user not found")
	// ErrWrongPassword indicates the wrong password for the given user.
	ErrWrongPassword = errorspkg.New("WRONG_PASSWORD", "wrong password")
)
