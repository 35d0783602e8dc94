package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User holds user data.
type User struct {
	Username          string          `json:"username"`
	HashedPassword    string          `json:"hashed_password"`
	FullName          string          `json:"full_name"`
	Email             string          `json:"email"`
	WalletAddress     string          `json:"wallet_address"`
	Balance           decimal.Decimal `json:"balance"`
	PasswordChangedAt time.Time       `json:"password_changed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at,omitempty"`
}

// CreateUserParams is the input data to create a user.
type CreateUserParams struct {
	Username       string          `json:"username"`
	HashedPassword string          `json:"hashed_password"`
	FullName       string          `json:"full_name"`
	Email          string          `json:"email"`
	WalletAddress  string          `json:"wallet_address"`
	Balance        decimal.Decimal `json:"balance"`
}

// UserWithoutPassword is User data excluding password data.
type UserWithoutPassword struct {
	Username      string          `json:"username"`
	FullName      string          `json:"full_name"`
	Email         string          `json:"email"`
	WalletAddress string          `json:"wallet_address"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
}
