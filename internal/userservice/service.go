// Package userservice manages business logic layer of users.
package userservice

import (
	"context"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/pkg/errorspkg"
	"github.com/go-petr/wholecoin/pkg/passpkg"
	"github.com/go-petr/wholecoin/pkg/walletpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by user service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package userservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error)
	Get(ctx context.Context, username string) (domain.User, error)
}

// Service facilitates user service layer logic.
type Service struct {
	repo           Repo
	initialBalance decimal.Decimal
}

// New return user service struct to manage user bussines logic. Every new user is
// funded with initialBalance of simulated reference currency.
func New(ur Repo, initialBalance decimal.Decimal) *Service {
	return &Service{
		repo:           ur,
		initialBalance: initialBalance,
	}
}

// NewUserWithoutPassword returns user with removed sensitive data.
func NewUserWithoutPassword(u domain.User) domain.UserWithoutPassword {
	return domain.UserWithoutPassword{
		Username:      u.Username,
		FullName:      u.FullName,
		Email:         u.Email,
		WalletAddress: u.WalletAddress,
		Balance:       u.Balance,
		CreatedAt:     u.CreatedAt,
	}
}

// Create creates and returns user. An empty wallet address is accepted; such a
// user cannot deposit until a wallet is set.
func (s *Service) Create(ctx context.Context, username, password, fullname, email, wallet string) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	var result domain.UserWithoutPassword

	if wallet != "" && !walletpkg.ValidAddress(wallet) {
		return result, domain.ErrWalletInvalid
	}

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	arg := domain.CreateUserParams{
		Username:       username,
		HashedPassword: hashedPassword,
		FullName:       fullname,
		Email:          email,
		WalletAddress:  wallet,
		Balance:        s.initialBalance,
	}

	gotUser, err := s.repo.Create(ctx, arg)
	if err != nil {
		return result, err
	}

	result = NewUserWithoutPassword(gotUser)

	return result, nil
}

// CheckPassword checks if the password is valid for the given username.
func (s *Service) CheckPassword(ctx context.Context, username, pass string) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	var response domain.UserWithoutPassword

	gotUser, err := s.repo.Get(ctx, username)
	if err != nil {
		return response, err
	}

	err = passpkg.Check(pass, gotUser.HashedPassword)
	if err != nil {
		l.Warn().Err(err).Send()
		return response, domain.ErrWrongPassword
	}

	response = NewUserWithoutPassword(gotUser)

	return response, nil
}
