// Package integrationtest provides db helpers used in integration tests.
package integrationtest

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/wholecoin/cmd/httpserver"
	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/internal/goalrepo"
	"github.com/go-petr/wholecoin/internal/migrations"
	"github.com/go-petr/wholecoin/internal/notification"
	"github.com/go-petr/wholecoin/internal/userrepo"
	"github.com/go-petr/wholecoin/pkg/coinpkg"
	"github.com/go-petr/wholecoin/pkg/configpkg"
	"github.com/go-petr/wholecoin/pkg/dbpkg"
	"github.com/go-petr/wholecoin/pkg/passpkg"
	"github.com/go-petr/wholecoin/pkg/randompkg"
	"github.com/go-petr/wholecoin/pkg/walletpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ConfigPath is the location of app.env relative to a package directory.
const ConfigPath = "../../configs"

var (
	migrateOnce sync.Once
	migrateErr  error
)

// migrate applies the schema once per test binary.
func migrate(db *sql.DB, driver string) error {
	migrateOnce.Do(func() {
		migrateErr = migrations.Up(db, driver, zerolog.New(io.Discard))
	})

	return migrateErr
}

// FixedPrices serves the same unit price for every coin.
type FixedPrices struct {
	Price decimal.Decimal
}

// FetchPrice returns the fixed price.
func (p FixedPrices) FetchPrice(context.Context, coinpkg.Coin) (decimal.Decimal, error) {
	return p.Price, nil
}

// SetupServer returns test server that cleans up database after each integration test.
// Every coin is priced at price.
func SetupServer(t *testing.T, price decimal.Decimal) *httpserver.Server {
	config, err := configpkg.Load(ConfigPath)
	if err != nil {
		t.Fatalf(`configpkg.Load(%q) returned error: %v`, ConfigPath, err)
	}

	zerolog.SetGlobalLevel(zerolog.FatalLevel)

	logger := zerolog.New(io.Discard)

	db := SetupDB(t, config.DBDriver, config.DBSource)

	gin.SetMode(gin.ReleaseMode)

	server, err := httpserver.New(config, logger, httpserver.Deps{
		DB:       db,
		Prices:   FixedPrices{Price: price},
		Notifier: notification.Nop{},
	})
	if err != nil {
		t.Fatalf(`httpserver.New(config, logger, deps) returned error: %v`, err)
	}

	return server
}

// Flush flushes all application tables without dropping them.
func Flush(t *testing.T, db *sql.DB) {
	t.Helper()

	var tables string

	const query = `
	SELECT string_agg(table_name, ', ')
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name <> 'goose_db_version';`

	row := db.QueryRow(query)

	err := row.Scan(&tables)
	if err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}

	if _, err := db.Exec(`TRUNCATE TABLE ` + tables + " CASCADE"); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}
}

// SetupDB sets up a migrated database for testing and cleans it once the test is done.
func SetupDB(t *testing.T, driver, source string) *sql.DB {
	t.Helper()

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	if err := migrate(db, driver); err != nil {
		t.Fatalf("migrations.Up() failed. err: %v", err)
	}

	t.Cleanup(func() {
		Flush(t, db)

		if err := db.Close(); err != nil {
			t.Fatalf("db cleanup failed. err: %v", err)
		}
	})

	return db
}

// SetupTX sets up a database transaction to be used in tests.
//
// Once the tests are done it will rollback the transaction.
func SetupTX(t *testing.T, driver, source string) *sql.Tx {
	t.Helper()

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	if err := migrate(db, driver); err != nil {
		t.Fatalf("migrations.Up() failed. err: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("db.Begin() failed: %v", err)
	}

	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil {
			t.Fatalf("tx.Rollback() failed: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("db.Close() failed: %v", err)
		}
	})

	return tx
}

// SeedUser creates a random user with a valid wallet and the given balance.
func SeedUser(t *testing.T, db dbpkg.SQLInterface, balance decimal.Decimal) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(32))
	if err != nil {
		t.Fatalf("passpkg.Hash() returned error: %v", err)
	}

	var key [32]byte
	copy(key[:], randompkg.String(32))

	arg := domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.String(10),
		Email:          randompkg.Email(),
		WalletAddress:  walletpkg.AddressFromKey(key),
		Balance:        balance,
	}

	user, err := userrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user
}

// SeedGoal creates an ACTIVE goal of owner.
func SeedGoal(t *testing.T, db dbpkg.SQLInterface, owner string, target decimal.Decimal) domain.Goal {
	t.Helper()

	arg := domain.CreateGoalParams{
		Owner:              owner,
		Coin:               coinpkg.BTC,
		TargetAmount:       target,
		ContributionAmount: decimal.NewFromInt(500),
		Frequency:          domain.FrequencyMonthly,
	}

	goal, err := goalrepo.NewTxRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("goalRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return goal
}
