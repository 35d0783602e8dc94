// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/wholecoin/internal/depositdelivery"
	"github.com/go-petr/wholecoin/internal/depositservice"
	"github.com/go-petr/wholecoin/internal/goalcalc"
	"github.com/go-petr/wholecoin/internal/goaldelivery"
	"github.com/go-petr/wholecoin/internal/goalrepo"
	"github.com/go-petr/wholecoin/internal/goalservice"
	"github.com/go-petr/wholecoin/internal/goalstate"
	"github.com/go-petr/wholecoin/internal/idempotency"
	"github.com/go-petr/wholecoin/internal/metrics"
	"github.com/go-petr/wholecoin/internal/middleware"
	"github.com/go-petr/wholecoin/internal/notification"
	"github.com/go-petr/wholecoin/internal/priceoracle"
	"github.com/go-petr/wholecoin/internal/ratelimit"
	"github.com/go-petr/wholecoin/internal/transactionrepo"
	"github.com/go-petr/wholecoin/internal/userdelivery"
	"github.com/go-petr/wholecoin/internal/userrepo"
	"github.com/go-petr/wholecoin/internal/userservice"
	"github.com/go-petr/wholecoin/pkg/configpkg"
	"github.com/go-petr/wholecoin/pkg/dbpkg"
	"github.com/go-petr/wholecoin/pkg/tokenpkg"
	"github.com/go-petr/wholecoin/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// depositRatePrefix namespaces the deposit limiter keys in the shared store.
const depositRatePrefix = "ratelimit:deposit"

// Deps holds the external resources the server is built on. Redis and Notifier are
// optional: without Redis caches and limiters live in memory, without Notifier no
// events are published.
type Deps struct {
	DB       *sql.DB
	Redis    redis.UniversalClient
	Prices   priceoracle.Upstream
	Notifier notification.Notifier
}

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB      *sql.DB
	Engine  *gin.Engine
	Config  configpkg.Config
	Metrics *metrics.Metrics
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(config configpkg.Config, logger zerolog.Logger, deps Deps) (*Server, error) {
	minContribution, err := config.MinContributionAmount()
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_CONTRIBUTION: %w", err)
	}

	initialBalance, err := config.InitialBalanceAmount()
	if err != nil {
		return nil, fmt.Errorf("invalid INITIAL_BALANCE: %w", err)
	}

	tokenMaker, err := tokenpkg.New(config.TokenType, config.TokenSymmetricKey)
	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	if err := registerValidations(); err != nil {
		return nil, err
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = notification.Nop{}
	}

	var (
		priceCache priceoracle.Cache = priceoracle.NewMemoryCache()
		rateStore  ratelimit.Store   = ratelimit.NewMemoryStore()
	)

	if deps.Redis != nil {
		priceCache = priceoracle.NewRedisCache(deps.Redis)
		rateStore = ratelimit.NewRedisStore(deps.Redis)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	userRepo := userrepo.NewRepoPGS(deps.DB)
	goalRepo := goalrepo.NewRepoPGS(deps.DB)
	transactionRepo := transactionrepo.NewRepoPGS(deps.DB)

	oracle := priceoracle.New(deps.Prices, priceCache, config.PriceCacheTTL, config.PriceStaleTTL)
	estimator := goalcalc.NewEstimator(oracle, config.PriceTimeout, goalcalc.WithHorizon(config.MaxGoalYears))
	policy := goalstate.NewPolicy(minContribution)

	userService := userservice.New(userRepo, initialBalance)
	goalService := goalservice.New(goalRepo, transactionRepo, estimator, policy, appMetrics)
	depositService := depositservice.New(depositservice.Deps{
		Goals:        goalRepo,
		Users:        userRepo,
		TxRepos:      txRepos,
		Guard:        idempotency.New(transactionRepo),
		Prices:       oracle,
		PriceTimeout: config.PriceTimeout,
		Limiter:      ratelimit.New(rateStore, depositRatePrefix, config.DepositRateLimit, config.DepositRateWindow),
		Notifier:     notifier,
		Metrics:      appMetrics,
	})

	userHandler := userdelivery.NewHandler(userService, tokenMaker, config.AccessTokenDuration)
	goalHandler := goaldelivery.NewHandler(goalService)
	coinHandler := goaldelivery.NewCoinHandler(oracle, config.PriceTimeout)
	depositHandler := depositdelivery.NewHandler(depositService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())
	engine.Use(appMetrics.Middleware())

	engine.GET("/metrics", gin.WrapH(appMetrics.Handler()))

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)
	engine.GET("/coins", coinHandler.List)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.POST("/goals", goalHandler.Create)
	authRoutes.GET("/goals", goalHandler.List)
	authRoutes.GET("/goals/:id", goalHandler.Get)
	authRoutes.PATCH("/goals/:id", goalHandler.Update)
	authRoutes.GET("/goals/:id/transactions", goalHandler.ListTransactions)
	authRoutes.POST("/goals/:id/deposits", depositHandler.Record)

	server := &Server{
		DB:      deps.DB,
		Engine:  engine,
		Config:  config,
		Metrics: appMetrics,
	}

	return server, nil
}

// txRepos binds the repositories the deposit flow mutates to one storage transaction.
func txRepos(db dbpkg.SQLInterface) (depositservice.UserRepo, depositservice.GoalRepo) {
	return userrepo.NewRepoPGS(db), goalrepo.NewTxRepoPGS(db)
}

func registerValidations() error {
	for _, v := range []func() map[string]validator.Func{
		userdelivery.Validations,
		goaldelivery.Validations,
		depositdelivery.Validations,
	} {
		if err := web.RegisterValidations(v()); err != nil {
			return fmt.Errorf("cannot register validators: %w", err)
		}
	}

	return nil
}
