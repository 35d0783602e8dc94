// Package main starts the wholecoin API that tracks savings goals toward whole coins.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-petr/wholecoin/cmd/httpserver"
	"github.com/go-petr/wholecoin/internal/middleware"
	"github.com/go-petr/wholecoin/internal/migrations"
	"github.com/go-petr/wholecoin/internal/notification"
	"github.com/go-petr/wholecoin/internal/priceoracle"
	"github.com/go-petr/wholecoin/pkg/configpkg"
	"github.com/go-petr/wholecoin/pkg/dbpkg"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to database")
	}
	defer db.Close()

	if err := migrations.Up(db, config.DBDriver, logger); err != nil {
		logger.Fatal().Err(err).Msg("cannot migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := httpserver.Deps{
		DB: db,
		Prices: priceoracle.NewCoinCapClient(priceoracle.CoinCapConfig{
			BaseURL:    config.PriceAPIURL,
			APIKey:     config.PriceAPIKey,
			Timeout:    config.PriceTimeout,
			MaxRetries: config.PriceMaxRetries,
		}),
	}

	if config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("cannot connect to redis")
		}

		deps.Redis = rdb
	}

	var async *notification.Async

	if brokers := config.Brokers(); len(brokers) > 0 {
		writer := notification.NewKafkaWriter(brokers, config.KafkaTopic)
		defer writer.Close()

		async = notification.NewAsync(notification.NewKafkaNotifier(writer), config.NotifyTimeout)
		deps.Notifier = async
	}

	server, err := httpserver.New(config, logger, deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	srv := &http.Server{
		Addr:              config.ServerAddress,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("cannot shut down server")
		}
	}()

	logger.Info().Str("address", config.ServerAddress).Msg("WHOLECOIN API SERVER HAS STARTED")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("cannot start server")
	}

	if async != nil {
		async.Wait()
	}

	logger.Info().Msg("server stopped")
}
