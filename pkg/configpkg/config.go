// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	DBDriver            string        `mapstructure:"DB_DRIVER"`
	DBSource            string        `mapstructure:"DB_SOURCE"`
	ServerAddress       string        `mapstructure:"SERVER_ADDRESS"`
	TokenSymmetricKey   string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	TokenType           string        `mapstructure:"TOKEN_TYPE"`
	AccessTokenDuration time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	Environment         string        `mapstructure:"GO_ENV"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`

	PriceAPIURL     string        `mapstructure:"PRICE_API_URL"`
	PriceAPIKey     string        `mapstructure:"PRICE_API_KEY"`
	PriceTimeout    time.Duration `mapstructure:"PRICE_TIMEOUT"`
	PriceCacheTTL   time.Duration `mapstructure:"PRICE_CACHE_TTL"`
	PriceStaleTTL   time.Duration `mapstructure:"PRICE_STALE_TTL"`
	PriceMaxRetries int           `mapstructure:"PRICE_MAX_RETRIES"`

	InitialBalance    string        `mapstructure:"INITIAL_BALANCE"`
	MinContribution   string        `mapstructure:"MIN_CONTRIBUTION"`
	MaxGoalYears      int           `mapstructure:"MAX_GOAL_YEARS"`
	DepositRateLimit  int           `mapstructure:"DEPOSIT_RATE_LIMIT"`
	DepositRateWindow time.Duration `mapstructure:"DEPOSIT_RATE_WINDOW"`

	KafkaBrokers  string        `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic    string        `mapstructure:"KAFKA_TOPIC"`
	NotifyTimeout time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("TOKEN_TYPE", "paseto")
	v.SetDefault("ACCESS_TOKEN_DURATION", 15*time.Minute)
	v.SetDefault("GO_ENV", "production")
	v.SetDefault("PRICE_API_URL", "https://rest.coincap.io")
	v.SetDefault("PRICE_TIMEOUT", 5*time.Second)
	v.SetDefault("PRICE_CACHE_TTL", time.Minute)
	v.SetDefault("PRICE_STALE_TTL", time.Hour)
	v.SetDefault("PRICE_MAX_RETRIES", 2)
	v.SetDefault("INITIAL_BALANCE", "10000")
	v.SetDefault("MIN_CONTRIBUTION", "100")
	v.SetDefault("MAX_GOAL_YEARS", 10)
	v.SetDefault("DEPOSIT_RATE_LIMIT", 10)
	v.SetDefault("DEPOSIT_RATE_WINDOW", time.Minute)
	v.SetDefault("KAFKA_TOPIC", "wholecoin.goal-events")
	v.SetDefault("NOTIFY_TIMEOUT", 5*time.Second)
}

// Load read configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}

// MinContributionAmount returns the contribution floor.
func (c Config) MinContributionAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(c.MinContribution)
}

// InitialBalanceAmount returns the balance new users are funded with.
func (c Config) InitialBalanceAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(c.InitialBalance)
}

// Brokers returns the Kafka broker list. It is empty when notifications are disabled.
func (c Config) Brokers() []string {
	var brokers []string

	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return brokers
}

// IsDevelopment reports whether the app runs in the development environment.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}
