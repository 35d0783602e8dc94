package priceoracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-petr/wholecoin/pkg/coinpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxBodySize caps how much of a response is read. An asset document is well under 1 KiB.
const maxBodySize = 1 << 20

// CoinCapConfig configures the CoinCap client.
type CoinCapConfig struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	MaxRetries       int
	RetryBackoffBase time.Duration
}

// CoinCapClient fetches prices from the CoinCap assets API.
type CoinCapClient struct {
	baseURL    string
	httpClient *http.Client
	config     CoinCapConfig
}

// NewCoinCapClient returns a CoinCap client.
func NewCoinCapClient(cfg CoinCapConfig) *CoinCapClient {
	if cfg.RetryBackoffBase <= 0 {
		cfg.RetryBackoffBase = 200 * time.Millisecond
	}

	return &CoinCapClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		config: cfg,
	}
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.code, e.body)
}

// FetchPrice returns the USD price of coin.
func (c *CoinCapClient) FetchPrice(ctx context.Context, coin coinpkg.Coin) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.config.RetryBackoffBase * time.Duration(1<<(attempt-1))

			l.Info().Err(lastErr).Int("attempt", attempt).Dur("backoff", backoff).Str("coin", coin.Symbol).Msg("retrying price request")

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return decimal.Zero, ctx.Err()
			case <-timer.C:
			}
		}

		price, err := c.fetch(ctx, coin)
		if err == nil {
			return price, nil
		}

		lastErr = err

		if !shouldRetry(ctx, err) {
			break
		}
	}

	return decimal.Zero, lastErr
}

func (c *CoinCapClient) fetch(ctx context.Context, coin coinpkg.Coin) (decimal.Decimal, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid base URL: %w", err)
	}

	u.Path = fmt.Sprintf("/v3/assets/%s", coin.CoinCapID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("creating request failed: %w", err)
	}

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading response body failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, &statusError{code: resp.StatusCode, body: string(body)}
	}

	var response struct {
		Data struct {
			ID       string `json:"id"`
			Symbol   string `json:"symbol"`
			PriceUSD string `json:"priceUsd"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return decimal.Zero, fmt.Errorf("parsing JSON response failed: %w", err)
	}

	price, err := decimal.NewFromString(response.Data.PriceUSD)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price format: %w", err)
	}

	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non positive price %s for %s", price, coin.Symbol)
	}

	return price, nil
}

func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= http.StatusInternalServerError
	}

	// Transport errors are worth another attempt; parse errors are not.
	var ue *url.Error

	return errors.As(err, &ue)
}
