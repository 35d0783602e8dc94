// Package priceoracle provides cached coin prices in the reference currency.
package priceoracle

import (
	"context"
	"time"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/pkg/coinpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds one upstream refresh, whichever caller started it.
const DefaultFetchTimeout = 10 * time.Second

// Upstream fetches a live price.
type Upstream interface {
	FetchPrice(ctx context.Context, coin coinpkg.Coin) (decimal.Decimal, error)
}

// Cache keeps the last known price of every coin.
type Cache interface {
	// Get reports false when no price is cached for coin.
	Get(ctx context.Context, coin string) (domain.Price, bool, error)
	Set(ctx context.Context, p domain.Price, ttl time.Duration) error
}

// Oracle serves prices from the cache while they are fresh and refreshes them from
// upstream otherwise. When upstream fails a last known price is served as stale.
type Oracle struct {
	upstream Upstream
	cache    Cache
	freshFor time.Duration
	keepFor  time.Duration
	group    singleflight.Group
	now      func() time.Time

	fetchTimeout time.Duration
}

// New returns an Oracle. Prices younger than freshFor are served without an upstream
// call; prices are kept for keepFor to be served as stale.
func New(upstream Upstream, cache Cache, freshFor, keepFor time.Duration) *Oracle {
	if keepFor < freshFor {
		keepFor = freshFor
	}

	return &Oracle{
		upstream: upstream,
		cache:    cache,
		freshFor: freshFor,
		keepFor:  keepFor,
		now:      time.Now,

		fetchTimeout: DefaultFetchTimeout,
	}
}

// GetPrice returns the unit price of coin.
func (o *Oracle) GetPrice(ctx context.Context, symbol string) (domain.Price, error) {
	l := zerolog.Ctx(ctx)

	coin, ok := coinpkg.Lookup(symbol)
	if !ok {
		return domain.Price{}, domain.ErrUnknownCoin
	}

	cached, found, err := o.cache.Get(ctx, symbol)
	if err != nil {
		l.Warn().Err(err).Str("coin", symbol).Msg("price cache read failed")
		found = false
	}

	if found && o.now().Sub(cached.FetchedAt) < o.freshFor {
		return cached, nil
	}

	// The refresh is shared by every caller that joins it, so it must outlive the one
	// that started it.
	ch := o.group.DoChan(symbol, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.fetchTimeout)
		defer cancel()

		return o.refresh(ctx, coin)
	})

	var fetched domain.Price

	select {
	case <-ctx.Done():
		err = ctx.Err()
	case res := <-ch:
		err = res.Err
		if err == nil {
			fetched = res.Val.(domain.Price)
		}
	}

	if err == nil {
		return fetched, nil
	}

	if found {
		l.Warn().Err(err).Str("coin", symbol).Time("fetched_at", cached.FetchedAt).Msg("serving stale price")

		cached.Stale = true

		return cached, nil
	}

	l.Error().Err(err).Str("coin", symbol).Msg("price unavailable")

	return domain.Price{}, domain.ErrPriceUnavailable
}

func (o *Oracle) refresh(ctx context.Context, coin coinpkg.Coin) (domain.Price, error) {
	price, err := o.upstream.FetchPrice(ctx, coin)
	if err != nil {
		return domain.Price{}, err
	}

	p := domain.Price{
		Coin:      coin.Symbol,
		Price:     price,
		FetchedAt: o.now().UTC(),
	}

	if err := o.cache.Set(ctx, p, o.keepFor); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("coin", coin.Symbol).Msg("price cache write failed")
	}

	return p, nil
}
