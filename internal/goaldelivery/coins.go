package goaldelivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/pkg/coinpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// PriceSource provides current coin prices.
//
//go:generate mockgen -source coins.go -destination coins_mock.go -package goaldelivery
type PriceSource interface {
	GetPrice(ctx context.Context, coin string) (domain.Price, error)
}

// CoinHandler lists the coins a goal can be set for.
type CoinHandler struct {
	prices  PriceSource
	timeout time.Duration
}

// NewCoinHandler returns coin handler. Every price lookup is bounded by timeout.
func NewCoinHandler(ps PriceSource, timeout time.Duration) *CoinHandler {
	return &CoinHandler{prices: ps, timeout: timeout}
}

type coinView struct {
	coinpkg.Coin
	Currency   string           `json:"currency"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	PriceStale bool             `json:"price_stale,omitempty"`
}

type coinsData struct {
	Coins []coinView `json:"coins"`
}

// List handles http request to list supported coins with their live price. Coins
// without a price are listed without one.
func (h *CoinHandler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	views := make([]coinView, len(coinpkg.SupportedCoins))

	g, pctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, symbol := range coinpkg.SupportedCoins {
		i, symbol := i, symbol
		coin, _ := coinpkg.Lookup(symbol)
		views[i] = coinView{Coin: coin, Currency: coinpkg.ReferenceCurrency}

		g.Go(func() error {
			p, err := h.prices.GetPrice(pctx, symbol)
			if err != nil {
				l.Warn().Err(err).Str("coin", symbol).Msg("coin listed without price")
				return nil
			}

			views[i].Price = &p.Price
			views[i].PriceStale = p.Stale

			return nil
		})
	}

	_ = g.Wait()

	gctx.JSON(http.StatusOK, response{Data: coinsData{views}})
}
