// Package depositdelivery manages delivery layer of deposits.
package depositdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/internal/middleware"
	"github.com/go-petr/wholecoin/pkg/web"
	"github.com/shopspring/decimal"
)

// Header names of the idempotent deposit protocol.
const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
)

// Service provides service layer interface needed by deposit delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package depositdelivery
type Service interface {
	Record(ctx context.Context, arg domain.RecordDepositParams) (domain.DepositResult, error)
}

// Handler facilitates deposit delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns deposit handler.
func NewHandler(ds Service) *Handler {
	return &Handler{service: ds}
}

type depositData struct {
	Deposit domain.DepositResult `json:"deposit"`
}

type response struct {
	Data any `json:"data"`
}

type goalURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type recordRequest struct {
	Type    string `json:"type" binding:"required,txtype"`
	Amount  string `json:"amount" binding:"required,decimal"`
	BatchID string `json:"batch_id" binding:"omitempty,max=128"`
}

var errBatchMismatch = &web.JSONError{
	Code:    web.CodeValidation,
	Message: "batch_id does not match " + IdempotencyKeyHeader + " header",
}

// Record handles http request to record a deposit toward a goal. A new deposit
// responds with 201, a replay of an already recorded batch with 200.
func (h *Handler) Record(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri goalURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	var req recordRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	batchID := req.BatchID
	if key := gctx.GetHeader(IdempotencyKeyHeader); key != "" {
		if batchID != "" && batchID != key {
			gctx.JSON(http.StatusBadRequest, web.Response{Error: errBatchMismatch})
			return
		}

		if len(key) > 128 {
			gctx.JSON(http.StatusBadRequest, web.Response{Error: &web.JSONError{
				Code:    web.CodeValidation,
				Message: IdempotencyKeyHeader + " must be at most 128",
			}})

			return
		}

		batchID = key
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		middleware.RespondError(gctx, domain.ErrInvalidAmount)
		return
	}

	res, err := h.service.Record(ctx, domain.RecordDepositParams{
		Owner:   middleware.Username(gctx),
		GoalID:  uri.ID,
		BatchID: batchID,
		Type:    domain.TransactionType(req.Type),
		Amount:  amount,
	})
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
		gctx.Header(ReplayedHeader, "true")
	}

	gctx.JSON(status, response{Data: depositData{res}})
}
