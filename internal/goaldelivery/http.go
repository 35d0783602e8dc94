// Package goaldelivery manages delivery layer of goals.
package goaldelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/internal/middleware"
	"github.com/shopspring/decimal"
)

// Service provides service layer interface needed by goal delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package goaldelivery
type Service interface {
	Create(ctx context.Context, arg domain.CreateGoalParams) (domain.GoalView, error)
	Get(ctx context.Context, owner string, id int64) (domain.GoalView, error)
	List(ctx context.Context, owner string, pageSize, pageID int32) ([]domain.GoalView, error)
	Update(ctx context.Context, owner string, id int64, arg domain.UpdateGoalParams) (domain.GoalView, error)
	ListTransactions(ctx context.Context, owner string, goalID int64, pageSize, pageID int32) ([]domain.Transaction, error)
}

// Handler facilitates goal delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns goal handler.
func NewHandler(gs Service) *Handler {
	return &Handler{service: gs}
}

type goalData struct {
	Goal domain.GoalView `json:"goal"`
}

type goalsData struct {
	Goals []domain.GoalView `json:"goals"`
}

type transactionsData struct {
	Transactions []domain.Transaction `json:"transactions"`
}

type response struct {
	Data any `json:"data"`
}

type createRequest struct {
	Coin               string `json:"coin" binding:"required,coin"`
	TargetAmount       string `json:"target_amount" binding:"required,decimal"`
	ContributionAmount string `json:"contribution_amount" binding:"required,decimal"`
	Frequency          string `json:"frequency" binding:"required,frequency"`
}

// Create handles http request to create goal.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	target, err := decimal.NewFromString(req.TargetAmount)
	if err != nil {
		middleware.RespondError(gctx, domain.ErrInvalidAmount)
		return
	}

	contribution, err := decimal.NewFromString(req.ContributionAmount)
	if err != nil {
		middleware.RespondError(gctx, domain.ErrInvalidAmount)
		return
	}

	view, err := h.service.Create(ctx, domain.CreateGoalParams{
		Owner:              middleware.Username(gctx),
		Coin:               req.Coin,
		TargetAmount:       target,
		ContributionAmount: contribution,
		Frequency:          domain.Frequency(req.Frequency),
	})
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: goalData{view}})
}

type idRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// Get handles http request to get goal.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req idRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	view, err := h.service.Get(ctx, middleware.Username(gctx), req.ID)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: goalData{view}})
}

type listRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

// List handles http request to list goals.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	views, err := h.service.List(ctx, middleware.Username(gctx), req.PageSize, req.PageID)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: goalsData{views}})
}

type updateRequest struct {
	Status             *string `json:"status" binding:"omitempty,goalstatus"`
	ContributionAmount *string `json:"contribution_amount" binding:"omitempty,decimal"`
	Frequency          *string `json:"frequency" binding:"omitempty,frequency"`
}

func (r updateRequest) params() (domain.UpdateGoalParams, error) {
	var arg domain.UpdateGoalParams

	if r.Status == nil && r.ContributionAmount == nil && r.Frequency == nil {
		return arg, domain.ErrInvalidInput
	}

	if r.Status != nil {
		status := domain.GoalStatus(*r.Status)
		arg.Status = &status
	}

	if r.ContributionAmount != nil {
		amount, err := decimal.NewFromString(*r.ContributionAmount)
		if err != nil {
			return arg, domain.ErrInvalidAmount
		}

		arg.ContributionAmount = &amount
	}

	if r.Frequency != nil {
		frequency := domain.Frequency(*r.Frequency)
		arg.Frequency = &frequency
	}

	return arg, nil
}

// Update handles http request to change the status or contribution plan of a goal.
func (h *Handler) Update(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri idRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	var req updateRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	arg, err := req.params()
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	view, err := h.service.Update(ctx, middleware.Username(gctx), uri.ID, arg)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: goalData{view}})
}

// ListTransactions handles http request to list the transactions of a goal.
func (h *Handler) ListTransactions(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri idRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	txs, err := h.service.ListTransactions(ctx, middleware.Username(gctx), uri.ID, req.PageSize, req.PageID)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: transactionsData{txs}})
}
