// Package userdelivery manages delivery layer of users.
package userdelivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/internal/middleware"
	"github.com/go-petr/wholecoin/pkg/errorspkg"
	"github.com/go-petr/wholecoin/pkg/tokenpkg"
	"github.com/go-petr/wholecoin/pkg/web"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by user delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package userdelivery
type Service interface {
	Create(ctx context.Context, username, password, fullname, email, wallet string) (domain.UserWithoutPassword, error)
	CheckPassword(ctx context.Context, username, password string) (domain.UserWithoutPassword, error)
}

// Handler facilitates user delivery layer logic.
type Handler struct {
	service        Service
	tokenMaker     tokenpkg.Maker
	accessDuration time.Duration
}

// NewHandler returns user handler. Signup and login issue access tokens valid for
// accessDuration.
func NewHandler(us Service, maker tokenpkg.Maker, accessDuration time.Duration) *Handler {
	return &Handler{
		service:        us,
		tokenMaker:     maker,
		accessDuration: accessDuration,
	}
}

type userData struct {
	User domain.UserWithoutPassword `json:"user"`
}

type createRequest struct {
	Username      string `json:"username" binding:"required,alphanum"`
	Password      string `json:"password" binding:"required,min=6"`
	FullName      string `json:"fullname" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	WalletAddress string `json:"wallet_address" binding:"omitempty,wallet"`
}

// Create handles http request to create user.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	createdUser, err := h.service.Create(ctx, req.Username, req.Password, req.FullName, req.Email, req.WalletAddress)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	h.respondWithToken(gctx, http.StatusOK, createdUser)
}

type loginRequest struct {
	Username string `json:"username" binding:"required,alphanum"`
	Password string `json:"password" binding:"required,min=6"`
}

// Login handles http login request and returns user data with an access token.
func (h *Handler) Login(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req loginRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	user, err := h.service.CheckPassword(ctx, req.Username, req.Password)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	h.respondWithToken(gctx, http.StatusOK, user)
}

func (h *Handler) respondWithToken(gctx *gin.Context, status int, user domain.UserWithoutPassword) {
	accessToken, payload, err := h.tokenMaker.CreateToken(user.Username, h.accessDuration)
	if err != nil {
		zerolog.Ctx(gctx.Request.Context()).Error().Err(err).Send()
		middleware.RespondError(gctx, errorspkg.ErrInternal)

		return
	}

	gctx.JSON(status, web.Response{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: payload.ExpiredAt.Format(time.RFC3339),
		Data:                 userData{User: user},
	})
}
