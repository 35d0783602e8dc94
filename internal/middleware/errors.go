package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/pkg/errorspkg"
	"github.com/go-petr/wholecoin/pkg/web"
	"github.com/rs/zerolog"
)

var statusByCode = map[string]int{
	domain.ErrInvalidInput.Code:           http.StatusBadRequest,
	domain.ErrInvalidAmount.Code:          http.StatusBadRequest,
	domain.ErrInvalidFrequency.Code:       http.StatusBadRequest,
	domain.ErrInvalidStatus.Code:          http.StatusBadRequest,
	domain.ErrInvalidTransactionType.Code: http.StatusBadRequest,
	domain.ErrUnknownCoin.Code:            http.StatusBadRequest,

	unauthorizedCode:                   http.StatusUnauthorized,
	domain.ErrWrongPassword.Code:       http.StatusUnauthorized,
	domain.ErrGoalNotFound.Code:        http.StatusNotFound,
	domain.ErrUserNotFound.Code:        http.StatusNotFound,
	domain.ErrTransactionNotFound.Code: http.StatusNotFound,

	domain.ErrGoalAlreadyCompleted.Code:    http.StatusConflict,
	domain.ErrInvalidStatusTransition.Code: http.StatusConflict,
	domain.ErrDuplicateBatch.Code:          http.StatusConflict,
	domain.ErrUsernameAlreadyExists.Code:   http.StatusConflict,
	domain.ErrEmailAlreadyExists.Code:      http.StatusConflict,

	domain.ErrInsufficientBalance.Code: http.StatusUnprocessableEntity,
	domain.ErrWalletInvalid.Code:       http.StatusUnprocessableEntity,
	domain.ErrGoalDurationTooLong.Code: http.StatusUnprocessableEntity,

	domain.ErrRateLimited.Code:      http.StatusTooManyRequests,
	domain.ErrPriceUnavailable.Code: http.StatusServiceUnavailable,
}

// ErrorStatus returns the HTTP status of err. Errors without a known code are internal.
func ErrorStatus(err error) int {
	if status, ok := statusByCode[errorspkg.Code(err)]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// RespondError writes err as the error response with its status.
func RespondError(c *gin.Context, err error) {
	status := ErrorStatus(err)

	l := zerolog.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Int("status", status).Send()
	} else {
		l.Info().Err(err).Int("status", status).Send()
	}

	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}

	c.JSON(status, web.Response{Error: web.Error(err)})
}

// RespondBindError writes the validation error of a failed request binding.
func RespondBindError(c *gin.Context, err error) {
	zerolog.Ctx(c.Request.Context()).Info().Err(err).Send()
	c.JSON(http.StatusBadRequest, web.Response{Error: web.ValidationError(err)})
}
