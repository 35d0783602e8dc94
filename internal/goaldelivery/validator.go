package goaldelivery

import (
	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/pkg/coinpkg"
	"github.com/go-petr/wholecoin/pkg/web"
	"github.com/go-playground/validator/v10"
)

// ValidCoin validates whether the coin is supported.
var ValidCoin validator.Func = func(fl validator.FieldLevel) bool {
	if c, ok := fl.Field().Interface().(string); ok {
		return coinpkg.IsSupportedCoin(c)
	}

	return false
}

// ValidFrequency validates whether the contribution frequency is known.
var ValidFrequency validator.Func = func(fl validator.FieldLevel) bool {
	if f, ok := fl.Field().Interface().(string); ok {
		return domain.Frequency(f).Valid()
	}

	return false
}

// ValidGoalStatus validates whether the goal status is known.
var ValidGoalStatus validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return domain.GoalStatus(s).Valid()
	}

	return false
}

// Validations returns the custom binding tags used by goal requests.
func Validations() map[string]validator.Func {
	return map[string]validator.Func{
		"coin":       ValidCoin,
		"frequency":  ValidFrequency,
		"goalstatus": ValidGoalStatus,
		"decimal":    web.ValidDecimal,
	}
}
