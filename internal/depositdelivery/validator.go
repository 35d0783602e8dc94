package depositdelivery

import (
	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/go-petr/wholecoin/pkg/web"
	"github.com/go-playground/validator/v10"
)

// ValidTransactionType validates whether the deposit type is known.
var ValidTransactionType validator.Func = func(fl validator.FieldLevel) bool {
	if t, ok := fl.Field().Interface().(string); ok {
		return domain.TransactionType(t).Valid()
	}

	return false
}

// Validations returns the custom binding tags used by deposit requests.
func Validations() map[string]validator.Func {
	return map[string]validator.Func{
		"txtype":  ValidTransactionType,
		"decimal": web.ValidDecimal,
	}
}
