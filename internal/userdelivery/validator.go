package userdelivery

import (
	"github.com/go-petr/wholecoin/pkg/walletpkg"
	"github.com/go-playground/validator/v10"
)

// ValidWallet validates whether the field is a wallet address.
var ValidWallet validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return walletpkg.ValidAddress(s)
	}

	return false
}

// Validations returns the custom binding tags used by user requests.
func Validations() map[string]validator.Func {
	return map[string]validator.Func{
		"wallet": ValidWallet,
	}
}
