package web

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CodeValidation is the error code of malformed requests.
const CodeValidation = "VALIDATION"

// ValidDecimal validates whether the field is a positive decimal number.
var ValidDecimal validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}

	return d.IsPositive()
}

// RegisterValidations adds custom tags to the validator used by gin binding.
func RegisterValidations(funcs map[string]validator.Func) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}

	for tag, fn := range funcs {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q validation: %w", tag, err)
		}
	}

	return nil
}

// ValidationError converts a binding error into a json friendly struct naming the
// first invalid field.
func ValidationError(err error) *JSONError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return &JSONError{Code: CodeValidation, Message: ve[0].Field() + fieldMessage(ve[0])}
	}

	return &JSONError{Code: CodeValidation, Message: "invalid request"}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return " is required"
	case "min":
		return " must be at least " + fe.Param()
	case "max":
		return " must be at most " + fe.Param()
	case "email":
		return " must be a valid email"
	case "alphanum":
		return " must contain only letters and digits"
	case "decimal":
		return " must be a positive decimal number"
	case "coin":
		return " is not a supported coin"
	case "frequency":
		return " must be one of DAILY, WEEKLY, MONTHLY"
	case "goalstatus":
		return " must be one of ACTIVE, PAUSED, COMPLETED"
	case "txtype":
		return " must be ONRAMP or SWAP"
	case "wallet":
		return " is not a valid wallet address"
	}

	return " is invalid"
}
