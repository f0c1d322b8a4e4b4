package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"beestore/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return len(domain.PasswordProblems(fl.Field().String())) == 0
	})
	// amount is signed; money and rate are non-negative and sized to their columns.
	_ = validate.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		d, err := domain.ParseAmount(fl.Field().String())
		return err == nil && !d.Abs().GreaterThan(domain.MaxMoney)
	})
	_ = validate.RegisterValidation("money", amountWithin(domain.MaxMoney))
	_ = validate.RegisterValidation("rate", amountWithin(domain.MaxAccrualRate))
}

func amountWithin(max decimal.Decimal) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := domain.ParseAmount(fl.Field().String())
		return err == nil && domain.CheckRange(d, max) == nil
	}
}

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// ErrMalformedBody is returned by DecodeAndValidate when the body is not valid JSON.
var ErrMalformedBody = errors.New("malformed request body")

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(ErrMalformedBody, err)
	}
	return ValidateRequest(v)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errors = append(errors, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return errors
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "alphanum":
		return "Only letters and digits are allowed"
	case "password":
		return "Password needs " + strings.Join(domain.PasswordProblems(e.Value().(string)), ", ")
	case "eqfield":
		return "Must match " + e.Param()
	case "amount":
		return "Invalid amount"
	case "money":
		return "Must be an amount between 0 and " + domain.MaxMoney.StringFixed(domain.AmountPlaces)
	case "rate":
		return "Must be an amount between 0 and " + domain.MaxAccrualRate.StringFixed(domain.AmountPlaces)
	case "oneof":
		return "Must be one of: " + e.Param()
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "lt":
		return "Value must be less than " + e.Param()
	default:
		return "Invalid value"
	}
}
