package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// numeric tags (gt, gte, lte) see decimals as float64
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsValidPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("fullname", func(fl validator.FieldLevel) bool {
		return IsValidFullname(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("symbol", func(fl validator.FieldLevel) bool {
		return IsValidSymbol(strings.TrimSpace(fl.Field().String()))
	})
	return v
}

// Struct validates a request body against its `validate` tags.
func Struct(s interface{}) error {
	return validate.Struct(s)
}

// FormatValidationError turns validator errors into one message per field.
func FormatValidationError(err error) []string {
	var errs []string

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errs = append(errs, fmt.Sprintf("%s is required", field))
			case "email":
				errs = append(errs, fmt.Sprintf("%s must be a valid email", field))
			case "gt":
				errs = append(errs, fmt.Sprintf("%s must be greater than %s", field, e.Param()))
			case "min":
				errs = append(errs, fmt.Sprintf("%s must have minimum length %s", field, e.Param()))
			case "max":
				errs = append(errs, fmt.Sprintf("%s must have maximum length %s", field, e.Param()))
			case "oneof":
				errs = append(errs, fmt.Sprintf("%s must be one of [%s]", field, e.Param()))
			case "password":
				errs = append(errs, fmt.Sprintf("%s must be at least 8 characters with a letter, a number and a symbol", field))
			case "fullname":
				errs = append(errs, fmt.Sprintf("%s may only contain letters, spaces, hyphens and apostrophes", field))
			case "symbol":
				errs = append(errs, fmt.Sprintf("%s must be a ticker such as AAPL or BTC", field))
			default:
				errs = append(errs, fmt.Sprintf("%s is invalid (%s)", field, e.Tag()))
			}
		}
	} else if err != nil {
		errs = append(errs, err.Error())
	}
	return errs
}
