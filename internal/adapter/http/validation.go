package http

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/andreolf/clawloan/pkg/fixed"
	"github.com/andreolf/clawloan/pkg/id"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string       `json:"error"`
	Code    string       `json:"code,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

var reAccount = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,64}$`)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// report json names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("hex32", func(fl validator.FieldLevel) bool {
		return id.Valid(fl.Field().String())
	})
	// lender ids and operator addresses
	_ = v.RegisterValidation("account", func(fl validator.FieldLevel) bool {
		return reAccount.MatchString(fl.Field().String())
	})
	// decimal string of minor units, zero allowed
	_ = v.RegisterValidation("units", func(fl validator.FieldLevel) bool {
		_, err := fixed.Parse(fl.Field().String())
		return err == nil
	})
	// decimal string of minor units, strictly positive
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		a, err := fixed.Parse(fl.Field().String())
		return err == nil && !a.IsZero()
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// ToFieldErrors maps validator errors onto readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "hex32":
			out = append(out, FieldError{Field: field, Message: "must be 32-char lowercase hex"})
		case "account":
			out = append(out, FieldError{Field: field, Message: "must be 1-64 chars of [A-Za-z0-9_.:-]"})
		case "units":
			out = append(out, FieldError{Field: field, Message: "must be a decimal string of minor units"})
		case "amount":
			out = append(out, FieldError{Field: field, Message: "must be a positive decimal string of minor units"})
		case "max":
			out = append(out, FieldError{Field: field, Message: "must be at most " + e.Param() + " characters"})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
