// Package validation checks input shapes against their struct tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"accounts/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns a ValidationError with one entry per
// rejected field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(apperrors.CodeValidation, "Validation failed", err)
	}
	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, apperrors.FieldError{
			Field:   e.Field(),
			Message: message(e),
		})
	}
	return apperrors.Validation("Validation failed", fields...)
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	default:
		return fmt.Sprintf("failed on the '%s' tag", e.Tag())
	}
}
