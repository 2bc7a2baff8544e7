// Package validation runs go-playground/validator struct tags and converts the
// first failure into the shared ValidationError type.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	okrerrors "github.com/akyairhashvil/okrcap/internal/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report the json name so messages match what callers send.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v and returns nil or a *errors.ValidationError describing
// the first offending field.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !okrerrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return okrerrors.NewValidationError("input", err.Error(), nil)
	}
	fe := fieldErrs[0]
	return okrerrors.NewValidationError(fe.Field(), describe(fe), fe.Value())
}

// Var validates a single value against tag, reporting it under field.
func Var(field string, value any, tag string) error {
	err := instance().Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if okrerrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return okrerrors.NewValidationError(field, describe(fieldErrs[0]), value)
	}
	return okrerrors.NewValidationError(field, err.Error(), value)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match layout %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}
