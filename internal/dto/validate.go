package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every validate tag on req.
func Validate(req any) error {
	return describe(validate.Struct(req))
}

// ValidatePartial checks only the named struct fields, for PATCH bodies.
func ValidatePartial(req any, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return describe(validate.StructPartial(req, fields...))
}

func describe(err error) error {
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fe.Field() + " is required"
	case "notblank":
		msg = fe.Field() + " may not be blank"
	case "email":
		msg = "enter a valid email address"
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			msg = fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		} else {
			msg = fmt.Sprintf("%s must not be less than %s", fe.Field(), fe.Param())
		}
	default:
		msg = fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %s", services.ErrValidation, msg)
}
