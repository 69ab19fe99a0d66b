package validators

import (
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Validate is a type alias for validator.Validate.
type Validate = validator.Validate

// ValidationErrors is a type alias for validator.ValidationErrors.
type ValidationErrors = validator.ValidationErrors

// FieldError is a type alias for validator.FieldError.
type FieldError = validator.FieldError

// TagLogLevel accepts any level zerolog can parse.
const TagLogLevel = "loglevel"

// New creates a new validator instance with the usbtop rules registered.
func New() *Validate {
	validate := validator.New()
	_ = validate.RegisterValidation(TagLogLevel, isLogLevel)
	return validate
}

func isLogLevel(fl validator.FieldLevel) bool {
	_, err := zerolog.ParseLevel(fl.Field().String())
	return err == nil
}
