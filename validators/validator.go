// Package validators wires go-playground/validator into echo and turns
// validation failures into per-field messages the form views re-render.
package validators

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// FieldErrors maps form field names to human-readable messages.
type FieldErrors map[string]string

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator for use as echo's e.Validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

var fieldValidate = validator.New()

// Fields validates a form struct and returns per-field messages, or nil
// when the form is valid.
func Fields(form interface{}) FieldErrors {
	err := fieldValidate.Struct(form)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{"form": err.Error()}
	}
	fields := make(FieldErrors, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields[strings.ToLower(fieldError.Field())] = message(fieldError)
	}
	return fields
}

func message(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required."
	default:
		return "This value is invalid."
	}
}
