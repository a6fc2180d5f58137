package handler

import (
	"github.com/Queneri/catalogotefi/internal/model"

	"github.com/go-playground/validator/v10"
)

// Validator adapts the catalog validator to echo
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns the echo validator used for request payloads
func NewValidator() *Validator {
	return &Validator{validate: model.Validator()}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return model.Translate(err)
	}
	return nil
}
