package service

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/tourismsite/tourism/internal/core/domain"
	"github.com/tourismsite/tourism/internal/core/ports"
)

// validateRegistration checks the form-level rules of a registration in the
// order they are reported: missing fields first, then the password match.
func validateRegistration(v *validator.Validate, in ports.RegisterInput) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	mismatch := false
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			return domain.ErrFieldsRequired
		case "eqfield":
			mismatch = true
		}
	}
	if mismatch {
		return domain.ErrPasswordMismatch
	}
	return err
}
