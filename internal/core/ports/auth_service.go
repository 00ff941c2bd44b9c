package ports

import (
	"context"

	"github.com/tourismsite/tourism/internal/core/domain"
)

// RegisterInput carries the fields of the registration form.
type RegisterInput struct {
	Username        string `validate:"required"`
	Email           string `validate:"required"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (int64, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
}
