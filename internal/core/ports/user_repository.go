package ports

import (
	"context"

	"github.com/tourismsite/tourism/internal/core/domain"
)

// UserRepository defines the persistence contract for users.
//
// Lookups return domain.ErrUserNotFound when nothing matches. Insert returns
// domain.ErrEmailExists when the email is already taken. Any other failure is
// a *domain.StoreError.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Insert(ctx context.Context, username, email, password string) (int64, error)
}
