// Package memory provides an in-process user store for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tourismsite/tourism/internal/core/domain"
)

type UserRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]domain.User
	byEmail map[string]int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[int64]domain.User),
		byEmail: make(map[string]int64),
	}
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// Insert stores a new user. The email index is checked and updated under the
// same lock, so concurrent inserts for one email leave a single row.
func (r *UserRepository) Insert(ctx context.Context, username, email, password string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.NewStoreError("insert user", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return 0, domain.ErrEmailExists
	}

	r.nextID++
	r.byID[r.nextID] = domain.User{
		ID:        r.nextID,
		Username:  username,
		Email:     email,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}
	r.byEmail[email] = r.nextID
	return r.nextID, nil
}

// Count returns the number of stored users.
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *UserRepository) Name() string { return "memory" }

func (r *UserRepository) Ping(context.Context) error { return nil }
