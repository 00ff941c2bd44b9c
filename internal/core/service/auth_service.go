package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tourismsite/tourism/internal/core/domain"
	"github.com/tourismsite/tourism/internal/core/ports"
)

// AuthService implements registration and login.
type AuthService struct {
	repo     ports.UserRepository
	scheme   PasswordScheme
	validate *validator.Validate
	log      zerolog.Logger
	// decoy is compared against on unknown emails so both login failures
	// cost the same.
	decoy string
}

const decoyPassword = "tourism-login-decoy"

func NewAuthService(repo ports.UserRepository, scheme PasswordScheme, log zerolog.Logger) *AuthService {
	if scheme == nil {
		scheme = PlainScheme{}
	}
	decoy, err := scheme.Encode(decoyPassword)
	if err != nil {
		log.Warn().Err(err).Str("scheme", scheme.Name()).Msg("encoding login decoy")
	}
	return &AuthService{
		repo:     repo,
		scheme:   scheme,
		validate: validator.New(),
		log:      log,
		decoy:    decoy,
	}
}

// Register creates a user and returns its id.
//
// The email lookup and the insert are not atomic; a concurrent registration
// with the same email is rejected by the store's uniqueness constraint and
// surfaces as domain.ErrEmailExists as well.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (int64, error) {
	if err := validateRegistration(s.validate, in); err != nil {
		return 0, err
	}

	id, err := s.register(ctx, in)
	if err != nil {
		return 0, err
	}

	s.log.Info().Int64("user_id", id).Msg("user registered")
	return id, nil
}

func (s *AuthService) register(ctx context.Context, in ports.RegisterInput) (int64, error) {
	_, err := s.repo.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return 0, domain.ErrEmailExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return 0, fmt.Errorf("register: %w", err)
	}

	stored, err := s.scheme.Encode(in.Password)
	if errors.Is(err, domain.ErrValidation) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("register: %w", err)
	}

	id, err := s.repo.Insert(ctx, in.Username, in.Email, stored)
	if err != nil {
		if errors.Is(err, domain.ErrEmailExists) {
			s.log.Warn().Msg("duplicate email rejected by store constraint")
			return 0, domain.ErrEmailExists
		}
		return 0, fmt.Errorf("register: %w", err)
	}
	return id, nil
}

// Login returns the user identified by email when password matches. Unknown
// emails and wrong passwords yield the same domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.scheme.Matches(s.decoy, password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.scheme.Matches(user.Password, password) {
		return nil, domain.ErrInvalidCredentials
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")
	return user, nil
}
