package service

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tourismsite/tourism/internal/core/domain"
)

// MaxBcryptPasswordLen is the longest password bcrypt accepts, in bytes.
const MaxBcryptPasswordLen = 72

const (
	SchemePlain  = "plain"
	SchemeBcrypt = "bcrypt"
)

// PasswordScheme encodes passwords before they are stored and compares a
// stored value against a submitted password.
type PasswordScheme interface {
	Name() string
	Encode(password string) (string, error)
	Matches(stored, password string) bool
}

// NewPasswordScheme returns the scheme registered under name.
func NewPasswordScheme(name string) (PasswordScheme, error) {
	switch name {
	case SchemePlain, "":
		return PlainScheme{}, nil
	case SchemeBcrypt:
		return BcryptScheme{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", name)
	}
}

// PlainScheme stores passwords as submitted. Kept for compatibility with
// existing rows; prefer BcryptScheme for new deployments.
type PlainScheme struct{}

func (PlainScheme) Name() string { return SchemePlain }

func (PlainScheme) Encode(password string) (string, error) { return password, nil }

func (PlainScheme) Matches(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// BcryptScheme stores bcrypt hashes.
type BcryptScheme struct {
	Cost int
}

func (BcryptScheme) Name() string { return SchemeBcrypt }

// Encode hashes password. Passwords over MaxBcryptPasswordLen bytes are
// rejected with domain.ErrPasswordTooLong.
func (s BcryptScheme) Encode(password string) (string, error) {
	if len(password) > MaxBcryptPasswordLen {
		return "", domain.ErrPasswordTooLong
	}
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (BcryptScheme) Matches(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}
