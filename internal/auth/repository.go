package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when a user record is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidRole is returned for role values outside the user/admin enum.
var ErrInvalidRole = errors.New("invalid role")

// RoleReader resolves the role of an identity. It is the only lookup the
// access gate performs against the users table.
type RoleReader interface {
	GetRole(ctx context.Context, id uuid.UUID) (Role, error)
}

// UserRepository provides operations on the users table.
type UserRepository interface {
	RoleReader
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) error
	UpdateFullName(ctx context.Context, id uuid.UUID, fullName *string) (*User, error)
}
