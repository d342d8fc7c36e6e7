package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned when an action requires an identity and none is present.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when the identity lacks the admin role.
var ErrForbidden = errors.New("forbidden")

// Service provides role-gated user administration.
type Service struct {
	userRepo UserRepository
}

// NewService creates a new auth Service.
func NewService(userRepo UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// AssertAdmin checks a principal resolved by the gate. It never queries the
// users table: a principal whose role was not resolved is rejected.
func AssertAdmin(p *Principal) error {
	if !p.Authenticated() {
		return ErrUnauthorized
	}
	switch p.Role {
	case RoleAdmin:
		return nil
	case RoleUser:
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

// SetRole changes the role of target on behalf of actor, who must be an admin.
func (s *Service) SetRole(ctx context.Context, actor *Principal, target uuid.UUID, role Role) error {
	if err := AssertAdmin(actor); err != nil {
		return err
	}
	if role != RoleUser && role != RoleAdmin {
		return ErrInvalidRole
	}

	if err := s.userRepo.UpdateRole(ctx, target, role); err != nil {
		return fmt.Errorf("setting role: %w", err)
	}

	slog.Info("user role updated", "actor", actor.Identity.ID, "target", target, "role", role.String())
	return nil
}

// Profile returns the users row for the principal.
func (s *Service) Profile(ctx context.Context, p *Principal) (*User, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthorized
	}
	return s.userRepo.GetByID(ctx, p.Identity.ID)
}

// UpdateProfile sets the principal's own display name. Only the caller's
// row is ever written; an empty name clears it.
func (s *Service) UpdateProfile(ctx context.Context, p *Principal, fullName string) (*User, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthorized
	}

	var name *string
	if trimmed := strings.TrimSpace(fullName); trimmed != "" {
		name = &trimmed
	}

	u, err := s.userRepo.UpdateFullName(ctx, p.Identity.ID, name)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	slog.Info("profile updated", "user", p.Identity.ID)
	return u, nil
}

// Users lists every registered user.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	return s.userRepo.List(ctx)
}
