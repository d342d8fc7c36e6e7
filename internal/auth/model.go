package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the coarse authorization level attached to an identity.
// The zero value means the role has not been resolved for this request.
type Role int

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

// String returns the role as stored in the users table.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return ""
	}
}

// ParseRole converts a stored role value into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Identity is the authenticated principal behind a session.
type Identity struct {
	ID    uuid.UUID
	Email string
}

// User represents a row in the users table.
type User struct {
	ID        uuid.UUID
	Email     *string
	FullName  *string
	AvatarURL *string
	Role      Role
	CreatedAt time.Time
}

// Principal is the request-scoped view of the caller. Identity is nil for
// anonymous callers; Role stays zero unless the gate looked it up.
type Principal struct {
	Identity *Identity
	Role     Role
}

// Authenticated reports whether the principal carries an identity.
func (p *Principal) Authenticated() bool {
	return p != nil && p.Identity != nil
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return p
	}
	return nil
}
