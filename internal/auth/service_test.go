package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/portal/internal/auth"
)

// --- Mock User Repository ---

type mockUserRepo struct {
	getRoleFn    func(ctx context.Context, id uuid.UUID) (auth.Role, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*auth.User, error)
	listFn       func(ctx context.Context) ([]auth.User, error)
	updateRoleFn func(ctx context.Context, id uuid.UUID, role auth.Role) error
	updateNameFn func(ctx context.Context, id uuid.UUID, fullName *string) (*auth.User, error)
}

func (m *mockUserRepo) GetRole(ctx context.Context, id uuid.UUID) (auth.Role, error) {
	if m.getRoleFn != nil {
		return m.getRoleFn(ctx, id)
	}
	return auth.RoleUser, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, auth.ErrUserNotFound
}

func (m *mockUserRepo) List(ctx context.Context) ([]auth.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []auth.User{}, nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) error {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(ctx, id, role)
	}
	return nil
}

func (m *mockUserRepo) UpdateFullName(ctx context.Context, id uuid.UUID, fullName *string) (*auth.User, error) {
	if m.updateNameFn != nil {
		return m.updateNameFn(ctx, id, fullName)
	}
	return &auth.User{ID: id, FullName: fullName, Role: auth.RoleUser}, nil
}

func principal(role auth.Role) *auth.Principal {
	return &auth.Principal{Identity: &auth.Identity{ID: uuid.New(), Email: "a@example.com"}, Role: role}
}

// ===== AssertAdmin =====

func TestAssertAdmin(t *testing.T) {
	tests := []struct {
		name string
		p    *auth.Principal
		want error
	}{
		{"nil principal", nil, auth.ErrUnauthorized},
		{"anonymous", &auth.Principal{}, auth.ErrUnauthorized},
		{"unresolved role", principal(0), auth.ErrForbidden},
		{"user", principal(auth.RoleUser), auth.ErrForbidden},
		{"admin", principal(auth.RoleAdmin), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.AssertAdmin(tt.p)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// ===== SetRole =====

func TestSetRole_Success(t *testing.T) {
	target := uuid.New()
	var gotID uuid.UUID
	var gotRole auth.Role
	repo := &mockUserRepo{updateRoleFn: func(_ context.Context, id uuid.UUID, role auth.Role) error {
		gotID, gotRole = id, role
		return nil
	}}
	svc := auth.NewService(repo)

	err := svc.SetRole(context.Background(), principal(auth.RoleAdmin), target, auth.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, target, gotID)
	assert.Equal(t, auth.RoleAdmin, gotRole)
}

func TestSetRole_NonAdminActor(t *testing.T) {
	called := false
	repo := &mockUserRepo{updateRoleFn: func(context.Context, uuid.UUID, auth.Role) error {
		called = true
		return nil
	}}
	svc := auth.NewService(repo)

	err := svc.SetRole(context.Background(), principal(auth.RoleUser), uuid.New(), auth.RoleAdmin)

	assert.ErrorIs(t, err, auth.ErrForbidden)
	assert.False(t, called)

	err = svc.SetRole(context.Background(), nil, uuid.New(), auth.RoleAdmin)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestSetRole_InvalidRole(t *testing.T) {
	svc := auth.NewService(&mockUserRepo{})

	err := svc.SetRole(context.Background(), principal(auth.RoleAdmin), uuid.New(), auth.Role(9))

	assert.ErrorIs(t, err, auth.ErrInvalidRole)
}

func TestSetRole_TargetMissing(t *testing.T) {
	repo := &mockUserRepo{updateRoleFn: func(context.Context, uuid.UUID, auth.Role) error {
		return auth.ErrUserNotFound
	}}
	svc := auth.NewService(repo)

	err := svc.SetRole(context.Background(), principal(auth.RoleAdmin), uuid.New(), auth.RoleUser)

	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

// ===== Profile =====

func TestProfile(t *testing.T) {
	p := principal(0)
	email := "a@example.com"
	repo := &mockUserRepo{getByIDFn: func(_ context.Context, id uuid.UUID) (*auth.User, error) {
		if id != p.Identity.ID {
			return nil, auth.ErrUserNotFound
		}
		return &auth.User{ID: id, Email: &email, Role: auth.RoleUser, CreatedAt: time.Now()}, nil
	}}
	svc := auth.NewService(repo)

	u, err := svc.Profile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, p.Identity.ID, u.ID)

	_, err = svc.Profile(context.Background(), &auth.Principal{})
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestUpdateProfile_WritesOnlyOwnRow(t *testing.T) {
	p := principal(auth.RoleUser)
	var gotID uuid.UUID
	var gotName *string
	repo := &mockUserRepo{updateNameFn: func(_ context.Context, id uuid.UUID, fullName *string) (*auth.User, error) {
		gotID, gotName = id, fullName
		return &auth.User{ID: id, FullName: fullName, Role: auth.RoleUser}, nil
	}}
	svc := auth.NewService(repo)

	u, err := svc.UpdateProfile(context.Background(), p, "  Ayesha Khan ")

	require.NoError(t, err)
	assert.Equal(t, p.Identity.ID, gotID)
	require.NotNil(t, gotName)
	assert.Equal(t, "Ayesha Khan", *gotName)
	assert.Equal(t, gotName, u.FullName)
}

func TestUpdateProfile_EmptyNameClears(t *testing.T) {
	var gotName *string
	called := false
	repo := &mockUserRepo{updateNameFn: func(_ context.Context, id uuid.UUID, fullName *string) (*auth.User, error) {
		called, gotName = true, fullName
		return &auth.User{ID: id}, nil
	}}
	svc := auth.NewService(repo)

	_, err := svc.UpdateProfile(context.Background(), principal(auth.RoleUser), "   ")

	require.NoError(t, err)
	assert.True(t, called)
	assert.Nil(t, gotName)
}

func TestUpdateProfile_Errors(t *testing.T) {
	svc := auth.NewService(&mockUserRepo{updateNameFn: func(context.Context, uuid.UUID, *string) (*auth.User, error) {
		return nil, auth.ErrUserNotFound
	}})

	_, err := svc.UpdateProfile(context.Background(), principal(auth.RoleUser), "x")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = svc.UpdateProfile(context.Background(), &auth.Principal{}, "x")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestUsers_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	svc := auth.NewService(&mockUserRepo{listFn: func(context.Context) ([]auth.User, error) { return nil, boom }})

	_, err := svc.Users(context.Background())

	assert.ErrorIs(t, err, boom)
}
