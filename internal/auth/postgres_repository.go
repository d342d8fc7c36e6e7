package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements UserRepository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new UserRepository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) UserRepository {
	return &PostgresRepository{pool: pool}
}

// GetRole reads the role column for an identity. Identities without a users
// row are treated as plain users.
func (r *PostgresRepository) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	var raw string
	err := r.pool.QueryRow(ctx, "SELECT role FROM users WHERE id = $1", id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleUser, nil
		}
		return 0, fmt.Errorf("querying role: %w", err)
	}

	role, err := ParseRole(raw)
	if err != nil {
		return 0, fmt.Errorf("decoding role for user %s: %w", id, err)
	}
	return role, nil
}

// GetByID retrieves a single user by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, email, full_name, avatar_url, role, created_at
		FROM users
		WHERE id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// List retrieves all users, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, email, full_name, avatar_url, role, created_at
		FROM users
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

// UpdateRole sets the role of a user. Returns ErrUserNotFound if no row matched.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	if role != RoleUser && role != RoleAdmin {
		return ErrInvalidRole
	}

	result, err := r.pool.Exec(ctx, "UPDATE users SET role = $1 WHERE id = $2", role.String(), id)
	if err != nil {
		return fmt.Errorf("updating role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateFullName sets the display name of a user and returns the updated
// row. A nil name clears it.
func (r *PostgresRepository) UpdateFullName(ctx context.Context, id uuid.UUID, fullName *string) (*User, error) {
	query := `
		UPDATE users SET full_name = $1
		WHERE id = $2
		RETURNING id, email, full_name, avatar_url, role, created_at`

	u, err := scanUser(r.pool.QueryRow(ctx, query, fullName, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("updating full name: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.AvatarURL, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = parsed
	return &u, nil
}
