package listing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a listing row is not found.
var ErrNotFound = errors.New("listing not found")

// ErrUnknownKind is returned for kinds outside the registry.
var ErrUnknownKind = errors.New("unknown listing kind")

// ErrUnknownColumn is returned when a write names a column outside the
// kind's allow-list.
var ErrUnknownColumn = errors.New("unknown listing column")

// ErrNoValues is returned for a write without any column.
var ErrNoValues = errors.New("no listing values")

// ErrConflict is returned when a write violates a unique column, such as a
// post slug.
var ErrConflict = errors.New("listing conflict")

// Row is a listing row keyed by column name.
type Row map[string]any

// ListFilter holds pagination and visibility for listing rows.
type ListFilter struct {
	// Public hides rows anonymous visitors may not see (unpublished posts).
	Public bool
	Page   int // default 1
	Limit  int // default 20
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	Rows  []Row
	Total int
	Page  int
	Limit int
}

// Values maps writable column names to typed values. A nil value stores NULL.
type Values map[string]any

// SearchResult groups search hits per table.
type SearchResult map[string][]Row

// Repository provides access to listing tables.
type Repository interface {
	List(ctx context.Context, kind Kind, filter ListFilter) (*ListResult, error)
	Get(ctx context.Context, kind Kind, id uuid.UUID) (Row, error)
	GetPostBySlug(ctx context.Context, slug string) (Row, error)
	Insert(ctx context.Context, kind Kind, values Values) (Row, error)
	Update(ctx context.Context, kind Kind, id uuid.UUID, values Values) (Row, error)
	Delete(ctx context.Context, kind Kind, id uuid.UUID) error
	Search(ctx context.Context, query string, limit int) (SearchResult, error)
}
