package book

import (
	"context"
	"fmt"

	"github.com/studyhub/portal/internal/asset"
)

// ErrNotFound is returned when a book record is not found.
var ErrNotFound = fmt.Errorf("book %w", asset.ErrNotFound)

// Repository provides operations on the books table.
type Repository interface {
	asset.Rows[*Book]
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Count(ctx context.Context) (int, error)
}

var _ Repository = (*PostgresRepository)(nil)
