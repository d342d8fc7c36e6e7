package pastpaper

import (
	"context"
	"fmt"

	"github.com/studyhub/portal/internal/asset"
)

// ErrNotFound is returned when a past paper record is not found.
var ErrNotFound = fmt.Errorf("past paper %w", asset.ErrNotFound)

// Repository provides operations on the past_papers table.
type Repository interface {
	asset.Rows[*PastPaper]
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
}

var _ Repository = (*PostgresRepository)(nil)
