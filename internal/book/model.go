package book

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyhub/portal/internal/asset"
)

// Book represents a row in the books table.
type Book struct {
	ID         uuid.UUID
	Title      string
	ClassLevel string
	Subject    string
	Board      string
	FileURL    *string
	CreatedAt  time.Time
}

// StorageKey implements asset.Record.
func (b *Book) StorageKey(now time.Time, fileName string) string {
	return asset.BookKey(now, fileName)
}

// AssetURL implements asset.Record.
func (b *Book) AssetURL() *string { return b.FileURL }

// SetAssetURL implements asset.Record.
func (b *Book) SetAssetURL(url *string) { b.FileURL = url }

// ListFilter holds pagination for listing books.
type ListFilter struct {
	Page  int // default 1
	Limit int // default 12
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	Books []Book
	Total int
	Page  int
	Limit int
}
