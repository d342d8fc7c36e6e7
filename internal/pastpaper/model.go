package pastpaper

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyhub/portal/internal/asset"
)

// PastPaper represents a row in the past_papers table.
type PastPaper struct {
	ID         uuid.UUID
	Subject    string
	Year       int
	Board      string
	ClassLevel string
	ExamShift  string
	IsSolved   bool
	FileURL    *string
	CreatedAt  time.Time
}

// StorageKey implements asset.Record. Keys group files by board, class and year.
func (p *PastPaper) StorageKey(now time.Time, fileName string) string {
	return asset.PastPaperKey(p.Board, p.ClassLevel, p.Year, now, fileName)
}

// AssetURL implements asset.Record.
func (p *PastPaper) AssetURL() *string { return p.FileURL }

// SetAssetURL implements asset.Record.
func (p *PastPaper) SetAssetURL(url *string) { p.FileURL = url }

// ListFilter holds optional filters and pagination for listing past papers.
type ListFilter struct {
	Query      *string // partial match on subject, board or class_level
	Board      *string // partial match (ILIKE)
	ClassLevel *string // partial match (ILIKE)
	Year       *int
	Page       int // default 1
	Limit      int // default 20
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	PastPapers []PastPaper
	Total      int
	Page       int
	Limit      int
}
