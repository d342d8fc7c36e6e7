package listing

import (
	"fmt"
	"sort"
)

// Kind names a resource table without an attached file.
type Kind string

const (
	Jobs         Kind = "jobs"
	Institutions Kind = "institutions"
	Posts        Kind = "posts"
	Competitions Kind = "competitions"
)

// ColumnType is the value type a writable column accepts.
type ColumnType int

const (
	// Text is a short single-line string.
	Text ColumnType = iota
	// LongText is free-form content without a length cap.
	LongText
	// Date is a calendar date written as YYYY-MM-DD.
	Date
	// Bool is a non-null flag.
	Bool
)

// Column is a column admins may write.
type Column struct {
	Name     string
	Type     ColumnType
	Required bool
}

// table describes how a kind is stored.
type table struct {
	name string
	// publicFilter restricts what anonymous listings may see.
	publicFilter string
	// columns is the write allow-list, in statement order.
	columns []Column
}

var tables = map[Kind]table{
	Jobs: {
		name: "jobs",
		columns: []Column{
			{Name: "title", Type: Text, Required: true},
			{Name: "organization", Type: Text},
			{Name: "location", Type: Text},
			{Name: "description", Type: LongText},
			{Name: "apply_url", Type: Text},
			{Name: "last_date", Type: Date},
		},
	},
	Institutions: {
		name: "institutions",
		columns: []Column{
			{Name: "name", Type: Text, Required: true},
			{Name: "city", Type: Text},
			{Name: "type", Type: Text},
			{Name: "logo_url", Type: Text},
			{Name: "website", Type: Text},
			{Name: "description", Type: LongText},
		},
	},
	Posts: {
		name:         "posts",
		publicFilter: "published = TRUE",
		columns: []Column{
			{Name: "title", Type: Text, Required: true},
			{Name: "slug", Type: Text, Required: true},
			{Name: "content", Type: LongText},
			{Name: "excerpt", Type: LongText},
			{Name: "published", Type: Bool},
		},
	},
	Competitions: {
		name: "competitions",
		columns: []Column{
			{Name: "title", Type: Text, Required: true},
			{Name: "organizer", Type: Text},
			{Name: "description", Type: LongText},
			{Name: "deadline", Type: Date},
		},
	},
}

// ParseKind returns the Kind named s. Returns false for unknown kinds.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	_, ok := tables[k]
	return k, ok
}

// Kinds returns a sorted list of all kinds.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(tables))
	for k := range tables {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Columns returns the writable columns of kind, or nil for unknown kinds.
func Columns(kind Kind) []Column {
	t, ok := tables[kind]
	if !ok {
		return nil
	}
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// assignments orders values by the allow-list and rejects any column
// outside it.
func (t table) assignments(values Values) ([]string, []any, error) {
	if len(values) == 0 {
		return nil, nil, ErrNoValues
	}
	allowed := make(map[string]bool, len(t.columns))
	for _, c := range t.columns {
		allowed[c.Name] = true
	}
	for name := range values {
		if !allowed[name] {
			return nil, nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.name, name)
		}
	}

	cols := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for _, c := range t.columns {
		if v, ok := values[c.Name]; ok {
			cols = append(cols, c.Name)
			args = append(args, v)
		}
	}
	return cols, args, nil
}
