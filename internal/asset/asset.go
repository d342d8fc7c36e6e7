// Package asset keeps a database row and its object-storage file consistent
// across create, replace and delete.
package asset

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound covers a missing row or a storage key that cannot be
	// derived from the row's file_url.
	ErrNotFound = errors.New("not found")

	// ErrUpstream is returned when object storage or row storage fails.
	ErrUpstream = errors.New("upstream failure")

	// ErrInconsistent marks a partial failure that left the row and the
	// file out of sync.
	ErrInconsistent = errors.New("inconsistent state")
)

// ObjectStore is a single bucket of object storage.
type ObjectStore interface {
	Bucket() string
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, overwrite bool) error
	Remove(ctx context.Context, keys ...string) error
	PublicURL(key string) string
	List(ctx context.Context) ([]string, error)
}

// Record is a row that references one file in object storage.
type Record interface {
	// StorageKey derives the key for a new upload from the row's metadata.
	StorageKey(now time.Time, fileName string) string
	AssetURL() *string
	SetAssetURL(url *string)
}

// Rows is the row-storage side of an asset kind. Get and Delete must return
// an error matching ErrNotFound when no row has the given id.
type Rows[R Record] interface {
	Insert(ctx context.Context, rec R) error
	Get(ctx context.Context, id uuid.UUID) (R, error)
	Update(ctx context.Context, id uuid.UUID, rec R) error
	Delete(ctx context.Context, id uuid.UUID) error
	FileURLs(ctx context.Context) ([]string, error)
}

// File is an uploaded file as received from the client.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}
