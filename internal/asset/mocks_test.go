package asset_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studyhub/portal/internal/asset"
)

const testBaseURL = "https://cdn.example.test"

var errNoRow = fmt.Errorf("doc %w", asset.ErrNotFound)

// doc is a minimal asset.Record.
type doc struct {
	ID   uuid.UUID
	Name string
	URL  *string
}

func (d *doc) StorageKey(now time.Time, fileName string) string {
	return asset.BookKey(now, fileName)
}

func (d *doc) AssetURL() *string { return d.URL }

func (d *doc) SetAssetURL(url *string) { d.URL = url }

// --- Mock object store ---

type mockStore struct {
	bucket   string
	uploadFn func(ctx context.Context, key string, r io.Reader, size int64, contentType string, overwrite bool) error
	removeFn func(ctx context.Context, keys ...string) error
	listFn   func(ctx context.Context) ([]string, error)

	// calls records every storage call in order, e.g. "upload:<key>".
	calls      []string
	overwrites []bool
}

func (m *mockStore) Bucket() string { return m.bucket }

func (m *mockStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, overwrite bool) error {
	m.calls = append(m.calls, "upload:"+key)
	m.overwrites = append(m.overwrites, overwrite)
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, r, size, contentType, overwrite)
	}
	return nil
}

func (m *mockStore) Remove(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		m.calls = append(m.calls, "remove:"+k)
	}
	if m.removeFn != nil {
		return m.removeFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) PublicURL(key string) string {
	return asset.PublicURL(testBaseURL, m.bucket, key)
}

func (m *mockStore) List(ctx context.Context) ([]string, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- Mock rows ---

type mockRows struct {
	insertFn   func(ctx context.Context, d *doc) error
	getFn      func(ctx context.Context, id uuid.UUID) (*doc, error)
	updateFn   func(ctx context.Context, id uuid.UUID, d *doc) error
	deleteFn   func(ctx context.Context, id uuid.UUID) error
	fileURLsFn func(ctx context.Context) ([]string, error)

	// log is shared with a mockStore to assert cross-system ordering.
	log     *[]string
	inserts int
	updates int
	deletes int
}

func (m *mockRows) record(call string) {
	if m.log != nil {
		*m.log = append(*m.log, call)
	}
}

func (m *mockRows) Insert(ctx context.Context, d *doc) error {
	m.inserts++
	m.record("insert")
	if m.insertFn != nil {
		return m.insertFn(ctx, d)
	}
	d.ID = uuid.New()
	return nil
}

func (m *mockRows) Get(ctx context.Context, id uuid.UUID) (*doc, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errNoRow
}

func (m *mockRows) Update(ctx context.Context, id uuid.UUID, d *doc) error {
	m.updates++
	m.record("update")
	if m.updateFn != nil {
		return m.updateFn(ctx, id, d)
	}
	return nil
}

func (m *mockRows) Delete(ctx context.Context, id uuid.UUID) error {
	m.deletes++
	m.record("delete")
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRows) FileURLs(ctx context.Context) ([]string, error) {
	if m.fileURLsFn != nil {
		return m.fileURLsFn(ctx)
	}
	return nil, nil
}

// --- Helpers ---

var fixedNow = time.UnixMilli(1700000000000).UTC()

func fixedClock() time.Time { return fixedNow }

func strPtr(s string) *string { return &s }

// newFixture wires a store and rows that share one call log.
func newFixture(bucket string) (*mockStore, *mockRows) {
	store := &mockStore{bucket: bucket}
	rows := &mockRows{log: &store.calls}
	return store, rows
}

func existing(id uuid.UUID, url *string) func(context.Context, uuid.UUID) (*doc, error) {
	return func(_ context.Context, got uuid.UUID) (*doc, error) {
		if got != id {
			return nil, errNoRow
		}
		return &doc{ID: id, Name: "old", URL: url}, nil
	}
}

func pdf(name string) asset.File {
	return asset.File{Name: name, ContentType: "application/pdf", Size: 4, Body: strings.NewReader("%PDF")}
}
