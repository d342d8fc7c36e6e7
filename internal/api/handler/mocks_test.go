package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/portal/internal/api/middleware"
	"github.com/studyhub/portal/internal/asset"
	"github.com/studyhub/portal/internal/auth"
	"github.com/studyhub/portal/internal/book"
	"github.com/studyhub/portal/internal/listing"
	"github.com/studyhub/portal/internal/pastpaper"
)

const (
	testBaseURL   = "https://cdn.example.test"
	testMaxUpload = 1 << 20
)

var fixedNow = func() time.Time { return time.UnixMilli(1717171717171) }

// --- Mock object store ---

type mockStore struct {
	bucket   string
	uploadFn func(ctx context.Context, key string) error
	removeFn func(ctx context.Context, keys ...string) error

	uploaded []string
	removed  []string
}

func newMockStore(bucket string) *mockStore {
	return &mockStore{bucket: bucket}
}

func (m *mockStore) Bucket() string { return m.bucket }

func (m *mockStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, overwrite bool) error {
	m.uploaded = append(m.uploaded, key)
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key)
	}
	_, err := io.Copy(io.Discard, r)
	return err
}

func (m *mockStore) Remove(ctx context.Context, keys ...string) error {
	m.removed = append(m.removed, keys...)
	if m.removeFn != nil {
		return m.removeFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) PublicURL(key string) string {
	return asset.PublicURL(testBaseURL, m.bucket, key)
}

func (m *mockStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

// --- Mock book repository ---

type mockBookRepo struct {
	insertFn func(ctx context.Context, b *book.Book) error
	getFn    func(ctx context.Context, id uuid.UUID) (*book.Book, error)
	updateFn func(ctx context.Context, id uuid.UUID, b *book.Book) error
	deleteFn func(ctx context.Context, id uuid.UUID) error
	listFn   func(ctx context.Context, filter book.ListFilter) (*book.ListResult, error)
}

func (m *mockBookRepo) Insert(ctx context.Context, b *book.Book) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, b)
	}
	b.ID = uuid.New()
	b.CreatedAt = fixedNow()
	return nil
}

func (m *mockBookRepo) Get(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, book.ErrNotFound
}

func (m *mockBookRepo) Update(ctx context.Context, id uuid.UUID, b *book.Book) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, b)
	}
	return nil
}

func (m *mockBookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockBookRepo) FileURLs(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockBookRepo) List(ctx context.Context, filter book.ListFilter) (*book.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return &book.ListResult{Page: filter.Page, Limit: filter.Limit}, nil
}

func (m *mockBookRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

// --- Mock past paper repository ---

type mockPastPaperRepo struct {
	insertFn func(ctx context.Context, p *pastpaper.PastPaper) error
	getFn    func(ctx context.Context, id uuid.UUID) (*pastpaper.PastPaper, error)
	updateFn func(ctx context.Context, id uuid.UUID, p *pastpaper.PastPaper) error
	deleteFn func(ctx context.Context, id uuid.UUID) error
	listFn   func(ctx context.Context, filter pastpaper.ListFilter) (*pastpaper.ListResult, error)
}

func (m *mockPastPaperRepo) Insert(ctx context.Context, p *pastpaper.PastPaper) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, p)
	}
	p.ID = uuid.New()
	p.CreatedAt = fixedNow()
	return nil
}

func (m *mockPastPaperRepo) Get(ctx context.Context, id uuid.UUID) (*pastpaper.PastPaper, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, pastpaper.ErrNotFound
}

func (m *mockPastPaperRepo) Update(ctx context.Context, id uuid.UUID, p *pastpaper.PastPaper) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, p)
	}
	return nil
}

func (m *mockPastPaperRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockPastPaperRepo) FileURLs(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockPastPaperRepo) List(ctx context.Context, filter pastpaper.ListFilter) (*pastpaper.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return &pastpaper.ListResult{Page: filter.Page, Limit: filter.Limit}, nil
}

// --- Mock user repository ---

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
	return nil, nil
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
	return nil, auth.ErrUserNotFound
}

// --- Mock listing repository ---

type mockListingRepo struct {
	listFn   func(ctx context.Context, kind listing.Kind, filter listing.ListFilter) (*listing.ListResult, error)
	getFn    func(ctx context.Context, kind listing.Kind, id uuid.UUID) (listing.Row, error)
	slugFn   func(ctx context.Context, slug string) (listing.Row, error)
	insertFn func(ctx context.Context, kind listing.Kind, values listing.Values) (listing.Row, error)
	updateFn func(ctx context.Context, kind listing.Kind, id uuid.UUID, values listing.Values) (listing.Row, error)
	deleteFn func(ctx context.Context, kind listing.Kind, id uuid.UUID) error
	searchFn func(ctx context.Context, query string, limit int) (listing.SearchResult, error)
}

func (m *mockListingRepo) List(ctx context.Context, kind listing.Kind, filter listing.ListFilter) (*listing.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, kind, filter)
	}
	return &listing.ListResult{Rows: []listing.Row{}, Page: filter.Page, Limit: filter.Limit}, nil
}

func (m *mockListingRepo) Get(ctx context.Context, kind listing.Kind, id uuid.UUID) (listing.Row, error) {
	if m.getFn != nil {
		return m.getFn(ctx, kind, id)
	}
	return nil, listing.ErrNotFound
}

func (m *mockListingRepo) GetPostBySlug(ctx context.Context, slug string) (listing.Row, error) {
	if m.slugFn != nil {
		return m.slugFn(ctx, slug)
	}
	return nil, listing.ErrNotFound
}

func (m *mockListingRepo) Insert(ctx context.Context, kind listing.Kind, values listing.Values) (listing.Row, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, kind, values)
	}
	row := listing.Row{"id": uuid.NewString()}
	for k, v := range values {
		row[k] = v
	}
	return row, nil
}

func (m *mockListingRepo) Update(ctx context.Context, kind listing.Kind, id uuid.UUID, values listing.Values) (listing.Row, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, kind, id, values)
	}
	return nil, listing.ErrNotFound
}

func (m *mockListingRepo) Delete(ctx context.Context, kind listing.Kind, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, kind, id)
	}
	return nil
}

func (m *mockListingRepo) Search(ctx context.Context, query string, limit int) (listing.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return listing.SearchResult{}, nil
}

// --- Request helpers ---

type formFile struct {
	name        string
	contentType string
	body        []byte
}

func pdfFile(name string) *formFile {
	return &formFile{name: name, contentType: "application/pdf", body: []byte("%PDF-1.4 test")}
}

// multipartBody encodes fields and an optional file part named "file".
func multipartBody(t *testing.T, fields map[string]string, file *formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newMultipartRequest(t *testing.T, method, target string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, fields, file)
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", contentType)
	return req
}

// serve runs req through the request id middleware so envelopes carry an id.
func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	middleware.RequestID(h).ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta map[string]any `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, w)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}

func withPrincipal(req *http.Request, p *auth.Principal) *http.Request {
	return req.WithContext(auth.WithPrincipal(req.Context(), p))
}

func adminPrincipal() *auth.Principal {
	return &auth.Principal{Identity: &auth.Identity{ID: uuid.New(), Email: "admin@example.test"}, Role: auth.RoleAdmin}
}

func strPtr(s string) *string { return &s }
