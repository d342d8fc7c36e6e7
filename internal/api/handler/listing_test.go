package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/portal/internal/api/handler"
	"github.com/studyhub/portal/internal/listing"
)

func newListingRouter(repo *mockListingRepo) chi.Router {
	h := handler.NewListingHandler(repo)
	r := chi.NewRouter()
	r.Get("/jobs", h.List(listing.Jobs))
	r.Get("/jobs/{id}", h.Get(listing.Jobs))
	r.Get("/blog", h.List(listing.Posts))
	r.Get("/blog/{slug}", h.Post)
	r.Get("/search", h.Search)
	r.Get("/admin/{kind}", h.AdminList)
	r.Post("/admin/{kind}", h.AdminCreate)
	r.Put("/admin/{kind}/{id}", h.AdminUpdate)
	r.Delete("/admin/{kind}/{id}", h.AdminDelete)
	return r
}

func TestListingHandler_PublicListIsFiltered(t *testing.T) {
	var gotKind listing.Kind
	var gotFilter listing.ListFilter
	repo := &mockListingRepo{listFn: func(ctx context.Context, kind listing.Kind, filter listing.ListFilter) (*listing.ListResult, error) {
		gotKind, gotFilter = kind, filter
		return &listing.ListResult{Rows: []listing.Row{{"title": "Hello"}}, Total: 1, Page: 1, Limit: 20}, nil
	}}

	w := serve(newListingRouter(repo), httptest.NewRequest(http.MethodGet, "/blog", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, listing.Posts, gotKind)
	assert.True(t, gotFilter.Public)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Hello", rows[0]["title"])
}

func TestListingHandler_AdminListIncludesHidden(t *testing.T) {
	var gotFilter listing.ListFilter
	repo := &mockListingRepo{listFn: func(ctx context.Context, kind listing.Kind, filter listing.ListFilter) (*listing.ListResult, error) {
		gotFilter = filter
		return &listing.ListResult{Rows: []listing.Row{}, Page: 1, Limit: 20}, nil
	}}

	w := serve(newListingRouter(repo), httptest.NewRequest(http.MethodGet, "/admin/posts", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gotFilter.Public)
}

func TestListingHandler_UnknownKind(t *testing.T) {
	w := serve(newListingRouter(&mockListingRepo{}), httptest.NewRequest(http.MethodGet, "/admin/users_secret", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(newListingRouter(&mockListingRepo{}), httptest.NewRequest(http.MethodDelete, "/admin/books_x/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingHandler_Get(t *testing.T) {
	id := uuid.New()
	repo := &mockListingRepo{getFn: func(ctx context.Context, kind listing.Kind, got uuid.UUID) (listing.Row, error) {
		if got == id {
			return listing.Row{"id": id.String(), "title": "Engineer"}, nil
		}
		return nil, listing.ErrNotFound
	}}
	router := newListingRouter(repo)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/jobs/"+id.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingHandler_PostBySlug(t *testing.T) {
	repo := &mockListingRepo{slugFn: func(ctx context.Context, slug string) (listing.Row, error) {
		if slug == "exam-tips" {
			return listing.Row{"slug": slug}, nil
		}
		return nil, listing.ErrNotFound
	}}
	router := newListingRouter(repo)

	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/blog/exam-tips", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(router, httptest.NewRequest(http.MethodGet, "/blog/draft", nil)).Code)
}

func TestListingHandler_Search(t *testing.T) {
	calls := 0
	var gotQuery string
	var gotLimit int
	repo := &mockListingRepo{searchFn: func(ctx context.Context, query string, limit int) (listing.SearchResult, error) {
		calls++
		gotQuery, gotLimit = query, limit
		return listing.SearchResult{"books": {{"title": "Physics"}}}, nil
	}}
	router := newListingRouter(repo)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/search?q=++", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, calls, "blank queries skip the database")

	w = serve(router, httptest.NewRequest(http.MethodGet, "/search?q=physics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "physics", gotQuery)
	assert.Equal(t, 6, gotLimit)

	var result map[string][]map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.Equal(t, "Physics", result["books"][0]["title"])
}

func TestListingHandler_AdminDelete(t *testing.T) {
	var gotKind listing.Kind
	repo := &mockListingRepo{deleteFn: func(ctx context.Context, kind listing.Kind, id uuid.UUID) error {
		gotKind = kind
		return nil
	}}

	w := serve(newListingRouter(repo), httptest.NewRequest(http.MethodDelete, "/admin/competitions/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, listing.Competitions, gotKind)
}

func TestListingHandler_RepoFailure(t *testing.T) {
	repo := &mockListingRepo{listFn: func(ctx context.Context, kind listing.Kind, filter listing.ListFilter) (*listing.ListResult, error) {
		return nil, errors.New("boom")
	}}

	w := serve(newListingRouter(repo), httptest.NewRequest(http.MethodGet, "/jobs", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestListingHandler_AdminCreate(t *testing.T) {
	var gotKind listing.Kind
	var gotValues listing.Values
	repo := &mockListingRepo{insertFn: func(ctx context.Context, kind listing.Kind, values listing.Values) (listing.Row, error) {
		gotKind, gotValues = kind, values
		return listing.Row{"id": uuid.NewString(), "title": values["title"]}, nil
	}}

	w := serve(newListingRouter(repo), jsonRequest(http.MethodPost, "/admin/jobs",
		`{"title":" Physics Lecturer ","location":"Lahore","last_date":"2026-02-01"}`))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, listing.Jobs, gotKind)
	assert.Equal(t, listing.Values{
		"title":     "Physics Lecturer",
		"location":  "Lahore",
		"last_date": time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}, gotValues)

	var row map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &row))
	assert.Equal(t, "Physics Lecturer", row["title"])
}

func TestListingHandler_AdminCreate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		repo   *mockListingRepo
		status int
		code   string
	}{
		{name: "unknown kind", target: "/admin/users", body: `{"email":"x"}`, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "malformed json", target: "/admin/jobs", body: `{"title":`, status: http.StatusBadRequest, code: "INVALID_JSON"},
		{name: "array body", target: "/admin/jobs", body: `[]`, status: http.StatusBadRequest, code: "INVALID_JSON"},
		{name: "null body", target: "/admin/jobs", body: `null`, status: http.StatusBadRequest, code: "INVALID_JSON"},
		{name: "missing title", target: "/admin/competitions", body: `{"organizer":"PSF"}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "column outside allow-list", target: "/admin/posts", body: `{"title":"t","slug":"s","id":"x"}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{
			name:   "duplicate slug",
			target: "/admin/posts",
			body:   `{"title":"t","slug":"taken"}`,
			repo: &mockListingRepo{insertFn: func(context.Context, listing.Kind, listing.Values) (listing.Row, error) {
				return nil, listing.ErrConflict
			}},
			status: http.StatusConflict,
			code:   "CONFLICT",
		},
		{
			name:   "database failure",
			target: "/admin/jobs",
			body:   `{"title":"t"}`,
			repo: &mockListingRepo{insertFn: func(context.Context, listing.Kind, listing.Values) (listing.Row, error) {
				return nil, errors.New("boom")
			}},
			status: http.StatusInternalServerError,
			code:   "INTERNAL_ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := tt.repo
			if repo == nil {
				repo = &mockListingRepo{insertFn: func(context.Context, listing.Kind, listing.Values) (listing.Row, error) {
					t.Fatal("insert must not be called")
					return nil, nil
				}}
			}

			w := serve(newListingRouter(repo), jsonRequest(http.MethodPost, tt.target, tt.body))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestListingHandler_AdminUpdate(t *testing.T) {
	id := uuid.New()
	var gotID uuid.UUID
	var gotValues listing.Values
	repo := &mockListingRepo{updateFn: func(ctx context.Context, kind listing.Kind, got uuid.UUID, values listing.Values) (listing.Row, error) {
		if got != id {
			return nil, listing.ErrNotFound
		}
		gotID, gotValues = got, values
		return listing.Row{"id": id.String(), "title": values["title"], "published": values["published"]}, nil
	}}
	router := newListingRouter(repo)

	w := serve(router, jsonRequest(http.MethodPut, "/admin/posts/"+id.String(), `{"title":"Tips","slug":"tips","published":true}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, id, gotID)
	assert.Equal(t, true, gotValues["published"])
	_, hasContent := gotValues["content"]
	assert.False(t, hasContent, "absent fields are not written")

	w = serve(router, jsonRequest(http.MethodPut, "/admin/posts/"+uuid.NewString(), `{"title":"Tips","slug":"tips"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, jsonRequest(http.MethodPut, "/admin/posts/not-a-uuid", `{"title":"Tips","slug":"tips"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))
}
