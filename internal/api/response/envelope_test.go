package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/portal/internal/api/response"
)

func TestNewMeta(t *testing.T) {
	meta := response.NewMeta("req-1")
	assert.Equal(t, "req-1", meta.RequestID)
	_, err := time.Parse(time.RFC3339, meta.Timestamp)
	assert.NoError(t, err)

	generated := response.NewMeta("")
	_, err = uuid.Parse(generated.RequestID)
	assert.NoError(t, err)
}

func TestTotalPages(t *testing.T) {
	tests := []struct{ total, limit, want int }{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, response.TotalPages(tt.total, tt.limit), "total=%d limit=%d", tt.total, tt.limit)
	}
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	response.Success(w, http.StatusCreated, map[string]string{"id": "abc"}, "req-2")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body["error"])
	assert.Equal(t, "abc", body["data"].(map[string]any)["id"])
	assert.Equal(t, "req-2", body["meta"].(map[string]any)["requestId"])
}

func TestSuccessList(t *testing.T) {
	w := httptest.NewRecorder()
	response.SuccessList(w, []string{"a", "b"}, 45, 2, 20, "req-3")

	assert.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data []string          `json:"data"`
		Meta response.ListMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, []string{"a", "b"}, env.Data)
	assert.Equal(t, 45, env.Meta.Total)
	assert.Equal(t, 2, env.Meta.Page)
	assert.Equal(t, 20, env.Meta.Limit)
	assert.Equal(t, 3, env.Meta.TotalPages)
}

func TestErrWithDetails(t *testing.T) {
	w := httptest.NewRecorder()
	response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid form",
		[]map[string]string{{"field": "title"}}, "req-4")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Nil(t, env.Data)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.NotNil(t, env.Error.Details)
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	response.NoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}
