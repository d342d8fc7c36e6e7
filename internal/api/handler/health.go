package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/studyhub/portal/internal/api/middleware"
	"github.com/studyhub/portal/internal/api/response"
)

const healthTimeout = 3 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	checks  map[string]Pinger
	version string
}

// NewHealthHandler creates a new HealthHandler checking each named dependency.
func NewHealthHandler(checks map[string]Pinger, version string) *HealthHandler {
	return &HealthHandler{checks: checks, version: version}
}

type componentStatus struct {
	Name      string  `json:"name"`
	Connected bool    `json:"connected"`
	Error     *string `json:"error"`
}

type healthData struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components []componentStatus `json:"components"`
}

// ServeHTTP handles the health check request. The status is "degraded" when
// any dependency is unreachable; the response code stays 200.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	data := healthData{Status: "healthy", Version: h.version, Components: []componentStatus{}}
	for _, name := range names {
		c := componentStatus{Name: name, Connected: true}
		if err := h.checks[name].Ping(ctx); err != nil {
			msg := err.Error()
			c.Connected, c.Error = false, &msg
			data.Status = "degraded"
		}
		data.Components = append(data.Components, c)
	}

	response.Success(w, http.StatusOK, data, requestID)
}
