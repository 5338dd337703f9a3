// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	up   = pingFunc(func(context.Context) error { return nil })
	down = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func get(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		deps   []Dependency
		status int
		body   string
	}{
		{"all up", []Dependency{{"database", up}, {"redis", up}}, http.StatusOK, "ok"},
		{"redis down", []Dependency{{"database", up}, {"redis", down}}, http.StatusServiceUnavailable, "degraded"},
		{"unconfigured", []Dependency{{"database", nil}}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(NewHandler(tt.deps...), "/readyz")
			assert.Equal(t, tt.status, rec.Code)

			var resp ReadinessResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.body, resp.Status)
			require.Len(t, resp.Checks, len(tt.deps))
			for i, dep := range tt.deps {
				assert.Equal(t, dep.Name, resp.Checks[i].Name)
			}
		})
	}
}

func TestShutdownFlipsProbes(t *testing.T) {
	h := NewHandler(Dependency{"database", up})

	assert.Equal(t, http.StatusOK, get(h, "/livez").Code)

	h.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, get(h, "/readyz").Code)
	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)

	h.SetShutdown(true)
	assert.Equal(t, http.StatusServiceUnavailable, get(h, "/healthz").Code)
	assert.Contains(t, get(h, "/readyz").Body.String(), "shutting_down")
}
