package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func serve(t *testing.T, checker *Checker, path string) (int, Response) {
	t.Helper()
	e := echo.New()
	checker.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	testCases := []struct {
		name     string
		checks   map[string]fakePinger
		critical map[string]bool
		code     int
		status   Status
	}{
		{
			name:   "no dependencies",
			code:   http.StatusOK,
			status: StatusHealthy,
		},
		{
			name:     "all healthy",
			checks:   map[string]fakePinger{"database": {}, "redis": {}},
			critical: map[string]bool{"database": true},
			code:     http.StatusOK,
			status:   StatusHealthy,
		},
		{
			name:     "optional dependency down",
			checks:   map[string]fakePinger{"database": {}, "kafka": {err: errors.New("dial tcp: refused")}},
			critical: map[string]bool{"database": true},
			code:     http.StatusOK,
			status:   StatusDegraded,
		},
		{
			name:     "critical dependency down",
			checks:   map[string]fakePinger{"database": {err: errors.New("connection reset")}},
			critical: map[string]bool{"database": true},
			code:     http.StatusServiceUnavailable,
			status:   StatusUnhealthy,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			checker := NewChecker("test")
			for name, pinger := range tc.checks {
				checker.AddCheck(name, pinger, tc.critical[name])
			}

			code, body := serve(t, checker, "/api/v1/health")
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.status, body.Status)
			assert.Len(t, body.Checks, len(tc.checks))
		})
	}
}

func TestReadiness(t *testing.T) {
	checker := NewChecker("test").AddCheck("redis", fakePinger{}, false)

	code, body := serve(t, checker, "/api/v1/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "startup")

	checker.SetReady(true)
	code, body = serve(t, checker, "/api/v1/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusHealthy, body.Checks["redis"].Status)
}

func TestLiveness(t *testing.T) {
	checker := NewChecker("1.2.3").AddCheck("database", fakePinger{err: errors.New("down")}, true)

	code, body := serve(t, checker, "/api/v1/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Empty(t, body.Checks)
}
