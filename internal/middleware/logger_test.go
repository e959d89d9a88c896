package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
)

func TestLoggerAndErrorHandler(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	e := echo.New()
	e.HTTPErrorHandler = Error(logger)
	e.Use(Context())
	e.Use(Logger(logger))
	e.GET("/api/v1/reviews/:id", func(c echo.Context) error {
		return apperrors.NewNotFoundError("review", c.Param("id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/r-9", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	req.Header.Set(HeaderActor, "alice")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, rec.Body.String(), `"request_id":"req-1"`)
	assert.Contains(t, rec.Body.String(), `"entity":"review"`)
}

func TestIsQuiet(t *testing.T) {
	assert.True(t, isQuiet("/api/v1/health/live"))
	assert.True(t, isQuiet("/metrics"))
	assert.False(t, isQuiet("/api/v1/reviews"))
}
