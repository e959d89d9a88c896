package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/thistle/internal/context"
)

// quietPrefixes are polled by orchestrators and scrapers; they log at debug
var quietPrefixes = []string{"/api/v1/health", "/metrics"}

// Logger writes one line per request once the error handler has run, so the
// logged status is the one the client saw.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			ctx := req.Context()

			log := logger.WithContext(ctx).WithFields(map[string]any{
				"request_id":    appctx.GetRequestID(ctx),
				"actor":         appctx.GetActor(ctx),
				"method":        req.Method,
				"route":         c.Path(),
				"uri":           req.RequestURI,
				"status":        res.Status,
				"remote_ip":     c.RealIP(),
				"user_agent":    req.UserAgent(),
				"duration_ms":   time.Since(start).Milliseconds(),
				"response_size": res.Size,
			})

			switch {
			case res.Status >= http.StatusInternalServerError:
				log.Error("Request")
			case isQuiet(req.URL.Path):
				log.Debug("Request")
			default:
				log.Info("Request")
			}
			return nil
		}
	}
}

func isQuiet(path string) bool {
	for _, prefix := range quietPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
