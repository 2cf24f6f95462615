// Package loggingmw writes one structured line per HTTP request.
package loggingmw

import (
	"log/slog"
	"slices"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hr_portal/pkg/logging"
)

// quietRoutes are probe and scrape endpoints logged at debug level only.
var quietRoutes = []string{"/health/live", "/health/ready", "/metrics"}

// RequestLogger puts a logger tagged with the request id and route into the
// request context, then logs the outcome. A handler error is rendered through
// the echo error handler first so the logged status is the one sent, and the
// middleware returns nil afterwards.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := base.With(
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", req.Method,
				"route", c.Path(),
				"remote_ip", c.RealIP(),
			)
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}

			// Authorize may have added the account to the context logger.
			l = logging.FromContext(c.Request().Context())
			status := c.Response().Status
			attrs := []any{"status", status, "duration_ms", time.Since(start).Milliseconds()}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}

			switch {
			case status >= 500:
				l.Error("http_request", attrs...)
			case status >= 400:
				l.Warn("http_request", attrs...)
			case slices.Contains(quietRoutes, c.Path()):
				l.Debug("http_request", attrs...)
			default:
				l.Info("http_request", append(attrs, "bytes", c.Response().Size)...)
			}
			return nil
		}
	}
}
