package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hr_portal_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hr_portal_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hr_portal_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	requestsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hr_portal_requests_created_total",
		Help: "Requests created",
	})

	duplicateSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hr_portal_duplicate_submissions_total",
		Help: "Request submissions rejected by the duplicate guard",
	})

	transfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hr_portal_employee_transfers_total",
		Help: "Employee transfers by workflow status",
	}, []string{"status"})

	authBypassed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hr_portal_auth_bypassed_requests_total",
		Help: "Requests admitted by the development auth bypass",
	})
)

func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

func IncRequestsCreated() {
	requestsCreated.Inc()
}

func IncDuplicateSubmissions() {
	duplicateSubmissions.Inc()
}

func ObserveTransfer(status string) {
	transfers.WithLabelValues(status).Inc()
}

func IncAuthBypassed() {
	authBypassed.Inc()
}

// Middleware records request counts and latency labelled by route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			ObserveHTTPRequest(c.Request().Method, path, strconv.Itoa(status), time.Since(start))
			return err
		}
	}
}

func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
