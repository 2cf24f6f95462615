package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/hr_portal/internal/handlers"
	"github.com/Skotchmaster/hr_portal/internal/metrics"
	"github.com/Skotchmaster/hr_portal/internal/middleware/auth"
	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	loggingmw "github.com/Skotchmaster/hr_portal/pkg/middleware/logging"
)

type Deps struct {
	Repo   *repo.GormRepo
	Logger *slog.Logger
	Auth   *auth.Authorizer

	// Refresher, when set, rotates expired cookie sessions on resource routes.
	Refresher    auth.Refresher
	CookieSecure bool

	AuthHandler       *handlers.AuthHandler
	AccountHandler    *handlers.AccountHandler
	EmployeeHandler   *handlers.EmployeeHandler
	DepartmentHandler *handlers.DepartmentHandler
	RequestHandler    *handlers.RequestHandler
	WorkflowHandler   *handlers.WorkflowHandler

	CORSOrigins []string
	// AuthRateLimit is requests per second per client IP on /api/auth. Zero
	// turns the limiter off.
	AuthRateLimit float64
	AuthRateBurst int
	BodyLimit     string
}

// NewServer builds the echo instance with the shared middleware stack and
// every route registered.
func NewServer(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewValidator()

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	bodyLimit := d.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "1M"
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(metrics.Middleware())
	e.Use(loggingmw.RequestLogger(d.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowCredentials: !containsWildcard(origins),
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(bodyLimit))

	Register(e, d)
	return e
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func authRateLimiter(limit float64, burst int) echo.MiddlewareFunc {
	if burst <= 0 {
		burst = int(limit) + 1
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "cannot identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, slow down")
		},
	})
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := d.Repo.Ping(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	api := e.Group("/api")
	anyRole := d.Auth.Authorize()
	adminOnly := d.Auth.Authorize(models.RoleAdmin)

	authGroup := api.Group("/auth")
	if d.AuthRateLimit > 0 {
		authGroup.Use(authRateLimiter(d.AuthRateLimit, d.AuthRateBurst))
	}
	authGroup.POST("/authenticate", d.AuthHandler.Authenticate)
	authGroup.POST("/login", d.AuthHandler.Authenticate)
	authGroup.POST("/refresh-token", d.AuthHandler.RefreshToken)
	authGroup.POST("/revoke-token", d.AuthHandler.RevokeToken, anyRole)
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/verify-email", d.AuthHandler.VerifyEmail)
	authGroup.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	authGroup.POST("/validate-reset-token", d.AuthHandler.ValidateResetToken)
	authGroup.POST("/reset-password", d.AuthHandler.ResetPassword)
	authGroup.GET("/me", d.AuthHandler.Me, anyRole)

	// session is the guard for resource groups. The auth group is left out so
	// an explicit refresh-token call never races an automatic one.
	session := []echo.MiddlewareFunc{anyRole}
	if d.Refresher != nil {
		session = []echo.MiddlewareFunc{d.Auth.AutoRefresh(d.Refresher, d.CookieSecure), anyRole}
	}

	accounts := api.Group("/accounts", session...)
	accounts.GET("", d.AccountHandler.GetAll, adminOnly)
	accounts.POST("", d.AccountHandler.Create, adminOnly)
	accounts.GET("/:id", d.AccountHandler.GetByID)
	accounts.PUT("/:id", d.AccountHandler.Update)
	accounts.DELETE("/:id", d.AccountHandler.Delete)

	employees := api.Group("/employees", session...)
	employees.GET("", d.EmployeeHandler.GetAll, adminOnly)
	employees.POST("", d.EmployeeHandler.Create, adminOnly)
	employees.GET("/search", d.EmployeeHandler.Search, adminOnly)
	employees.GET("/me", d.EmployeeHandler.Me)
	employees.GET("/:id", d.EmployeeHandler.GetByID)
	employees.PUT("/:id", d.EmployeeHandler.Update, adminOnly)
	employees.DELETE("/:id", d.EmployeeHandler.Delete, adminOnly)
	employees.POST("/:id/transfer", d.EmployeeHandler.Transfer, adminOnly)

	departments := api.Group("/departments", session...)
	departments.GET("", d.DepartmentHandler.GetAll)
	departments.GET("/:id", d.DepartmentHandler.GetByID)
	departments.POST("", d.DepartmentHandler.Create, adminOnly)
	departments.PUT("/:id", d.DepartmentHandler.Update, adminOnly)
	departments.DELETE("/:id", d.DepartmentHandler.Delete, adminOnly)

	requests := api.Group("/requests", session...)
	requests.GET("", d.RequestHandler.GetAll)
	requests.POST("", d.RequestHandler.Create)
	requests.GET("/orphans", d.RequestHandler.Orphans, adminOnly)
	requests.POST("/deduplicate", d.RequestHandler.Deduplicate, adminOnly)
	requests.DELETE("/all", d.RequestHandler.DeleteAll, adminOnly)
	requests.GET("/:id", d.RequestHandler.GetByID)
	requests.PUT("/:id", d.RequestHandler.Update)
	requests.DELETE("/:id", d.RequestHandler.Delete)
	requests.POST("/:id/repair", d.RequestHandler.Repair, adminOnly)

	workflows := api.Group("/workflows", session...)
	workflows.GET("", d.WorkflowHandler.GetAll, adminOnly)
	workflows.POST("", d.WorkflowHandler.Create, adminOnly)
	workflows.GET("/employee/:employeeId", d.WorkflowHandler.GetByEmployee)
	workflows.GET("/:id", d.WorkflowHandler.GetByID)
	workflows.PUT("/:id/status", d.WorkflowHandler.UpdateStatus, adminOnly)
	workflows.DELETE("/:id", d.WorkflowHandler.Delete, adminOnly)
}
