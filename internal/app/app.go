// Package app assembles the repository, integrations and services from a
// loaded Config. Both the HTTP server and the maintenance CLI start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Skotchmaster/hr_portal/internal/config"
	"github.com/Skotchmaster/hr_portal/internal/dedupe"
	"github.com/Skotchmaster/hr_portal/internal/handlers"
	"github.com/Skotchmaster/hr_portal/internal/mailer"
	"github.com/Skotchmaster/hr_portal/internal/middleware/auth"
	"github.com/Skotchmaster/hr_portal/internal/mykafka"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/internal/search"
	"github.com/Skotchmaster/hr_portal/internal/service"
	httpserver "github.com/Skotchmaster/hr_portal/internal/transport/http"
	pkgdb "github.com/Skotchmaster/hr_portal/pkg/db"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	Repo   *repo.GormRepo

	Auth        *service.AuthService
	Accounts    *service.AccountService
	Departments *service.DepartmentService
	Employees   *service.EmployeeService
	Requests    *service.RequestService
	Workflows   *service.WorkflowService
	Maintenance *service.MaintenanceService

	closers []func() error
}

// New opens the database, migrates it and connects the optional
// integrations. Kafka, Elasticsearch and Redis are skipped when unset, and
// Elasticsearch or Redis failures degrade to the database and memory paths.
func New(ctx context.Context, cfg *config.Config, l *slog.Logger) (*App, error) {
	gdb, err := pkgdb.Open(ctx, cfg.DB.Driver, cfg.DB.DSN())
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: l, Repo: repo.New(gdb)}
	a.closers = append(a.closers, func() error { return pkgdb.Close(gdb) })

	if err := a.Repo.Migrate(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	events, err := a.publisher()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Auth = &service.AuthService{
		Repo:       a.Repo,
		JWTSecret:  cfg.Auth.JWTSecret,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
		Mailer:     a.mailer(),
		MailFrom:   cfg.Mail.From,
		Events:     events,
	}
	a.Accounts = &service.AccountService{Repo: a.Repo, Events: events}
	a.Departments = &service.DepartmentService{Repo: a.Repo}
	a.Employees = &service.EmployeeService{Repo: a.Repo, Index: a.index(), Events: events}
	a.Requests = &service.RequestService{Repo: a.Repo, Guard: a.guard(ctx), Events: events}
	a.Workflows = &service.WorkflowService{Repo: a.Repo}
	a.Maintenance = &service.MaintenanceService{Repo: a.Repo}
	return a, nil
}

func (a *App) publisher() (mykafka.Publisher, error) {
	if len(a.Config.Kafka.Brokers) == 0 {
		a.Logger.Info("kafka_disabled")
		return mykafka.NopPublisher{}, nil
	}
	prod, err := mykafka.NewProducer(a.Config.Kafka.Brokers)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, prod.Close)
	return prod, nil
}

func (a *App) mailer() mailer.Sender {
	m := a.Config.Mail
	switch m.Transport {
	case mailer.TransportSMTP:
		return mailer.NewSMTPSender(m.SMTPHost, m.SMTPPort, m.SMTPUser, m.SMTPPassword)
	case mailer.TransportAMQP:
		return mailer.NewQueueSender(m.AMQPURL, m.Queue)
	default:
		return mailer.LogSender{Logger: a.Logger}
	}
}

func (a *App) index() search.Index {
	s := a.Config.Search
	if s.URL == "" {
		return nil
	}
	client, err := search.NewElasticClient(s.URL, s.User, s.Password)
	if err != nil {
		a.Logger.Warn("search_unavailable", "error", err)
		return nil
	}
	return search.NewElasticIndex(client, s.Index)
}

func (a *App) guard(ctx context.Context) dedupe.Guard {
	d := a.Config.Dedupe
	if d.RedisAddr != "" {
		client, err := dedupe.NewRedisClient(ctx, d.RedisAddr, d.RedisPassword, d.RedisDB)
		if err == nil {
			a.closers = append(a.closers, client.Close)
			return dedupe.NewRedisGuard(client, d.Window)
		}
		a.Logger.Warn("redis_unavailable", "error", err)
	}
	return dedupe.NewMemoryGuard(d.Window, d.MaxEntries)
}

// HTTPDeps wires the handlers and middleware settings for httpserver.NewServer.
func (a *App) HTTPDeps() *httpserver.Deps {
	cfg := a.Config
	return &httpserver.Deps{
		Repo:   a.Repo,
		Logger: a.Logger,
		Auth:   auth.New(a.Repo, cfg.Auth.JWTSecret, cfg.Auth.Disabled, a.Logger),

		Refresher:    a.Auth,
		CookieSecure: cfg.Auth.CookieSecure,

		AuthHandler:       &handlers.AuthHandler{Auth: a.Auth, CookieSecure: cfg.Auth.CookieSecure},
		AccountHandler:    &handlers.AccountHandler{Accounts: a.Accounts},
		EmployeeHandler:   &handlers.EmployeeHandler{Employees: a.Employees},
		DepartmentHandler: &handlers.DepartmentHandler{Departments: a.Departments},
		RequestHandler:    &handlers.RequestHandler{Requests: a.Requests, Employees: a.Employees, Maintenance: a.Maintenance},
		WorkflowHandler:   &handlers.WorkflowHandler{Workflows: a.Workflows, Employees: a.Employees},

		CORSOrigins:   cfg.HTTP.CORSOrigins,
		AuthRateLimit: cfg.Auth.RateLimit,
		AuthRateBurst: cfg.Auth.RateBurst,
		BodyLimit:     cfg.HTTP.BodyLimit,
	}
}

// Close releases integrations in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
