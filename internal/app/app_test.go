package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hr_portal/internal/config"
	"github.com/Skotchmaster/hr_portal/internal/dedupe"
	"github.com/Skotchmaster/hr_portal/internal/mailer"
	"github.com/Skotchmaster/hr_portal/internal/mykafka"
	httpserver "github.com/Skotchmaster/hr_portal/internal/transport/http"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
)

func testConfig() *config.Config {
	return &config.Config{
		DB:     config.DBConfig{Driver: "sqlite", DatabaseURL: "file::memory:"},
		Auth:   config.AuthConfig{JWTSecret: []byte("test-secret"), AccessTTL: time.Minute, RefreshTTL: time.Hour},
		Mail:   config.MailConfig{Transport: mailer.TransportLog, From: "hr@example.com"},
		Search: config.SearchConfig{Index: "employees"},
		Dedupe: config.DedupeConfig{Window: time.Second, MaxEntries: 10},
	}
}

func TestNew_LocalDefaults(t *testing.T) {
	a, err := New(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.IsType(t, mykafka.NopPublisher{}, a.Auth.Events)
	assert.IsType(t, mailer.LogSender{}, a.Auth.Mailer)
	assert.IsType(t, &dedupe.MemoryGuard{}, a.Requests.Guard)
	assert.Nil(t, a.Employees.Index)
	require.NoError(t, a.Repo.Ping(context.Background()))

	e := httpserver.NewServer(a.HTTPDeps())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_UnreachableRedisFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.Dedupe.RedisAddr = "127.0.0.1:1"

	a, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.IsType(t, &dedupe.MemoryGuard{}, a.Requests.Guard)
}

func TestMailerSelection(t *testing.T) {
	a := &App{Config: testConfig(), Logger: logging.Discard()}

	a.Config.Mail.Transport = mailer.TransportSMTP
	assert.IsType(t, &mailer.SMTPSender{}, a.mailer())

	a.Config.Mail.Transport = mailer.TransportAMQP
	assert.IsType(t, &mailer.QueueSender{}, a.mailer())
}

func TestNew_BadDriver(t *testing.T) {
	cfg := testConfig()
	cfg.DB.Driver = "oracle"

	_, err := New(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}
