package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/internal/service"
	"github.com/Skotchmaster/hr_portal/internal/testutil"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
	"github.com/Skotchmaster/hr_portal/pkg/tokens"
)

var secret = []byte("authorizer-secret")

func signFor(t *testing.T, acc *models.Account, ttl time.Duration, key []byte) string {
	t.Helper()
	tok, _, err := tokens.SignAccessToken(acc.ID, acc.Email, acc.Role, ttl, key)
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, a *Authorizer, roles []string, prepare func(r *http.Request)) (echo.Context, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/departments", nil)
	if prepare != nil {
		prepare(req)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := a.Authorize(roles...)(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	return c, called, err
}

func newAuthorizer(t *testing.T) (*Authorizer, *repo.GormRepo) {
	t.Helper()
	r := testutil.NewRepo(t)
	return New(r, secret, false, logging.Discard()), r
}

func TestAuthorize_Allows(t *testing.T) {
	t.Parallel()

	a, r := newAuthorizer(t)
	admin := testutil.Account(t, r, models.RoleAdmin)
	user := testutil.Account(t, r, models.RoleUser)

	t.Run("bearer admin on admin route", func(t *testing.T) {
		c, called, err := run(t, a, []string{models.RoleAdmin}, func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+signFor(t, admin, time.Minute, secret))
		})
		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, admin.ID, CurrentAccount(c).ID)
		assert.Equal(t, admin.ID, c.Get("user_id"))
		assert.True(t, IsAdmin(c))
	})

	t.Run("cookie user on open route", func(t *testing.T) {
		c, called, err := run(t, a, nil, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: signFor(t, user, time.Minute, secret)})
		})
		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, models.RoleUser, c.Get("role"))
		assert.False(t, IsAdmin(c))
	})

	t.Run("role comes from the stored account", func(t *testing.T) {
		promoted := testutil.Account(t, r, models.RoleUser)
		stale := signFor(t, promoted, time.Minute, secret)
		promoted.Role = models.RoleAdmin
		require.NoError(t, r.UpdateAccount(t.Context(), promoted))

		_, called, err := run(t, a, []string{models.RoleAdmin}, func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+stale)
		})
		require.NoError(t, err)
		assert.True(t, called)
	})
}

func TestAuthorize_Rejects(t *testing.T) {
	t.Parallel()

	a, r := newAuthorizer(t)
	user := testutil.Account(t, r, models.RoleUser)
	ghost := &models.Account{ID: 99999, Email: "ghost@example.com", Role: models.RoleAdmin}

	tests := []struct {
		name    string
		roles   []string
		header  string
		wantErr error
	}{
		{name: "missing token", wantErr: service.ErrUnauthenticated},
		{name: "wrong scheme", header: "Basic abc", wantErr: service.ErrUnauthenticated},
		{name: "garbage token", header: "Bearer not-a-jwt", wantErr: service.ErrInvalidToken},
		{name: "foreign key", header: "Bearer " + signFor(t, user, time.Minute, []byte("other")), wantErr: service.ErrInvalidToken},
		{name: "expired", header: "Bearer " + signFor(t, user, -time.Minute, secret), wantErr: service.ErrTokenExpired},
		{name: "deleted account", header: "Bearer " + signFor(t, ghost, time.Minute, secret), wantErr: service.ErrUnauthenticated},
		{name: "insufficient role", roles: []string{models.RoleAdmin}, header: "Bearer " + signFor(t, user, time.Minute, secret), wantErr: service.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, called, err := run(t, a, tt.roles, func(req *http.Request) {
				if tt.header != "" {
					req.Header.Set(echo.HeaderAuthorization, tt.header)
				}
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, called)
		})
	}
}

func TestAuthorize_DevBypass(t *testing.T) {
	t.Parallel()

	a := New(testutil.NewRepo(t), secret, true, logging.Discard())

	c, called, err := run(t, a, []string{models.RoleAdmin}, nil)
	require.NoError(t, err)
	assert.True(t, called)
	acc := CurrentAccount(c)
	require.NotNil(t, acc)
	assert.Zero(t, acc.ID)
	assert.Equal(t, models.RoleAdmin, acc.Role)
}

func TestCurrentAccount_Unguarded(t *testing.T) {
	t.Parallel()

	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, CurrentAccount(c))
	assert.False(t, IsAdmin(c))
}

func TestAuthorize_Nested(t *testing.T) {
	t.Parallel()

	a, r := newAuthorizer(t)
	user := testutil.Account(t, r, models.RoleUser)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/departments/1", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signFor(t, user, time.Minute, secret))
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	h := a.Authorize()(a.Authorize(models.RoleAdmin)(func(c echo.Context) error {
		called = true
		return nil
	}))
	err := h(c)
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.False(t, called)
	assert.Equal(t, user.ID, CurrentAccount(c).ID)
}
