package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/service"
	"github.com/Skotchmaster/hr_portal/internal/testutil"
	"github.com/Skotchmaster/hr_portal/pkg/tokens"
)

type fakeRefresher struct {
	t     *testing.T
	acc   *models.Account
	calls int
	err   error
}

func (f *fakeRefresher) RefreshToken(_ context.Context, raw, _ string) (*service.AuthResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	require.Equal(f.t, "refresh-1", raw)
	return &service.AuthResult{
		Account:        f.acc,
		AccessToken:    signFor(f.t, f.acc, time.Minute, secret),
		AccessExpires:  time.Now().Add(time.Minute),
		RefreshToken:   "refresh-2",
		RefreshExpires: time.Now().Add(time.Hour),
	}, nil
}

func runRefresh(t *testing.T, a *Authorizer, f *fakeRefresher, prepare func(r *http.Request)) (*httptest.ResponseRecorder, echo.Context, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	prepare(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := a.AutoRefresh(f, false)(a.Authorize()(func(echo.Context) error {
		called = true
		return nil
	}))
	err := h(c)
	return rec, c, called, err
}

func cookieValue(rec *httptest.ResponseRecorder, name string) (string, bool) {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck.Value, true
		}
	}
	return "", false
}

func TestAutoRefresh_RotatesExpiredSession(t *testing.T) {
	t.Parallel()

	a, r := newAuthorizer(t)
	user := testutil.Account(t, r, models.RoleUser)
	f := &fakeRefresher{t: t, acc: user}

	rec, c, called, err := runRefresh(t, a, f, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: signFor(t, user, -time.Minute, secret)})
		req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "refresh-1"})
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, user.ID, CurrentAccount(c).ID)

	refresh, ok := cookieValue(rec, tokens.RefreshCookie)
	require.True(t, ok)
	assert.Equal(t, "refresh-2", refresh)
	_, ok = cookieValue(rec, tokens.AccessCookie)
	assert.True(t, ok)
}

func TestAutoRefresh_MissingAccessCookie(t *testing.T) {
	t.Parallel()

	a, r := newAuthorizer(t)
	user := testutil.Account(t, r, models.RoleUser)
	f := &fakeRefresher{t: t, acc: user}

	_, _, called, err := runRefresh(t, a, f, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "refresh-1"})
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 1, f.calls)
}

func TestAutoRefresh_LeavesValidSessionsAlone(t *testing.T) {
	t.Parallel()

	a, r := newAuthorizer(t)
	user := testutil.Account(t, r, models.RoleUser)
	f := &fakeRefresher{t: t, acc: user}

	tests := []struct {
		name    string
		prepare func(req *http.Request)
	}{
		{
			name: "bearer header",
			prepare: func(req *http.Request) {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+signFor(t, user, time.Minute, secret))
				req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "refresh-1"})
			},
		},
		{
			name: "fresh access cookie",
			prepare: func(req *http.Request) {
				req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: signFor(t, user, time.Minute, secret)})
				req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "refresh-1"})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, called, err := runRefresh(t, a, f, tt.prepare)
			require.NoError(t, err)
			assert.True(t, called)
		})
	}
	assert.Zero(t, f.calls)
}

func TestAutoRefresh_FailedRotationClearsCookies(t *testing.T) {
	t.Parallel()

	a, r := newAuthorizer(t)
	user := testutil.Account(t, r, models.RoleUser)
	f := &fakeRefresher{t: t, acc: user, err: service.ErrInvalidToken}

	rec, _, called, err := runRefresh(t, a, f, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "stolen"})
	})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	assert.False(t, called)

	v, ok := cookieValue(rec, tokens.RefreshCookie)
	require.True(t, ok)
	assert.Empty(t, v)
}
