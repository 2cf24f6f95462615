package tokens

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-jwt-secret")

func TestSignAccessToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	token, exp, err := SignAccessToken(42, "jane@example.com", "Admin", 15*time.Minute, secret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := AccessClaimsFromToken(token, secret)
	require.NoError(t, err)

	id, err := claims.AccountID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "Admin", claims.Role)
	assert.Equal(t, "jane@example.com", claims.Email)
	require.NotNil(t, claims.IssuedAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	expired, _, err := SignAccessToken(1, "a@b.c", "User", -time.Minute, secret)
	require.NoError(t, err)

	otherKey, _, err := SignAccessToken(1, "a@b.c", "User", time.Minute, []byte("other"))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		Role: "Admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "expired", token: expired, want: ErrExpired},
		{name: "wrong key", token: otherKey, want: ErrInvalid},
		{name: "alg none", token: none, want: ErrInvalid},
		{name: "other hmac", token: hs512, want: ErrInvalid},
		{name: "garbage", token: "not-a-jwt", want: ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := AccessClaimsFromToken(tt.token, secret)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewRefreshToken(t *testing.T) {
	t.Parallel()

	a, err := NewRefreshToken()
	require.NoError(t, err)
	b, err := NewRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, RefreshTokenBytes*2)
	assert.NotEqual(t, a, b)
	assert.Len(t, Sha256Hex(a), 64)
	assert.Equal(t, Sha256Hex(a), Sha256Hex(a))
}

func TestCookies(t *testing.T) {
	t.Parallel()

	c := CreateCookie(RefreshCookie, "v", "/", time.Now().Add(time.Hour), true)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

	d := DeleteCookie(RefreshCookie, "/", false)
	assert.Equal(t, -1, d.MaxAge)
	assert.Empty(t, d.Value)
}
