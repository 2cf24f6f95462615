package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshToken_IsActive(t *testing.T) {
	t.Parallel()

	now := time.Now()
	revoked := now.Add(-time.Minute)

	tests := []struct {
		name string
		tok  RefreshToken
		want bool
	}{
		{name: "fresh", tok: RefreshToken{Expires: now.Add(time.Hour)}, want: true},
		{name: "expired", tok: RefreshToken{Expires: now.Add(-time.Second)}, want: false},
		{name: "revoked", tok: RefreshToken{Expires: now.Add(time.Hour), Revoked: &revoked}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.tok.IsActive(now))
		})
	}
}

func TestNormalizeRequestStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusRejected, NormalizeRequestStatus(StatusDenied))
	assert.Equal(t, StatusApproved, NormalizeRequestStatus(StatusApproved))
}

func TestAccount_IsVerified(t *testing.T) {
	t.Parallel()

	now := time.Now()
	assert.False(t, (&Account{}).IsVerified())
	assert.True(t, (&Account{Verified: &now}).IsVerified())
	assert.True(t, (&Account{PasswordReset: &now}).IsVerified())
}
