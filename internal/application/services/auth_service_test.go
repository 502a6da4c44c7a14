package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/security"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService("jwt-secret", "admin-pass", "client-pass", newTestLogger(t))
}

func TestLoginRoles(t *testing.T) {
	service := newAuthService(t)

	tests := []struct {
		name     string
		password string
		wantRole string
	}{
		{"admin password grants admin", "admin-pass", security.RoleAdmin},
		{"client password grants client", "client-pass", security.RoleClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, role, err := service.Login("u1", "loc-1", tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, role)

			session, err := service.ValidateSession(token)
			require.NoError(t, err)
			assert.Equal(t, "u1", session.UserID)
			assert.Equal(t, tt.wantRole, session.Role)
			assert.Equal(t, "loc-1", session.LocationID)
		})
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	service := newAuthService(t)

	_, _, err := service.Login("u1", "", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsEmptyPasswordWhenRoleDisabled(t *testing.T) {
	// An unset password must not allow login with an empty string.
	service := NewAuthService("jwt-secret", "", "client-pass", newTestLogger(t))

	_, _, err := service.Login("u1", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIsAdmin(t *testing.T) {
	service := newAuthService(t)

	assert.True(t, service.IsAdmin(&security.SessionInfo{Role: security.RoleAdmin}))
	assert.False(t, service.IsAdmin(&security.SessionInfo{Role: security.RoleClient}))
	assert.False(t, service.IsAdmin(nil))
}
