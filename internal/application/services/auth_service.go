package services

import (
	"crypto/subtle"
	"errors"

	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/security"
)

// ErrInvalidCredentials is returned when no configured password matches.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService issues and validates dashboard session tokens. Authentication
// is shared-password: one password grants the admin role, the other the
// client role.
type AuthService struct {
	jwtSecret      string
	adminPassword  string
	clientPassword string
	logger         *logging.ChanneledLogger
}

// NewAuthService creates the authentication service.
func NewAuthService(jwtSecret, adminPassword, clientPassword string, logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{
		jwtSecret:      jwtSecret,
		adminPassword:  adminPassword,
		clientPassword: clientPassword,
		logger:         logger,
	}
}

// Login validates the shared password and issues a session token for the
// user. An empty configured password disables that role entirely.
func (s *AuthService) Login(userID, locationID, password string) (string, string, error) {
	role := ""
	switch {
	case s.adminPassword != "" && subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1:
		role = security.RoleAdmin
	case s.clientPassword != "" && subtle.ConstantTimeCompare([]byte(password), []byte(s.clientPassword)) == 1:
		role = security.RoleClient
	default:
		s.logger.Auth().Warn("Login rejected", "userId", userID)
		return "", "", ErrInvalidCredentials
	}

	token, err := security.GenerateSessionToken(userID, role, locationID, s.jwtSecret)
	if err != nil {
		s.logger.Auth().Error("Token generation failed", "userId", userID, "error", err.Error())
		return "", "", err
	}

	s.logger.Auth().Info("Login successful", "userId", userID, "role", role)
	return token, role, nil
}

// ValidateSession parses and validates a session token, returning the
// embedded identity.
func (s *AuthService) ValidateSession(token string) (*security.SessionInfo, error) {
	claims, err := security.ValidateJWT(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	session := security.SessionFromClaims(claims)
	if session == nil {
		return nil, errors.New("token missing user identity")
	}
	return session, nil
}

// IsAdmin reports whether the session carries the admin role.
func (s *AuthService) IsAdmin(session *security.SessionInfo) bool {
	return session != nil && session.Role == security.RoleAdmin
}
