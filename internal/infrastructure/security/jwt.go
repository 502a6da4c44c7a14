// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Roles carried in session tokens.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// SessionInfo is the identity extracted from a validated session token.
type SessionInfo struct {
	UserID     string
	Role       string
	LocationID string
}

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// SessionFromClaims extracts session identity from JWT claims.
func SessionFromClaims(claims jwt.MapClaims) *SessionInfo {
	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return nil
	}
	role, _ := claims["role"].(string)
	locationID, _ := claims["locationId"].(string)
	return &SessionInfo{
		UserID:     userID,
		Role:       role,
		LocationID: locationID,
	}
}

// GenerateSessionToken creates a JWT session token for a dashboard user.
func GenerateSessionToken(userID, role, locationID, jwtSecret string) (string, error) {
	claims := jwt.MapClaims{
		"userId":     userID,
		"role":       role,
		"locationId": locationID,
		"iat":        time.Now().UTC().Unix(),
		"exp":        time.Now().UTC().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
