// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AdvisorReachMedia/insightstack-go/internal/application/services"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/performance"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/security"
	"github.com/AdvisorReachMedia/insightstack-go/internal/presentation/http/middleware"
)

const sessionCookieName = "insight_session"

// AuthHandlers contains all authentication-related HTTP handlers
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// LoginRequest represents the structure for login requests
type LoginRequest struct {
	UserID     string `json:"userId" binding:"required"`
	LocationID string `json:"locationId"`
	Password   string `json:"password" binding:"required"`
}

// PostLogin handles POST /api/v1/auth/login - shared-password authentication
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_login_request", "")
	defer marker.Complete()

	var loginReq LoginRequest
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		h.logger.Auth().Error("Login request JSON binding failed", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	token, role, err := h.authService.Login(loginReq.UserID, loginReq.LocationID, loginReq.Password)
	if err != nil {
		marker.SetSuccess(false)
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.logger.Auth().Warn("Login attempt failed", "userId", loginReq.UserID, "duration", time.Since(start))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.SetCookie(
		sessionCookieName,
		token,
		86400, // 24 hours
		"/",
		"",
		false,
		true,
	)

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostLogin request", "duration", marker.Duration, "userId", loginReq.UserID, "success", true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"role":    role,
		"token":   token,
	})
}

// GetAuthStatus handles GET /api/v1/auth/status - checks current authentication status
func (h *AuthHandlers) GetAuthStatus(c *gin.Context) {
	session, method := h.sessionFromRequest(c)

	if session == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"method":        method,
		"userId":        session.UserID,
		"role":          session.Role,
	})
}

// sessionFromRequest resolves a session from the bearer header or the session
// cookie, in that order.
func (h *AuthHandlers) sessionFromRequest(c *gin.Context) (*security.SessionInfo, string) {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		if session, err := h.authService.ValidateSession(authHeader[7:]); err == nil {
			return session, "bearer"
		}
	}

	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie != "" {
		if session, err := h.authService.ValidateSession(cookie); err == nil {
			return session, "cookie"
		}
	}

	return nil, ""
}

// AuthMiddleware provides authentication middleware for protected routes
func (h *AuthHandlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := h.sessionFromRequest(c)
		if session == nil {
			h.logger.Auth().Warn("Unauthorized access attempt", "path", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		middleware.SetSession(c, session)
		c.Next()
	}
}

// AdminOnlyMiddleware provides admin-only authentication middleware
func (h *AuthHandlers) AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, exists := middleware.GetSession(c)
		if !exists || !h.authService.IsAdmin(session) {
			h.logger.Auth().Warn("Unauthorized admin access attempt", "path", c.Request.URL.Path)
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
