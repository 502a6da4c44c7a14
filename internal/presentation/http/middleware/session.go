package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/security"
)

const sessionContextKey = "session"

// SetSession attaches the validated session to the request context.
func SetSession(c *gin.Context, session *security.SessionInfo) {
	c.Set(sessionContextKey, session)
}

// GetSession retrieves the validated session from the request context.
func GetSession(c *gin.Context) (*security.SessionInfo, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*security.SessionInfo)
	return session, ok
}
