// util/http_util.go
package util

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/chaosunly/iam-app/logging"
	"github.com/chaosunly/iam-app/model"
)

// Context keys set by the access middleware.
const (
	ContextUserKey   = "userContext"
	ContextUserIDKey = "requestingUserID"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

// GetUserContext returns the caller identity resolved by RequireAuth,
// or nil if the request never passed through it.
func GetUserContext(c *gin.Context) *model.UserContext {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	uc, ok := value.(*model.UserContext)
	if !ok {
		return nil
	}
	return uc
}

// GetUserIDFromContext returns the resolved caller's user ID, or the
// empty string when the request is unauthenticated.
func GetUserIDFromContext(c *gin.Context) string {
	userID, exists := c.Get(ContextUserIDKey)
	if !exists {
		return ""
	}
	id, _ := userID.(string)
	return id
}
