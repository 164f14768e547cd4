package middleware

import (
	"net/http"
	"strings"

	"github.com/Conceptual-Machines/stagepost-api/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Identity headers set by the upstream gateway
const (
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"
)

// GatewayAuth is used when AUTH_MODE=gateway. The gateway in front of the API
// has already authenticated the caller; its X-User-ID header names the chat
// owner and is trusted as is, so the API must not be reachable around it.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := strings.TrimSpace(c.GetHeader(headerUserID))
		if ownerID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing " + headerUserID + " header from gateway",
			})
			return
		}

		middleware.SetOwnerID(c, ownerID)
		if email := strings.TrimSpace(c.GetHeader(headerUserEmail)); email != "" {
			c.Set("user_email", email)
		}
		c.Next()
	}
}
