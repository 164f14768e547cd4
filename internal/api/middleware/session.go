package middleware

import (
	"net/http"

	"github.com/Conceptual-Machines/stagepost-api/internal/logger"
	"github.com/Conceptual-Machines/stagepost-api/internal/middleware"
	"github.com/Conceptual-Machines/stagepost-api/internal/session"
	"github.com/gin-gonic/gin"
)

// SessionIdentity is used when AUTH_MODE=none. Chats belong to the signed-in
// user when there is one, otherwise to an anonymous id kept in the session.
func SessionIdentity(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID, err := store.OwnerID(c.Writer, c.Request)
		if err != nil {
			logger.Error("Failed to resolve session owner", err, logger.WithContext(c))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Session unavailable"})
			c.Abort()
			return
		}

		middleware.SetOwnerID(c, ownerID)
		c.Next()
	}
}
