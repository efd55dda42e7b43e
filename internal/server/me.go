package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmsaathi/farmsaathi/internal/principal"
)

// Me echoes the resolved principal, mostly for gateway debugging.
func (s *Server) Me(c *gin.Context) {
	actor, ok := principal.FromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"id":   actor.ID.String(),
		"role": actor.Role,
	}})
}
