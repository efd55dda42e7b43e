package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/farmsaathi/farmsaathi/internal/access"
	"github.com/farmsaathi/farmsaathi/internal/principal"
)

// Authentication lives at the gateway in front of this service. By the
// time a request arrives here the identity headers are trusted.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	contextPrincipalKey = "principal"
)

// PrincipalRequired resolves the actor from the identity headers and
// stores it on the request context.
func (s *Server) PrincipalRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if rawID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		id, err := snowflake.ParseString(rawID)
		if err != nil || id == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		role, ok := principal.ParseRole(c.GetHeader(HeaderUserRole))
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor := principal.Principal{ID: id, Role: role}
		c.Set(contextPrincipalKey, actor)
		c.Request = c.Request.WithContext(principal.WithPrincipal(c.Request.Context(), actor))
		c.Next()
	}
}

// RequireAction gates the endpoint on the role/action policy. Ownership
// scoping still happens inside the services; this only rejects roles
// that may not use the module at all.
func (s *Server) RequireAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := s.principalFrom(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !access.Allowed(s.enforcer, actor, object, action) {
			AbortWithError(c, access.ErrForbidden)
			return
		}
		c.Next()
	}
}

func (s *Server) principalFrom(c *gin.Context) (principal.Principal, bool) {
	value, exists := c.Get(contextPrincipalKey)
	if !exists {
		return principal.Principal{}, false
	}
	actor, ok := value.(principal.Principal)
	return actor, ok && actor.Valid()
}
