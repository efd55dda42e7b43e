package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetReportOverview(c *gin.Context) {
	from, to, err := parseRange(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor, _ := s.principalFrom(c)
	overview, err := s.reportsSvc.Overview(c.Request.Context(), actor, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": overview})
}
