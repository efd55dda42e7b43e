package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	activitydomain "github.com/farmsaathi/farmsaathi/internal/activity/domain"
	"github.com/farmsaathi/farmsaathi/pkg/db/pagination"
)

func (s *Server) ListActivityLogs(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Module string `form:"module"`
		Action string `form:"action"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	actor, _ := s.principalFrom(c)
	resp, err := s.activitySvc.List(c.Request.Context(), actor, activitydomain.ListRequest{
		Pagination: query.Pagination,
		Module:     strings.TrimSpace(query.Module),
		Action:     strings.TrimSpace(query.Action),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
