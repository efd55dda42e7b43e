package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	farmdomain "github.com/farmsaathi/farmsaathi/internal/farm/domain"
)

type createInventoryItemRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
	Notes    string  `json:"notes"`
}

func (s *Server) CreateInventoryItem(c *gin.Context) {
	var req createInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = "unit"
	}

	actor, _ := s.principalFrom(c)
	item, err := s.inventorySvc.Create(c.Request.Context(), actor, &farmdomain.InventoryItem{
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Unit:     unit,
		Quantity: req.Quantity,
		UnitCost: req.UnitCost,
		Notes:    req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) GetInventoryItemByID(c *gin.Context) {
	getLedgered(s, c, s.inventorySvc)
}

func (s *Server) ListInventory(c *gin.Context) {
	listLedgered(s, c, s.inventorySvc)
}

func (s *Server) UpdateInventoryItem(c *gin.Context) {
	updateLedgered(s, c, s.inventorySvc)
}

func (s *Server) DeleteInventoryItem(c *gin.Context) {
	deleteLedgered(s, c, s.inventorySvc)
}

func (s *Server) AppendInventoryEvent(c *gin.Context) {
	appendLedgeredEvent(s, c, s.inventorySvc)
}
