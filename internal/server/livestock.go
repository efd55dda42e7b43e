package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	farmdomain "github.com/farmsaathi/farmsaathi/internal/farm/domain"
)

type createLivestockRequest struct {
	TagNumber    string  `json:"tag_number"`
	AnimalType   string  `json:"animal_type"`
	Breed        string  `json:"breed"`
	Quantity     float64 `json:"quantity"`
	PurchaseDate string  `json:"purchase_date"`
	PurchaseCost float64 `json:"purchase_cost"`
	Notes        string  `json:"notes"`
}

func (s *Server) CreateLivestock(c *gin.Context) {
	var req createLivestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.TagNumber) == "" || strings.TrimSpace(req.AnimalType) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	purchaseDate, err := parseOptionalTime(req.PurchaseDate, false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	actor, _ := s.principalFrom(c)
	animal, err := s.livestockSvc.Create(c.Request.Context(), actor, &farmdomain.Livestock{
		TagNumber:    strings.TrimSpace(req.TagNumber),
		AnimalType:   strings.TrimSpace(req.AnimalType),
		Breed:        strings.TrimSpace(req.Breed),
		Quantity:     quantity,
		PurchaseDate: purchaseDate,
		PurchaseCost: req.PurchaseCost,
		Notes:        req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": animal})
}

func (s *Server) GetLivestockByID(c *gin.Context) {
	getLedgered(s, c, s.livestockSvc)
}

func (s *Server) ListLivestock(c *gin.Context) {
	listLedgered(s, c, s.livestockSvc)
}

func (s *Server) UpdateLivestock(c *gin.Context) {
	updateLedgered(s, c, s.livestockSvc)
}

func (s *Server) DeleteLivestock(c *gin.Context) {
	deleteLedgered(s, c, s.livestockSvc)
}

func (s *Server) AppendLivestockEvent(c *gin.Context) {
	appendLedgeredEvent(s, c, s.livestockSvc)
}
