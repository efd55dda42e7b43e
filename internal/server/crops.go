package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	farmdomain "github.com/farmsaathi/farmsaathi/internal/farm/domain"
)

type createCropRequest struct {
	Name            string  `json:"name"`
	Variety         string  `json:"variety"`
	FieldName       string  `json:"field_name"`
	Unit            string  `json:"unit"`
	PlantedQuantity float64 `json:"planted_quantity"`
	PlantingDate    string  `json:"planting_date"`
	Notes           string  `json:"notes"`
}

func (s *Server) CreateCrop(c *gin.Context) {
	var req createCropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	plantingDate, err := parseOptionalTime(req.PlantingDate, false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = "kg"
	}

	actor, _ := s.principalFrom(c)
	crop, err := s.cropSvc.Create(c.Request.Context(), actor, &farmdomain.Crop{
		Name:            strings.TrimSpace(req.Name),
		Variety:         strings.TrimSpace(req.Variety),
		FieldName:       strings.TrimSpace(req.FieldName),
		Unit:            unit,
		PlantedQuantity: req.PlantedQuantity,
		PlantingDate:    plantingDate,
		Notes:           req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": crop})
}

func (s *Server) GetCropByID(c *gin.Context) {
	getLedgered(s, c, s.cropSvc)
}

func (s *Server) ListCrops(c *gin.Context) {
	listLedgered(s, c, s.cropSvc)
}

func (s *Server) UpdateCrop(c *gin.Context) {
	updateLedgered(s, c, s.cropSvc)
}

func (s *Server) DeleteCrop(c *gin.Context) {
	deleteLedgered(s, c, s.cropSvc)
}

func (s *Server) AppendCropEvent(c *gin.Context) {
	appendLedgeredEvent(s, c, s.cropSvc)
}
