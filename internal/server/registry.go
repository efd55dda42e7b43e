package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	registrydomain "github.com/farmsaathi/farmsaathi/internal/registry/domain"
	registryservice "github.com/farmsaathi/farmsaathi/internal/registry/service"
)

type createEmployeeRequest struct {
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Phone    string  `json:"phone"`
	Salary   float64 `json:"salary"`
	HireDate string  `json:"hire_date"`
	Notes    string  `json:"notes"`
}

func (s *Server) CreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	hireDate, err := parseOptionalTime(req.HireDate, false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	actor, _ := s.principalFrom(c)
	employee, err := s.employeeSvc.Create(c.Request.Context(), actor, &registrydomain.Employee{
		Name:     strings.TrimSpace(req.Name),
		Position: strings.TrimSpace(req.Position),
		Phone:    strings.TrimSpace(req.Phone),
		Salary:   req.Salary,
		HireDate: hireDate,
		Notes:    req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": employee})
}

func (s *Server) GetEmployeeByID(c *gin.Context) {
	getOwned(s, c, s.employeeSvc)
}

func (s *Server) ListEmployees(c *gin.Context) {
	listOwned(s, c, s.employeeSvc)
}

func (s *Server) UpdateEmployee(c *gin.Context) {
	updateOwned(s, c, s.employeeSvc)
}

func (s *Server) DeleteEmployee(c *gin.Context) {
	deleteOwned(s, c, s.employeeSvc)
}

type createEquipmentRequest struct {
	Name          string  `json:"name"`
	EquipmentType string  `json:"equipment_type"`
	PurchaseDate  string  `json:"purchase_date"`
	PurchaseCost  float64 `json:"purchase_cost"`
	Condition     string  `json:"condition"`
	Notes         string  `json:"notes"`
}

func (s *Server) CreateEquipment(c *gin.Context) {
	var req createEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	purchaseDate, err := parseOptionalTime(req.PurchaseDate, false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	actor, _ := s.principalFrom(c)
	equipment, err := s.equipmentSvc.Create(c.Request.Context(), actor, &registrydomain.Equipment{
		Name:          strings.TrimSpace(req.Name),
		EquipmentType: strings.TrimSpace(req.EquipmentType),
		PurchaseDate:  purchaseDate,
		PurchaseCost:  req.PurchaseCost,
		Condition:     strings.TrimSpace(req.Condition),
		Notes:         req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": equipment})
}

func (s *Server) GetEquipmentByID(c *gin.Context) {
	getOwned(s, c, s.equipmentSvc)
}

func (s *Server) ListEquipment(c *gin.Context) {
	listOwned(s, c, s.equipmentSvc)
}

func (s *Server) UpdateEquipment(c *gin.Context) {
	updateOwned(s, c, s.equipmentSvc)
}

func (s *Server) DeleteEquipment(c *gin.Context) {
	deleteOwned(s, c, s.equipmentSvc)
}

func getOwned[T any, P interface {
	*T
	registrydomain.Owned
}](s *Server, c *gin.Context, svc *registryservice.Store[T, P]) {
	actor, _ := s.principalFrom(c)
	id, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	record, err := svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": record})
}

func listOwned[T any, P interface {
	*T
	registrydomain.Owned
}](s *Server, c *gin.Context, svc *registryservice.Store[T, P]) {
	actor, _ := s.principalFrom(c)
	records, err := svc.List(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

func updateOwned[T any, P interface {
	*T
	registrydomain.Owned
}](s *Server, c *gin.Context, svc *registryservice.Store[T, P]) {
	actor, _ := s.principalFrom(c)
	id, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := svc.Update(c.Request.Context(), actor, id, fields); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String()}})
}

func deleteOwned[T any, P interface {
	*T
	registrydomain.Owned
}](s *Server, c *gin.Context, svc *registryservice.Store[T, P]) {
	actor, _ := s.principalFrom(c)
	id, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := svc.Delete(c.Request.Context(), actor, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String()}})
}
