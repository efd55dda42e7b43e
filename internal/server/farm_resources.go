package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	farmdomain "github.com/farmsaathi/farmsaathi/internal/farm/domain"
	farmservice "github.com/farmsaathi/farmsaathi/internal/farm/service"
	"github.com/farmsaathi/farmsaathi/pkg/db/pagination"
)

// The crop, livestock and inventory endpoints differ only in the shape
// of the created entity; everything after creation goes through these
// shared handlers.

type appendEventRequest struct {
	Type          string  `json:"type"`
	Date          string  `json:"date"`
	Quantity      float64 `json:"quantity"`
	UnitValue     float64 `json:"unit_value"`
	QuantityDelta float64 `json:"quantity_delta"`
	Product       string  `json:"product"`
	Buyer         string  `json:"buyer"`
	BuyerContact  string  `json:"buyer_contact"`
	PaymentMethod string  `json:"payment_method"`
	Notes         string  `json:"notes"`
}

type appendEventResponse struct {
	Entity            any    `json:"entity"`
	EventIndex        int    `json:"event_index"`
	FinancialRecordID string `json:"financial_record_id,omitempty"`
}

func getLedgered[T any, P interface {
	*T
	farmdomain.Ledgered
}](s *Server, c *gin.Context, svc *farmservice.Store[T, P]) {
	actor, _ := s.principalFrom(c)
	id, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entity, err := svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entity})
}

func listLedgered[T any, P interface {
	*T
	farmdomain.Ledgered
}](s *Server, c *gin.Context, svc *farmservice.Store[T, P]) {
	actor, _ := s.principalFrom(c)

	var query struct {
		pagination.Pagination
		Status      string `form:"status"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := svc.List(c.Request.Context(), actor, farmdomain.ListRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		ListFilter: farmdomain.ListFilter{
			Status:      strings.TrimSpace(query.Status),
			CreatedFrom: createdFrom,
			CreatedTo:   createdTo,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func updateLedgered[T any, P interface {
	*T
	farmdomain.Ledgered
}](s *Server, c *gin.Context, svc *farmservice.Store[T, P]) {
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

func deleteLedgered[T any, P interface {
	*T
	farmdomain.Ledgered
}](s *Server, c *gin.Context, svc *farmservice.Store[T, P]) {
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

func appendLedgeredEvent[T any, P interface {
	*T
	farmdomain.Ledgered
}](s *Server, c *gin.Context, svc *farmservice.Store[T, P]) {
	actor, _ := s.principalFrom(c)
	id, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req appendEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	date, err := parseOptionalTime(req.Date, false)
	if err != nil || date == nil {
		AbortWithError(c, farmdomain.ErrInvalidEvent)
		return
	}

	result, err := svc.AppendEvent(c.Request.Context(), actor, id, farmdomain.LedgerEvent{
		Type:          farmdomain.EventType(strings.TrimSpace(req.Type)),
		Date:          *date,
		Quantity:      req.Quantity,
		UnitValue:     req.UnitValue,
		QuantityDelta: req.QuantityDelta,
		Product:       strings.TrimSpace(req.Product),
		Buyer:         strings.TrimSpace(req.Buyer),
		BuyerContact:  strings.TrimSpace(req.BuyerContact),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payload := appendEventResponse{
		Entity:     result.Entity,
		EventIndex: result.EventIndex,
	}
	if result.FinancialRecordID != 0 {
		payload.FinancialRecordID = result.FinancialRecordID.String()
	}

	body := gin.H{"data": payload}
	if result.PostingErr != nil {
		// The append committed; the caller must see success plus a
		// warning, not a failure.
		body["warning"] = "event recorded but financial posting failed; it will not be retried automatically"
	}
	c.JSON(http.StatusOK, body)
}
