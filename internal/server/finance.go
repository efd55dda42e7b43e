package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	financedomain "github.com/farmsaathi/farmsaathi/internal/finance/domain"
	"github.com/farmsaathi/farmsaathi/pkg/db/pagination"
)

type createFinancialRecordRequest struct {
	Type            string  `json:"type"`
	Category        string  `json:"category"`
	Amount          float64 `json:"amount"`
	TransactionDate string  `json:"transaction_date"`
	Description     string  `json:"description"`
	PaymentMethod   string  `json:"payment_method"`
	CreatedBy       string  `json:"created_by"`
}

func (s *Server) CreateFinancialRecord(c *gin.Context) {
	var req createFinancialRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	date, err := parseOptionalTime(req.TransactionDate, false)
	if err != nil || date == nil {
		AbortWithError(c, financedomain.ErrInvalidRecord)
		return
	}

	entry := financedomain.FinancialRecord{
		Type:            financedomain.RecordType(strings.TrimSpace(req.Type)),
		Category:        strings.TrimSpace(req.Category),
		Amount:          req.Amount,
		TransactionDate: *date,
		Description:     req.Description,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
	}
	if raw := strings.TrimSpace(req.CreatedBy); raw != "" {
		owner, err := snowflake.ParseString(raw)
		if err != nil || owner == 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		entry.CreatedBy = owner
	}

	actor, _ := s.principalFrom(c)
	id, err := s.financeSvc.Record(c.Request.Context(), actor, entry)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String()}})
}

func (s *Server) ListFinancialRecords(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Type     string `form:"type"`
		Category string `form:"category"`
		From     string `form:"from"`
		To       string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	actor, _ := s.principalFrom(c)
	resp, err := s.financeSvc.List(c.Request.Context(), actor, financedomain.ListRequest{
		Pagination: query.Pagination,
		Type:       strings.TrimSpace(query.Type),
		Category:   strings.TrimSpace(query.Category),
		From:       from,
		To:         to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetFinanceSummary(c *gin.Context) {
	from, to, err := parseRange(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor, _ := s.principalFrom(c)
	summary, err := s.financeSvc.Summarize(c.Request.Context(), actor, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}
