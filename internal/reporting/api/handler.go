package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kwachasoft/coopfin/internal/platform/web"
	"github.com/kwachasoft/coopfin/internal/reporting/service"
)

type ReportingHandler struct {
	svc *service.ReportingService
}

func NewReportingHandler(svc *service.ReportingService) *ReportingHandler {
	return &ReportingHandler{svc: svc}
}

func (h *ReportingHandler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.GET("/balance-sheet", h.BalanceSheet)
		reports.GET("/income-statement", h.IncomeStatement)
		reports.GET("/accounts/:id/statement", h.MemberStatement)
	}
}

func (h *ReportingHandler) BalanceSheet(c *gin.Context) {
	sheet, err := h.svc.BalanceSheet(c.Request.Context())
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

func (h *ReportingHandler) IncomeStatement(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	statement, err := h.svc.IncomeStatement(c.Request.Context(), from, to)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statement)
}

func (h *ReportingHandler) MemberStatement(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	statement, err := h.svc.MemberStatement(c.Request.Context(), accountID, from, to)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statement)
}

// dateRange reads from/to query params (RFC 3339 or YYYY-MM-DD),
// defaulting to the current calendar month in UTC.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if raw := c.Query("from"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date: " + raw})
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date: " + raw})
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	if !to.After(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be after from"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
