package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kwachasoft/coopfin/internal/ledger/domain"
	"github.com/kwachasoft/coopfin/internal/ledger/service"
	"github.com/kwachasoft/coopfin/internal/platform/web"
)

type LedgerHandler struct {
	ledger   *service.LedgerService
	accruals *service.AccrualService
}

func NewLedgerHandler(ledger *service.LedgerService, accruals *service.AccrualService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, accruals: accruals}
}

func (h *LedgerHandler) RegisterRoutes(r *gin.RouterGroup) {
	accounts := r.Group("/accounts")
	{
		accounts.POST("", h.OpenAccount)
		accounts.GET("/:id", h.GetAccount)
		accounts.GET("/:id/transactions", h.ListTransactions)
		accounts.PATCH("/:id/status", h.SetStatus)
	}

	txs := r.Group("/transactions")
	{
		txs.POST("/deposit", h.Deposit)
		txs.POST("/withdraw", h.Withdraw)
		txs.POST("/transfer", h.Transfer)
		txs.GET("/:reference", h.GetTransaction)
		txs.POST("/:reference/reverse", h.Reverse)
	}

	postings := r.Group("/postings")
	{
		postings.POST("", h.RunAccrual)
		postings.GET("", h.AccrualHistory)
	}
}

func (h *LedgerHandler) OpenAccount(c *gin.Context) {
	var req OpenAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	account, err := h.ledger.OpenAccount(c.Request.Context(), req.UserID, domain.AccountType(req.Type))
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *LedgerHandler) GetAccount(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	account, err := h.ledger.GetAccount(c.Request.Context(), id)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *LedgerHandler) SetStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	var req AccountStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := h.ledger.SetAccountStatus(c.Request.Context(), id, domain.AccountStatus(req.Status)); err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (h *LedgerHandler) Deposit(c *gin.Context) {
	var req DepositReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + req.Amount})
		return
	}
	entry, err := h.ledger.Deposit(c.Request.Context(), service.PostInput{
		AccountID:   req.AccountID,
		Amount:      amount,
		PerformedBy: web.Actor(c),
		Description: req.Description,
	})
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *LedgerHandler) Withdraw(c *gin.Context) {
	var req WithdrawReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + req.Amount})
		return
	}
	entry, err := h.ledger.Withdraw(c.Request.Context(), service.PostInput{
		AccountID:   req.AccountID,
		Amount:      amount,
		PerformedBy: web.Actor(c),
		Description: req.Description,
	})
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req TransferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + req.Amount})
		return
	}
	out, in, err := h.ledger.Transfer(c.Request.Context(), service.TransferInput{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               amount,
		PerformedBy:          web.Actor(c),
		Description:          req.Description,
	})
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"out": out, "in": in})
}

func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	entry, err := h.ledger.GetTransaction(c.Request.Context(), c.Param("reference"))
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	from, to := timeRange(c)
	entries, err := h.ledger.ListTransactions(c.Request.Context(), id, from, to)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *LedgerHandler) Reverse(c *gin.Context) {
	var req ReverseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	entry, err := h.ledger.Reverse(c.Request.Context(), c.Param("reference"), web.Actor(c), req.Reason)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *LedgerHandler) RunAccrual(c *gin.Context) {
	var req AccrualReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate: " + req.Rate})
		return
	}
	start, end, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.accruals.Run(c.Request.Context(), service.AccrualInput{
		Type:        domain.AccrualType(req.Type),
		Period:      req.Period,
		Rate:        rate,
		PeriodStart: start,
		PeriodEnd:   end,
		PerformedBy: web.Actor(c),
		DryRun:      req.DryRun,
	})
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *LedgerHandler) AccrualHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.accruals.History(c.Request.Context(), limit)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, err
	}
	return id, nil
}

func timeRange(c *gin.Context) (time.Time, time.Time) {
	var from, to time.Time
	if v := c.Query("from"); v != "" {
		from, _ = time.Parse(time.RFC3339, v)
	}
	if v := c.Query("to"); v != "" {
		to, _ = time.Parse(time.RFC3339, v)
	}
	return from, to
}

func parsePeriod(start, end string) (time.Time, time.Time, error) {
	now := time.Now()
	// default to the current calendar month
	s := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	e := s.AddDate(0, 1, 0)
	var err error
	if start != "" {
		if s, err = time.Parse(time.RFC3339, start); err != nil {
			return s, e, err
		}
	}
	if end != "" {
		if e, err = time.Parse(time.RFC3339, end); err != nil {
			return s, e, err
		}
	}
	return s, e, nil
}
