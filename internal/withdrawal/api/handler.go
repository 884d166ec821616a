package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kwachasoft/coopfin/internal/platform/web"
	"github.com/kwachasoft/coopfin/internal/withdrawal/service"
)

type SubmitReq struct {
	UserID    int64  `json:"user_id" binding:"required"`
	AccountID int64  `json:"account_id" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Reason    string `json:"reason"`
}

type RejectReq struct {
	Reason string `json:"reason" binding:"required"`
}

type CancelReq struct {
	UserID int64 `json:"user_id" binding:"required"`
}

type WithdrawalHandler struct {
	svc *service.WithdrawalService
}

func NewWithdrawalHandler(svc *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc}
}

func (h *WithdrawalHandler) RegisterRoutes(r *gin.RouterGroup) {
	withdrawals := r.Group("/withdrawals")
	{
		withdrawals.POST("", h.Submit)
		withdrawals.GET("", h.List)
		withdrawals.GET("/queue", h.Queue)
		withdrawals.GET("/:id", h.Get)
		withdrawals.POST("/:id/approve", h.Approve)
		withdrawals.POST("/:id/reject", h.Reject)
		withdrawals.POST("/:id/cancel", h.Cancel)
	}
}

func (h *WithdrawalHandler) Submit(c *gin.Context) {
	var req SubmitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + req.Amount})
		return
	}
	request, err := h.svc.Submit(c.Request.Context(), req.UserID, req.AccountID, amount, req.Reason)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *WithdrawalHandler) List(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}
	requests, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *WithdrawalHandler) Queue(c *gin.Context) {
	requests, err := h.svc.Queue(c.Request.Context())
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *WithdrawalHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	request, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *WithdrawalHandler) Approve(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	request, err := h.svc.Approve(c.Request.Context(), id, web.Actor(c))
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *WithdrawalHandler) Reject(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	var req RejectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	request, err := h.svc.Reject(c.Request.Context(), id, web.Actor(c), req.Reason)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *WithdrawalHandler) Cancel(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	var req CancelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	request, err := h.svc.Cancel(c.Request.Context(), id, req.UserID)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, err
	}
	return id, nil
}
