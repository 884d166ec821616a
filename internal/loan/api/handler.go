package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kwachasoft/coopfin/internal/loan/domain"
	"github.com/kwachasoft/coopfin/internal/loan/service"
	"github.com/kwachasoft/coopfin/internal/platform/web"
)

type LoanHandler struct {
	svc *service.LoanService
}

func NewLoanHandler(svc *service.LoanService) *LoanHandler {
	return &LoanHandler{svc: svc}
}

func (h *LoanHandler) RegisterRoutes(r *gin.RouterGroup) {
	loans := r.Group("/loans")
	{
		loans.POST("", h.Apply)
		loans.GET("", h.List)
		loans.GET("/:id", h.Get)
		loans.GET("/:id/repayments", h.Repayments)
		loans.POST("/:id/approve", h.Approve)
		loans.POST("/:id/reject", h.Reject)
		loans.POST("/:id/disburse", h.Disburse)
		loans.POST("/:id/repay", h.Repay)
		loans.POST("/:id/default", h.MarkDefaulted)
	}
	r.POST("/guarantors/:id/respond", h.GuarantorRespond)
}

func (h *LoanHandler) Apply(c *gin.Context) {
	var req ApplyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + req.Amount})
		return
	}
	rate, err := decimal.NewFromString(req.InterestRate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid interest rate: " + req.InterestRate})
		return
	}
	loan, err := h.svc.Apply(c.Request.Context(), service.ApplyInput{
		UserID:         req.UserID,
		AccountID:      req.AccountID,
		Amount:         amount,
		AnnualRate:     rate,
		DurationMonths: req.DurationMonths,
		Purpose:        req.Purpose,
		RepaymentMode:  domain.RepaymentMode(req.RepaymentMode),
		GuarantorIDs:   req.GuarantorIDs,
	})
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

func (h *LoanHandler) List(c *gin.Context) {
	if v := c.Query("user_id"); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		loans, err := h.svc.ListByUser(c.Request.Context(), userID)
		if err != nil {
			web.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, loans)
		return
	}
	status := domain.LoanStatus(c.DefaultQuery("status", string(domain.StatusPending)))
	loans, err := h.svc.ListByStatus(c.Request.Context(), status)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *LoanHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	loan, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) Repayments(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	repayments, err := h.svc.Repayments(c.Request.Context(), id)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, repayments)
}

func (h *LoanHandler) Approve(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	loan, err := h.svc.Approve(c.Request.Context(), id, web.Actor(c))
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) Reject(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	var req RejectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	loan, err := h.svc.Reject(c.Request.Context(), id, web.Actor(c), req.Reason)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) Disburse(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	loan, err := h.svc.Disburse(c.Request.Context(), id, web.Actor(c))
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) Repay(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	var req RepayReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + req.Amount})
		return
	}
	repayment, err := h.svc.Repay(c.Request.Context(), id, amount, web.Actor(c))
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, repayment)
}

func (h *LoanHandler) MarkDefaulted(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	loan, err := h.svc.MarkDefaulted(c.Request.Context(), id)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) GuarantorRespond(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	var req GuarantorRespondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := h.svc.RespondAsGuarantor(c.Request.Context(), id, req.Accept); err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": req.Accept})
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, err
	}
	return id, nil
}
