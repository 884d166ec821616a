package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kwachasoft/coopfin/internal/platform/web"
	"github.com/kwachasoft/coopfin/internal/savings/domain"
	"github.com/kwachasoft/coopfin/internal/savings/service"
)

type CreateProductReq struct {
	Name             string `json:"name" binding:"required"`
	Description      string `json:"description"`
	InterestRate     string `json:"interest_rate" binding:"required"`
	MinDeposit       string `json:"min_deposit"`
	LockPeriodMonths int    `json:"lock_period_months"`
}

type OpenPlanReq struct {
	UserID           int64  `json:"user_id" binding:"required"`
	ProductID        int64  `json:"product_id" binding:"required"`
	TargetAmount     string `json:"target_amount"`
	DurationMonths   int    `json:"duration_months"`
	AutoSaveAmount   string `json:"auto_save_amount"`
	Frequency        string `json:"frequency" binding:"required,oneof=daily weekly monthly manual"`
	FundingAccountID int64  `json:"funding_account_id"`
	InitialDeposit   string `json:"initial_deposit"`
}

type ContributeReq struct {
	FundingAccountID int64  `json:"funding_account_id" binding:"required"`
	Amount           string `json:"amount" binding:"required"`
}

type LiquidateReq struct {
	DestinationAccountID int64 `json:"destination_account_id" binding:"required"`
}

type SavingsHandler struct {
	svc *service.SavingsService
}

func NewSavingsHandler(svc *service.SavingsService) *SavingsHandler {
	return &SavingsHandler{svc: svc}
}

func (h *SavingsHandler) RegisterRoutes(r *gin.RouterGroup) {
	products := r.Group("/savings/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.POST("/:id/retire", h.RetireProduct)
	}
	plans := r.Group("/savings/plans")
	{
		plans.POST("", h.OpenPlan)
		plans.GET("", h.ListPlans)
		plans.GET("/:id", h.GetPlan)
		plans.POST("/:id/contribute", h.Contribute)
		plans.POST("/:id/liquidate", h.Liquidate)
	}
}

func (h *SavingsHandler) CreateProduct(c *gin.Context) {
	var req CreateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	rate, err := decimal.NewFromString(req.InterestRate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid interest rate: " + req.InterestRate})
		return
	}
	minDeposit := decimal.Zero
	if req.MinDeposit != "" {
		if minDeposit, err = decimal.NewFromString(req.MinDeposit); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min deposit: " + req.MinDeposit})
			return
		}
	}
	product := &domain.Product{
		Name:             req.Name,
		Description:      req.Description,
		InterestRate:     rate,
		MinDeposit:       minDeposit,
		LockPeriodMonths: req.LockPeriodMonths,
	}
	if err := h.svc.CreateProduct(c.Request.Context(), product); err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *SavingsHandler) ListProducts(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") == "true"
	products, err := h.svc.ListProducts(c.Request.Context(), activeOnly)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *SavingsHandler) RetireProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	if err := h.svc.RetireProduct(c.Request.Context(), id); err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"retired": true})
}

func (h *SavingsHandler) OpenPlan(c *gin.Context) {
	var req OpenPlanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	target, err := optionalAmount(req.TargetAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target amount: " + req.TargetAmount})
		return
	}
	autoSave, err := optionalAmount(req.AutoSaveAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auto-save amount: " + req.AutoSaveAmount})
		return
	}
	initial, err := optionalAmount(req.InitialDeposit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid initial deposit: " + req.InitialDeposit})
		return
	}
	plan, err := h.svc.OpenPlan(c.Request.Context(), service.OpenPlanInput{
		UserID:           req.UserID,
		ProductID:        req.ProductID,
		TargetAmount:     target,
		DurationMonths:   req.DurationMonths,
		AutoSaveAmount:   autoSave,
		Frequency:        domain.Frequency(req.Frequency),
		FundingAccountID: req.FundingAccountID,
		InitialDeposit:   initial,
	})
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (h *SavingsHandler) ListPlans(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}
	plans, err := h.svc.ListPlansByUser(c.Request.Context(), userID)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (h *SavingsHandler) GetPlan(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	plan, err := h.svc.GetPlan(c.Request.Context(), id)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *SavingsHandler) Contribute(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	var req ContributeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + req.Amount})
		return
	}
	if err := h.svc.Contribute(c.Request.Context(), id, req.FundingAccountID, amount, web.Actor(c)); err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contributed": req.Amount})
}

func (h *SavingsHandler) Liquidate(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	var req LiquidateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	plan, err := h.svc.Liquidate(c.Request.Context(), id, req.DestinationAccountID, web.Actor(c))
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func optionalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, err
	}
	return id, nil
}
