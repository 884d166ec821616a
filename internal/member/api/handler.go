package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kwachasoft/coopfin/internal/member/service"
	"github.com/kwachasoft/coopfin/internal/platform/web"
)

type RegisterReq struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
}

type RejectReq struct {
	Reason string `json:"reason" binding:"required"`
}

type MemberHandler struct {
	svc *service.MemberService
}

func NewMemberHandler(svc *service.MemberService) *MemberHandler {
	return &MemberHandler{svc: svc}
}

func (h *MemberHandler) RegisterRoutes(r *gin.RouterGroup) {
	members := r.Group("/members")
	{
		members.POST("", h.Register)
		members.GET("/registrations", h.RegistrationQueue)
		members.GET("/:id", h.Get)
		members.POST("/:id/approve", h.Approve)
		members.POST("/:id/reject", h.Reject)
		members.POST("/:id/suspend", h.Suspend)
		members.POST("/:id/reinstate", h.Reinstate)
	}
}

func (h *MemberHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	member, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *MemberHandler) RegistrationQueue(c *gin.Context) {
	members, err := h.svc.RegistrationQueue(c.Request.Context())
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *MemberHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	member, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) Approve(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	member, err := h.svc.Approve(c.Request.Context(), id, web.Actor(c))
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) Reject(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	var req RejectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	member, err := h.svc.Reject(c.Request.Context(), id, web.Actor(c), req.Reason)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) Suspend(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	member, err := h.svc.Suspend(c.Request.Context(), id)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) Reinstate(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	member, err := h.svc.Reinstate(c.Request.Context(), id)
	if err != nil {
		web.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, err
	}
	return id, nil
}
