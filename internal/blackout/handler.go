package blackout

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shuma0102/LoanLink/internal/platform/apperr"
)

type Handler struct{ svc *Service }

// RegisterPublicRoutes: 一般メンバーが見る「今日は停止中か」
func RegisterPublicRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/blackouts/status", h.Status)
}

// RegisterAdminRoutes: 停止期間の管理（admin専用）
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/blackouts", h.List)
	r.POST("/blackouts", h.AddCustom)
	r.POST("/blackouts/festival", h.SetFestival)
	r.POST("/blackouts/recruit", h.SetRecruit)
	r.PUT("/blackouts/:name/active", h.SetActive)
	r.DELETE("/blackouts/:name", h.Remove)
}

func (h *Handler) Status(c *gin.Context) {
	v, err := h.svc.EvaluateNow(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Blocked: v.Blocked, Label: v.Label, Period: v.Period})
}

func (h *Handler) List(c *gin.Context) {
	rules, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	out := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, toResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) AddCustom(c *gin.Context) {
	var req AddCustomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "invalid json"))
		return
	}
	r, err := h.svc.Add(c.Request.Context(), req.Name, req.Start, req.End)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusCreated, toResponse(*r))
}

func (h *Handler) SetFestival(c *gin.Context) {
	h.setRecurring(c, h.svc.SetFestival)
}

func (h *Handler) SetRecruit(c *gin.Context) {
	h.setRecurring(c, h.svc.SetRecruit)
}

func (h *Handler) setRecurring(c *gin.Context, set func(ctx context.Context, start, end string) (*Rule, error)) {
	var req SetRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "invalid json"))
		return
	}
	r, err := set(c.Request.Context(), req.Start, req.End)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusCreated, toResponse(*r))
}

func (h *Handler) SetActive(c *gin.Context) {
	name := c.Param("name")
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "invalid json"))
		return
	}
	if err := h.svc.SetActive(c.Request.Context(), name, *req.Active); err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (h *Handler) Remove(c *gin.Context) {
	name := c.Param("name")
	if err := h.svc.Remove(c.Request.Context(), name); err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
