package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shuma0102/LoanLink/internal/platform/apperr"
	"github.com/shuma0102/LoanLink/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterPublicRoutes: ログイン済みメンバー向け
func RegisterPublicRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/items", h.List)
	r.GET("/items/available", h.Available)
	r.GET("/items/borrowed", h.Borrowed)
	r.GET("/items/summary", h.Summary)
	r.GET("/categories", h.Categories)
}

// RegisterAdminRoutes: 機材登録（admin専用）
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/items", h.Register)
	r.GET("/items/next-id", h.NextID)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.Header("Location", "/items/"+res.ItemID)
	c.JSON(http.StatusCreated, res)
}

// GET /items/next-id?category=HMD: 登録前に採番されるIDを確認する
func (h *Handler) NextID(c *gin.Context) {
	id, err := h.svc.NextID(c.Request.Context(), c.Query("category"))
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_id": id})
}

func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /items/available?category=HMD
func (h *Handler) Available(c *gin.Context) {
	res, err := h.svc.AvailableInCategory(c.Request.Context(), c.Query("category"))
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /items/borrowed: 自分が借りている機材（返却フローの選択肢）
func (h *Handler) Borrowed(c *gin.Context) {
	holder := c.GetString(auth.CtxUserNameKey)
	res, err := h.svc.BorrowedBy(c.Request.Context(), holder)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Summary(c *gin.Context) {
	res, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Categories(c *gin.Context) {
	res, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
