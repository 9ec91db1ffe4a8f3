package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shuma0102/LoanLink/internal/platform/apperr"
)

type Handler struct{ svc *Service }

// RegisterRoutes: すべて admin 専用
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/settings/notify-target", h.GetNotifyTarget)
	r.PUT("/settings/notify-target", h.PutNotifyTarget)
	r.PUT("/settings/announce-webhook", h.PutAnnounceWebhook)
}

func (h *Handler) GetNotifyTarget(c *gin.Context) {
	kind, id, ok, err := h.svc.NotifyTarget(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"configured": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": true, "kind": kind, "id": id})
}

type putNotifyTargetRequest struct {
	Kind string `json:"kind" binding:"required"`
	ID   string `json:"id" binding:"required"`
}

func (h *Handler) PutNotifyTarget(c *gin.Context) {
	var req putNotifyTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "invalid json"))
		return
	}
	if err := h.svc.SetNotifyTarget(c.Request.Context(), req.Kind, req.ID); err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

type putAnnounceWebhookRequest struct {
	URL string `json:"url" binding:"required"`
}

func (h *Handler) PutAnnounceWebhook(c *gin.Context) {
	var req putAnnounceWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "invalid json"))
		return
	}
	if err := h.svc.SetAnnounceWebhook(c.Request.Context(), req.URL); err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}
