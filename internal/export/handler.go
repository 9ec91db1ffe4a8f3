package export

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shuma0102/LoanLink/internal/platform/apperr"
)

type Handler struct{ svc *Service }

// RegisterAdminRoutes: ログのCSVダウンロード（admin専用）
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/export/requests.csv", h.RequestsCSV)
}

func (h *Handler) RequestsCSV(c *gin.Context) {
	data, err := h.svc.RequestsCSV(c.Request.Context())
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="requests.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=Shift_JIS", data)
}
