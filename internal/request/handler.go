package request

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shuma0102/LoanLink/internal/platform/apperr"
	"github.com/shuma0102/LoanLink/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterPublicRoutes: ログイン済みメンバー向け
func RegisterPublicRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/loans", h.SubmitLoan)
	r.POST("/loans/project", h.SubmitProjectLoan)
	r.POST("/returns", h.SubmitReturn)
	r.GET("/campuses", h.Campuses)
}

// RegisterAdminRoutes: 承認・却下と手動登録（admin専用）
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/requests/pending", h.Pending)
	r.GET("/requests/recent", h.Recent)
	r.POST("/requests/:id/approve", h.Approve)
	r.POST("/requests/:id/reject", h.Reject)
	r.POST("/loans/manual", h.ManualLoan)
}

func ctxUser(c *gin.Context) User {
	return User{ID: c.GetString(auth.CtxUserIDKey), Name: c.GetString(auth.CtxUserNameKey)}
}

func (h *Handler) SubmitLoan(c *gin.Context) {
	var req SubmitLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	if !validDate(req.DueDate) {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "due_date must be YYYY-MM-DD"))
		return
	}
	res, err := h.svc.SubmitLoan(c.Request.Context(), ctxUser(c), req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) SubmitProjectLoan(c *gin.Context) {
	var req SubmitProjectLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	if !validDate(req.DueDate) {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "due_date must be YYYY-MM-DD"))
		return
	}
	res, err := h.svc.SubmitProjectLoan(c.Request.Context(), ctxUser(c), req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) SubmitReturn(c *gin.Context) {
	var req SubmitReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.SubmitReturn(c.Request.Context(), ctxUser(c), req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /campuses: 申請フォームの所属キャンパス選択肢
func (h *Handler) Campuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"campuses": Campuses})
}

// GET /requests/pending?op=loan_request|return_request（省略時は貸出申請）
func (h *Handler) Pending(c *gin.Context) {
	op := Op(c.DefaultQuery("op", string(OpLoan)))
	res, err := h.svc.Pending(c.Request.Context(), op)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /requests/recent?limit=10
func (h *Handler) Recent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 0 || limit > 100 {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "limit must be 0..100"))
		return
	}
	res, err := h.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Approve(c *gin.Context) { h.decide(c, true) }
func (h *Handler) Reject(c *gin.Context)  { h.decide(c, false) }

func (h *Handler) decide(c *gin.Context, approve bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "id must be an integer"))
		return
	}
	var (
		res *RecordResponse
	)
	if approve {
		res, err = h.svc.Approve(c.Request.Context(), id)
	} else {
		res, err = h.svc.Reject(c.Request.Context(), id)
	}
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ManualLoan(c *gin.Context) {
	var req ManualLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	if req.DueDate != "" && !validDate(req.DueDate) {
		c.JSON(http.StatusBadRequest, apperr.NewBody(apperr.CodeInvalidArgument, "due_date must be YYYY-MM-DD"))
		return
	}
	adminName := c.GetString(auth.CtxUserNameKey)
	res, err := h.svc.ManualLoan(c.Request.Context(), adminName, req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.Body(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
