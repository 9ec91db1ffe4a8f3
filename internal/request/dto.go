package request

import "time"

type SubmitLoanRequest struct {
	ItemID  string `json:"item_id" binding:"required"`
	Campus  string `json:"campus" binding:"required"`
	DueDate string `json:"due_date" binding:"required"`
	Note    string `json:"note"`
}

type SubmitProjectLoanRequest struct {
	ProjectName string   `json:"project_name" binding:"required"`
	ItemIDs     []string `json:"item_ids" binding:"required"`
	Campus      string   `json:"campus" binding:"required"`
	DueDate     string   `json:"due_date" binding:"required"`
	Note        string   `json:"note"`
}

type SubmitReturnRequest struct {
	ItemID    string `json:"item_id" binding:"required"`
	Condition string `json:"condition"` // 返却時の機材の状態（任意）
	Comment   string `json:"comment"`
}

type ManualLoanRequest struct {
	ItemID       string `json:"item_id" binding:"required"`
	BorrowerID   string `json:"borrower_id"`
	BorrowerName string `json:"borrower_name" binding:"required"`
	DueDate      string `json:"due_date"`
	Note         string `json:"note"`
}

type RecordResponse struct {
	RequestID   int64     `json:"request_id"`
	RequestULID string    `json:"request_ulid"`
	RequestedAt time.Time `json:"requested_at"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Campus      string    `json:"campus"`
	Op          Op        `json:"op"`
	ItemID      string    `json:"item_id"`
	ItemName    string    `json:"item_name"`
	DueDate     string    `json:"due_date"`
	Purpose     string    `json:"purpose"`
	Comment     string    `json:"comment,omitempty"`
	Status      Status    `json:"status"`
}

// SubmitResult は申請の受理結果。停止期間中は blocked=true で却下記録が返る。
type SubmitResult struct {
	Request RecordResponse `json:"request"`
	Blocked bool           `json:"blocked"`
	Label   string         `json:"label,omitempty"`
	Period  string         `json:"period,omitempty"`
}

// ProjectLoanResult は一括申請の結果。missing には処理できなかった機材IDが入る。
type ProjectLoanResult struct {
	Requests []RecordResponse `json:"requests"`
	Missing  []string         `json:"missing"`
	Blocked  bool             `json:"blocked"`
	Label    string           `json:"label,omitempty"`
	Period   string           `json:"period,omitempty"`
}

func toResponse(r Record) RecordResponse {
	return RecordResponse{
		RequestID:   r.RequestID,
		RequestULID: r.RequestULID,
		RequestedAt: r.RequestedAt,
		UserID:      r.UserID,
		UserName:    r.UserName,
		Campus:      r.Campus,
		Op:          r.Op,
		ItemID:      r.ItemID,
		ItemName:    r.ItemName,
		DueDate:     r.DueDate,
		Purpose:     r.Purpose,
		Comment:     r.Comment,
		Status:      r.Status,
	}
}

func toResponses(recs []Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toResponse(r))
	}
	return out
}
