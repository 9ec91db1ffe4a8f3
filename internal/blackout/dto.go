package blackout

type RuleResponse struct {
	ID     int64  `json:"id"`
	Kind   Kind   `json:"kind"`
	Name   string `json:"name"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Mode   Mode   `json:"mode"`
	Active bool   `json:"active"`
	Period string `json:"period"`
}

func toResponse(r Rule) RuleResponse {
	return RuleResponse{
		ID:     r.ID,
		Kind:   r.Kind,
		Name:   r.Name,
		Start:  r.Start,
		End:    r.End,
		Mode:   r.Mode,
		Active: r.Active,
		Period: HumanPeriod(r),
	}
}

type StatusResponse struct {
	Blocked bool   `json:"blocked"`
	Label   string `json:"label,omitempty"`
	Period  string `json:"period,omitempty"`
}

// 毎年ルール（文化祭/新歓）の期間設定
type SetRecurringRequest struct {
	Start string `json:"start" binding:"required"` // MM-DD
	End   string `json:"end" binding:"required"`   // MM-DD
}

// カスタム停止（単発）
type AddCustomRequest struct {
	Name  string `json:"name" binding:"required"`
	Start string `json:"start" binding:"required"` // YYYY-MM-DD
	End   string `json:"end" binding:"required"`   // YYYY-MM-DD
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}
