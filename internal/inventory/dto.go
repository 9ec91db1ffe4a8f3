package inventory

import "time"

type RegisterItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required"`
	Note     string `json:"note"`
}

type ItemResponse struct {
	ItemID    string    `json:"item_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Note      string    `json:"note,omitempty"`
	Status    Status    `json:"status"`
	Holder    string    `json:"holder,omitempty"`
	DueDate   string    `json:"due_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(it Item) ItemResponse {
	return ItemResponse{
		ItemID:    it.ItemID,
		Name:      it.Name,
		Category:  it.Category,
		Note:      it.Note,
		Status:    it.Status,
		Holder:    it.Holder,
		DueDate:   it.DueDate,
		CreatedAt: it.CreatedAt,
	}
}

type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}
