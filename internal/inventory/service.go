package inventory

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shuma0102/LoanLink/internal/platform/apperr"
)

type Service struct {
	store *Store
}

func NewService(conn *sql.DB) *Service {
	return &Service{store: NewStore(conn)}
}

// Store はワークフロー側へ渡す在庫アクセス（request.Inventory を満たす）
func (s *Service) Store() *Store { return s.store }

// Register は機材を登録する。IDはカテゴリから採番される。
func (s *Service) Register(ctx context.Context, req RegisterItemRequest) (*ItemResponse, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" {
		return nil, apperr.Invalid("name and category are required")
	}

	prefix := MakePrefix(req.Category)
	it, err := s.store.RegisterTx(ctx, prefix, func(itemID string) *Item {
		return &Item{
			ItemID:   itemID,
			Name:     req.Name,
			Category: req.Category,
			Note:     req.Note,
			Status:   StatusAvailable,
		}
	})
	if err != nil {
		return nil, err
	}
	resp := toResponse(*it)
	return &resp, nil
}

// NextID は次に採番される機材IDを返す（登録はしない）
func (s *Service) NextID(ctx context.Context, category string) (string, error) {
	if strings.TrimSpace(category) == "" {
		return "", apperr.Invalid("category is required")
	}
	return s.store.PeekNextID(ctx, MakePrefix(category))
}

func (s *Service) List(ctx context.Context) ([]ItemResponse, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) AvailableInCategory(ctx context.Context, category string) ([]ItemResponse, error) {
	if strings.TrimSpace(category) == "" {
		return nil, apperr.Invalid("category is required")
	}
	items, err := s.store.AvailableInCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) BorrowedBy(ctx context.Context, holder string) ([]ItemResponse, error) {
	items, err := s.store.BorrowedBy(ctx, holder)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.Categories(ctx)
}

func (s *Service) Summary(ctx context.Context) ([]StatusCount, error) {
	return s.store.CountByStatus(ctx)
}

func toResponses(items []Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toResponse(it))
	}
	return out
}
