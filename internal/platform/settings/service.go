package settings

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shuma0102/LoanLink/internal/platform/apperr"
)

const (
	keyNotifyTarget    = "LOAN_NOTIFY_TARGET"
	keyAnnounceWebhook = "ANNOUNCE_WEBHOOK_URL"
)

const (
	TargetRole = "role"
	TargetUser = "user"
)

// Service は通知先などの可変設定を型付きで読み書きする。
// ワークフローへは明示的に注入する（グローバル参照はしない）。
type Service struct{ store *Store }

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

// NotifyTarget: "role:<id>" / "user:<id>" を分解して返す。未設定なら ok=false。
func (s *Service) NotifyTarget(ctx context.Context) (kind, id string, ok bool, err error) {
	v, found, err := s.store.Get(ctx, keyNotifyTarget)
	if err != nil || !found || v == "" {
		return "", "", false, err
	}
	kind, id, cut := strings.Cut(v, ":")
	if !cut || id == "" || (kind != TargetRole && kind != TargetUser) {
		return "", "", false, nil
	}
	return kind, id, true, nil
}

func (s *Service) SetNotifyTarget(ctx context.Context, kind, id string) error {
	if kind != TargetRole && kind != TargetUser {
		return apperr.Invalid("kind must be role or user")
	}
	if strings.TrimSpace(id) == "" {
		return apperr.Invalid("id is required")
	}
	return s.store.Set(ctx, keyNotifyTarget, kind+":"+id)
}

func (s *Service) AnnounceWebhookURL(ctx context.Context) (string, bool, error) {
	v, found, err := s.store.Get(ctx, keyAnnounceWebhook)
	if err != nil || !found || v == "" {
		return "", false, err
	}
	return v, true, nil
}

func (s *Service) SetAnnounceWebhook(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, "https://") {
		return apperr.Invalid("webhook url must be https")
	}
	return s.store.Set(ctx, keyAnnounceWebhook, url)
}
