package blackout

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shuma0102/LoanLink/internal/notify"
	"github.com/shuma0102/LoanLink/internal/platform/apperr"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RuleStore は Service が必要とする操作の集合（テスト時は手書きモックで差し替える）
type RuleStore interface {
	Insert(ctx context.Context, r *Rule) error
	List(ctx context.Context) ([]Rule, error)
	SetActiveByName(ctx context.Context, name string, active bool) (int64, error)
	DeactivateKind(ctx context.Context, kind Kind) error
	DeleteByName(ctx context.Context, name string) (int64, error)
}

type Service struct {
	store  RuleStore
	notify notify.Notifier
	clock  Clock
}

func NewService(db *sql.DB, n notify.Notifier) *Service {
	return &Service{store: NewStore(db), notify: n, clock: realClock{}}
}

func (s *Service) List(ctx context.Context) ([]Rule, error) {
	return s.store.List(ctx)
}

// Add はカスタム停止（単発）を追加する
func (s *Service) Add(ctx context.Context, name, start, end string) (*Rule, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Invalid("name is required")
	}
	if err := validateDate(start); err != nil {
		return nil, apperr.Invalid("start must be YYYY-MM-DD")
	}
	if err := validateDate(end); err != nil {
		return nil, apperr.Invalid("end must be YYYY-MM-DD")
	}
	r := &Rule{Kind: KindCustom, Name: name, Start: start, End: end, Mode: ModeOnce, Active: true}
	if err := s.store.Insert(ctx, r); err != nil {
		return nil, err
	}
	s.notify.Announce(ctx, fmt.Sprintf("カスタム停止 **%s** を %s〜%s で有効化しました。", name, start, end))
	return r, nil
}

// SetFestival は文化祭の毎年期間を設定する。既存の festival ルールは全て無効化する。
func (s *Service) SetFestival(ctx context.Context, start, end string) (*Rule, error) {
	return s.setRecurring(ctx, KindFestival, "文化祭", start, end)
}

// SetRecruit は新歓の毎年期間を設定する。既存の recruit ルールは全て無効化する。
func (s *Service) SetRecruit(ctx context.Context, start, end string) (*Rule, error) {
	return s.setRecurring(ctx, KindRecruit, "新歓", start, end)
}

func (s *Service) setRecurring(ctx context.Context, kind Kind, name, start, end string) (*Rule, error) {
	if _, _, err := parseMonthDay(start); err != nil {
		return nil, apperr.Invalid("start must be MM-DD")
	}
	if _, _, err := parseMonthDay(end); err != nil {
		return nil, apperr.Invalid("end must be MM-DD")
	}
	if err := s.store.DeactivateKind(ctx, kind); err != nil {
		return nil, err
	}
	r := &Rule{Kind: kind, Name: name, Start: start, End: end, Mode: ModeRecurring, Active: true}
	if err := s.store.Insert(ctx, r); err != nil {
		return nil, err
	}
	s.notify.Announce(ctx, fmt.Sprintf("%s期間を **%s〜%s** に設定しました。", name, start, end))
	return r, nil
}

func (s *Service) SetActive(ctx context.Context, name string, active bool) error {
	n, err := s.store.SetActiveByName(ctx, name, active)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("blackout rule not found")
	}
	verb := "無効化"
	if active {
		verb = "有効化"
	}
	s.notify.Announce(ctx, fmt.Sprintf("停止期間「%s」を%sしました。", name, verb))
	return nil
}

func (s *Service) Remove(ctx context.Context, name string) error {
	n, err := s.store.DeleteByName(ctx, name)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("blackout rule not found")
	}
	s.notify.Announce(ctx, fmt.Sprintf("停止期間「%s」を削除しました。", name))
	return nil
}

// Evaluate は今日が停止期間内かを返す
func (s *Service) Evaluate(ctx context.Context, today time.Time) (Verdict, error) {
	rules, err := s.store.List(ctx)
	if err != nil {
		return Verdict{}, err
	}
	return EvaluateRules(rules, today), nil
}

func (s *Service) EvaluateNow(ctx context.Context) (Verdict, error) {
	return s.Evaluate(ctx, s.clock.Now())
}

// EvaluateRules はルールを登録順に走査し、最初に一致した有効ルールで打ち切る。
//
// recurring ルールは開始/終了とも today の年に固定して比較するため、
// 年をまたぐ範囲（12-20〜01-10 など）は1月側の日付に一致しない。
// 旧実装と同じ挙動であり、仕様確認が取れるまで変更しないこと。
func EvaluateRules(rules []Rule, today time.Time) Verdict {
	y, m, d := today.Date()
	todayDate := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	for _, r := range rules {
		if !r.Active {
			continue
		}
		switch {
		case (r.Kind == KindFestival || r.Kind == KindRecruit) && r.Mode == ModeRecurring:
			if withinMonthDay(todayDate, r.Start, r.End) {
				label := "文化祭"
				if r.Kind == KindRecruit {
					label = "新歓"
				}
				return Verdict{Blocked: true, Label: label, Period: fmt.Sprintf("%s〜%s", r.Start, r.End)}
			}
		case r.Kind == KindCustom && r.Mode == ModeOnce:
			start, err1 := time.Parse("2006-01-02", r.Start)
			end, err2 := time.Parse("2006-01-02", r.End)
			if err1 != nil || err2 != nil {
				continue
			}
			if !todayDate.Before(start) && !todayDate.After(end) {
				label := r.Name
				if label == "" {
					label = "運営都合"
				}
				return Verdict{Blocked: true, Label: label, Period: fmt.Sprintf("%s〜%s", r.Start, r.End)}
			}
		}
	}
	return Verdict{}
}

func withinMonthDay(today time.Time, startMD, endMD string) bool {
	sm, sd, err := parseMonthDay(startMD)
	if err != nil {
		return false
	}
	em, ed, err := parseMonthDay(endMD)
	if err != nil {
		return false
	}
	y := today.Year()
	start := time.Date(y, time.Month(sm), sd, 0, 0, 0, 0, time.UTC)
	end := time.Date(y, time.Month(em), ed, 0, 0, 0, 0, time.UTC)
	return !today.Before(start) && !today.After(end)
}

func parseMonthDay(md string) (month, day int, err error) {
	ms, ds, ok := strings.Cut(md, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid month-day: %q", md)
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return 0, 0, err
	}
	d, err := strconv.Atoi(ds)
	if err != nil {
		return 0, 0, err
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, fmt.Errorf("invalid month-day: %q", md)
	}
	return m, d, nil
}

func validateDate(s string) error {
	_, err := time.Parse("2006-01-02", s)
	return err
}

// HumanPeriod は一覧表示用の期間表記
func HumanPeriod(r Rule) string {
	if r.Mode == ModeRecurring {
		return fmt.Sprintf("%s〜%s（毎年）", r.Start, r.End)
	}
	return fmt.Sprintf("%s〜%s", r.Start, r.End)
}
