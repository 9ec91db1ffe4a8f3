package request

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shuma0102/LoanLink/internal/blackout"
	"github.com/shuma0102/LoanLink/internal/inventory"
	"github.com/shuma0102/LoanLink/internal/notify"
	"github.com/shuma0102/LoanLink/internal/platform/apperr"
)

// Ledger は申請ログへのアクセス（実体は *Store、テストでは手書きモック）
type Ledger interface {
	Append(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, requestID int64) (*Record, error)
	Pending(ctx context.Context, op Op) ([]Record, error)
	Recent(ctx context.Context, limit int) ([]Record, error)
	UpdateStatus(ctx context.Context, requestID int64, status Status) error
	LoanHistory(ctx context.Context, itemID, userName string) ([]Record, error)
}

// Inventory は在庫側の参照・状態遷移（inventory.Store が満たす）
type Inventory interface {
	GetByID(ctx context.Context, itemID string) (*inventory.Item, error)
	SetState(ctx context.Context, itemID string, status inventory.Status, holder, dueDate string) error
}

// BlackoutChecker は停止期間の判定（blackout.Service が満たす）
type BlackoutChecker interface {
	Evaluate(ctx context.Context, today time.Time) (blackout.Verdict, error)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() string
}

type ulidGen struct{}

func (ulidGen) New() string { return ulid.Make().String() }

// itemLocks は機材IDごとの直列化。状態遷移（在庫確認→更新→ログ追記）が
// 同一機材で交錯しないようにする。エントリは解放しない（在庫数は高々数百）。
type itemLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newItemLocks() *itemLocks {
	return &itemLocks{m: map[string]*sync.Mutex{}}
}

func (l *itemLocks) get(itemID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if mu, ok := l.m[itemID]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	l.m[itemID] = mu
	return mu
}

type Service struct {
	ledger   Ledger
	inv      Inventory
	blackout BlackoutChecker
	notify   notify.Notifier
	clock    Clock
	idgen    IDGen
	locks    *itemLocks
}

func NewService(ledger Ledger, inv Inventory, bc BlackoutChecker, n notify.Notifier) *Service {
	return &Service{
		ledger:   ledger,
		inv:      inv,
		blackout: bc,
		notify:   n,
		clock:    realClock{},
		idgen:    ulidGen{},
		locks:    newItemLocks(),
	}
}

// SubmitLoan は個人の貸出申請。停止期間中は自動却下の記録だけ残し、在庫には触れない。
func (s *Service) SubmitLoan(ctx context.Context, user User, req SubmitLoanRequest) (*SubmitResult, error) {
	if err := validateCampus(req.Campus); err != nil {
		return nil, err
	}
	now := s.clock.Now()

	v, err := s.blackout.Evaluate(ctx, now)
	if err != nil {
		return nil, apperr.Internal("停止期間の判定に失敗しました")
	}

	item, err := s.inv.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("inventory に該当機材が見つかりません")
	}

	rec := &Record{
		RequestULID: s.idgen.New(),
		RequestedAt: now,
		UserID:      user.ID,
		UserName:    user.Name,
		Campus:      req.Campus,
		Op:          OpLoan,
		ItemID:      item.ItemID,
		ItemName:    item.Name,
		DueDate:     req.DueDate,
		Purpose:     purposeIndividual(req.Note),
		Status:      StatusSubmitted,
	}

	if v.Blocked {
		rec.Status = StatusRejected
		rec.Comment = autoRejectComment(v)
		if err := s.ledger.Append(ctx, rec); err != nil {
			return nil, err
		}
		return &SubmitResult{Request: toResponse(*rec), Blocked: true, Label: v.Label, Period: v.Period}, nil
	}

	mu := s.locks.get(item.ItemID)
	mu.Lock()
	defer mu.Unlock()

	// ロック下で状態を取り直す（先行申請との競合対策）
	item, err = s.inv.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("inventory に該当機材が見つかりません")
	}
	if item.Status != inventory.StatusAvailable {
		return nil, apperr.Conflict("この機材は現在貸出できません")
	}

	if err := s.inv.SetState(ctx, item.ItemID, inventory.StatusLoanRequested, user.Name, req.DueDate); err != nil {
		return nil, err
	}
	if err := s.ledger.Append(ctx, rec); err != nil {
		return nil, err
	}

	s.notify.NotifyRequest(ctx, fmt.Sprintf(
		"新しい**貸出申請**があります。\n- 申請者: %s\n- 所属: %s\n- 機材: %s %s\n- 返却予定日: %s\n- 用途: %s",
		user.Name, req.Campus, item.ItemID, item.Name, orUnset(req.DueDate), rec.Purpose))

	return &SubmitResult{Request: toResponse(*rec)}, nil
}

// SubmitProjectLoan はプロジェクト名義の一括貸出申請。
// 見つからない・貸出できない機材は missing として報告し、残りだけ処理する。
func (s *Service) SubmitProjectLoan(ctx context.Context, user User, req SubmitProjectLoanRequest) (*ProjectLoanResult, error) {
	if strings.TrimSpace(req.ProjectName) == "" {
		return nil, apperr.Invalid("project_name is required")
	}
	if err := validateCampus(req.Campus); err != nil {
		return nil, err
	}
	if len(req.ItemIDs) == 0 {
		return nil, apperr.Invalid("item_ids is required")
	}
	now := s.clock.Now()

	v, err := s.blackout.Evaluate(ctx, now)
	if err != nil {
		return nil, apperr.Internal("停止期間の判定に失敗しました")
	}

	purpose := purposeProject(req.ProjectName, req.Note)
	result := &ProjectLoanResult{Requests: []RecordResponse{}, Missing: []string{}}
	if v.Blocked {
		result.Blocked = true
		result.Label = v.Label
		result.Period = v.Period
	}

	for _, itemID := range req.ItemIDs {
		item, err := s.inv.GetByID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			result.Missing = append(result.Missing, itemID)
			continue
		}

		rec := &Record{
			RequestULID: s.idgen.New(),
			RequestedAt: now,
			UserID:      user.ID,
			UserName:    user.Name,
			Campus:      req.Campus,
			Op:          OpLoan,
			ItemID:      item.ItemID,
			ItemName:    item.Name,
			DueDate:     req.DueDate,
			Purpose:     purpose,
			Status:      StatusSubmitted,
		}

		if v.Blocked {
			rec.Status = StatusRejected
			rec.Comment = autoRejectComment(v)
			if err := s.ledger.Append(ctx, rec); err != nil {
				return nil, err
			}
			result.Requests = append(result.Requests, toResponse(*rec))
			continue
		}

		mu := s.locks.get(item.ItemID)
		mu.Lock()
		item, err = s.inv.GetByID(ctx, itemID)
		if err != nil {
			mu.Unlock()
			return nil, err
		}
		if item == nil || item.Status != inventory.StatusAvailable {
			mu.Unlock()
			result.Missing = append(result.Missing, itemID)
			continue
		}
		if err := s.inv.SetState(ctx, item.ItemID, inventory.StatusLoanRequested, user.Name, req.DueDate); err != nil {
			mu.Unlock()
			return nil, err
		}
		if err := s.ledger.Append(ctx, rec); err != nil {
			mu.Unlock()
			return nil, err
		}
		mu.Unlock()
		result.Requests = append(result.Requests, toResponse(*rec))
	}

	if !v.Blocked && len(result.Requests) > 0 {
		var items []string
		for _, r := range result.Requests {
			items = append(items, fmt.Sprintf("%s %s", r.ItemID, r.ItemName))
		}
		s.notify.NotifyRequest(ctx, fmt.Sprintf(
			"新しい**貸出申請（プロジェクト: %s）**があります。\n- 申請者: %s\n- 所属: %s\n- 対象機材:\n  - %s\n- 返却予定日: %s",
			req.ProjectName, user.Name, req.Campus, strings.Join(items, "\n  - "), orUnset(req.DueDate)))
	}
	return result, nil
}

// SubmitReturn は返却申請。所属キャンパスは過去の貸出申請から推定する。
func (s *Service) SubmitReturn(ctx context.Context, user User, req SubmitReturnRequest) (*SubmitResult, error) {
	now := s.clock.Now()

	mu := s.locks.get(req.ItemID)
	mu.Lock()
	defer mu.Unlock()

	item, err := s.inv.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("inventory に該当機材が見つかりません")
	}
	// 貸出申請中の機材も返却を受け付ける（BorrowedBy の選択肢と揃える）
	if item.Status != inventory.StatusOnLoan && item.Status != inventory.StatusLoanRequested {
		return nil, apperr.Conflict("この機材は貸出中ではありません")
	}

	rec := &Record{
		RequestULID: s.idgen.New(),
		RequestedAt: now,
		UserID:      user.ID,
		UserName:    user.Name,
		Campus:      s.inferCampus(ctx, item.ItemID, user.Name),
		Op:          OpReturn,
		ItemID:      item.ItemID,
		ItemName:    item.Name,
		DueDate:     item.DueDate,
		Purpose:     returnPurpose(req.Condition),
		Comment:     req.Comment,
		Status:      StatusSubmitted,
	}

	if err := s.inv.SetState(ctx, item.ItemID, inventory.StatusReturnRequested, item.Holder, item.DueDate); err != nil {
		return nil, err
	}
	if err := s.ledger.Append(ctx, rec); err != nil {
		return nil, err
	}

	s.notify.NotifyRequest(ctx, fmt.Sprintf(
		"新しい**返却申請**があります。\n- 申請者: %s\n- 機材: %s %s\n- 返却予定日: %s",
		user.Name, item.ItemID, item.Name, orUnset(item.DueDate)))

	return &SubmitResult{Request: toResponse(*rec)}, nil
}

// inferCampus は同じ機材×同じ申請者の貸出申請履歴からキャンパスを推定する。
// 承認済みを新しい順で優先し、なければ申請中、どちらも無ければ「不明」。
func (s *Service) inferCampus(ctx context.Context, itemID, userName string) string {
	hist, err := s.ledger.LoanHistory(ctx, itemID, userName)
	if err != nil {
		return campusUnknown
	}
	submitted := ""
	for _, r := range hist {
		switch r.Status {
		case StatusApproved:
			if r.Campus != "" {
				return r.Campus
			}
			return campusUnknown
		case StatusSubmitted:
			if submitted == "" && r.Campus != "" {
				submitted = r.Campus
			}
		}
	}
	if submitted != "" {
		return submitted
	}
	return campusUnknown
}

func (s *Service) Approve(ctx context.Context, requestID int64) (*RecordResponse, error) {
	return s.decide(ctx, requestID, true)
}

func (s *Service) Reject(ctx context.Context, requestID int64) (*RecordResponse, error) {
	return s.decide(ctx, requestID, false)
}

// decide は承認/却下を確定し、在庫側の状態を対応する値に遷移させる。
// 確定済みの申請に対する再決裁は CONFLICT（記録は一切変更しない）。
func (s *Service) decide(ctx context.Context, requestID int64, approve bool) (*RecordResponse, error) {
	rec, err := s.ledger.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.NotFound("request not found")
	}
	if rec.Op != OpLoan && rec.Op != OpReturn {
		return nil, apperr.Invalid("不明な操作です")
	}

	mu := s.locks.get(rec.ItemID)
	mu.Lock()
	defer mu.Unlock()

	// ロック下で記録を取り直してから確定済みチェックをする。
	// 先にチェックすると、同じ申請への同時決裁が両方ともガードを通ってしまう。
	rec, err = s.ledger.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.NotFound("request not found")
	}
	if rec.Status != StatusSubmitted {
		return nil, apperr.Conflict("この申請は処理済みです")
	}

	item, err := s.inv.GetByID(ctx, rec.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("inventory に該当機材が見つかりません")
	}

	switch {
	case rec.Op == OpLoan && approve:
		err = s.inv.SetState(ctx, rec.ItemID, inventory.StatusOnLoan, rec.UserName, rec.DueDate)
	case rec.Op == OpLoan && !approve:
		err = s.inv.SetState(ctx, rec.ItemID, inventory.StatusAvailable, "", "")
	case rec.Op == OpReturn && approve:
		err = s.inv.SetState(ctx, rec.ItemID, inventory.StatusAvailable, "", "")
	case rec.Op == OpReturn && !approve:
		// 返却を却下したら貸出中に戻す（借用者・期日は保持）
		err = s.inv.SetState(ctx, rec.ItemID, inventory.StatusOnLoan, item.Holder, item.DueDate)
	}
	if err != nil {
		return nil, err
	}

	status := StatusRejected
	if approve {
		status = StatusApproved
	}
	if err := s.ledger.UpdateStatus(ctx, requestID, status); err != nil {
		return nil, err
	}
	rec.Status = status
	resp := toResponse(*rec)
	return &resp, nil
}

// ManualLoan は管理者による貸出の直接登録。申請を経ず、承認済みとして記録する。
func (s *Service) ManualLoan(ctx context.Context, adminName string, req ManualLoanRequest) (*RecordResponse, error) {
	if strings.TrimSpace(req.BorrowerName) == "" {
		return nil, apperr.Invalid("borrower_name is required")
	}
	now := s.clock.Now()

	mu := s.locks.get(req.ItemID)
	mu.Lock()
	defer mu.Unlock()

	item, err := s.inv.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("inventory に該当機材が見つかりません")
	}
	if item.Status != inventory.StatusAvailable {
		return nil, apperr.Conflict("この機材は現在貸出できません")
	}

	if err := s.inv.SetState(ctx, item.ItemID, inventory.StatusOnLoan, req.BorrowerName, req.DueDate); err != nil {
		return nil, err
	}

	rec := &Record{
		RequestULID: s.idgen.New(),
		RequestedAt: now,
		UserID:      req.BorrowerID,
		UserName:    req.BorrowerName,
		Campus:      campusAdmin,
		Op:          OpAdminLoan,
		ItemID:      item.ItemID,
		ItemName:    item.Name,
		DueDate:     req.DueDate,
		Purpose:     req.Note,
		Comment:     fmt.Sprintf("管理者 %s による手動登録", adminName),
		Status:      StatusApproved,
	}
	if err := s.ledger.Append(ctx, rec); err != nil {
		return nil, err
	}
	resp := toResponse(*rec)
	return &resp, nil
}

func (s *Service) Pending(ctx context.Context, op Op) ([]RecordResponse, error) {
	if op != OpLoan && op != OpReturn {
		return nil, apperr.Invalid("op must be loan_request or return_request")
	}
	recs, err := s.ledger.Pending(ctx, op)
	if err != nil {
		return nil, err
	}
	return toResponses(recs), nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]RecordResponse, error) {
	recs, err := s.ledger.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toResponses(recs), nil
}

func autoRejectComment(v blackout.Verdict) string {
	return fmt.Sprintf("%s期間（%s）のため自動却下", v.Label, v.Period)
}

// returnPurpose: 用途・状態列には返却時の機材状態を入れる（未記入なら「返却」）
func returnPurpose(condition string) string {
	if strings.TrimSpace(condition) == "" {
		return "返却"
	}
	return "返却（" + condition + "）"
}

func purposeIndividual(note string) string {
	if strings.TrimSpace(note) == "" {
		return "[個人]"
	}
	return "[個人] " + note
}

func purposeProject(name, note string) string {
	p := fmt.Sprintf("[プロジェクト:%s]", name)
	if strings.TrimSpace(note) == "" {
		return p
	}
	return p + " " + note
}

func validateCampus(campus string) error {
	for _, c := range Campuses {
		if campus == c {
			return nil
		}
	}
	return apperr.Invalid("campus must be one of the listed campuses")
}

func orUnset(s string) string {
	if s == "" {
		return "未入力"
	}
	return s
}
