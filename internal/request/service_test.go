package request

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shuma0102/LoanLink/internal/blackout"
	"github.com/shuma0102/LoanLink/internal/inventory"
	"github.com/shuma0102/LoanLink/internal/platform/apperr"
)

// --- 手書きモック ---

type mockLedger struct {
	appended []*Record
	byID     map[int64]*Record
	history  []Record
	statuses map[int64]Status
}

func newMockLedger() *mockLedger {
	return &mockLedger{byID: map[int64]*Record{}, statuses: map[int64]Status{}}
}

func (m *mockLedger) Append(ctx context.Context, r *Record) error {
	r.RequestID = int64(len(m.appended) + 1)
	m.appended = append(m.appended, r)
	m.byID[r.RequestID] = r
	return nil
}
func (m *mockLedger) GetByID(ctx context.Context, id int64) (*Record, error) {
	return m.byID[id], nil
}
func (m *mockLedger) Pending(ctx context.Context, op Op) ([]Record, error) {
	out := []Record{}
	for _, r := range m.appended {
		if r.Op == op && r.Status == StatusSubmitted {
			out = append(out, *r)
		}
	}
	return out, nil
}
func (m *mockLedger) Recent(ctx context.Context, limit int) ([]Record, error) {
	return nil, nil
}
func (m *mockLedger) UpdateStatus(ctx context.Context, id int64, status Status) error {
	m.statuses[id] = status
	return nil
}
func (m *mockLedger) LoanHistory(ctx context.Context, itemID, userName string) ([]Record, error) {
	return m.history, nil
}

type stateChange struct {
	itemID  string
	status  inventory.Status
	holder  string
	dueDate string
}

type mockInventory struct {
	items       map[string]*inventory.Item
	transitions []stateChange
}

func (m *mockInventory) GetByID(ctx context.Context, itemID string) (*inventory.Item, error) {
	it, ok := m.items[itemID]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}
func (m *mockInventory) SetState(ctx context.Context, itemID string, status inventory.Status, holder, dueDate string) error {
	m.transitions = append(m.transitions, stateChange{itemID, status, holder, dueDate})
	if it, ok := m.items[itemID]; ok {
		it.Status = status
		it.Holder = holder
		it.DueDate = dueDate
	}
	return nil
}

type mockBlackout struct {
	v   blackout.Verdict
	err error
}

func (m *mockBlackout) Evaluate(ctx context.Context, today time.Time) (blackout.Verdict, error) {
	return m.v, m.err
}

type recordingNotifier struct {
	announced []string
	notified  []string
}

func (n *recordingNotifier) Announce(ctx context.Context, text string)      { n.announced = append(n.announced, text) }
func (n *recordingNotifier) NotifyRequest(ctx context.Context, text string) { n.notified = append(n.notified, text) }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDGen struct{ n int }

func (g *seqIDGen) New() string {
	g.n++
	return fmt.Sprintf("ULID%04d", g.n)
}

type fixture struct {
	svc    *Service
	ledger *mockLedger
	inv    *mockInventory
	bc     *mockBlackout
	notif  *recordingNotifier
}

func newFixture(items ...inventory.Item) *fixture {
	inv := &mockInventory{items: map[string]*inventory.Item{}}
	for i := range items {
		it := items[i]
		inv.items[it.ItemID] = &it
	}
	f := &fixture{
		ledger: newMockLedger(),
		inv:    inv,
		bc:     &mockBlackout{},
		notif:  &recordingNotifier{},
	}
	f.svc = &Service{
		ledger:   f.ledger,
		inv:      f.inv,
		blackout: f.bc,
		notify:   f.notif,
		clock:    fixedClock{t: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)},
		idgen:    &seqIDGen{},
		locks:    newItemLocks(),
	}
	return f
}

func availableItem(id, name string) inventory.Item {
	return inventory.Item{ItemID: id, Name: name, Category: "HMD", Status: inventory.StatusAvailable}
}

var member = User{ID: "u100", Name: "山田"}

func requireCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	var api *apperr.APIError
	require.True(t, errors.As(err, &api), "expected APIError, got %v", err)
	require.Equal(t, code, api.Code)
}

// --- 貸出申請 ---

func TestSubmitLoan_Normal(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))

	res, err := f.svc.SubmitLoan(context.Background(), member, SubmitLoanRequest{
		ItemID: "HMD-001", Campus: "小白川キャンパス", DueDate: "2025-10-10", Note: "授業で使用",
	})
	require.NoError(t, err)
	require.False(t, res.Blocked)
	require.Equal(t, StatusSubmitted, res.Request.Status)
	require.Equal(t, "[個人] 授業で使用", res.Request.Purpose)

	// 在庫は貸出申請中になる
	require.Equal(t, []stateChange{{"HMD-001", inventory.StatusLoanRequested, "山田", "2025-10-10"}}, f.inv.transitions)
	// 通知が飛ぶ
	require.Len(t, f.notif.notified, 1)
	require.Contains(t, f.notif.notified[0], "貸出申請")
	require.Contains(t, f.notif.notified[0], "HMD-001")
}

func TestSubmitLoan_PurposeWithoutNote(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))
	res, err := f.svc.SubmitLoan(context.Background(), member, SubmitLoanRequest{
		ItemID: "HMD-001", Campus: "小白川キャンパス", DueDate: "2025-10-10",
	})
	require.NoError(t, err)
	require.Equal(t, "[個人]", res.Request.Purpose)
}

func TestSubmitLoan_BlockedByBlackout(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))
	f.bc.v = blackout.Verdict{Blocked: true, Label: "文化祭", Period: "10-01〜10-05"}

	res, err := f.svc.SubmitLoan(context.Background(), member, SubmitLoanRequest{
		ItemID: "HMD-001", Campus: "小白川キャンパス", DueDate: "2025-10-10",
	})
	require.NoError(t, err)
	require.True(t, res.Blocked)
	require.Equal(t, "文化祭", res.Label)
	require.Equal(t, StatusRejected, res.Request.Status)
	require.Equal(t, "文化祭期間（10-01〜10-05）のため自動却下", res.Request.Comment)

	// 却下記録は残るが、在庫には触れない・通知もしない
	require.Len(t, f.ledger.appended, 1)
	require.Empty(t, f.inv.transitions)
	require.Empty(t, f.notif.notified)
}

func TestSubmitLoan_ItemNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.SubmitLoan(context.Background(), member, SubmitLoanRequest{
		ItemID: "HMD-999", Campus: "小白川キャンパス", DueDate: "2025-10-10",
	})
	requireCode(t, err, apperr.CodeNotFound)
}

func TestSubmitLoan_ItemNotAvailable(t *testing.T) {
	it := availableItem("HMD-001", "Quest 3")
	it.Status = inventory.StatusOnLoan
	f := newFixture(it)

	_, err := f.svc.SubmitLoan(context.Background(), member, SubmitLoanRequest{
		ItemID: "HMD-001", Campus: "小白川キャンパス", DueDate: "2025-10-10",
	})
	requireCode(t, err, apperr.CodeConflict)
	require.Empty(t, f.ledger.appended)
}

func TestSubmitLoan_InvalidCampus(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))
	_, err := f.svc.SubmitLoan(context.Background(), member, SubmitLoanRequest{
		ItemID: "HMD-001", Campus: "火星キャンパス", DueDate: "2025-10-10",
	})
	requireCode(t, err, apperr.CodeInvalidArgument)
}

// --- プロジェクト一括申請 ---

func TestSubmitProjectLoan_ReportsMissing(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"), availableItem("CAM-001", "EOS R6"))

	res, err := f.svc.SubmitProjectLoan(context.Background(), member, SubmitProjectLoanRequest{
		ProjectName: "展示A", ItemIDs: []string{"HMD-001", "TRI-001", "CAM-001"},
		Campus: "米沢キャンパス", DueDate: "2025-10-15",
	})
	require.NoError(t, err)
	require.False(t, res.Blocked)
	require.Equal(t, []string{"TRI-001"}, res.Missing)
	require.Len(t, res.Requests, 2)
	for _, r := range res.Requests {
		require.Equal(t, "[プロジェクト:展示A]", r.Purpose)
		require.Equal(t, StatusSubmitted, r.Status)
	}
	require.Len(t, f.inv.transitions, 2)
	require.Len(t, f.notif.notified, 1)
	require.Contains(t, f.notif.notified[0], "展示A")
}

func TestSubmitProjectLoan_BlockedRecordsRejections(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))
	f.bc.v = blackout.Verdict{Blocked: true, Label: "新歓", Period: "04-01〜04-15"}

	res, err := f.svc.SubmitProjectLoan(context.Background(), member, SubmitProjectLoanRequest{
		ProjectName: "展示A", ItemIDs: []string{"HMD-001", "TRI-001"},
		Campus: "米沢キャンパス", DueDate: "2025-10-15",
	})
	require.NoError(t, err)
	require.True(t, res.Blocked)
	require.Equal(t, []string{"TRI-001"}, res.Missing)
	require.Len(t, res.Requests, 1)
	require.Equal(t, StatusRejected, res.Requests[0].Status)
	require.Empty(t, f.inv.transitions)
	require.Empty(t, f.notif.notified)
}

// --- 返却申請 ---

func onLoanItem(id, name, holder, due string) inventory.Item {
	return inventory.Item{ItemID: id, Name: name, Status: inventory.StatusOnLoan, Holder: holder, DueDate: due}
}

func TestSubmitReturn_Normal(t *testing.T) {
	f := newFixture(onLoanItem("HMD-001", "Quest 3", "山田", "2025-10-10"))

	res, err := f.svc.SubmitReturn(context.Background(), member, SubmitReturnRequest{ItemID: "HMD-001"})
	require.NoError(t, err)
	require.Equal(t, OpReturn, res.Request.Op)
	require.Equal(t, StatusSubmitted, res.Request.Status)
	require.Equal(t, "返却", res.Request.Purpose)
	// 借用者・期日を保持したまま返却申請中へ
	require.Equal(t, []stateChange{{"HMD-001", inventory.StatusReturnRequested, "山田", "2025-10-10"}}, f.inv.transitions)
	require.Len(t, f.notif.notified, 1)
}

func TestSubmitReturn_WithCondition(t *testing.T) {
	f := newFixture(onLoanItem("HMD-001", "Quest 3", "山田", "2025-10-10"))
	res, err := f.svc.SubmitReturn(context.Background(), member, SubmitReturnRequest{
		ItemID: "HMD-001", Condition: "レンズに小傷あり",
	})
	require.NoError(t, err)
	require.Equal(t, "返却（レンズに小傷あり）", res.Request.Purpose)
}

func TestSubmitReturn_NotOnLoan(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))
	_, err := f.svc.SubmitReturn(context.Background(), member, SubmitReturnRequest{ItemID: "HMD-001"})
	requireCode(t, err, apperr.CodeConflict)
}

// 貸出申請中（承認待ち）の機材も返却申請できる
func TestSubmitReturn_PendingLoanAccepted(t *testing.T) {
	it := availableItem("HMD-001", "Quest 3")
	it.Status = inventory.StatusLoanRequested
	it.Holder = "山田"
	it.DueDate = "2025-10-10"
	f := newFixture(it)

	res, err := f.svc.SubmitReturn(context.Background(), member, SubmitReturnRequest{ItemID: "HMD-001"})
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, res.Request.Status)
	require.Equal(t, []stateChange{{"HMD-001", inventory.StatusReturnRequested, "山田", "2025-10-10"}}, f.inv.transitions)
}

func TestSubmitReturn_CampusInference(t *testing.T) {
	cases := []struct {
		name    string
		history []Record
		want    string
	}{
		{
			"承認済みを新しい順で優先",
			[]Record{
				{Status: StatusSubmitted, Campus: "飯田キャンパス"},
				{Status: StatusApproved, Campus: "小白川キャンパス"},
				{Status: StatusApproved, Campus: "米沢キャンパス"},
			},
			"小白川キャンパス",
		},
		{
			"承認済みが無ければ申請中",
			[]Record{
				{Status: StatusRejected, Campus: "米沢キャンパス"},
				{Status: StatusSubmitted, Campus: "飯田キャンパス"},
			},
			"飯田キャンパス",
		},
		{"履歴なしは不明", nil, "不明"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(onLoanItem("HMD-001", "Quest 3", "山田", "2025-10-10"))
			f.ledger.history = tc.history
			res, err := f.svc.SubmitReturn(context.Background(), member, SubmitReturnRequest{ItemID: "HMD-001"})
			require.NoError(t, err)
			require.Equal(t, tc.want, res.Request.Campus)
		})
	}
}

// --- 承認・却下 ---

func submitLoan(t *testing.T, f *fixture) int64 {
	t.Helper()
	res, err := f.svc.SubmitLoan(context.Background(), member, SubmitLoanRequest{
		ItemID: "HMD-001", Campus: "小白川キャンパス", DueDate: "2025-10-10",
	})
	require.NoError(t, err)
	return res.Request.RequestID
}

func TestApproveLoan(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))
	id := submitLoan(t, f)

	res, err := f.svc.Approve(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, res.Status)
	require.Equal(t, StatusApproved, f.ledger.statuses[id])

	last := f.inv.transitions[len(f.inv.transitions)-1]
	require.Equal(t, stateChange{"HMD-001", inventory.StatusOnLoan, "山田", "2025-10-10"}, last)
}

func TestRejectLoan(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))
	id := submitLoan(t, f)

	res, err := f.svc.Reject(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, res.Status)

	// 貸出可に戻り、借用者・期日はクリア
	last := f.inv.transitions[len(f.inv.transitions)-1]
	require.Equal(t, stateChange{"HMD-001", inventory.StatusAvailable, "", ""}, last)
}

func TestApproveReturn(t *testing.T) {
	f := newFixture(onLoanItem("HMD-001", "Quest 3", "山田", "2025-10-10"))
	res, err := f.svc.SubmitReturn(context.Background(), member, SubmitReturnRequest{ItemID: "HMD-001"})
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), res.Request.RequestID)
	require.NoError(t, err)
	last := f.inv.transitions[len(f.inv.transitions)-1]
	require.Equal(t, stateChange{"HMD-001", inventory.StatusAvailable, "", ""}, last)
}

func TestRejectReturn_KeepsHolder(t *testing.T) {
	f := newFixture(onLoanItem("HMD-001", "Quest 3", "山田", "2025-10-10"))
	res, err := f.svc.SubmitReturn(context.Background(), member, SubmitReturnRequest{ItemID: "HMD-001"})
	require.NoError(t, err)

	_, err = f.svc.Reject(context.Background(), res.Request.RequestID)
	require.NoError(t, err)
	last := f.inv.transitions[len(f.inv.transitions)-1]
	require.Equal(t, stateChange{"HMD-001", inventory.StatusOnLoan, "山田", "2025-10-10"}, last)
}

func TestDecide_AlreadyDecided(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))
	id := submitLoan(t, f)

	_, err := f.svc.Approve(context.Background(), id)
	require.NoError(t, err)

	// モックの記録本体も承認済みへ
	f.ledger.byID[id].Status = StatusApproved

	_, err = f.svc.Reject(context.Background(), id)
	requireCode(t, err, apperr.CodeConflict)
}

// ロック前の読み取りだけ古い submitted を返すレジャー。
// 別の決裁がロック獲得までの間に確定してしまった状況を再現する。
type staleLedger struct {
	*mockLedger
	calls int
}

func (l *staleLedger) GetByID(ctx context.Context, id int64) (*Record, error) {
	l.calls++
	rec := l.byID[id]
	if rec == nil {
		return nil, nil
	}
	if l.calls == 1 {
		cp := *rec
		cp.Status = StatusSubmitted
		return &cp, nil
	}
	return rec, nil
}

// 確定済みチェックはロック下の取り直しで行う。古い読み取りで
// submitted に見えても、決裁は適用されず CONFLICT になる。
func TestDecide_StaleReadGetsConflict(t *testing.T) {
	base := newMockLedger()
	inv := &mockInventory{items: map[string]*inventory.Item{}}
	it := onLoanItem("HMD-001", "Quest 3", "山田", "2025-10-10")
	inv.items["HMD-001"] = &it
	svc := &Service{
		ledger:   &staleLedger{mockLedger: base},
		inv:      inv,
		blackout: &mockBlackout{},
		notify:   &recordingNotifier{},
		clock:    fixedClock{t: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)},
		idgen:    &seqIDGen{},
		locks:    newItemLocks(),
	}

	rec := &Record{
		Op: OpLoan, ItemID: "HMD-001", UserName: "山田",
		DueDate: "2025-10-10", Status: StatusApproved,
	}
	require.NoError(t, base.Append(context.Background(), rec))

	_, err := svc.Reject(context.Background(), rec.RequestID)
	requireCode(t, err, apperr.CodeConflict)
	require.Empty(t, inv.transitions)
	require.Empty(t, base.statuses)
}

// 同じ申請への同時決裁は片方だけが通り、もう片方は CONFLICT
func TestDecide_ConcurrentDecisionsOnlyOneApplies(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))
	id := submitLoan(t, f)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); _, errs[0] = f.svc.Approve(context.Background(), id) }()
	go func() { defer wg.Done(); _, errs[1] = f.svc.Reject(context.Background(), id) }()
	wg.Wait()

	oks, conflicts := 0, 0
	for _, err := range errs {
		if err == nil {
			oks++
			continue
		}
		requireCode(t, err, apperr.CodeConflict)
		conflicts++
	}
	require.Equal(t, 1, oks)
	require.Equal(t, 1, conflicts)
	// 申請時の遷移 + 勝った決裁の遷移だけ
	require.Len(t, f.inv.transitions, 2)
	require.Len(t, f.ledger.statuses, 1)
}

func TestDecide_RequestNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Approve(context.Background(), 42)
	requireCode(t, err, apperr.CodeNotFound)
}

func TestDecide_ItemGone(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))
	id := submitLoan(t, f)
	delete(f.inv.items, "HMD-001")

	_, err := f.svc.Approve(context.Background(), id)
	requireCode(t, err, apperr.CodeNotFound)
	require.Contains(t, err.Error(), "inventory に該当機材が見つかりません")
}

// --- 手動貸出 ---

func TestManualLoan(t *testing.T) {
	f := newFixture(availableItem("HMD-001", "Quest 3"))

	res, err := f.svc.ManualLoan(context.Background(), "管理者A", ManualLoanRequest{
		ItemID: "HMD-001", BorrowerName: "鈴木", DueDate: "2025-11-01",
	})
	require.NoError(t, err)
	require.Equal(t, OpAdminLoan, res.Op)
	require.Equal(t, StatusApproved, res.Status)
	require.Equal(t, "未設定(管理)", res.Campus)
	require.Contains(t, res.Comment, "管理者A")

	require.Equal(t, []stateChange{{"HMD-001", inventory.StatusOnLoan, "鈴木", "2025-11-01"}}, f.inv.transitions)
}

func TestManualLoan_NotAvailable(t *testing.T) {
	f := newFixture(onLoanItem("HMD-001", "Quest 3", "山田", "2025-10-10"))
	_, err := f.svc.ManualLoan(context.Background(), "管理者A", ManualLoanRequest{
		ItemID: "HMD-001", BorrowerName: "鈴木",
	})
	requireCode(t, err, apperr.CodeConflict)
}

func TestPending_RejectsUnknownOp(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Pending(context.Background(), Op("admin_loan"))
	requireCode(t, err, apperr.CodeInvalidArgument)
}
