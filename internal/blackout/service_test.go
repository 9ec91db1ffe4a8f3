package blackout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEvaluateRules_RecurringBounds(t *testing.T) {
	rules := []Rule{
		{Kind: KindFestival, Name: "文化祭", Start: "10-01", End: "10-05", Mode: ModeRecurring, Active: true},
	}

	cases := []struct {
		name    string
		today   string
		blocked bool
	}{
		{"前日", "2025-09-30", false},
		{"初日", "2025-10-01", true},
		{"期間中", "2025-10-03", true},
		{"最終日", "2025-10-05", true},
		{"翌日", "2025-10-06", false},
		{"翌年も一致する", "2026-10-03", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := EvaluateRules(rules, date(tc.today))
			require.Equal(t, tc.blocked, v.Blocked)
			if tc.blocked {
				require.Equal(t, "文化祭", v.Label)
				require.Equal(t, "10-01〜10-05", v.Period)
			}
		})
	}
}

func TestEvaluateRules_OnceBounds(t *testing.T) {
	rules := []Rule{
		{Kind: KindCustom, Name: "棚卸し", Start: "2025-12-20", End: "2025-12-25", Mode: ModeOnce, Active: true},
	}

	require.False(t, EvaluateRules(rules, date("2025-12-19")).Blocked)
	require.True(t, EvaluateRules(rules, date("2025-12-20")).Blocked)
	require.True(t, EvaluateRules(rules, date("2025-12-25")).Blocked)
	require.False(t, EvaluateRules(rules, date("2025-12-26")).Blocked)
	// 単発ルールは翌年には一致しない
	require.False(t, EvaluateRules(rules, date("2026-12-22")).Blocked)

	v := EvaluateRules(rules, date("2025-12-22"))
	require.Equal(t, "棚卸し", v.Label)
	require.Equal(t, "2025-12-20〜2025-12-25", v.Period)
}

func TestEvaluateRules_CustomWithoutName(t *testing.T) {
	rules := []Rule{
		{Kind: KindCustom, Start: "2025-01-10", End: "2025-01-12", Mode: ModeOnce, Active: true},
	}
	v := EvaluateRules(rules, date("2025-01-11"))
	require.True(t, v.Blocked)
	require.Equal(t, "運営都合", v.Label)
}

func TestEvaluateRules_InactiveSkipped(t *testing.T) {
	rules := []Rule{
		{Kind: KindFestival, Name: "文化祭", Start: "10-01", End: "10-05", Mode: ModeRecurring, Active: false},
	}
	require.False(t, EvaluateRules(rules, date("2025-10-03")).Blocked)
}

func TestEvaluateRules_FirstMatchWins(t *testing.T) {
	rules := []Rule{
		{Kind: KindFestival, Name: "文化祭", Start: "10-01", End: "10-10", Mode: ModeRecurring, Active: true},
		{Kind: KindCustom, Name: "棚卸し", Start: "2025-10-01", End: "2025-10-10", Mode: ModeOnce, Active: true},
	}
	v := EvaluateRules(rules, date("2025-10-05"))
	require.True(t, v.Blocked)
	require.Equal(t, "文化祭", v.Label)
}

// 年またぎの recurring は両端とも today の年に固定されるため、
// 1月側では一致しない。現行仕様として挙動を固定しておく。
func TestEvaluateRules_RecurringYearWrap(t *testing.T) {
	rules := []Rule{
		{Kind: KindRecruit, Name: "新歓", Start: "12-20", End: "01-10", Mode: ModeRecurring, Active: true},
	}
	require.False(t, EvaluateRules(rules, date("2025-12-25")).Blocked)
	require.False(t, EvaluateRules(rules, date("2026-01-05")).Blocked)
}

func TestEvaluateRules_BrokenDatesSkipped(t *testing.T) {
	rules := []Rule{
		{Kind: KindCustom, Name: "壊れた", Start: "not-a-date", End: "2025-10-10", Mode: ModeOnce, Active: true},
		{Kind: KindRecruit, Name: "新歓", Start: "04-01", End: "04-15", Mode: ModeRecurring, Active: true},
	}
	v := EvaluateRules(rules, date("2025-04-10"))
	require.True(t, v.Blocked)
	require.Equal(t, "新歓", v.Label)
}

// mockRuleStore は RuleStore の手書きモック
type mockRuleStore struct {
	rules       []Rule
	inserted    []*Rule
	deactivated []Kind
	setActiveN  int64
	deleteN     int64
}

func (m *mockRuleStore) Insert(ctx context.Context, r *Rule) error {
	r.ID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, r)
	return nil
}
func (m *mockRuleStore) List(ctx context.Context) ([]Rule, error) { return m.rules, nil }
func (m *mockRuleStore) SetActiveByName(ctx context.Context, name string, active bool) (int64, error) {
	return m.setActiveN, nil
}
func (m *mockRuleStore) DeactivateKind(ctx context.Context, kind Kind) error {
	m.deactivated = append(m.deactivated, kind)
	return nil
}
func (m *mockRuleStore) DeleteByName(ctx context.Context, name string) (int64, error) {
	return m.deleteN, nil
}

type recordingNotifier struct {
	announced []string
	notified  []string
}

func (n *recordingNotifier) Announce(ctx context.Context, text string) {
	n.announced = append(n.announced, text)
}
func (n *recordingNotifier) NotifyRequest(ctx context.Context, text string) {
	n.notified = append(n.notified, text)
}

func TestSetFestival_DeactivatesOldRules(t *testing.T) {
	store := &mockRuleStore{}
	notif := &recordingNotifier{}
	svc := &Service{store: store, notify: notif, clock: realClock{}}

	r, err := svc.SetFestival(context.Background(), "10-01", "10-05")
	require.NoError(t, err)
	require.Equal(t, []Kind{KindFestival}, store.deactivated)
	require.Len(t, store.inserted, 1)
	require.Equal(t, ModeRecurring, r.Mode)
	require.True(t, r.Active)
	require.Len(t, notif.announced, 1)
	require.Contains(t, notif.announced[0], "文化祭期間")
}

func TestSetFestival_RejectsBadMonthDay(t *testing.T) {
	svc := &Service{store: &mockRuleStore{}, notify: &recordingNotifier{}, clock: realClock{}}

	_, err := svc.SetFestival(context.Background(), "2025-10-01", "10-05")
	require.Error(t, err)
	_, err = svc.SetFestival(context.Background(), "10-01", "13-05")
	require.Error(t, err)
}

func TestSetActive_NotFound(t *testing.T) {
	svc := &Service{store: &mockRuleStore{setActiveN: 0}, notify: &recordingNotifier{}, clock: realClock{}}
	err := svc.SetActive(context.Background(), "存在しない", true)
	require.Error(t, err)
}

func TestHumanPeriod(t *testing.T) {
	require.Equal(t, "10-01〜10-05（毎年）", HumanPeriod(Rule{Mode: ModeRecurring, Start: "10-01", End: "10-05"}))
	require.Equal(t, "2025-12-20〜2025-12-25", HumanPeriod(Rule{Mode: ModeOnce, Start: "2025-12-20", End: "2025-12-25"}))
}
