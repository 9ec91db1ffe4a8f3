package blackout

type Kind string

const (
	KindFestival Kind = "festival"
	KindRecruit  Kind = "recruit"
	KindCustom   Kind = "custom"
)

type Mode string

const (
	ModeRecurring Mode = "recurring" // 開始/終了は MM-DD、毎年評価
	ModeOnce      Mode = "once"      // 開始/終了は YYYY-MM-DD
)

// Rule は blackouts テーブルの1行を表す
type Rule struct {
	ID     int64
	Kind   Kind
	Name   string
	Start  string
	End    string
	Mode   Mode
	Active bool
}

// Verdict は「今日は貸出停止か」の判定結果
type Verdict struct {
	Blocked bool
	Label   string // 文化祭 / 新歓 / カスタム名
	Period  string // 人間向けの期間表記
}
