package inventory

import "time"

type Status string

const (
	StatusAvailable       Status = "available"        // 貸出可
	StatusLoanRequested   Status = "loan_requested"   // 貸出申請中
	StatusOnLoan          Status = "on_loan"          // 貸出中
	StatusReturnRequested Status = "return_requested" // 返却申請中
)

// Item は inventory テーブルの1行を表す。
// 不変条件: Holder が空 ⇔ Status が available。
type Item struct {
	ItemID    string
	Name      string
	Category  string
	Note      string
	Status    Status
	Holder    string
	DueDate   string // YYYY-MM-DD、未定なら空
	CreatedAt time.Time
}
