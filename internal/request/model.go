package request

import "time"

type Op string

const (
	OpLoan      Op = "loan_request"   // 貸出申請
	OpReturn    Op = "return_request" // 返却申請
	OpAdminLoan Op = "admin_loan"     // 貸出(管理)
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Record は requests テーブルの1行。追記専用で、後から変わるのは Status だけ。
type Record struct {
	RequestID   int64
	RequestULID string
	RequestedAt time.Time
	UserID      string
	UserName    string
	Campus      string
	Op          Op
	ItemID      string
	ItemName    string
	DueDate     string
	Purpose     string
	Comment     string
	Status      Status
}

// User は申請者（JWTクレームから復元される）
type User struct {
	ID   string
	Name string
}

// Campuses は申請フォームの所属キャンパス選択肢
var Campuses = []string{
	"小白川キャンパス",
	"飯田キャンパス",
	"米沢キャンパス",
	"鶴岡キャンパス",
	"その他",
}

const (
	campusUnknown = "不明"
	campusAdmin   = "未設定(管理)"
)
