package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/shuma0102/LoanLink/internal/request"
)

func decodeCP932CSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder()))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestEncodeRequestsCSV(t *testing.T) {
	recs := []request.Record{
		{
			RequestedAt: time.Date(2025, 10, 1, 12, 30, 0, 0, time.UTC),
			UserID:      "u100",
			UserName:    "山田",
			Campus:      "小白川キャンパス",
			Op:          request.OpLoan,
			ItemID:      "HMD-001",
			ItemName:    "Quest 3",
			DueDate:     "2025-10-10",
			Purpose:     "[個人] 授業で使用",
			Status:      request.StatusSubmitted,
		},
		{
			RequestedAt: time.Date(2025, 10, 2, 9, 0, 0, 0, time.UTC),
			UserID:      "u100",
			UserName:    "山田",
			Campus:      "不明",
			Op:          request.OpReturn,
			ItemID:      "HMD-001",
			ItemName:    "Quest 3",
			Purpose:     "返却",
			Comment:     "文化祭期間（10-01〜10-05）のため自動却下",
			Status:      request.StatusRejected,
		},
	}

	data, err := EncodeRequestsCSV(recs)
	require.NoError(t, err)

	rows := decodeCP932CSV(t, data)
	require.Len(t, rows, 3)
	require.Equal(t, []string{
		"記録時刻", "ユーザーID", "ユーザー名", "所属キャンパス", "操作",
		"機材ID", "機材名", "返却予定日", "用途・状態", "コメント", "申請ステータス",
	}, rows[0])
	require.Equal(t, []string{
		"2025-10-01 12:30:00", "u100", "山田", "小白川キャンパス", "loan_request",
		"HMD-001", "Quest 3", "2025-10-10", "[個人] 授業で使用", "", "submitted",
	}, rows[1])
	require.Equal(t, "文化祭期間（10-01〜10-05）のため自動却下", rows[2][9])
}

func TestEncodeRequestsCSV_Empty(t *testing.T) {
	data, err := EncodeRequestsCSV(nil)
	require.NoError(t, err)
	rows := decodeCP932CSV(t, data)
	require.Len(t, rows, 1) // ヘッダのみ
}
