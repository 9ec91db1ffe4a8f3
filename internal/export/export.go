// Package export は申請ログのCSVエクスポート。
// Excel(Windows)でそのまま開けるよう cp932 で出力する。
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/shuma0102/LoanLink/internal/request"
)

var csvHeader = []string{
	"記録時刻", "ユーザーID", "ユーザー名", "所属キャンパス", "操作",
	"機材ID", "機材名", "返却予定日", "用途・状態", "コメント", "申請ステータス",
}

// Records は申請ログの読み出し（request.Store が満たす）
type Records interface {
	All(ctx context.Context) ([]request.Record, error)
}

type Service struct {
	records Records
}

func NewService(records Records) *Service {
	return &Service{records: records}
}

// RequestsCSV は全申請ログを cp932 の CSV にして返す。
func (s *Service) RequestsCSV(ctx context.Context) ([]byte, error) {
	recs, err := s.records.All(ctx)
	if err != nil {
		return nil, err
	}
	return EncodeRequestsCSV(recs)
}

// EncodeRequestsCSV はレコード列を cp932 CSV に変換する純粋関数。
func EncodeRequestsCSV(recs []request.Record) ([]byte, error) {
	var b bytes.Buffer
	enc := japanese.ShiftJIS.NewEncoder() // Windowsの「ANSI（CP932）」相当
	w := csv.NewWriter(transform.NewWriter(&b, enc))

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range recs {
		row := []string{
			r.RequestedAt.Format(time.DateTime),
			r.UserID, r.UserName, r.Campus, string(r.Op),
			r.ItemID, r.ItemName, r.DueDate, r.Purpose, r.Comment, string(r.Status),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
