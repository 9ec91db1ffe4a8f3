package request

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shuma0102/LoanLink/internal/platform/apperr"
	"github.com/shuma0102/LoanLink/internal/platform/db"
)

const selectCols = `request_id, request_ulid, requested_at, user_id, user_name, campus,
	op, item_id, item_name, due_date, purpose, comment, status`

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func (s *Store) Append(ctx context.Context, r *Record) error {
	const q = `
INSERT INTO requests
	(request_ulid, requested_at, user_id, user_name, campus, op, item_id, item_name, due_date, purpose, comment, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		r.RequestULID, r.RequestedAt, r.UserID, r.UserName, r.Campus,
		r.Op, r.ItemID, r.ItemName, r.DueDate, r.Purpose, r.Comment, r.Status,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.RequestID = id
	return nil
}

// GetByID: 見つからないときは (nil, nil)
func (s *Store) GetByID(ctx context.Context, requestID int64) (*Record, error) {
	const q = `SELECT ` + selectCols + ` FROM requests WHERE request_id = ?`
	r, err := scanRecord(s.db.QueryRowContext(ctx, q, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Pending は承認待ちを古い順で返す
func (s *Store) Pending(ctx context.Context, op Op) ([]Record, error) {
	const q = `SELECT ` + selectCols + ` FROM requests
WHERE op = ? AND status = ? ORDER BY request_id`
	return s.queryRecords(ctx, q, op, StatusSubmitted)
}

// Recent は直近の申請ログを新しい順で返す
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `SELECT ` + selectCols + ` FROM requests ORDER BY request_id DESC LIMIT ?`
	return s.queryRecords(ctx, q, limit)
}

// UpdateStatus はステータス列のみを書き換える（行自体は消さない）
func (s *Store) UpdateStatus(ctx context.Context, requestID int64, status Status) error {
	const q = `UPDATE requests SET status = ? WHERE request_id = ?`
	res, err := s.db.ExecContext(ctx, q, status, requestID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("request not found")
	}
	return nil
}

// LoanHistory は機材×ユーザーの貸出申請履歴を新しい順で返す（キャンパス推定用）
func (s *Store) LoanHistory(ctx context.Context, itemID, userName string) ([]Record, error) {
	const q = `SELECT ` + selectCols + ` FROM requests
WHERE op = ? AND item_id = ? AND user_name = ?
ORDER BY request_id DESC`
	return s.queryRecords(ctx, q, OpLoan, itemID, userName)
}

// All は全申請ログを古い順で返す（CSVエクスポート用）。
// 読み取り専用Txで取得し、エクスポート中の追記が混ざらないようにする。
func (s *Store) All(ctx context.Context) ([]Record, error) {
	const q = `SELECT ` + selectCols + ` FROM requests ORDER BY request_id`
	var out []Record
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		rows, err := tx.QueryContext(ctx, q)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				return err
			}
			out = append(out, *r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanRecord(row interface{ Scan(...any) error }) (*Record, error) {
	var r Record
	if err := row.Scan(
		&r.RequestID, &r.RequestULID, &r.RequestedAt, &r.UserID, &r.UserName, &r.Campus,
		&r.Op, &r.ItemID, &r.ItemName, &r.DueDate, &r.Purpose, &r.Comment, &r.Status,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) queryRecords(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
