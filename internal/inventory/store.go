package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shuma0102/LoanLink/internal/platform/apperr"
	"github.com/shuma0102/LoanLink/internal/platform/db"
)

const selectCols = `item_id, name, category, note, status, holder, due_date, created_at`

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	var it Item
	if err := row.Scan(&it.ItemID, &it.Name, &it.Category, &it.Note, &it.Status, &it.Holder, &it.DueDate, &it.CreatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Store) List(ctx context.Context) ([]Item, error) {
	const q = `SELECT ` + selectCols + ` FROM inventory ORDER BY item_id`
	return s.queryItems(ctx, q)
}

// GetByID: 見つからないときは (nil, nil)
func (s *Store) GetByID(ctx context.Context, itemID string) (*Item, error) {
	const q = `SELECT ` + selectCols + ` FROM inventory WHERE item_id = ?`
	it, err := scanItem(s.db.QueryRowContext(ctx, q, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Store) AvailableInCategory(ctx context.Context, category string) ([]Item, error) {
	const q = `SELECT ` + selectCols + ` FROM inventory
WHERE category = ? AND status = ? ORDER BY item_id`
	return s.queryItems(ctx, q, category, StatusAvailable)
}

// BorrowedBy: 指定した表示名が現在借りている（申請中含む）機材
func (s *Store) BorrowedBy(ctx context.Context, holder string) ([]Item, error) {
	const q = `SELECT ` + selectCols + ` FROM inventory
WHERE holder = ? AND status IN (?, ?) ORDER BY item_id`
	return s.queryItems(ctx, q, holder, StatusOnLoan, StatusLoanRequested)
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT category FROM inventory WHERE category <> '' ORDER BY category`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetState はステータス・借用者・返却予定日をまとめて更新する
func (s *Store) SetState(ctx context.Context, itemID string, status Status, holder, dueDate string) error {
	n, err := setStateTx(ctx, s.db, itemID, status, holder, dueDate)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("inventory に該当機材が見つかりません")
	}
	return nil
}

func (s *Store) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	const q = `SELECT status, COUNT(*) FROM inventory GROUP BY status ORDER BY status`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StatusCount{}
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// RegisterTx は ID採番と INSERT を1トランザクションで行う（採番の競合対策）
func (s *Store) RegisterTx(ctx context.Context, prefix string, build func(itemID string) *Item) (*Item, error) {
	var created *Item
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		ids, err := listIDsByPrefixTx(ctx, tx, prefix)
		if err != nil {
			return err
		}
		it := build(NextItemID(prefix, ids))
		const q = `
INSERT INTO inventory (item_id, name, category, note, status, holder, due_date, created_at)
VALUES (?, ?, ?, ?, ?, '', '', NOW(6))`
		if _, err := tx.ExecContext(ctx, q, it.ItemID, it.Name, it.Category, it.Note, it.Status); err != nil {
			return err
		}
		created = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// PeekNextID は現在の在庫に対する次のIDを返すだけで、何も書き込まない
func (s *Store) PeekNextID(ctx context.Context, prefix string) (string, error) {
	ids, err := listIDsByPrefixTx(ctx, s.db, prefix)
	if err != nil {
		return "", err
	}
	return NextItemID(prefix, ids), nil
}

func listIDsByPrefixTx(ctx context.Context, tx db.DBTX, prefix string) ([]string, error) {
	const q = `SELECT item_id FROM inventory WHERE item_id LIKE CONCAT(?, '-%')`
	rows, err := tx.QueryContext(ctx, q, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func setStateTx(ctx context.Context, tx db.DBTX, itemID string, status Status, holder, dueDate string) (int64, error) {
	const q = `UPDATE inventory SET status = ?, holder = ?, due_date = ? WHERE item_id = ?`
	res, err := tx.ExecContext(ctx, q, status, holder, dueDate, itemID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) queryItems(ctx context.Context, q string, args ...any) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}
