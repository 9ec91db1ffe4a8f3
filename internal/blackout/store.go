package blackout

import (
	"context"
	"database/sql"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Insert(ctx context.Context, r *Rule) error {
	const q = `
INSERT INTO blackouts (kind, name, start_at, end_at, mode, active)
VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, r.Kind, r.Name, r.Start, r.End, r.Mode, r.Active)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

// List は登録順（= 評価順）で全ルールを返す
func (s *Store) List(ctx context.Context) ([]Rule, error) {
	const q = `
SELECT blackout_id, kind, name, start_at, end_at, mode, active
FROM blackouts
ORDER BY blackout_id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Rule{}
	for rows.Next() {
		var r Rule
		var active int
		if err := rows.Scan(&r.ID, &r.Kind, &r.Name, &r.Start, &r.End, &r.Mode, &active); err != nil {
			return nil, err
		}
		r.Active = active != 0
		list = append(list, r)
	}
	return list, rows.Err()
}

// SetActiveByName は名前が一致する最初の1行の有効フラグを更新し、更新件数を返す
func (s *Store) SetActiveByName(ctx context.Context, name string, active bool) (int64, error) {
	const q = `UPDATE blackouts SET active = ? WHERE name = ? ORDER BY blackout_id LIMIT 1`
	res, err := s.db.ExecContext(ctx, q, active, name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeactivateKind は種別内の有効ルールを全て無効化する（新ルール設定前のリセット用）
func (s *Store) DeactivateKind(ctx context.Context, kind Kind) error {
	const q = `UPDATE blackouts SET active = 0 WHERE kind = ? AND active = 1`
	_, err := s.db.ExecContext(ctx, q, kind)
	return err
}

// DeleteByName は名前が一致する最初の1行を削除する
func (s *Store) DeleteByName(ctx context.Context, name string) (int64, error) {
	const q = `DELETE FROM blackouts WHERE name = ? ORDER BY blackout_id LIMIT 1`
	res, err := s.db.ExecContext(ctx, q, name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
