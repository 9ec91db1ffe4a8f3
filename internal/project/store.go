package project

import (
	"context"
	"database/sql"
)

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func (s *Store) List(ctx context.Context) ([]Project, error) {
	const q = `SELECT project_id, name, description, created_at FROM projects ORDER BY name`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ProjectID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Insert: name は UNIQUE 制約あり（重複は呼び出し側で CONFLICT に変換）
func (s *Store) Insert(ctx context.Context, p *Project) error {
	const q = `INSERT INTO projects (name, description, created_at) VALUES (?, ?, NOW(6))`
	res, err := s.db.ExecContext(ctx, q, p.Name, p.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ProjectID = id
	return nil
}

func (s *Store) DeleteByName(ctx context.Context, name string) (int64, error) {
	const q = `DELETE FROM projects WHERE name = ?`
	res, err := s.db.ExecContext(ctx, q, name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
