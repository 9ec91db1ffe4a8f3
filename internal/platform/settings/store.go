package settings

import (
	"context"
	"database/sql"
	"errors"
)

// settings テーブルは key-value 2列。元データのシート config と同じ形。
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	const q = `SELECT setting_value FROM settings WHERE setting_key = ?`
	var v string
	err := s.db.QueryRowContext(ctx, q, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO settings (setting_key, setting_value)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value)`
	_, err := s.db.ExecContext(ctx, q, key, value)
	return err
}
