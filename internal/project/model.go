package project

import "time"

// Project は一括貸出の名義として使うプロジェクト
type Project struct {
	ProjectID   int64
	Name        string
	Description string
	CreatedAt   time.Time
}
