package project

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/shuma0102/LoanLink/internal/platform/apperr"
)

const mysqlErrDupEntry = 1062

type Service struct{ store *Store }

func NewService(conn *sql.DB) *Service {
	return &Service{store: NewStore(conn)}
}

func (s *Service) List(ctx context.Context) ([]ProjectResponse, error) {
	ps, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toResponse(p))
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, req CreateProjectRequest) (*ProjectResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	p := &Project{Name: name, Description: req.Description}
	if err := s.store.Insert(ctx, p); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDupEntry {
			return nil, apperr.Conflict("同名のプロジェクトが既に存在します")
		}
		return nil, err
	}
	resp := toResponse(*p)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, name string) error {
	n, err := s.store.DeleteByName(ctx, name)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("project not found")
	}
	return nil
}
