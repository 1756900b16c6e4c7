package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/config"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// scanner 同时覆盖 *sql.Row 与 *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// queryContext 返回单条语句使用的超时上下文
func (r *Repository) queryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// txContext 返回整个事务使用的超时上下文
func (r *Repository) txContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
}
