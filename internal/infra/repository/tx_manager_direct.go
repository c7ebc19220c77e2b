package repository

import (
	"context"

	repo "storefront/internal/repository"
)

// TxManagerDirect はTx無しで順に書く。
// 単体構成のMongoとインメモリ実装で使う（マルチドキュメントTxが無いため）
type TxManagerDirect struct {
	repos *txReposDirect
}

type txReposDirect struct {
	orders    repo.OrderRepository
	auditLogs repo.AuditLogRepository
}

func (r *txReposDirect) Orders() repo.OrderRepository       { return r.orders }
func (r *txReposDirect) AuditLogs() repo.AuditLogRepository { return r.auditLogs }

func NewTxManagerDirect(orders repo.OrderRepository, auditLogs repo.AuditLogRepository) *TxManagerDirect {
	return &TxManagerDirect{repos: &txReposDirect{orders: orders, auditLogs: auditLogs}}
}

func (tm *TxManagerDirect) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(tm.repos)
}
