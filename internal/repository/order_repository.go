package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// 注文一覧の絞り込み（0値は無条件）
type OrderListFilter struct {
	OwnerID       string
	PaymentMethod model.PaymentMethod
	Paid          *bool
	Before        *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) error
	FindByID(ctx context.Context, id string) (model.Order, error)
	//管理画面・分析用。新しい順
	List(ctx context.Context, f OrderListFilter) ([]model.Order, error)
	ListByCancellationStatus(ctx context.Context, status model.CancellationStatus) ([]model.Order, error)

	//部分更新。updatedAtも進める
	Update(ctx context.Context, id string, patch model.OrderPatch, now time.Time) error

	//現在の取消ステータスがfromのときだけtoへ進める（CAS）
	//進めたらtrue、既に別の状態ならfalse
	AdvanceCancellation(ctx context.Context, id string, from, to model.CancellationStatus, now time.Time) (bool, error)

	Delete(ctx context.Context, id string) error
}
