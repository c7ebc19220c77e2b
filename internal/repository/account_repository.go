package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// アカウント側で注文エンジンが触るのはカートのクリアと一覧だけ
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (model.Account, error)
	//カートを空にする。存在しなければErrNotFound
	ClearCart(ctx context.Context, id string) error
	//分析・顧客一覧用
	ListAll(ctx context.Context) ([]model.Account, error)
}
