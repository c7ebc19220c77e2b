package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// カタログの読み取りだけを約束。商品CRUDは別サービス
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (model.Product, error)
	//見つからないIDは結果に含めない
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}
