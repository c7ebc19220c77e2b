package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	domainrepo "storefront/internal/repository"

	"gorm.io/gorm"
)

type accountGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewAccountGormRepository(db *gorm.DB) domainrepo.AccountRepository {
	return &accountGormRepository{db: db}
}

// IDでアカウントを1件取得
func (r *accountGormRepository) FindByID(ctx context.Context, id string) (model.Account, error) {
	var a model.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Account{}, domainrepo.ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// カートを空のJSONに戻す
func (r *accountGormRepository) ClearCart(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cart_data":  "{}",
			"updated_at": time.Now(),
		})

	if res.Error != nil {
		return res.Error
	}
	// 0件更新は「対象がない」
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

func (r *accountGormRepository) ListAll(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&accounts).Error; err != nil {
		return []model.Account{}, err
	}
	return accounts, nil
}
