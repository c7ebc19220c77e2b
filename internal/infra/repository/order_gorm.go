package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// 明細もあわせて保存される（has many）
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) error {
	return r.db.WithContext(ctx).Create(&order).Error
}

func (r *OrderGormRepository) FindByID(ctx context.Context, id string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Preload("Items")

	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.Paid != nil {
		q = q.Where("payment = ?", *f.Paid)
	}
	if f.Before != nil {
		q = q.Where("date < ?", *f.Before)
	}

	var orders []model.Order
	if err := q.Order("date desc").Find(&orders).Error; err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

func (r *OrderGormRepository) ListByCancellationStatus(ctx context.Context, status model.CancellationStatus) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("cancellation_status = ?", status).
		Order("date asc").
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

func (r *OrderGormRepository) Update(ctx context.Context, id string, patch model.OrderPatch, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Updates(patchColumns(patch, now))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) AdvanceCancellation(ctx context.Context, id string, from, to model.CancellationStatus, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND cancellation_status = ?", id, from).
		Updates(map[string]interface{}{
			"cancellation_status": to,
			"updated_at":          now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	//0件: 注文が無いのか状態が違うのかを区別する
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, repo.ErrNotFound
	}
	return false, nil
}

func (r *OrderGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// nilでない項目だけ列に落とす
func patchColumns(p model.OrderPatch, now time.Time) map[string]interface{} {
	cols := map[string]interface{}{"updated_at": now}
	if p.Payment != nil {
		cols["payment"] = *p.Payment
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.CancellationStatus != nil {
		cols["cancellation_status"] = *p.CancellationStatus
	}
	if p.CancellationReason != nil {
		cols["cancellation_reason"] = *p.CancellationReason
	}
	if p.CancellationRequestedAt != nil {
		cols["cancellation_requested_at"] = *p.CancellationRequestedAt
	}
	if p.Refunded != nil {
		cols["refunded"] = *p.Refunded
	}
	return cols
}
