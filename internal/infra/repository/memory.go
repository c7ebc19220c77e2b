package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// OrderMemoryRepository はローカル開発とテスト用のインメモリ実装
type OrderMemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]model.Order
}

func NewOrderMemoryRepository() *OrderMemoryRepository {
	return &OrderMemoryRepository{orders: make(map[string]model.Order)}
}

func (r *OrderMemoryRepository) Create(_ context.Context, order model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *OrderMemoryRepository) FindByID(_ context.Context, id string) (model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderMemoryRepository) List(_ context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []model.Order{}
	for _, o := range r.orders {
		if f.OwnerID != "" && o.OwnerID != f.OwnerID {
			continue
		}
		if f.PaymentMethod != "" && o.PaymentMethod != f.PaymentMethod {
			continue
		}
		if f.Paid != nil && o.Payment != *f.Paid {
			continue
		}
		if f.Before != nil && !o.Date.Before(*f.Before) {
			continue
		}
		result = append(result, cloneOrder(o))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (r *OrderMemoryRepository) ListByCancellationStatus(_ context.Context, status model.CancellationStatus) ([]model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []model.Order{}
	for _, o := range r.orders {
		if o.CancellationStatus == status {
			result = append(result, cloneOrder(o))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (r *OrderMemoryRepository) Update(_ context.Context, id string, patch model.OrderPatch, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
	patch.Apply(&o)
	o.UpdatedAt = now
	r.orders[id] = o
	return nil
}

func (r *OrderMemoryRepository) AdvanceCancellation(_ context.Context, id string, from, to model.CancellationStatus, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return false, repo.ErrNotFound
	}
	if o.CancellationStatus != from {
		return false, nil
	}
	o.CancellationStatus = to
	o.UpdatedAt = now
	r.orders[id] = o
	return true, nil
}

func (r *OrderMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// 呼び出し側の変更がストアに漏れないようにスライスを複製
func cloneOrder(o model.Order) model.Order {
	c := o
	c.Items = make([]model.OrderItem, len(o.Items))
	for i, it := range o.Items {
		it.Images = append([]string(nil), it.Images...)
		c.Items[i] = it
	}
	if o.CancellationRequestedAt != nil {
		t := *o.CancellationRequestedAt
		c.CancellationRequestedAt = &t
	}
	return c
}

type AccountMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
	order    []string
}

func NewAccountMemoryRepository(accounts ...model.Account) *AccountMemoryRepository {
	r := &AccountMemoryRepository{accounts: make(map[string]model.Account)}
	for _, a := range accounts {
		r.Put(a)
	}
	return r
}

// Put は登録または置き換え
func (r *AccountMemoryRepository) Put(a model.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ID]; !ok {
		r.order = append(r.order, a.ID)
	}
	r.accounts[a.ID] = a
}

func (r *AccountMemoryRepository) FindByID(_ context.Context, id string) (model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return model.Account{}, repo.ErrNotFound
	}
	return a, nil
}

func (r *AccountMemoryRepository) ClearCart(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.Cart = model.Cart{}
	a.UpdatedAt = time.Now()
	r.accounts[id] = a
	return nil
}

func (r *AccountMemoryRepository) ListAll(_ context.Context) ([]model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Account, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.accounts[id])
	}
	return out, nil
}

type ProductMemoryRepository struct {
	mu       sync.RWMutex
	products map[string]model.Product
}

func NewProductMemoryRepository(products ...model.Product) *ProductMemoryRepository {
	r := &ProductMemoryRepository{products: make(map[string]model.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *ProductMemoryRepository) FindByID(_ context.Context, id string) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *ProductMemoryRepository) FindByIDs(_ context.Context, ids []string) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type AuditLogMemoryRepository struct {
	mu   sync.RWMutex
	logs []model.AuditLog
}

func NewAuditLogMemoryRepository() *AuditLogMemoryRepository {
	return &AuditLogMemoryRepository{}
}

func (r *AuditLogMemoryRepository) Create(_ context.Context, log model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *AuditLogMemoryRepository) ListByResource(_ context.Context, resourceType model.AuditResourceType, resourceID string) ([]model.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.AuditLog
	for _, l := range r.logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			out = append(out, l)
		}
	}
	return out, nil
}
