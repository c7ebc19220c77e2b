package usecase

import (
	"context"

	"storefront/internal/analytics"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 集計は取得→純粋な畳み込み。取得に失敗したら何も返さない
type AnalyticsUsecase struct {
	d Deps
}

func NewAnalyticsUsecase(d Deps) *AnalyticsUsecase {
	return &AnalyticsUsecase{d: d.withDefaults()}
}

func (u *AnalyticsUsecase) Dashboard(ctx context.Context) (analytics.Dashboard, error) {
	orders, err := u.d.Orders.List(ctx, repo.OrderListFilter{})
	if err != nil {
		return analytics.Dashboard{}, errDB()
	}
	return analytics.BuildDashboard(orders, u.d.Clock.Now()), nil
}

func (u *AnalyticsUsecase) Full(ctx context.Context) (analytics.Full, error) {
	orders, err := u.d.Orders.List(ctx, repo.OrderListFilter{})
	if err != nil {
		return analytics.Full{}, errDB()
	}
	accounts, err := u.d.Accounts.ListAll(ctx)
	if err != nil {
		return analytics.Full{}, errDB()
	}
	return analytics.BuildFull(orders, accounts, u.d.Clock.Now()), nil
}

// 管理画面の顧客一覧の1行
type CustomerSummary struct {
	ID            string                  `json:"_id"`
	Name          string                  `json:"name"`
	Email         string                  `json:"email"`
	CartLines     int                     `json:"cartItems"`
	WishlistItems int                     `json:"wishlistItems"`
	Addresses     []model.ShippingAddress `json:"address"`
	analytics.CustomerOrderStats
}

// ListCustomers は全アカウントに注文集計を付けて返す（登録順）
func (u *AnalyticsUsecase) ListCustomers(ctx context.Context) ([]CustomerSummary, error) {
	accounts, err := u.d.Accounts.ListAll(ctx)
	if err != nil {
		return []CustomerSummary{}, errDB()
	}
	orders, err := u.d.Orders.List(ctx, repo.OrderListFilter{})
	if err != nil {
		return []CustomerSummary{}, errDB()
	}
	byOwner := analytics.GroupByOwner(orders)

	out := make([]CustomerSummary, 0, len(accounts))
	for _, a := range accounts {
		addresses := a.Addresses
		if addresses == nil {
			addresses = []model.ShippingAddress{}
		}
		out = append(out, CustomerSummary{
			ID:                 a.ID,
			Name:               a.Name,
			Email:              a.Email,
			CartLines:          a.Cart.Lines(),
			WishlistItems:      len(a.Wishlist),
			Addresses:          addresses,
			CustomerOrderStats: analytics.BuildCustomerStats(byOwner[a.ID]),
		})
	}
	return out, nil
}
