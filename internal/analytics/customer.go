package analytics

import (
	"time"

	"storefront/internal/domain/model"
)

// 一覧外の決済方法のキー
const OtherPaymentMethod = "Other"

type CustomerOrderStats struct {
	TotalOrders        int            `json:"totalOrders"`
	PaidOrders         int            `json:"paidOrders"`
	CancelledOrders    int            `json:"cancelledOrders"`
	RefundedOrders     int            `json:"refundedOrders"`
	PaymentMethodStats map[string]int `json:"paymentMethodStats"`
	LastOrderDate      *time.Time     `json:"lastOrderDate"`
}

// BuildCustomerStats は1アカウント分の注文集計。
// 取消中（Cancel Requested / Processing）も取消として数える
func BuildCustomerStats(orders []model.Order) CustomerOrderStats {
	s := CustomerOrderStats{PaymentMethodStats: map[string]int{OtherPaymentMethod: 0}}
	for _, m := range model.PaymentMethods {
		s.PaymentMethodStats[string(m)] = 0
	}

	for _, o := range orders {
		s.TotalOrders++
		if o.Payment {
			s.PaidOrders++
		}
		if o.Status.IsCancelled() || o.CancellationStatus.InFlight() {
			s.CancelledOrders++
		}
		if o.Refunded || o.CancellationStatus == model.CancellationRefunded {
			s.RefundedOrders++
		}

		if _, ok := s.PaymentMethodStats[string(o.PaymentMethod)]; ok && o.PaymentMethod != "" {
			s.PaymentMethodStats[string(o.PaymentMethod)]++
		} else {
			s.PaymentMethodStats[OtherPaymentMethod]++
		}

		if s.LastOrderDate == nil || o.Date.After(*s.LastOrderDate) {
			d := o.Date
			s.LastOrderDate = &d
		}
	}
	return s
}

// GroupByOwner は注文をアカウントIDごとに分ける
func GroupByOwner(orders []model.Order) map[string][]model.Order {
	out := map[string][]model.Order{}
	for _, o := range orders {
		out[o.OwnerID] = append(out[o.OwnerID], o)
	}
	return out
}
