package analytics

import (
	"strings"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

type Dashboard struct {
	TotalOrders        int                         `json:"totalOrders"`
	PaidOrders         int                         `json:"paidOrders"`
	TotalRevenue       float64                     `json:"totalRevenue"`
	TodayRevenue       float64                     `json:"todayRevenue"`
	PendingPayments    int                         `json:"pendingPayments"`
	ProcessingOrders   int                         `json:"processingOrders"`
	CompletedOrders    int                         `json:"completedOrders"`
	PaymentMethodStats map[model.PaymentMethod]int `json:"paymentMethodStats"`
	OrderStages        StageCounts                 `json:"orderStages"`
}

// BuildDashboard はダッシュボード用の1パス集計
func BuildDashboard(orders []model.Order, now time.Time) Dashboard {
	d := Dashboard{PaymentMethodStats: newMethodStats()}
	today := startOfDay(now)

	revenue := decimal.Zero
	todayRevenue := decimal.Zero

	for _, o := range orders {
		d.TotalOrders++

		if o.Payment {
			d.PaidOrders++
			revenue = revenue.Add(amountOf(o))
			if !o.Date.Before(today) {
				todayRevenue = todayRevenue.Add(amountOf(o))
			}
		} else {
			d.PendingPayments++
		}

		lower := strings.ToLower(string(o.Status))
		if isProcessing(lower) {
			d.ProcessingOrders++
		}
		if isCompleted(lower) {
			d.CompletedOrders++
		}
		d.OrderStages.add(o.Status)

		countMethod(d.PaymentMethodStats, o.PaymentMethod)
	}

	d.TotalRevenue = revenue.InexactFloat64()
	d.TodayRevenue = todayRevenue.InexactFloat64()
	return d
}
