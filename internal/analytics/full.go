package analytics

import (
	"sort"
	"strings"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

const (
	topProductLimit = 5
	dailySeriesDays = 7
	noPaymentMethod = "N/A"
)

type ProductSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type MonthRevenue struct {
	Month string  `json:"month"` // YYYY-MM
	Total float64 `json:"total"`
}

type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD（基準ゾーン）
	Count int    `json:"count"`
}

type Full struct {
	TotalOrders           int                         `json:"totalOrders"`
	PaidOrders            int                         `json:"paidOrders"`
	UnpaidOrders          int                         `json:"unpaidOrders"`
	TotalRevenue          float64                     `json:"totalRevenue"`
	TodayRevenue          float64                     `json:"todayRevenue"`
	YesterdayRevenue      float64                     `json:"yesterdayRevenue"`
	AvgOrderValue         float64                     `json:"avgOrderValue"`
	AvgItemsPerOrder      float64                     `json:"avgItemsPerOrder"`
	ProcessingOrders      int                         `json:"processingOrders"`
	CompletedOrders       int                         `json:"completedOrders"`
	FailedOrders          int                         `json:"failedOrders"`
	CancelledOrders       int                         `json:"cancelledOrders"`
	OrderStages           StageCounts                 `json:"orderStages"`
	PaymentMethodStats    map[model.PaymentMethod]int `json:"paymentMethodStats"`
	MostUsedPaymentMethod string                      `json:"mostUsedPaymentMethod"`
	UniqueBuyers          int                         `json:"uniqueBuyers"`
	RepeatBuyers          int                         `json:"repeatBuyers"`
	TopProducts           []ProductSales              `json:"topProducts"`
	MonthlyRevenue        []MonthRevenue              `json:"monthlyRevenue"`
	DailyOrders           []DailyCount                `json:"dailyOrders"`
	AbandonedCarts        int                         `json:"abandonedCarts"`
	ConversionRate        float64                     `json:"conversionRate"`
}

// BuildFull は詳細分析。accountsは放棄カートの数だけに使う
func BuildFull(orders []model.Order, accounts []model.Account, now time.Time) Full {
	f := Full{
		PaymentMethodStats:    newMethodStats(),
		MostUsedPaymentMethod: noPaymentMethod,
		TopProducts:           []ProductSales{},
		MonthlyRevenue:        []MonthRevenue{},
	}

	today := startOfDay(now)
	tomorrow := today.Add(day)
	yesterday := today.Add(-day)

	revenue := decimal.Zero
	todayRevenue := decimal.Zero
	yesterdayRevenue := decimal.Zero
	monthly := map[string]decimal.Decimal{}
	perDay := map[string]int{}
	buyers := map[string]int{}

	// 初出順を保ったまま数量を積む（同数の並びは初出順）
	var productOrder []string
	productQty := map[string]int{}
	totalItems := 0

	for _, o := range orders {
		f.TotalOrders++

		date := o.Date
		if date.IsZero() {
			date = now
		}
		perDay[date.In(ReportingZone).Format(time.DateOnly)]++

		if o.OwnerID != "" {
			buyers[o.OwnerID]++
		}

		if o.Payment {
			f.PaidOrders++
			amt := amountOf(o)
			revenue = revenue.Add(amt)
			if !date.Before(today) && date.Before(tomorrow) {
				todayRevenue = todayRevenue.Add(amt)
			}
			if !date.Before(yesterday) && date.Before(today) {
				yesterdayRevenue = yesterdayRevenue.Add(amt)
			}
			key := date.UTC().Format("2006-01")
			monthly[key] = monthly[key].Add(amt)
		} else {
			f.UnpaidOrders++
		}

		lower := strings.ToLower(string(o.Status))
		if isProcessing(lower) {
			f.ProcessingOrders++
		}
		if isCompleted(lower) {
			f.CompletedOrders++
		}
		if strings.Contains(lower, "failed") {
			f.FailedOrders++
		}
		if strings.Contains(lower, "cancelled") {
			f.CancelledOrders++
		}
		f.OrderStages.add(o.Status)

		countMethod(f.PaymentMethodStats, o.PaymentMethod)

		for _, it := range o.Items {
			if it.Name == "" || it.Quantity == 0 {
				continue
			}
			if _, seen := productQty[it.Name]; !seen {
				productOrder = append(productOrder, it.Name)
			}
			productQty[it.Name] += it.Quantity
			totalItems += it.Quantity
		}
	}

	f.TotalRevenue = revenue.InexactFloat64()
	f.TodayRevenue = todayRevenue.InexactFloat64()
	f.YesterdayRevenue = yesterdayRevenue.InexactFloat64()

	for _, n := range buyers {
		f.UniqueBuyers++
		if n > 1 {
			f.RepeatBuyers++
		}
	}

	f.TopProducts = topProducts(productOrder, productQty)
	f.MonthlyRevenue = monthlyRevenue(monthly)

	f.AvgOrderValue = ratio(revenue, decimal.NewFromInt(int64(f.PaidOrders)))
	f.AvgItemsPerOrder = ratio(decimal.NewFromInt(int64(totalItems)), decimal.NewFromInt(int64(f.TotalOrders)))

	f.MostUsedPaymentMethod = mostUsed(f.PaymentMethodStats)

	for _, a := range accounts {
		if !a.Cart.IsEmpty() {
			f.AbandonedCarts++
		}
	}
	visitors := f.TotalOrders + f.AbandonedCarts
	f.ConversionRate = ratio(decimal.NewFromInt(int64(f.TotalOrders*100)), decimal.NewFromInt(int64(visitors)))

	f.DailyOrders = dailySeries(perDay, now)
	return f
}

func topProducts(names []string, qty map[string]int) []ProductSales {
	out := make([]ProductSales, 0, len(names))
	for _, n := range names {
		out = append(out, ProductSales{Name: n, Quantity: qty[n]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity > out[j].Quantity
	})
	if len(out) > topProductLimit {
		out = out[:topProductLimit]
	}
	return out
}

// キーはゼロ埋めのYYYY-MMなので文字列順＝暦順
func monthlyRevenue(m map[string]decimal.Decimal) []MonthRevenue {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]MonthRevenue, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthRevenue{Month: k, Total: m[k].InexactFloat64()})
	}
	return out
}

// 列挙順で走査し、厳密に多いときだけ入れ替える（同数は先勝ち）
func mostUsed(stats map[model.PaymentMethod]int) string {
	best, bestCount := noPaymentMethod, 0
	for _, m := range model.PaymentMethods {
		if stats[m] > bestCount {
			best, bestCount = string(m), stats[m]
		}
	}
	return best
}

// 古い日から今日までの7日分
func dailySeries(perDay map[string]int, now time.Time) []DailyCount {
	today := startOfDay(now)
	out := make([]DailyCount, 0, dailySeriesDays)
	for i := dailySeriesDays - 1; i >= 0; i-- {
		key := today.AddDate(0, 0, -i).Format(time.DateOnly)
		out = append(out, DailyCount{Date: key, Count: perDay[key]})
	}
	return out
}
