// Package analytics は注文コレクションに対する純粋な集計。
// 取得は呼び出し側（usecase）が行い、ここではI/Oしない。
package analytics

import (
	"strings"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 日次の境界はUTC+05:30固定（リクエストのロケールには依存しない）
var ReportingZone = time.FixedZone("IST", 5*60*60+30*60)

const day = 24 * time.Hour

// StageCounts は配送段階ごとの件数。
// 自由文字列に対する部分一致なので1件が複数段階に数えられることがある
type StageCounts struct {
	Placed         int `json:"placed"`
	Packing        int `json:"packing"`
	Shipping       int `json:"shipping"`
	OutForDelivery int `json:"outForDelivery"`
	Delivered      int `json:"delivered"`
}

func (s *StageCounts) add(status model.OrderStatus) {
	lower := strings.ToLower(string(status))
	if strings.Contains(lower, "placed") {
		s.Placed++
	}
	if strings.Contains(lower, "packing") {
		s.Packing++
	}
	if strings.Contains(lower, "shipping") {
		s.Shipping++
	}
	if strings.Contains(lower, "out for delivery") {
		s.OutForDelivery++
	}
	if strings.Contains(lower, "delivered") {
		s.Delivered++
	}
}

// 決済方法ごとの件数。既知の3種は常にキーを持つ
func newMethodStats() map[model.PaymentMethod]int {
	stats := make(map[model.PaymentMethod]int, len(model.PaymentMethods))
	for _, m := range model.PaymentMethods {
		stats[m] = 0
	}
	return stats
}

func countMethod(stats map[model.PaymentMethod]int, m model.PaymentMethod) {
	if _, ok := stats[m]; ok {
		stats[m]++
	}
}

// startOfDay は基準ゾーンでのその日の0時
func startOfDay(t time.Time) time.Time {
	local := t.In(ReportingZone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, ReportingZone)
}

func isProcessing(lower string) bool {
	return strings.Contains(lower, "processing")
}

func isCompleted(lower string) bool {
	return strings.Contains(lower, "completed") || strings.Contains(lower, "delivered")
}

func amountOf(o model.Order) decimal.Decimal {
	return decimal.NewFromFloat(o.Amount)
}

// 小数2桁に丸める。分母0なら0
func ratio(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	return num.DivRound(den, 2).InexactFloat64()
}
