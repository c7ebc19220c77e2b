package payment

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MinorUnits は表示通貨の金額を最小単位（paise）に変換する。四捨五入
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}
