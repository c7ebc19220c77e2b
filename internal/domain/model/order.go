package model

import (
	"strings"
	"time"
)

type PaymentMethod string

const (
	PaymentMethodCOD      PaymentMethod = "COD"
	PaymentMethodStripe   PaymentMethod = "Stripe"
	PaymentMethodRazorpay PaymentMethod = "Razorpay"
)

// 集計時の列挙順（同数なら先勝ち）
var PaymentMethods = []PaymentMethod{PaymentMethodCOD, PaymentMethodStripe, PaymentMethodRazorpay}

// 配送ステータス（表示ラベルそのまま保存する）
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "Order Placed"
	OrderStatusPacking        OrderStatus = "Packing"
	OrderStatusShipping       OrderStatus = "Shipping"
	OrderStatusOutForDelivery OrderStatus = "Out for delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

// 前進方向の5段階。Cancelledは含まない
var ForwardStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusPacking,
	OrderStatusShipping,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

// Rank は前進段階での位置を返す。段階外なら -1
func (s OrderStatus) Rank() int {
	for i, fs := range ForwardStatuses {
		if fs == s {
			return i
		}
	}
	return -1
}

// 旧データの自由文字列も拾うため部分一致で判定する
func (s OrderStatus) IsCancelled() bool {
	return strings.Contains(strings.ToLower(string(s)), "cancelled")
}

type CancellationStatus string

const (
	CancellationNone       CancellationStatus = ""
	CancellationRequested  CancellationStatus = "Cancel Requested"
	CancellationProcessing CancellationStatus = "Processing"
	CancellationRefunded   CancellationStatus = "Refund Issued"
)

// InFlight はキャンセル要求済みで返金前の状態か
func (c CancellationStatus) InFlight() bool {
	return c == CancellationRequested || c == CancellationProcessing
}

type Order struct {
	ID                      string             `gorm:"type:varchar(64);primaryKey" bson:"_id" json:"_id"`
	OwnerID                 string             `gorm:"type:varchar(64);not null;index" bson:"userId" json:"userId"`
	Items                   []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" bson:"items" json:"items"`
	Address                 ShippingAddress    `gorm:"embedded;embeddedPrefix:address_" bson:"address" json:"address"`
	Amount                  float64            `gorm:"not null" bson:"amount" json:"amount"`
	PaymentMethod           PaymentMethod      `gorm:"type:varchar(20);not null;index" bson:"paymentMethod" json:"paymentMethod"`
	Payment                 bool               `gorm:"not null;default:false" bson:"payment" json:"payment"`
	Status                  OrderStatus        `gorm:"type:varchar(40);not null;index" bson:"status" json:"status"`
	CancellationStatus      CancellationStatus `gorm:"type:varchar(40);index" bson:"cancellationStatus,omitempty" json:"cancellationStatus,omitempty"`
	CancellationReason      string             `gorm:"type:text" bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	CancellationRequestedAt *time.Time         `bson:"cancellationRequestedAt,omitempty" json:"cancellationRequestedAt,omitempty"`
	Refunded                bool               `gorm:"not null;default:false" bson:"refunded" json:"refunded"`
	Date                    time.Time          `gorm:"not null;index" bson:"date" json:"date"`
	UpdatedAt               time.Time          `gorm:"not null" bson:"updatedAt" json:"updatedAt"`
}

// OrderPatch は部分更新。nilのフィールドは触らない
type OrderPatch struct {
	Payment                 *bool
	Status                  *OrderStatus
	CancellationStatus      *CancellationStatus
	CancellationReason      *string
	CancellationRequestedAt *time.Time
	Refunded                *bool
}

// Apply はメモリ上の注文にパッチを当てる
func (p OrderPatch) Apply(o *Order) {
	if p.Payment != nil {
		o.Payment = *p.Payment
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.CancellationStatus != nil {
		o.CancellationStatus = *p.CancellationStatus
	}
	if p.CancellationReason != nil {
		o.CancellationReason = *p.CancellationReason
	}
	if p.CancellationRequestedAt != nil {
		t := *p.CancellationRequestedAt
		o.CancellationRequestedAt = &t
	}
	if p.Refunded != nil {
		o.Refunded = *p.Refunded
	}
}

// ItemCount は明細の数量合計
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
