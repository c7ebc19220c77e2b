package payment

import (
	"context"
	"errors"
	"time"
)

var ErrRail = errors.New("payment rail error")

const (
	// カード決済（リダイレクト型）の通貨
	CheckoutCurrency = "inr"
	// 注文型ゲートウェイの通貨
	HostedOrderCurrency = "INR"

	// 返金照合で1ページだけ取る件数
	SearchPageSize = 20
)

type CheckoutLine struct {
	Name       string
	UnitAmount int64 // 最小通貨単位
	Quantity   int64
}

type CheckoutSessionInput struct {
	Reference  string
	Currency   string
	Lines      []CheckoutLine
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// 決済意図（PaymentIntent）の照合に使う部分だけ
type Charge struct {
	ID             string
	AmountReceived int64
	Status         string
	Created        time.Time
}

// CheckoutRail はリダイレクト型カード決済（Stripe）
type CheckoutRail interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (CheckoutSession, error)
	//作成時刻が[from, to]の決済を1ページだけ返す
	ListCharges(ctx context.Context, from, to time.Time, limit int) ([]Charge, error)
	//返金IDを返す
	RefundCharge(ctx context.Context, chargeID string) (string, error)
}

type HostedOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status,omitempty"`
}

type HostedPayment struct {
	ID      string
	OrderID string
	Amount  int64
	Status  string
}

// HostedOrderRail は注文型ゲートウェイ（Razorpay）
type HostedOrderRail interface {
	CreateOrder(ctx context.Context, amount int64, currency string, receipt string) (HostedOrder, error)
	FetchOrder(ctx context.Context, id string) (HostedOrder, error)
	ListOrders(ctx context.Context, from, to time.Time, count int) ([]HostedOrder, error)
	ListPayments(ctx context.Context, from, to time.Time, count int) ([]HostedPayment, error)
	RefundPayment(ctx context.Context, paymentID string, amount int64) (string, error)
}
