package payment

import (
	"context"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
)

const (
	railStripe   = "stripe"
	railRazorpay = "razorpay"
)

// span開始・計測・エラー記録をまとめる
func observe(ctx context.Context, m *metrics.Metrics, rail, op string, attrs []attribute.KeyValue, call func(ctx context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, rail+"."+op)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs,
		attribute.String("rail", rail),
		attribute.String("operation", op),
	)...)

	start := time.Now()
	err := call(ctx)
	m.RecordRailCall(ctx, rail, op, time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}
	telemetry.SetSpanSuccess(span)
	return nil
}

type ObservableCheckoutRail struct {
	rail    CheckoutRail
	metrics *metrics.Metrics
}

func NewObservableCheckoutRail(rail CheckoutRail, m *metrics.Metrics) *ObservableCheckoutRail {
	return &ObservableCheckoutRail{rail: rail, metrics: m}
}

func (r *ObservableCheckoutRail) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (CheckoutSession, error) {
	var out CheckoutSession
	err := observe(ctx, r.metrics, railStripe, "create_checkout_session",
		[]attribute.KeyValue{attribute.String("order.id", in.Reference)},
		func(ctx context.Context) error {
			var err error
			out, err = r.rail.CreateCheckoutSession(ctx, in)
			return err
		})
	return out, err
}

func (r *ObservableCheckoutRail) ListCharges(ctx context.Context, from, to time.Time, limit int) ([]Charge, error) {
	var out []Charge
	err := observe(ctx, r.metrics, railStripe, "list_charges",
		[]attribute.KeyValue{attribute.Int("limit", limit)},
		func(ctx context.Context) error {
			var err error
			out, err = r.rail.ListCharges(ctx, from, to, limit)
			return err
		})
	return out, err
}

func (r *ObservableCheckoutRail) RefundCharge(ctx context.Context, chargeID string) (string, error) {
	var out string
	err := observe(ctx, r.metrics, railStripe, "refund_charge",
		[]attribute.KeyValue{attribute.String("charge.id", chargeID)},
		func(ctx context.Context) error {
			var err error
			out, err = r.rail.RefundCharge(ctx, chargeID)
			return err
		})
	return out, err
}

type ObservableHostedOrderRail struct {
	rail    HostedOrderRail
	metrics *metrics.Metrics
}

func NewObservableHostedOrderRail(rail HostedOrderRail, m *metrics.Metrics) *ObservableHostedOrderRail {
	return &ObservableHostedOrderRail{rail: rail, metrics: m}
}

func (r *ObservableHostedOrderRail) CreateOrder(ctx context.Context, amount int64, currency string, receipt string) (HostedOrder, error) {
	var out HostedOrder
	err := observe(ctx, r.metrics, railRazorpay, "create_order",
		[]attribute.KeyValue{attribute.String("order.id", receipt)},
		func(ctx context.Context) error {
			var err error
			out, err = r.rail.CreateOrder(ctx, amount, currency, receipt)
			return err
		})
	return out, err
}

func (r *ObservableHostedOrderRail) FetchOrder(ctx context.Context, id string) (HostedOrder, error) {
	var out HostedOrder
	err := observe(ctx, r.metrics, railRazorpay, "fetch_order",
		[]attribute.KeyValue{attribute.String("rail_order.id", id)},
		func(ctx context.Context) error {
			var err error
			out, err = r.rail.FetchOrder(ctx, id)
			return err
		})
	return out, err
}

func (r *ObservableHostedOrderRail) ListOrders(ctx context.Context, from, to time.Time, count int) ([]HostedOrder, error) {
	var out []HostedOrder
	err := observe(ctx, r.metrics, railRazorpay, "list_orders", nil,
		func(ctx context.Context) error {
			var err error
			out, err = r.rail.ListOrders(ctx, from, to, count)
			return err
		})
	return out, err
}

func (r *ObservableHostedOrderRail) ListPayments(ctx context.Context, from, to time.Time, count int) ([]HostedPayment, error) {
	var out []HostedPayment
	err := observe(ctx, r.metrics, railRazorpay, "list_payments", nil,
		func(ctx context.Context) error {
			var err error
			out, err = r.rail.ListPayments(ctx, from, to, count)
			return err
		})
	return out, err
}

func (r *ObservableHostedOrderRail) RefundPayment(ctx context.Context, paymentID string, amount int64) (string, error) {
	var out string
	err := observe(ctx, r.metrics, railRazorpay, "refund_payment",
		[]attribute.KeyValue{attribute.String("payment.id", paymentID)},
		func(ctx context.Context) error {
			var err error
			out, err = r.rail.RefundPayment(ctx, paymentID, amount)
			return err
		})
	return out, err
}
