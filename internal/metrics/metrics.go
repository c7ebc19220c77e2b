package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type Metrics struct {
	ordersPlacedTotal       metric.Int64Counter
	verificationsTotal      metric.Int64Counter
	refundsTotal            metric.Int64Counter
	cancellationTransitions metric.Int64Counter
	railCallDuration        metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersPlacedTotal, err = meter.Int64Counter(
		"orders_placed_total",
		metric.WithDescription("Total number of order placements by payment method"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_placed_total counter: %w", err)
	}

	m.verificationsTotal, err = meter.Int64Counter(
		"payment_verifications_total",
		metric.WithDescription("Total number of payment verifications by outcome"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payment_verifications_total counter: %w", err)
	}

	m.refundsTotal, err = meter.Int64Counter(
		"refund_approvals_total",
		metric.WithDescription("Total number of refund approvals by outcome"),
		metric.WithUnit("{refund}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create refund_approvals_total counter: %w", err)
	}

	m.cancellationTransitions, err = meter.Int64Counter(
		"cancellation_transitions_total",
		metric.WithDescription("Total number of cancellation status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cancellation_transitions_total counter: %w", err)
	}

	m.railCallDuration, err = meter.Float64Histogram(
		"payment_rail_call_duration_seconds",
		metric.WithDescription("Duration of payment rail API calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payment_rail_call_duration histogram: %w", err)
	}

	return m, nil
}

// Noop は計測しないMetrics（テスト・メトリクス無効時）
func Noop() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Metrics) RecordOrderPlaced(ctx context.Context, method string, success bool) {
	m.ordersPlacedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_method", method),
		attribute.String("status", status(success)),
	))
}

// outcome: paid / failed / discarded
func (m *Metrics) RecordVerification(ctx context.Context, method string, outcome string) {
	m.verificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_method", method),
		attribute.String("outcome", outcome),
	))
}

// outcome: refunded / no_match / rail_error / rejected
func (m *Metrics) RecordRefund(ctx context.Context, method string, outcome string) {
	m.refundsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_method", method),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordCancellationTransition(ctx context.Context, to string) {
	m.cancellationTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("to", to),
	))
}

func (m *Metrics) RecordRailCall(ctx context.Context, rail string, operation string, durationSeconds float64, success bool) {
	m.railCallDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("rail", rail),
		attribute.String("operation", operation),
		attribute.String("status", status(success)),
	))
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
