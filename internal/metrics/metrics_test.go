package metrics

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestNewMetrics(t *testing.T) {
	m, _ := newTestMetrics(t)

	if m.ordersPlacedTotal == nil || m.verificationsTotal == nil || m.refundsTotal == nil {
		t.Fatal("counter is nil")
	}
	if m.cancellationTransitions == nil {
		t.Error("cancellationTransitions is nil")
	}
	if m.railCallDuration == nil {
		t.Error("railCallDuration is nil")
	}
}

func TestRecordOrderPlaced(t *testing.T) {
	t.Run("separates data points by method and status", func(t *testing.T) {
		m, reader := newTestMetrics(t)
		ctx := context.Background()

		m.RecordOrderPlaced(ctx, "COD", true)
		m.RecordOrderPlaced(ctx, "COD", true)
		m.RecordOrderPlaced(ctx, "Stripe", false)

		got, ok := collect(t, reader, "orders_placed_total")
		if !ok {
			t.Fatal("orders_placed_total metric not found")
		}
		sum, ok := got.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
		}

		var total int64
		for _, dp := range sum.DataPoints {
			total += dp.Value
		}
		if total != 3 {
			t.Errorf("Expected total 3, got %d", total)
		}
	})
}

func TestRecordRefund(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordRefund(context.Background(), "Razorpay", "no_match")

	got, ok := collect(t, reader, "refund_approvals_total")
	if !ok {
		t.Fatal("refund_approvals_total metric not found")
	}
	sum := got.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("unexpected data points: %+v", sum.DataPoints)
	}
	if v, ok := sum.DataPoints[0].Attributes.Value("outcome"); !ok || v.AsString() != "no_match" {
		t.Errorf("outcome attribute = %v", v)
	}
}

func TestRecordRailCall(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordRailCall(context.Background(), "stripe", "list_charges", 0.25, true)
	m.RecordRailCall(context.Background(), "stripe", "list_charges", 0.75, true)

	got, ok := collect(t, reader, "payment_rail_call_duration_seconds")
	if !ok {
		t.Fatal("payment_rail_call_duration_seconds metric not found")
	}
	hist, ok := got.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("Expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("Expected 1 data point, got %d", len(hist.DataPoints))
	}
	if hist.DataPoints[0].Count != 2 {
		t.Errorf("Expected count 2, got %d", hist.DataPoints[0].Count)
	}
	if hist.DataPoints[0].Sum != 1.0 {
		t.Errorf("Expected sum 1.0, got %f", hist.DataPoints[0].Sum)
	}
}

func TestNoop(t *testing.T) {
	m := Noop()
	ctx := context.Background()

	// 何も起きないことだけ確認
	m.RecordVerification(ctx, "Stripe", "paid")
	m.RecordCancellationTransition(ctx, "Processing")
}
