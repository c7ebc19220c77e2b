package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type CheckoutRailMock struct{ mock.Mock }

func (m *CheckoutRailMock) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (CheckoutSession, error) {
	args := m.Called(ctx, in)
	s, _ := args.Get(0).(CheckoutSession)
	return s, args.Error(1)
}

func (m *CheckoutRailMock) ListCharges(ctx context.Context, from, to time.Time, limit int) ([]Charge, error) {
	args := m.Called(ctx, from, to, limit)
	c, _ := args.Get(0).([]Charge)
	return c, args.Error(1)
}

func (m *CheckoutRailMock) RefundCharge(ctx context.Context, chargeID string) (string, error) {
	args := m.Called(ctx, chargeID)
	return args.String(0), args.Error(1)
}

func railHistogramCount(t *testing.T, reader *sdkmetric.ManualReader) map[string]uint64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]uint64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "payment_rail_call_duration_seconds" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Histogram[float64]).DataPoints {
				op, _ := dp.Attributes.Value("operation")
				st, _ := dp.Attributes.Value("status")
				out[op.AsString()+"/"+st.AsString()] += dp.Count
			}
		}
	}
	return out
}

func TestObservableCheckoutRail_RecordsCalls(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := metrics.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	inner := &CheckoutRailMock{}
	inner.On("RefundCharge", mock.Anything, "pi_ok").Return("re_1", nil).Once()
	inner.On("RefundCharge", mock.Anything, "pi_ng").Return("", errors.New("declined")).Once()

	rail := NewObservableCheckoutRail(inner, m)

	id, err := rail.RefundCharge(context.Background(), "pi_ok")
	require.NoError(t, err)
	assert.Equal(t, "re_1", id)

	_, err = rail.RefundCharge(context.Background(), "pi_ng")
	assert.EqualError(t, err, "declined")

	counts := railHistogramCount(t, reader)
	assert.Equal(t, uint64(1), counts["refund_charge/success"])
	assert.Equal(t, uint64(1), counts["refund_charge/error"])
	inner.AssertExpectations(t)
}

func TestObservableCheckoutRail_PassesThroughResults(t *testing.T) {
	inner := &CheckoutRailMock{}
	charges := []Charge{{ID: "pi_1", AmountReceived: 100}}
	inner.On("ListCharges", mock.Anything, mock.Anything, mock.Anything, SearchPageSize).Return(charges, nil)

	rail := NewObservableCheckoutRail(inner, metrics.Noop())
	got, err := rail.ListCharges(context.Background(), time.Now(), time.Now(), SearchPageSize)

	require.NoError(t, err)
	assert.Equal(t, charges, got)
}
