package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	memory "storefront/internal/infra/repository"
	"storefront/internal/metrics"
	"storefront/internal/payment"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Rail mocks
// =====================

type CheckoutRailMock struct{ mock.Mock }

func (m *CheckoutRailMock) CreateCheckoutSession(ctx context.Context, in payment.CheckoutSessionInput) (payment.CheckoutSession, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(payment.CheckoutSession), args.Error(1)
}

func (m *CheckoutRailMock) ListCharges(ctx context.Context, from, to time.Time, limit int) ([]payment.Charge, error) {
	args := m.Called(ctx, from, to, limit)
	charges, _ := args.Get(0).([]payment.Charge)
	return charges, args.Error(1)
}

func (m *CheckoutRailMock) RefundCharge(ctx context.Context, chargeID string) (string, error) {
	args := m.Called(ctx, chargeID)
	return args.String(0), args.Error(1)
}

type HostedOrderRailMock struct{ mock.Mock }

func (m *HostedOrderRailMock) CreateOrder(ctx context.Context, amount int64, currency string, receipt string) (payment.HostedOrder, error) {
	args := m.Called(ctx, amount, currency, receipt)
	return args.Get(0).(payment.HostedOrder), args.Error(1)
}

func (m *HostedOrderRailMock) FetchOrder(ctx context.Context, id string) (payment.HostedOrder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(payment.HostedOrder), args.Error(1)
}

func (m *HostedOrderRailMock) ListOrders(ctx context.Context, from, to time.Time, count int) ([]payment.HostedOrder, error) {
	args := m.Called(ctx, from, to, count)
	orders, _ := args.Get(0).([]payment.HostedOrder)
	return orders, args.Error(1)
}

func (m *HostedOrderRailMock) ListPayments(ctx context.Context, from, to time.Time, count int) ([]payment.HostedPayment, error) {
	args := m.Called(ctx, from, to, count)
	payments, _ := args.Get(0).([]payment.HostedPayment)
	return payments, args.Error(1)
}

func (m *HostedOrderRailMock) RefundPayment(ctx context.Context, paymentID string, amount int64) (string, error) {
	args := m.Called(ctx, paymentID, amount)
	return args.String(0), args.Error(1)
}

// =====================
// Clock / ID
// =====================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// =====================
// Test environment
// =====================

const (
	ownerID    = "user-1"
	otherOwner = "user-2"
	operator   = "admin@example.com"
	testDelay  = 20 * time.Millisecond
)

var baseTime = time.Date(2024, 3, 15, 6, 30, 0, 0, time.UTC)

type env struct {
	clock     *fakeClock
	orders    *memory.OrderMemoryRepository
	accounts  *memory.AccountMemoryRepository
	audit     *memory.AuditLogMemoryRepository
	checkout  *CheckoutRailMock
	hosted    *HostedOrderRailMock
	scheduler *usecase.CancellationScheduler

	order     *usecase.OrderUsecase
	admin     *usecase.AdminOrderUsecase
	analytics *usecase.AnalyticsUsecase
}

func newEnv(t *testing.T) *env {
	t.Helper()

	clock := &fakeClock{now: baseTime}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	m := metrics.Noop()

	orders := memory.NewOrderMemoryRepository()
	accounts := memory.NewAccountMemoryRepository(
		model.Account{ID: ownerID, Name: "Asha", Email: "asha@example.com", Cart: model.Cart{"p1": {"M": 2}}},
		model.Account{ID: otherOwner, Name: "Ravi", Email: "ravi@example.com"},
	)
	products := memory.NewProductMemoryRepository(
		model.Product{ID: "p1", Name: "Tee", Price: 225, Images: []string{"tee.png"}, Sizes: []string{"M", "L"}},
		model.Product{ID: "p2", Name: "Cap", Price: 100},
	)
	audit := memory.NewAuditLogMemoryRepository()

	scheduler := usecase.NewCancellationScheduler(orders, testDelay, clock, logger, m)
	t.Cleanup(scheduler.Stop)

	checkout := &CheckoutRailMock{}
	hosted := &HostedOrderRailMock{}

	d := usecase.Deps{
		Tx:             memory.NewTxManagerDirect(orders, audit),
		Orders:         orders,
		Accounts:       accounts,
		Products:       products,
		AuditLogs:      audit,
		Checkout:       checkout,
		Hosted:         hosted,
		Scheduler:      scheduler,
		IDs:            &seqIDs{},
		Clock:          clock,
		Logger:         logger,
		Metrics:        m,
		DeliveryCharge: 50,
		UnpaidOrderTTL: 24 * time.Hour,
	}

	return &env{
		clock:     clock,
		orders:    orders,
		accounts:  accounts,
		audit:     audit,
		checkout:  checkout,
		hosted:    hosted,
		scheduler: scheduler,
		order:     usecase.NewOrderUsecase(d),
		admin:     usecase.NewAdminOrderUsecase(d),
		analytics: usecase.NewAnalyticsUsecase(d),
	}
}

// 2 x Tee(225) + 配送料50 = 500
func teeOrder() usecase.PlaceOrderInput {
	return usecase.PlaceOrderInput{
		Items:   []usecase.PlaceItemInput{{ProductID: "p1", Size: "M", Quantity: 2}},
		Amount:  500,
		Address: model.ShippingAddress{FirstName: "Asha", City: "Pune", Country: "India"},
	}
}

// seed はテスト用の注文を直接保存する
func (e *env) seed(t *testing.T, o model.Order) model.Order {
	t.Helper()
	if o.OwnerID == "" {
		o.OwnerID = ownerID
	}
	if o.Status == "" {
		o.Status = model.OrderStatusPlaced
	}
	if o.Date.IsZero() {
		o.Date = baseTime
	}
	require.NoError(t, e.orders.Create(context.Background(), o))
	return o
}

func (e *env) get(t *testing.T, id string) model.Order {
	t.Helper()
	o, err := e.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

func assertHTTPError(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "want HTTPError, got %v", err) {
		assert.Equal(t, status, he.Status, "message=%q", he.Message)
	}
}
