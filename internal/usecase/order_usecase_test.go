package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/payment"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Placement
// =====================

func TestPlaceCOD_CreatesPlacedUnpaidOrderAndClearsCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	o, err := e.order.PlaceCOD(ctx, ownerID, teeOrder())
	require.NoError(t, err)

	stored := e.get(t, o.ID)
	assert.Equal(t, model.OrderStatusPlaced, stored.Status)
	assert.False(t, stored.Payment)
	assert.Equal(t, model.PaymentMethodCOD, stored.PaymentMethod)
	assert.Equal(t, 500.0, stored.Amount)
	assert.Equal(t, ownerID, stored.OwnerID)
	assert.True(t, baseTime.Equal(stored.Date))
	require.Len(t, stored.Items, 1)
	assert.Equal(t, model.OrderItem{ProductID: "p1", Name: "Tee", Price: 225, Size: "M", Quantity: 2, Images: []string{"tee.png"}}, stored.Items[0])
	assert.Equal(t, "Pune", stored.Address.City)

	acc, err := e.accounts.FindByID(ctx, ownerID)
	require.NoError(t, err)
	assert.True(t, acc.Cart.IsEmpty())

	e.checkout.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	e.hosted.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceCOD_Validation(t *testing.T) {
	cases := []struct {
		name   string
		owner  string
		in     usecase.PlaceOrderInput
		status int
	}{
		{name: "no session", owner: "", in: teeOrder(), status: http.StatusUnauthorized},
		{name: "no items", owner: ownerID, in: usecase.PlaceOrderInput{}, status: http.StatusBadRequest},
		{name: "zero quantity", owner: ownerID, in: usecase.PlaceOrderInput{Items: []usecase.PlaceItemInput{{ProductID: "p1", Size: "M"}}}, status: http.StatusBadRequest},
		{name: "unknown product", owner: ownerID, in: usecase.PlaceOrderInput{Items: []usecase.PlaceItemInput{{ProductID: "nope", Quantity: 1}}}, status: http.StatusBadRequest},
		{name: "unknown size", owner: ownerID, in: usecase.PlaceOrderInput{Items: []usecase.PlaceItemInput{{ProductID: "p1", Size: "XXL", Quantity: 1}}}, status: http.StatusBadRequest},
		{name: "amount mismatch", owner: ownerID, in: usecase.PlaceOrderInput{Items: []usecase.PlaceItemInput{{ProductID: "p2", Quantity: 1}}, Amount: 120}, status: http.StatusConflict},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEnv(t)

			_, err := e.order.PlaceCOD(context.Background(), c.owner, c.in)

			assertHTTPError(t, err, c.status)
			orders, _ := e.orders.List(context.Background(), repo.OrderListFilter{})
			assert.Empty(t, orders)
		})
	}
}

func TestPlaceCOD_WithoutClientAmountUsesCatalogTotal(t *testing.T) {
	e := newEnv(t)

	o, err := e.order.PlaceCOD(context.Background(), ownerID, usecase.PlaceOrderInput{
		Items: []usecase.PlaceItemInput{{ProductID: "p2", Quantity: 3}, {ProductID: "p1", Size: "L", Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, 575.0, o.Amount)
	assert.Len(t, o.Items, 2)
}

func TestPlaceCheckout_CreatesSessionWithDeliveryLine(t *testing.T) {
	e := newEnv(t)
	e.checkout.On("CreateCheckoutSession", mock.Anything, payment.CheckoutSessionInput{
		Reference: "id-1",
		Currency:  "inr",
		Lines: []payment.CheckoutLine{
			{Name: "Tee", UnitAmount: 22500, Quantity: 2},
			{Name: "Delivery Charges", UnitAmount: 5000, Quantity: 1},
		},
		SuccessURL: "https://shop.example/verify?success=true&orderId=id-1",
		CancelURL:  "https://shop.example/verify?success=false&orderId=id-1",
	}).Return(payment.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil).Once()

	url, err := e.order.PlaceCheckout(context.Background(), ownerID, teeOrder(), "https://shop.example/")

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_1", url)
	e.checkout.AssertExpectations(t)

	stored := e.get(t, "id-1")
	assert.Equal(t, model.PaymentMethodStripe, stored.PaymentMethod)
	assert.False(t, stored.Payment)

	// カートは検証まで残る
	acc, _ := e.accounts.FindByID(context.Background(), ownerID)
	assert.False(t, acc.Cart.IsEmpty())
}

func TestPlaceCheckout_RequiresOrigin(t *testing.T) {
	e := newEnv(t)

	_, err := e.order.PlaceCheckout(context.Background(), ownerID, teeOrder(), "  ")

	assertHTTPError(t, err, http.StatusBadRequest)
	e.checkout.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestPlaceCheckout_RailFailureKeepsOrder(t *testing.T) {
	e := newEnv(t)
	e.checkout.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(payment.CheckoutSession{}, payment.ErrRail).Once()

	_, err := e.order.PlaceCheckout(context.Background(), ownerID, teeOrder(), "https://shop.example")

	assertHTTPError(t, err, http.StatusBadGateway)
	stored := e.get(t, "id-1")
	assert.False(t, stored.Payment)
}

func TestPlaceHostedOrder_UsesOrderIDAsReceipt(t *testing.T) {
	e := newEnv(t)
	handle := payment.HostedOrder{ID: "order_R1", Amount: 50000, Currency: "INR", Receipt: "id-1"}
	e.hosted.On("CreateOrder", mock.Anything, int64(50000), "INR", "id-1").Return(handle, nil).Once()

	got, err := e.order.PlaceHostedOrder(context.Background(), ownerID, teeOrder())

	require.NoError(t, err)
	assert.Equal(t, handle, got)
	e.hosted.AssertExpectations(t)

	stored := e.get(t, "id-1")
	assert.Equal(t, model.PaymentMethodRazorpay, stored.PaymentMethod)
	assert.Equal(t, model.OrderStatusPlaced, stored.Status)
	assert.False(t, stored.Payment)
}

func TestPlace_RailNotConfigured(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewOrderUsecase(usecase.Deps{Orders: e.orders, Accounts: e.accounts, IDs: &seqIDs{}})

	_, err := uc.PlaceCheckout(context.Background(), ownerID, teeOrder(), "https://shop.example")
	assertHTTPError(t, err, http.StatusServiceUnavailable)

	_, err = uc.PlaceHostedOrder(context.Background(), ownerID, teeOrder())
	assertHTTPError(t, err, http.StatusServiceUnavailable)
}

// =====================
// Verification
// =====================

func TestVerifyCheckout_SuccessMarksPaidAndClearsCart(t *testing.T) {
	e := newEnv(t)
	o := e.seed(t, model.Order{ID: "o1", PaymentMethod: model.PaymentMethodStripe, Amount: 500})

	paid, err := e.order.VerifyCheckout(context.Background(), ownerID, o.ID, true)

	require.NoError(t, err)
	assert.True(t, paid)
	assert.True(t, e.get(t, o.ID).Payment)
	acc, _ := e.accounts.FindByID(context.Background(), ownerID)
	assert.True(t, acc.Cart.IsEmpty())
}

func TestVerifyCheckout_FailureDeletesOrder(t *testing.T) {
	e := newEnv(t)
	o := e.seed(t, model.Order{ID: "o1", PaymentMethod: model.PaymentMethodStripe, Amount: 500})

	paid, err := e.order.VerifyCheckout(context.Background(), ownerID, o.ID, false)

	require.NoError(t, err)
	assert.False(t, paid)
	_, err = e.orders.FindByID(context.Background(), o.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	acc, _ := e.accounts.FindByID(context.Background(), ownerID)
	assert.False(t, acc.Cart.IsEmpty())
}

func TestVerifyCheckout_OtherOwnersOrderIsNotFound(t *testing.T) {
	e := newEnv(t)
	o := e.seed(t, model.Order{ID: "o1", OwnerID: otherOwner, PaymentMethod: model.PaymentMethodStripe})

	_, err := e.order.VerifyCheckout(context.Background(), ownerID, o.ID, false)

	assertHTTPError(t, err, http.StatusNotFound)
	assert.Equal(t, otherOwner, e.get(t, o.ID).OwnerID)
}

// 代引き・Razorpayの注文はカード決済の戻りで確定できない
func TestVerifyCheckout_RejectsOtherPaymentMethods(t *testing.T) {
	e := newEnv(t)
	e.seed(t, model.Order{ID: "rzp", PaymentMethod: model.PaymentMethodRazorpay, Amount: 500})
	e.seed(t, model.Order{ID: "cod", PaymentMethod: model.PaymentMethodCOD, Amount: 500})

	for _, id := range []string{"rzp", "cod"} {
		paid, err := e.order.VerifyCheckout(context.Background(), ownerID, id, true)
		assertHTTPError(t, err, http.StatusConflict)
		assert.False(t, paid)
		assert.False(t, e.get(t, id).Payment)

		_, err = e.order.VerifyCheckout(context.Background(), ownerID, id, false)
		assertHTTPError(t, err, http.StatusConflict)
		_, err = e.orders.FindByID(context.Background(), id)
		assert.NoError(t, err)
	}
	e.hosted.AssertNotCalled(t, "FetchOrder", mock.Anything, mock.Anything)
}

// 入金済み（キャンセル手続き中）の注文は失敗コールバックでも残す
func TestVerifyCheckout_FailureKeepsPaidOrder(t *testing.T) {
	e := newEnv(t)
	o := e.seed(t, model.Order{ID: "o1", PaymentMethod: model.PaymentMethodStripe, Payment: true, Amount: 500, CancellationStatus: model.CancellationProcessing})

	paid, err := e.order.VerifyCheckout(context.Background(), ownerID, o.ID, false)

	require.NoError(t, err)
	assert.True(t, paid)
	stored := e.get(t, o.ID)
	assert.True(t, stored.Payment)
	assert.Equal(t, model.CancellationProcessing, stored.CancellationStatus)
}

func TestVerifyHostedOrder_OnlyPaidRailStatusMarksPaid(t *testing.T) {
	e := newEnv(t)
	o := e.seed(t, model.Order{ID: "o1", PaymentMethod: model.PaymentMethodRazorpay, Amount: 500})

	e.hosted.On("FetchOrder", mock.Anything, "order_A").
		Return(payment.HostedOrder{ID: "order_A", Receipt: o.ID, Status: "attempted"}, nil).Once()
	paid, err := e.order.VerifyHostedOrder(context.Background(), ownerID, "order_A")
	require.NoError(t, err)
	assert.False(t, paid)
	assert.False(t, e.get(t, o.ID).Payment)

	e.hosted.On("FetchOrder", mock.Anything, "order_B").
		Return(payment.HostedOrder{ID: "order_B", Receipt: o.ID, Status: "paid"}, nil).Once()
	paid, err = e.order.VerifyHostedOrder(context.Background(), ownerID, "order_B")
	require.NoError(t, err)
	assert.True(t, paid)
	assert.True(t, e.get(t, o.ID).Payment)

	acc, _ := e.accounts.FindByID(context.Background(), ownerID)
	assert.True(t, acc.Cart.IsEmpty())
	e.hosted.AssertExpectations(t)
}

func TestVerifyHostedOrder_RailErrorLeavesOrder(t *testing.T) {
	e := newEnv(t)
	o := e.seed(t, model.Order{ID: "o1", PaymentMethod: model.PaymentMethodRazorpay})
	e.hosted.On("FetchOrder", mock.Anything, "order_A").
		Return(payment.HostedOrder{}, errors.New("timeout")).Once()

	_, err := e.order.VerifyHostedOrder(context.Background(), ownerID, "order_A")

	assertHTTPError(t, err, http.StatusBadGateway)
	assert.False(t, e.get(t, o.ID).Payment)
}

// =====================
// Owner views
// =====================

func TestListMyOrders_OnlyCallersOrders(t *testing.T) {
	e := newEnv(t)
	e.seed(t, model.Order{ID: "mine-old", Date: baseTime.Add(-time.Hour)})
	e.seed(t, model.Order{ID: "mine-new"})
	e.seed(t, model.Order{ID: "theirs", OwnerID: otherOwner})

	orders, err := e.order.ListMyOrders(context.Background(), ownerID)

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "mine-new", orders[0].ID)
	assert.Equal(t, "mine-old", orders[1].ID)
}

func TestMyOrderStats(t *testing.T) {
	e := newEnv(t)
	e.seed(t, model.Order{ID: "a", PaymentMethod: model.PaymentMethodCOD})
	e.seed(t, model.Order{ID: "b", PaymentMethod: model.PaymentMethodStripe, Payment: true, CancellationStatus: model.CancellationProcessing})
	e.seed(t, model.Order{ID: "c", OwnerID: otherOwner, PaymentMethod: model.PaymentMethodStripe})

	stats, err := e.order.MyOrderStats(context.Background(), ownerID)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 1, stats.PaidOrders)
	assert.Equal(t, 1, stats.CancelledOrders)
	assert.Equal(t, 1, stats.PaymentMethodStats["COD"])
	assert.Equal(t, 1, stats.PaymentMethodStats["Stripe"])
}

// =====================
// Cancellation request
// =====================

func TestRequestCancellation_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		order  model.Order
		status int
	}{
		{name: "already cancelled", order: model.Order{ID: "o1", Status: model.OrderStatusCancelled}, status: http.StatusConflict},
		{name: "refund issued", order: model.Order{ID: "o1", CancellationStatus: model.CancellationRefunded}, status: http.StatusConflict},
		{name: "already requested", order: model.Order{ID: "o1", CancellationStatus: model.CancellationRequested}, status: http.StatusConflict},
		{name: "processing", order: model.Order{ID: "o1", CancellationStatus: model.CancellationProcessing}, status: http.StatusConflict},
		{name: "someone else's order", order: model.Order{ID: "o1", OwnerID: otherOwner}, status: http.StatusNotFound},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEnv(t)
			before := e.seed(t, c.order)

			err := e.order.RequestCancellation(context.Background(), ownerID, "o1", "Changed my mind")

			assertHTTPError(t, err, c.status)
			after := e.get(t, "o1")
			assert.Equal(t, before.CancellationStatus, after.CancellationStatus)
			assert.Empty(t, after.CancellationReason)
			assert.Equal(t, 0, e.scheduler.Pending())
		})
	}
}

func TestRequestCancellation_SetsRequestedAndSchedulesReview(t *testing.T) {
	e := newEnv(t)
	e.seed(t, model.Order{ID: "o1", PaymentMethod: model.PaymentMethodCOD})

	err := e.order.RequestCancellation(context.Background(), ownerID, "o1", "  Changed my mind ")
	require.NoError(t, err)

	o := e.get(t, "o1")
	assert.Equal(t, model.CancellationRequested, o.CancellationStatus)
	assert.Equal(t, "Changed my mind", o.CancellationReason)
	require.NotNil(t, o.CancellationRequestedAt)
	assert.True(t, baseTime.Equal(*o.CancellationRequestedAt))

	require.Eventually(t, func() bool {
		return e.get(t, "o1").CancellationStatus == model.CancellationProcessing
	}, time.Second, 5*time.Millisecond)
}

// COD注文 → キャンセル要求 → 審査待ち → 返金承認（決済側は呼ばない）
func TestCODCancellationScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	placed, err := e.order.PlaceCOD(ctx, ownerID, teeOrder())
	require.NoError(t, err)
	assert.Equal(t, 500.0, placed.Amount)

	mine, err := e.order.ListMyOrders(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.OrderStatusPlaced, mine[0].Status)
	assert.False(t, mine[0].Payment)

	require.NoError(t, e.order.RequestCancellation(ctx, ownerID, placed.ID, "Changed my mind"))
	assert.Equal(t, model.CancellationRequested, e.get(t, placed.ID).CancellationStatus)

	require.Eventually(t, func() bool {
		return e.get(t, placed.ID).CancellationStatus == model.CancellationProcessing
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, e.admin.ApproveRefund(ctx, operator, placed.ID))

	final := e.get(t, placed.ID)
	assert.Equal(t, model.OrderStatusCancelled, final.Status)
	assert.Equal(t, model.CancellationRefunded, final.CancellationStatus)
	assert.False(t, final.Refunded)

	e.checkout.AssertNotCalled(t, "ListCharges", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	e.checkout.AssertNotCalled(t, "RefundCharge", mock.Anything, mock.Anything)
	e.hosted.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	e.hosted.AssertNotCalled(t, "RefundPayment", mock.Anything, mock.Anything, mock.Anything)
}
