package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRazorpayTestRail(t *testing.T, h http.HandlerFunc) *RazorpayRail {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewRazorpayRail(RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "secret",
		Timeout:   2 * time.Second,
		BaseURL:   srv.URL,
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestRazorpayRail_CreateOrder(t *testing.T) {
	rail := newRazorpayTestRail(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/orders"), r.URL.Path)

		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(45000), body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "ord_1", body["receipt"])

		writeJSON(t, w, `{"id":"order_rzp_1","entity":"order","amount":45000,"currency":"INR","receipt":"ord_1","status":"created"}`)
	})

	o, err := rail.CreateOrder(context.Background(), 45000, HostedOrderCurrency, "ord_1")

	require.NoError(t, err)
	assert.Equal(t, HostedOrder{ID: "order_rzp_1", Amount: 45000, Currency: "INR", Receipt: "ord_1", Status: "created"}, o)
}

func TestRazorpayRail_FetchOrder(t *testing.T) {
	rail := newRazorpayTestRail(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/orders/order_rzp_1"), r.URL.Path)
		writeJSON(t, w, `{"id":"order_rzp_1","amount":45000,"currency":"INR","receipt":"ord_1","status":"paid"}`)
	})

	o, err := rail.FetchOrder(context.Background(), "order_rzp_1")

	require.NoError(t, err)
	assert.Equal(t, "paid", o.Status)
	assert.Equal(t, "ord_1", o.Receipt)
}

func TestRazorpayRail_ListOrdersAndPayments(t *testing.T) {
	from := time.Unix(1709287200, 0)
	to := from.Add(10 * time.Minute)

	rail := newRazorpayTestRail(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("count"))
		assert.Equal(t, "1709287200", q.Get("from"))
		assert.Equal(t, "1709287800", q.Get("to"))

		switch {
		case strings.HasSuffix(r.URL.Path, "/orders"):
			writeJSON(t, w, `{"entity":"collection","count":2,"items":[
				{"id":"order_a","amount":100,"receipt":"other","status":"paid"},
				{"id":"order_b","amount":45000,"receipt":"ord_1","status":"paid"}]}`)
		case strings.HasSuffix(r.URL.Path, "/payments"):
			writeJSON(t, w, `{"entity":"collection","count":1,"items":[
				{"id":"pay_1","order_id":"order_b","amount":45000,"status":"captured"}]}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	orders, err := rail.ListOrders(context.Background(), from, to, SearchPageSize)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ord_1", orders[1].Receipt)

	payments, err := rail.ListPayments(context.Background(), from, to, SearchPageSize)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, HostedPayment{ID: "pay_1", OrderID: "order_b", Amount: 45000, Status: "captured"}, payments[0])
}

func TestRazorpayRail_RefundPayment(t *testing.T) {
	rail := newRazorpayTestRail(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/payments/pay_1/refund"), r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(45000), body["amount"])

		writeJSON(t, w, `{"id":"rfnd_1","entity":"refund","amount":45000}`)
	})

	id, err := rail.RefundPayment(context.Background(), "pay_1", 45000)

	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", id)
}

func TestRazorpayRail_CanceledContext(t *testing.T) {
	rail := newRazorpayTestRail(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rail.FetchOrder(ctx, "order_rzp_1")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRail)
}

func TestInt64Field(t *testing.T) {
	m := map[string]interface{}{"f": float64(12), "i": 7, "s": "x"}
	assert.Equal(t, int64(12), int64Field(m, "f"))
	assert.Equal(t, int64(7), int64Field(m, "i"))
	assert.Equal(t, int64(0), int64Field(m, "s"))
	assert.Equal(t, int64(0), int64Field(m, "missing"))
}
