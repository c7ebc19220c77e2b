package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/razorpay/razorpay-go"
)

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	Timeout   time.Duration
	BaseURL   string
}

// SDKはcontextを受けないので、呼び出しごとにgoroutineで待つ
type RazorpayRail struct {
	client *razorpay.Client
}

func NewRazorpayRail(cfg RazorpayConfig) *RazorpayRail {
	c := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	// 各リソースは同じRequestを共有している
	c.Order.Request.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	if cfg.BaseURL != "" {
		c.Order.Request.BaseURL = cfg.BaseURL
	}
	return &RazorpayRail{client: c}
}

func (r *RazorpayRail) CreateOrder(ctx context.Context, amount int64, currency string, receipt string) (HostedOrder, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := withContext(ctx, func() (map[string]interface{}, error) {
		return r.client.Order.Create(data, nil)
	})
	if err != nil {
		return HostedOrder{}, fmt.Errorf("%w: create order: %v", ErrRail, err)
	}
	return hostedOrderFromMap(body), nil
}

func (r *RazorpayRail) FetchOrder(ctx context.Context, id string) (HostedOrder, error) {
	body, err := withContext(ctx, func() (map[string]interface{}, error) {
		return r.client.Order.Fetch(id, nil, nil)
	})
	if err != nil {
		return HostedOrder{}, fmt.Errorf("%w: fetch order: %v", ErrRail, err)
	}
	return hostedOrderFromMap(body), nil
}

func (r *RazorpayRail) ListOrders(ctx context.Context, from, to time.Time, count int) ([]HostedOrder, error) {
	params := map[string]interface{}{
		"from":  from.Unix(),
		"to":    to.Unix(),
		"count": count,
	}
	body, err := withContext(ctx, func() (map[string]interface{}, error) {
		return r.client.Order.All(params, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", ErrRail, err)
	}

	items := collectionItems(body)
	out := make([]HostedOrder, 0, len(items))
	for _, it := range items {
		out = append(out, hostedOrderFromMap(it))
	}
	return out, nil
}

func (r *RazorpayRail) ListPayments(ctx context.Context, from, to time.Time, count int) ([]HostedPayment, error) {
	params := map[string]interface{}{
		"from":  from.Unix(),
		"to":    to.Unix(),
		"count": count,
	}
	body, err := withContext(ctx, func() (map[string]interface{}, error) {
		return r.client.Payment.All(params, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list payments: %v", ErrRail, err)
	}

	items := collectionItems(body)
	out := make([]HostedPayment, 0, len(items))
	for _, it := range items {
		out = append(out, HostedPayment{
			ID:      stringField(it, "id"),
			OrderID: stringField(it, "order_id"),
			Amount:  int64Field(it, "amount"),
			Status:  stringField(it, "status"),
		})
	}
	return out, nil
}

func (r *RazorpayRail) RefundPayment(ctx context.Context, paymentID string, amount int64) (string, error) {
	data := map[string]interface{}{"speed": "normal"}
	body, err := withContext(ctx, func() (map[string]interface{}, error) {
		return r.client.Payment.Refund(paymentID, int(amount), data, nil)
	})
	if err != nil {
		return "", fmt.Errorf("%w: refund payment: %v", ErrRail, err)
	}
	return stringField(body, "id"), nil
}

// ctxが先に終わったらSDKの応答を待たずに返す
func withContext[T any](ctx context.Context, call func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := call()
		ch <- result{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		return res.v, res.err
	}
}

func hostedOrderFromMap(m map[string]interface{}) HostedOrder {
	return HostedOrder{
		ID:       stringField(m, "id"),
		Amount:   int64Field(m, "amount"),
		Currency: stringField(m, "currency"),
		Receipt:  stringField(m, "receipt"),
		Status:   stringField(m, "status"),
	}
}

func collectionItems(m map[string]interface{}) []map[string]interface{} {
	raw, ok := m["items"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, v := range raw {
		if item, ok := v.(map[string]interface{}); ok {
			out = append(out, item)
		}
	}
	return out
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// JSONの数値はfloat64で来る
func int64Field(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
