package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeConfig struct {
	SecretKey string
	Timeout   time.Duration
	// テスト用にAPIの向き先を差し替える
	BaseURL string
}

type StripeRail struct {
	api *client.API
}

func NewStripeRail(cfg StripeConfig) *StripeRail {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}
	return &StripeRail{api: client.New(cfg.SecretKey, backends)}
}

func (r *StripeRail) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (CheckoutSession, error) {
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(in.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(l.Name),
				},
				UnitAmount: stripe.Int64(l.UnitAmount),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(in.Reference),
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
		LineItems:         lines,
	}
	params.Context = ctx

	s, err := r.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: create checkout session: %v", ErrRail, err)
	}
	return CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (r *StripeRail) ListCharges(ctx context.Context, from, to time.Time, limit int) ([]Charge, error) {
	params := &stripe.PaymentIntentListParams{
		CreatedRange: &stripe.RangeQueryParams{
			GreaterThanOrEqual: from.Unix(),
			LesserThanOrEqual:  to.Unix(),
		},
	}
	params.Limit = stripe.Int64(int64(limit))
	// 1ページのみ（自動ページングしない）
	params.Single = true
	params.Context = ctx

	charges := []Charge{}
	it := r.api.PaymentIntents.List(params)
	for it.Next() {
		pi := it.PaymentIntent()
		charges = append(charges, Charge{
			ID:             pi.ID,
			AmountReceived: pi.AmountReceived,
			Status:         string(pi.Status),
			Created:        time.Unix(pi.Created, 0).UTC(),
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("%w: list payment intents: %v", ErrRail, err)
	}
	return charges, nil
}

func (r *StripeRail) RefundCharge(ctx context.Context, chargeID string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(chargeID),
	}
	params.Context = ctx

	ref, err := r.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create refund: %v", ErrRail, err)
	}
	return ref.ID, nil
}
