package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"storefront/internal/analytics"
	"storefront/internal/domain/model"
	"storefront/internal/payment"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	deliveryLineName = "Delivery Charges"
	maxReasonLength  = 500
	railOrderPaid    = "paid"
	maxItemsPerOrder = 100
	amountTolerance  = 0.01
)

type OrderUsecase struct {
	d Deps
}

func NewOrderUsecase(d Deps) *OrderUsecase {
	return &OrderUsecase{d: d.withDefaults()}
}

// 明細の入力。名前・価格・画像はカタログから取る
type PlaceItemInput struct {
	ProductID string
	Size      string
	Quantity  int
}

type PlaceOrderInput struct {
	Items []PlaceItemInput
	// クライアントが見ている合計。0なら照合しない
	Amount  float64
	Address model.ShippingAddress
}

// 代引き注文。作成後すぐカートを空にする
func (u *OrderUsecase) PlaceCOD(ctx context.Context, ownerID string, in PlaceOrderInput) (model.Order, error) {
	o, err := u.newOrder(ctx, ownerID, model.PaymentMethodCOD, in)
	if err != nil {
		return model.Order{}, err
	}
	if err := u.d.Orders.Create(ctx, o); err != nil {
		u.d.Metrics.RecordOrderPlaced(ctx, string(model.PaymentMethodCOD), false)
		return model.Order{}, errDB()
	}
	u.d.Metrics.RecordOrderPlaced(ctx, string(model.PaymentMethodCOD), true)

	u.clearCart(ctx, ownerID, o.ID)
	return o, nil
}

// カード決済（リダイレクト型）。決済画面のURLを返す。
// カートのクリアと入金確定は検証時に行う
func (u *OrderUsecase) PlaceCheckout(ctx context.Context, ownerID string, in PlaceOrderInput, origin string) (string, error) {
	if u.d.Checkout == nil {
		return "", NewHTTPError(http.StatusServiceUnavailable, "card payments are not available")
	}
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return "", NewHTTPError(http.StatusBadRequest, "missing origin")
	}

	o, err := u.newOrder(ctx, ownerID, model.PaymentMethodStripe, in)
	if err != nil {
		return "", err
	}
	if err := u.d.Orders.Create(ctx, o); err != nil {
		u.d.Metrics.RecordOrderPlaced(ctx, string(model.PaymentMethodStripe), false)
		return "", errDB()
	}

	lines := make([]payment.CheckoutLine, 0, len(o.Items)+1)
	for _, it := range o.Items {
		lines = append(lines, payment.CheckoutLine{
			Name:       it.Name,
			UnitAmount: payment.MinorUnits(it.Price),
			Quantity:   int64(it.Quantity),
		})
	}
	lines = append(lines, payment.CheckoutLine{
		Name:       deliveryLineName,
		UnitAmount: payment.MinorUnits(u.d.DeliveryCharge),
		Quantity:   1,
	})

	session, err := u.d.Checkout.CreateCheckoutSession(ctx, payment.CheckoutSessionInput{
		Reference:  o.ID,
		Currency:   payment.CheckoutCurrency,
		Lines:      lines,
		SuccessURL: verifyURL(origin, true, o.ID),
		CancelURL:  verifyURL(origin, false, o.ID),
	})
	if err != nil {
		//注文は残る（未決済の掃除で消える）
		u.d.Metrics.RecordOrderPlaced(ctx, string(model.PaymentMethodStripe), false)
		u.d.Logger.ErrorContext(ctx, "checkout session creation failed",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
		return "", errRail()
	}

	u.d.Metrics.RecordOrderPlaced(ctx, string(model.PaymentMethodStripe), true)
	return session.URL, nil
}

// 注文型ゲートウェイ。receiptに注文IDを入れて先方の注文を作る
func (u *OrderUsecase) PlaceHostedOrder(ctx context.Context, ownerID string, in PlaceOrderInput) (payment.HostedOrder, error) {
	if u.d.Hosted == nil {
		return payment.HostedOrder{}, NewHTTPError(http.StatusServiceUnavailable, "online payments are not available")
	}

	o, err := u.newOrder(ctx, ownerID, model.PaymentMethodRazorpay, in)
	if err != nil {
		return payment.HostedOrder{}, err
	}
	if err := u.d.Orders.Create(ctx, o); err != nil {
		u.d.Metrics.RecordOrderPlaced(ctx, string(model.PaymentMethodRazorpay), false)
		return payment.HostedOrder{}, errDB()
	}

	ho, err := u.d.Hosted.CreateOrder(ctx, payment.MinorUnits(o.Amount), payment.HostedOrderCurrency, o.ID)
	if err != nil {
		u.d.Metrics.RecordOrderPlaced(ctx, string(model.PaymentMethodRazorpay), false)
		u.d.Logger.ErrorContext(ctx, "hosted order creation failed",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
		return payment.HostedOrder{}, errRail()
	}

	u.d.Metrics.RecordOrderPlaced(ctx, string(model.PaymentMethodRazorpay), true)
	return ho, nil
}

// VerifyCheckout はリダイレクト戻りのsuccessフラグで確定/破棄する。
// フラグは決済側に照会していない（呼び出し側の申告をそのまま使う）
func (u *OrderUsecase) VerifyCheckout(ctx context.Context, ownerID, orderID string, success bool) (bool, error) {
	if ownerID == "" {
		return false, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return false, NewHTTPError(http.StatusBadRequest, "invalid orderId")
	}

	o, err := u.findOwned(ctx, ownerID, orderID)
	if err != nil {
		return false, err
	}
	// 他の決済方法の注文はこのフラグで確定させない
	if o.PaymentMethod != model.PaymentMethodStripe {
		return false, NewHTTPError(http.StatusConflict, "Order was not placed with card checkout")
	}

	u.d.Logger.WarnContext(ctx, "checkout verification relies on caller-supplied flag",
		slog.String("order_id", o.ID),
		slog.Bool("success", success),
	)

	method := string(model.PaymentMethodStripe)
	if !success {
		// 入金済みの注文は消さない
		if o.Payment {
			u.d.Logger.WarnContext(ctx, "ignoring failed checkout callback for paid order",
				slog.String("order_id", o.ID),
			)
			return true, nil
		}
		if err := u.d.Orders.Delete(ctx, o.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return false, errDB()
		}
		u.d.Metrics.RecordVerification(ctx, method, "discarded")
		return false, nil
	}

	paid := true
	if err := u.d.Orders.Update(ctx, o.ID, model.OrderPatch{Payment: &paid}, u.d.Clock.Now()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, errOrderNotFound()
		}
		return false, errDB()
	}
	u.d.Metrics.RecordVerification(ctx, method, "paid")

	u.clearCart(ctx, ownerID, o.ID)
	return true, nil
}

// VerifyHostedOrder は先方の注文状態を照会し、paidなら入金確定する
func (u *OrderUsecase) VerifyHostedOrder(ctx context.Context, ownerID, railOrderID string) (bool, error) {
	if ownerID == "" {
		return false, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if u.d.Hosted == nil {
		return false, NewHTTPError(http.StatusServiceUnavailable, "online payments are not available")
	}
	railOrderID = strings.TrimSpace(railOrderID)
	if railOrderID == "" {
		return false, NewHTTPError(http.StatusBadRequest, "invalid razorpay_order_id")
	}

	method := string(model.PaymentMethodRazorpay)
	ho, err := u.d.Hosted.FetchOrder(ctx, railOrderID)
	if err != nil {
		u.d.Metrics.RecordVerification(ctx, method, "failed")
		u.d.Logger.WarnContext(ctx, "hosted order lookup failed",
			slog.String("rail_order_id", railOrderID),
			slog.String("error", err.Error()),
		)
		return false, errRail()
	}
	if ho.Status != railOrderPaid {
		u.d.Metrics.RecordVerification(ctx, method, "failed")
		return false, nil
	}

	o, err := u.findOwned(ctx, ownerID, ho.Receipt)
	if err != nil {
		return false, err
	}

	paid := true
	if err := u.d.Orders.Update(ctx, o.ID, model.OrderPatch{Payment: &paid}, u.d.Clock.Now()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, errOrderNotFound()
		}
		return false, errDB()
	}
	u.d.Metrics.RecordVerification(ctx, method, "paid")

	u.clearCart(ctx, ownerID, o.ID)
	return true, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, ownerID string) ([]model.Order, error) {
	if ownerID == "" {
		return []model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orders, err := u.d.Orders.List(ctx, repo.OrderListFilter{OwnerID: ownerID})
	if err != nil {
		return []model.Order{}, errDB()
	}
	return orders, nil
}

func (u *OrderUsecase) MyOrderStats(ctx context.Context, ownerID string) (analytics.CustomerOrderStats, error) {
	orders, err := u.ListMyOrders(ctx, ownerID)
	if err != nil {
		return analytics.CustomerOrderStats{}, err
	}
	return analytics.BuildCustomerStats(orders), nil
}

// RequestCancellation はキャンセル要求を受け付け、審査待ちの遷移を予約する
func (u *OrderUsecase) RequestCancellation(ctx context.Context, ownerID, orderID, reason string) error {
	if ownerID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid orderId")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLength {
		return NewHTTPError(http.StatusBadRequest, "reason too long")
	}

	o, err := u.findOwned(ctx, ownerID, orderID)
	if err != nil {
		return err
	}

	if o.Status.IsCancelled() || o.CancellationStatus == model.CancellationRefunded {
		return NewHTTPError(http.StatusConflict, "Order already cancelled")
	}
	if o.CancellationStatus.InFlight() {
		return NewHTTPError(http.StatusConflict, "Cancellation already requested")
	}

	now := u.d.Clock.Now()
	requested := model.CancellationRequested
	if err := u.d.Orders.Update(ctx, o.ID, model.OrderPatch{
		CancellationStatus:      &requested,
		CancellationReason:      &reason,
		CancellationRequestedAt: &now,
	}, now); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errOrderNotFound()
		}
		return errDB()
	}
	u.d.Metrics.RecordCancellationTransition(ctx, string(requested))

	if u.d.Scheduler != nil {
		u.d.Scheduler.Schedule(o.ID, now)
	}
	return nil
}

// 他人の注文は存在しない扱い
func (u *OrderUsecase) findOwned(ctx context.Context, ownerID, orderID string) (model.Order, error) {
	o, err := u.d.Orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, errOrderNotFound()
	}
	if err != nil {
		return model.Order{}, errDB()
	}
	if o.OwnerID != ownerID {
		return model.Order{}, errOrderNotFound()
	}
	return o, nil
}

// newOrder は入力を検証し、カタログから明細を写して注文を組み立てる
func (u *OrderUsecase) newOrder(ctx context.Context, ownerID string, method model.PaymentMethod, in PlaceOrderInput) (model.Order, error) {
	if ownerID == "" {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "no items")
	}
	if len(in.Items) > maxItemsPerOrder {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "too many items")
	}

	ids := make([]string, 0, len(in.Items))
	seen := map[string]bool{}
	for _, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
		}
		if it.Quantity < 1 {
			return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	products, err := u.d.Products.FindByIDs(ctx, ids)
	if err != nil {
		return model.Order{}, errDB()
	}
	catalog := make(map[string]model.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	items := make([]model.OrderItem, 0, len(in.Items))
	total := decimal.Zero
	for _, it := range in.Items {
		p, ok := catalog[it.ProductID]
		if !ok {
			return model.Order{}, NewHTTPError(http.StatusBadRequest, "product not found: "+it.ProductID)
		}
		if !p.HasSize(it.Size) {
			return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid size for "+p.Name)
		}
		items = append(items, model.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Images:    append([]string(nil), p.Images...),
		})
		total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	total = total.Add(decimal.NewFromFloat(u.d.DeliveryCharge))
	amount := total.Round(2).InexactFloat64()

	//価格はカタログ側が正。クライアントの表示と食い違えば作り直してもらう
	if in.Amount > 0 && decimal.NewFromFloat(in.Amount).Sub(total).Abs().GreaterThanOrEqual(decimal.NewFromFloat(amountTolerance)) {
		return model.Order{}, NewHTTPError(http.StatusConflict, fmt.Sprintf("amount mismatch: expected %.2f", amount))
	}

	now := u.d.Clock.Now()
	return model.Order{
		ID:            u.d.IDs.NewID(),
		OwnerID:       ownerID,
		Items:         items,
		Address:       in.Address,
		Amount:        amount,
		PaymentMethod: method,
		Payment:       false,
		Status:        model.OrderStatusPlaced,
		Date:          now,
		UpdatedAt:     now,
	}, nil
}

// カートのクリアは注文の書き込みとは別。失敗してもログだけ
func (u *OrderUsecase) clearCart(ctx context.Context, ownerID, orderID string) {
	if err := u.d.Accounts.ClearCart(ctx, ownerID); err != nil {
		u.d.Logger.WarnContext(ctx, "cart clear failed",
			slog.String("user_id", ownerID),
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}

func verifyURL(origin string, success bool, orderID string) string {
	return fmt.Sprintf("%s/verify?success=%t&orderId=%s", origin, success, url.QueryEscape(orderID))
}
