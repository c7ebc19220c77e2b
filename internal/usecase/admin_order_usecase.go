package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/payment"
	repo "storefront/internal/repository"
)

// 返金照合で注文日時の前後に見る幅
const reconciliationWindow = 5 * time.Minute

var errRailNotConfigured = errors.New("payment rail not configured")

// 返金時の結果ラベル（メトリクス用）
const (
	refundOutcomeRefunded  = "refunded"
	refundOutcomeNoMatch   = "no_match"
	refundOutcomeRailError = "rail_error"
	refundOutcomeRejected  = "rejected"
)

type AdminOrderUsecase struct {
	d Deps
}

func NewAdminOrderUsecase(d Deps) *AdminOrderUsecase {
	return &AdminOrderUsecase{d: d.withDefaults()}
}

// 注文一覧（新しい順）
func (u *AdminOrderUsecase) List(ctx context.Context) ([]model.Order, error) {
	orders, err := u.d.Orders.List(ctx, repo.OrderListFilter{})
	if err != nil {
		return []model.Order{}, errDB()
	}
	return orders, nil
}

// UpdateStatus は配送ステータスを前に進める。
// 取消済み・配達済みの注文、同じ値、後戻りは拒否
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor, orderID, status string) error {
	if actor == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid orderId")
	}
	target := model.OrderStatus(strings.TrimSpace(status))
	if target.Rank() < 0 {
		return NewHTTPError(http.StatusBadRequest, "Invalid status")
	}

	return u.d.Tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errOrderNotFound()
		}
		if err != nil {
			return errDB()
		}

		// 終端ガード
		if o.Status.IsCancelled() {
			return NewHTTPError(http.StatusConflict, "Cannot update a cancelled order")
		}
		if o.Status == model.OrderStatusDelivered {
			return NewHTTPError(http.StatusConflict, "Order already delivered")
		}
		if o.Status == target {
			return NewHTTPError(http.StatusConflict, "Order already has this status")
		}
		//段階外の旧データからはどこへでも進められる
		if o.Status.Rank() > target.Rank() {
			return NewHTTPError(http.StatusConflict, "Cannot move order status backward")
		}

		now := u.d.Clock.Now()
		if err := r.Orders().Update(ctx, o.ID, model.OrderPatch{Status: &target}, now); err != nil {
			return errDB()
		}

		return u.audit(ctx, r, actor, model.AuditActionUpdateOrderStatus, o.ID,
			map[string]any{"status": o.Status},
			map[string]any{"status": target},
			now,
		)
	})
}

// ApproveRefund はProcessingの注文について返金を確定する。
// 代引きは決済側を呼ばない。オンライン決済は時間窓で先方の取引を探して返金する
func (u *AdminOrderUsecase) ApproveRefund(ctx context.Context, actor, orderID string) error {
	if actor == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid orderId")
	}

	o, err := u.d.Orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return errOrderNotFound()
	}
	if err != nil {
		return errDB()
	}

	method := string(o.PaymentMethod)
	if o.CancellationStatus != model.CancellationProcessing {
		u.d.Metrics.RecordRefund(ctx, method, refundOutcomeRejected)
		return NewHTTPError(http.StatusConflict, "Refund can only be approved while cancellation is processing")
	}

	var (
		railRefundID string
		refunded     bool
	)
	switch {
	case o.PaymentMethod == model.PaymentMethodCOD:
		//お金は動いていない

	case o.PaymentMethod == model.PaymentMethodStripe && o.Payment:
		railRefundID, err = u.refundCheckout(ctx, o)
		if err != nil {
			return err
		}
		refunded = true

	case o.PaymentMethod == model.PaymentMethodRazorpay && o.Payment:
		railRefundID, err = u.refundHostedOrder(ctx, o)
		if err != nil {
			return err
		}
		refunded = true

	default:
		u.d.Metrics.RecordRefund(ctx, method, refundOutcomeRejected)
		return NewHTTPError(http.StatusConflict, "Order is not eligible for refund")
	}

	cancelled := model.OrderStatusCancelled
	issued := model.CancellationRefunded
	patch := model.OrderPatch{Status: &cancelled, CancellationStatus: &issued}
	if refunded {
		patch.Refunded = &refunded
	}

	err = u.d.Tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.d.Clock.Now()
		if err := r.Orders().Update(ctx, o.ID, patch, now); err != nil {
			return errDB()
		}
		return u.audit(ctx, r, actor, model.AuditActionApproveRefund, o.ID,
			map[string]any{"status": o.Status, "cancellationStatus": o.CancellationStatus, "refunded": o.Refunded},
			map[string]any{"status": cancelled, "cancellationStatus": issued, "refunded": refunded || o.Refunded, "railRefundId": railRefundID},
			now,
		)
	})
	if err != nil {
		//先方の返金は済んでいるので手で合わせられるようIDを残す
		u.d.Logger.ErrorContext(ctx, "refund issued but order update failed",
			slog.String("order_id", o.ID),
			slog.String("rail_refund_id", railRefundID),
			slog.String("error", err.Error()),
		)
		return err
	}

	if u.d.Scheduler != nil {
		u.d.Scheduler.Cancel(o.ID)
	}
	u.d.Metrics.RecordRefund(ctx, method, refundOutcomeRefunded)
	u.d.Metrics.RecordCancellationTransition(ctx, string(issued))
	u.d.Logger.InfoContext(ctx, "refund approved",
		slog.String("order_id", o.ID),
		slog.String("payment_method", method),
		slog.String("rail_refund_id", railRefundID),
	)
	return nil
}

// 受領額が注文金額と一致する決済を探して返金
func (u *AdminOrderUsecase) refundCheckout(ctx context.Context, o model.Order) (string, error) {
	method := string(o.PaymentMethod)
	if u.d.Checkout == nil {
		return "", NewHTTPError(http.StatusServiceUnavailable, "card payments are not available")
	}

	from, to := o.Date.Add(-reconciliationWindow), o.Date.Add(reconciliationWindow)
	charges, err := u.d.Checkout.ListCharges(ctx, from, to, payment.SearchPageSize)
	if err != nil {
		return "", u.railFailure(ctx, o, "list charges", err)
	}

	match := matchCharge(charges, payment.MinorUnits(o.Amount))
	if match == nil {
		return "", u.noMatch(ctx, o, method)
	}

	refundID, err := u.d.Checkout.RefundCharge(ctx, match.ID)
	if err != nil {
		return "", u.railFailure(ctx, o, "refund charge", err)
	}
	return refundID, nil
}

// receiptが注文IDで支払済みの先方注文 → その注文の支払い、の順に辿って返金
func (u *AdminOrderUsecase) refundHostedOrder(ctx context.Context, o model.Order) (string, error) {
	method := string(o.PaymentMethod)
	if u.d.Hosted == nil {
		return "", NewHTTPError(http.StatusServiceUnavailable, "online payments are not available")
	}

	from, to := o.Date.Add(-reconciliationWindow), o.Date.Add(reconciliationWindow)
	railOrders, err := u.d.Hosted.ListOrders(ctx, from, to, payment.SearchPageSize)
	if err != nil {
		return "", u.railFailure(ctx, o, "list orders", err)
	}

	railOrder := matchPaidRailOrder(railOrders, o.ID)
	if railOrder == nil {
		return "", u.noMatch(ctx, o, method)
	}

	payments, err := u.d.Hosted.ListPayments(ctx, from, to, payment.SearchPageSize)
	if err != nil {
		return "", u.railFailure(ctx, o, "list payments", err)
	}

	var pay *payment.HostedPayment
	for i := range payments {
		if payments[i].OrderID == railOrder.ID {
			pay = &payments[i]
			break
		}
	}
	if pay == nil {
		return "", u.noMatch(ctx, o, method)
	}

	refundID, err := u.d.Hosted.RefundPayment(ctx, pay.ID, pay.Amount)
	if err != nil {
		return "", u.railFailure(ctx, o, "refund payment", err)
	}
	return refundID, nil
}

func matchCharge(charges []payment.Charge, want int64) *payment.Charge {
	for i := range charges {
		if charges[i].AmountReceived == want {
			return &charges[i]
		}
	}
	return nil
}

func matchPaidRailOrder(railOrders []payment.HostedOrder, orderID string) *payment.HostedOrder {
	for i := range railOrders {
		if railOrders[i].Receipt == orderID && railOrders[i].Status == railOrderPaid {
			return &railOrders[i]
		}
	}
	return nil
}

// capturedAtRail は先方で入金済みかを返金と同じ時間窓で調べる。
// レール未設定は確認できないのでエラー
func (u *AdminOrderUsecase) capturedAtRail(ctx context.Context, o model.Order) (bool, error) {
	from, to := o.Date.Add(-reconciliationWindow), o.Date.Add(reconciliationWindow)
	switch o.PaymentMethod {
	case model.PaymentMethodStripe:
		if u.d.Checkout == nil {
			return false, errRailNotConfigured
		}
		charges, err := u.d.Checkout.ListCharges(ctx, from, to, payment.SearchPageSize)
		if err != nil {
			return false, err
		}
		return matchCharge(charges, payment.MinorUnits(o.Amount)) != nil, nil

	case model.PaymentMethodRazorpay:
		if u.d.Hosted == nil {
			return false, errRailNotConfigured
		}
		railOrders, err := u.d.Hosted.ListOrders(ctx, from, to, payment.SearchPageSize)
		if err != nil {
			return false, err
		}
		return matchPaidRailOrder(railOrders, o.ID) != nil, nil
	}
	return false, nil
}

func (u *AdminOrderUsecase) railFailure(ctx context.Context, o model.Order, step string, err error) error {
	u.d.Metrics.RecordRefund(ctx, string(o.PaymentMethod), refundOutcomeRailError)
	u.d.Logger.WarnContext(ctx, "refund rail call failed",
		slog.String("order_id", o.ID),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
	return errRail()
}

func (u *AdminOrderUsecase) noMatch(ctx context.Context, o model.Order, method string) error {
	u.d.Metrics.RecordRefund(ctx, method, refundOutcomeNoMatch)
	u.d.Logger.WarnContext(ctx, "no matching rail transaction for refund, manual follow-up needed",
		slog.String("order_id", o.ID),
		slog.String("payment_method", method),
		slog.Float64("amount", o.Amount),
		slog.Time("order_date", o.Date),
	)
	return NewHTTPError(http.StatusNotFound, "No matching payment found for refund")
}

// SettleCOD は配達済みの代引き注文を入金済みにする
func (u *AdminOrderUsecase) SettleCOD(ctx context.Context, actor, orderID string) error {
	if actor == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid orderId")
	}

	return u.d.Tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errOrderNotFound()
		}
		if err != nil {
			return errDB()
		}

		if o.PaymentMethod != model.PaymentMethodCOD {
			return NewHTTPError(http.StatusBadRequest, "Only COD orders can be settled")
		}
		if o.Status.IsCancelled() || o.CancellationStatus != model.CancellationNone {
			return NewHTTPError(http.StatusConflict, "Cannot settle a cancelled order")
		}
		if o.Status != model.OrderStatusDelivered {
			return NewHTTPError(http.StatusConflict, "Order must be delivered before settlement")
		}
		if o.Payment {
			return NewHTTPError(http.StatusConflict, "Order already settled")
		}

		now := u.d.Clock.Now()
		paid := true
		if err := r.Orders().Update(ctx, o.ID, model.OrderPatch{Payment: &paid}, now); err != nil {
			return errDB()
		}
		return u.audit(ctx, r, actor, model.AuditActionSettleCOD, o.ID,
			map[string]any{"payment": false},
			map[string]any{"payment": true},
			now,
		)
	})
}

// ProcessCancellation は審査待ちを待たずにProcessingへ進める
func (u *AdminOrderUsecase) ProcessCancellation(ctx context.Context, actor, orderID string) error {
	if actor == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid orderId")
	}

	err := u.d.Tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.d.Clock.Now()
		ok, err := r.Orders().AdvanceCancellation(ctx, orderID, model.CancellationRequested, model.CancellationProcessing, now)
		if errors.Is(err, repo.ErrNotFound) {
			return errOrderNotFound()
		}
		if err != nil {
			return errDB()
		}
		if !ok {
			return NewHTTPError(http.StatusConflict, "No pending cancellation request")
		}
		return u.audit(ctx, r, actor, model.AuditActionProcessCancellation, orderID,
			map[string]any{"cancellationStatus": model.CancellationRequested},
			map[string]any{"cancellationStatus": model.CancellationProcessing},
			now,
		)
	})
	if err != nil {
		return err
	}

	if u.d.Scheduler != nil {
		u.d.Scheduler.Cancel(orderID)
	}
	u.d.Metrics.RecordCancellationTransition(ctx, string(model.CancellationProcessing))
	return nil
}

// SweepUnpaid は一定時間入金されないままのオンライン決済注文を消す。
// キャンセル手続き中のものは残す。消した件数を返す
func (u *AdminOrderUsecase) SweepUnpaid(ctx context.Context, actor string) (int, error) {
	if actor == "" {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if u.d.UnpaidOrderTTL <= 0 {
		return 0, NewHTTPError(http.StatusServiceUnavailable, "unpaid order sweep is disabled")
	}

	cutoff := u.d.Clock.Now().Add(-u.d.UnpaidOrderTTL)
	unpaid := false

	var stale []model.Order
	for _, m := range []model.PaymentMethod{model.PaymentMethodStripe, model.PaymentMethodRazorpay} {
		orders, err := u.d.Orders.List(ctx, repo.OrderListFilter{PaymentMethod: m, Paid: &unpaid, Before: &cutoff})
		if err != nil {
			return 0, errDB()
		}
		for _, o := range orders {
			if o.CancellationStatus == model.CancellationNone {
				stale = append(stale, o)
			}
		}
	}

	deleted := 0
	for _, o := range stale {
		// 戻りの通知だけ届かず先方で入金済みの注文は残す
		captured, err := u.capturedAtRail(ctx, o)
		if err != nil {
			u.d.Logger.WarnContext(ctx, "unpaid order kept: rail lookup failed",
				slog.String("order_id", o.ID),
				slog.String("payment_method", string(o.PaymentMethod)),
				slog.String("error", err.Error()),
			)
			continue
		}
		if captured {
			u.d.Logger.WarnContext(ctx, "unpaid order has a captured rail payment, kept for reconciliation",
				slog.String("order_id", o.ID),
				slog.String("payment_method", string(o.PaymentMethod)),
				slog.Float64("amount", o.Amount),
			)
			continue
		}

		err = u.d.Tx.WithinTx(ctx, func(r repo.TxRepos) error {
			if err := r.Orders().Delete(ctx, o.ID); err != nil {
				return err
			}
			return u.audit(ctx, r, actor, model.AuditActionSweepUnpaid, o.ID,
				map[string]any{"paymentMethod": o.PaymentMethod, "amount": o.Amount, "date": o.Date},
				nil,
				u.d.Clock.Now(),
			)
		})
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			u.d.Logger.ErrorContext(ctx, "unpaid order sweep stopped",
				slog.String("order_id", o.ID),
				slog.Int("deleted", deleted),
				slog.String("error", err.Error()),
			)
			return deleted, errDB()
		}
		deleted++
	}

	u.d.Logger.InfoContext(ctx, "unpaid orders swept", slog.Int("deleted", deleted), slog.Time("cutoff", cutoff))
	return deleted, nil
}

// AuditTrail は注文の操作履歴（古い順）
func (u *AdminOrderUsecase) AuditTrail(ctx context.Context, orderID string) ([]model.AuditLog, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid orderId")
	}
	logs, err := u.d.AuditLogs.ListByResource(ctx, model.AuditResourceOrder, orderID)
	if err != nil {
		return []model.AuditLog{}, errDB()
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}

// 監査ログ（変更前後はJSON文字列）
func (u *AdminOrderUsecase) audit(ctx context.Context, r repo.TxRepos, actor string, action model.AuditAction, orderID string, before, after map[string]any, now time.Time) error {
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ID:           u.d.IDs.NewID(),
		Actor:        actor,
		Action:       action,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
		CreatedAt:    now,
	}); err != nil {
		return errDB()
	}
	return nil
}

func toJSON(v map[string]any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
