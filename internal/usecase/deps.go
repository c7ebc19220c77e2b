package usecase

import (
	"log/slog"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/payment"
	repo "storefront/internal/repository"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// 注文IDの採番（Mongo構成はObjectID、それ以外はUUID）
type IDGenerator interface {
	NewID() string
}

// Deps は注文エンジンの各usecaseが共有する依存。
// Checkout / Hosted がnilならその決済方法は使えない
type Deps struct {
	Tx        repo.TransactionManager
	Orders    repo.OrderRepository
	Accounts  repo.AccountRepository
	Products  repo.ProductRepository
	AuditLogs repo.AuditLogRepository

	Checkout payment.CheckoutRail
	Hosted   payment.HostedOrderRail

	Scheduler *CancellationScheduler
	IDs       IDGenerator
	Clock     Clock
	Logger    *slog.Logger
	Metrics   *metrics.Metrics

	// 配送料（通貨の主単位）
	DeliveryCharge float64
	// 未決済のオンライン決済注文を掃除するまでの猶予
	UnpaidOrderTTL time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Noop()
	}
	return d
}
