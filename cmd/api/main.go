package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/idgen"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/metrics"
	"storefront/internal/payment"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/telemetry"
	"storefront/internal/usecase"

	"github.com/joho/godotenv"
)

var version = "dev"

// 永続化まわりの部品一式
type store struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	accounts  repo.AccountRepository
	products  repo.ProductRepository
	auditLogs repo.AuditLogRepository
	ids       usecase.IDGenerator
	close     func(context.Context) error
}

func main() {
	//.envは無くてもよい（本番は環境変数のみ）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := telemetry.NewLogger(telemetry.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	//OpenTelemetry（送り先が無ければnoop）
	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.GoEnv,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	m, err := metrics.NewMetrics(tel.Meter(cfg.ServiceName))
	if err != nil {
		return err
	}

	//DB接続
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logger.Warn("store close failed", slog.String("error", err.Error()))
		}
	}()
	logger.Info("store ready", slog.String("driver", cfg.StoreDriver))

	//決済レール（キー未設定なら無効）
	var checkout payment.CheckoutRail
	if cfg.StripeSecretKey != "" {
		checkout = payment.NewObservableCheckoutRail(payment.NewStripeRail(payment.StripeConfig{
			SecretKey: cfg.StripeSecretKey,
			Timeout:   cfg.RailTimeout,
		}), m)
	} else {
		logger.Warn("STRIPE_SECRET_KEY is not set; card checkout disabled")
	}
	var hosted payment.HostedOrderRail
	if cfg.RazorpayKeyID != "" {
		hosted = payment.NewObservableHostedOrderRail(payment.NewRazorpayRail(payment.RazorpayConfig{
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
			Timeout:   cfg.RailTimeout,
		}), m)
	} else {
		logger.Warn("RAZORPAY_KEY_ID is not set; razorpay disabled")
	}

	clock := usecase.SystemClock{}

	//キャンセル審査のタイマー。再起動前の要求も拾い直す
	scheduler := usecase.NewCancellationScheduler(st.orders, cfg.CancelReviewDelay, clock, logger, m)
	defer scheduler.Stop()
	resumed, err := scheduler.Resume(ctx)
	if err != nil {
		return err
	}
	logger.Info("cancellation reviews resumed", slog.Int("count", resumed))

	//Usecase生成
	d := usecase.Deps{
		Tx:             st.tx,
		Orders:         st.orders,
		Accounts:       st.accounts,
		Products:       st.products,
		AuditLogs:      st.auditLogs,
		Checkout:       checkout,
		Hosted:         hosted,
		Scheduler:      scheduler,
		IDs:            st.ids,
		Clock:          clock,
		Logger:         logger,
		Metrics:        m,
		DeliveryCharge: cfg.DeliveryCharge,
		UnpaidOrderTTL: cfg.UnpaidOrderTTL,
	}
	orderUC := usecase.NewOrderUsecase(d)
	adminUC := usecase.NewAdminOrderUsecase(d)
	analyticsUC := usecase.NewAnalyticsUsecase(d)

	//Handler生成
	srv := server.New(cfg, logger, server.Handlers{
		Order:      handler.NewOrderHandler(orderUC),
		AdminOrder: handler.NewAdminOrderHandler(adminUC, analyticsUC),
		User:       handler.NewUserHandler(orderUC, analyticsUC),
	})

	//Server起動
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		gormDB, err := db.Connect()
		if err != nil {
			return store{}, err
		}
		if err := db.Migrate(gormDB); err != nil {
			return store{}, err
		}
		orders := infraRepo.NewOrderGormRepository(gormDB)
		return store{
			tx:        infraRepo.NewTxManagerGorm(gormDB),
			orders:    orders,
			accounts:  infraRepo.NewAccountGormRepository(gormDB),
			products:  infraRepo.NewProductGormRepository(gormDB),
			auditLogs: infraRepo.NewAuditLogGormRepository(gormDB),
			ids:       idgen.UUIDGenerator{},
			close: func(context.Context) error {
				sqlDB, err := gormDB.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil

	case config.StoreMemory:
		orders := infraRepo.NewOrderMemoryRepository()
		auditLogs := infraRepo.NewAuditLogMemoryRepository()
		return store{
			tx:        infraRepo.NewTxManagerDirect(orders, auditLogs),
			orders:    orders,
			accounts:  infraRepo.NewAccountMemoryRepository(),
			products:  infraRepo.NewProductMemoryRepository(),
			auditLogs: auditLogs,
			ids:       idgen.UUIDGenerator{},
			close:     func(context.Context) error { return nil },
		}, nil

	default:
		mdb, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return store{}, err
		}
		if err := db.EnsureIndexes(ctx, mdb); err != nil {
			_ = mdb.Client().Disconnect(context.Background())
			return store{}, err
		}
		orders := infraRepo.NewOrderMongoRepository(mdb.Collection(db.CollectionOrders))
		auditLogs := infraRepo.NewAuditLogMongoRepository(mdb.Collection(db.CollectionAuditLogs))
		return store{
			tx:        infraRepo.NewTxManagerDirect(orders, auditLogs),
			orders:    orders,
			accounts:  infraRepo.NewAccountMongoRepository(mdb.Collection(db.CollectionUsers)),
			products:  infraRepo.NewProductMongoRepository(mdb.Collection(db.CollectionProducts)),
			auditLogs: auditLogs,
			ids:       idgen.ObjectIDGenerator{},
			close:     mdb.Client().Disconnect,
		}, nil
	}
}
