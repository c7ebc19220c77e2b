package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// 永続化の実装
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（4000）
	GoEnv string // dev/prod

	JWTSecret  string // JWT署名シークレット
	AdminEmail string // 管理者として扱うセッションのemail

	StoreDriver string // mongo / postgres / memory
	MongoURI    string
	MongoDB     string // DB名（e-commerce）

	StripeSecretKey   string // 空ならカード決済は無効
	RazorpayKeyID     string // 空ならRazorpayは無効
	RazorpayKeySecret string

	DeliveryCharge    float64       // 配送料（50）
	CancelReviewDelay time.Duration // キャンセル要求→Processingまで（3s）
	RailTimeout       time.Duration // 決済APIの1リクエスト上限（10s）
	UnpaidOrderTTL    time.Duration // 未決済注文の掃除まで（24h）
	ShutdownTimeout   time.Duration

	LogLevel     string
	ServiceName  string
	OTLPEndpoint string // 空ならメトリクス/トレースは送らない
}

// Loadは環境変数から読む（.envの読み込みは呼び出し側）
func Load() (Config, error) {
	deliveryCharge, err := floatEnv("DELIVERY_CHARGE", 50)
	if err != nil {
		return Config{}, err
	}
	reviewDelay, err := durationEnv("CANCEL_REVIEW_DELAY", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	railTimeout, err := durationEnv("RAIL_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	unpaidTTL, err := durationEnv("UNPAID_ORDER_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:  getEnvOrDefault("PORT", "4000"),
		GoEnv: getEnvOrDefault("GO_ENV", "dev"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		AdminEmail: strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),

		StoreDriver: strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreMongo)),
		MongoURI:    os.Getenv("MONGODB_URI"),
		MongoDB:     getEnvOrDefault("MONGODB_DB", "e-commerce"),

		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),

		DeliveryCharge:    deliveryCharge,
		CancelReviewDelay: reviewDelay,
		RailTimeout:       railTimeout,
		UnpaidOrderTTL:    unpaidTTL,
		ShutdownTimeout:   shutdownTimeout,

		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "storefront"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminEmail == "" {
		return Config{}, fmt.Errorf("ADMIN_EMAIL is required")
	}
	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGODB_URI is required")
		}
	case StorePostgres, StoreMemory:
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be one of mongo, postgres, memory: %q", cfg.StoreDriver)
	}
	if (cfg.RazorpayKeyID == "") != (cfg.RazorpayKeySecret == "") {
		return Config{}, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set together")
	}
	if cfg.DeliveryCharge < 0 {
		return Config{}, fmt.Errorf("DELIVERY_CHARGE must not be negative")
	}

	return cfg, nil
}

// Addr はlisten用の ":4000" 形式
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return f, nil
}

// "3s" などのGo形式。数字だけなら秒
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
