package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あればPOSTGRES_*より優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret string        // JWT署名シークレット
	JWTTTL    time.Duration // アクセストークンの有効期限

	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	CORSOrigins []string // 許可するフロントURL

	ShippingFee         decimal.Decimal // 送料（一律）
	AllowRoleSelfAssign bool            // 登録時にrolesを受け付けるか

	RedisAddr       string // 空ならキャッシュなし
	RedisPassword   string
	RedisDB         int
	ProductCacheTTL time.Duration

	KafkaBrokers    []string // 空ならイベント送信なし
	KafkaOrderTopic string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration
}

// Loadは環境変数
func Load() (Config, error) {
	var err error
	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		CORSOrigins: splitList(os.Getenv("CORS_URL")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic: getenv("KAFKA_ORDER_TOPIC", "order-events"),
	}

	if cfg.PostgresPort, err = atoiOr("POSTGRES_PORT", 5432); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = atoiOr("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.JWTTTL, err = durationOr("JWT_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ProductCacheTTL, err = durationOr("PRODUCT_CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.HTTPReadTimeout, err = durationOr("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.HTTPWriteTimeout, err = durationOr("HTTP_WRITE_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationOr("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.AllowRoleSelfAssign, err = boolOr("ALLOW_ROLE_SELF_ASSIGN", false); err != nil {
		return Config{}, err
	}

	fee := getenv("SHIPPING_FEE", "5")
	if cfg.ShippingFee, err = decimal.NewFromString(fee); err != nil {
		return Config{}, fmt.Errorf("SHIPPING_FEE must be number: %w", err)
	}
	if cfg.ShippingFee.IsNegative() {
		return Config{}, fmt.Errorf("SHIPPING_FEE must be >= 0")
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
	}

	return cfg, nil
}

// DB接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func boolOr(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}

// カンマ区切り
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
