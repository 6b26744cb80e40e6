package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "DATABASE_URL", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_SSLMODE",
	"JWT_TTL", "GO_ENV", "LOG_LEVEL", "CORS_URL", "SHIPPING_FEE", "ALLOW_ROLE_SELF_ASSIGN",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "PRODUCT_CACHE_TTL",
	"KAFKA_BROKERS", "KAFKA_ORDER_TOPIC", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "SHUTDOWN_TIMEOUT",
}

// 空文字は未設定と同じ扱い
func setRequired(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("POSTGRES_USER", "u")
	t.Setenv("POSTGRES_PASSWORD", "p")
	t.Setenv("POSTGRES_DB", "shop")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5432, cfg.PostgresPort)
	assert.Equal(t, "5", cfg.ShippingFee.String())
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.ProductCacheTTL)
	assert.False(t, cfg.AllowRoleSelfAssign)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=shop sslmode=disable", cfg.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SHIPPING_FEE", "7.50")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CORS_URL", "http://localhost:3000")
	t.Setenv("ALLOW_ROLE_SELF_ASSIGN", "true")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("DATABASE_URL", "postgres://x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7.5", cfg.ShippingFee.String())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.True(t, cfg.AllowRoleSelfAssign)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, "postgres://x", cfg.DSN())
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoad_DatabaseURLSkipsPostgresVars(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("DATABASE_URL", "postgres://x")

	_, err := Load()
	assert.NoError(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"POSTGRES_PORT":          "abc",
		"SHIPPING_FEE":           "five",
		"JWT_TTL":                "1 day",
		"ALLOW_ROLE_SELF_ASSIGN": "maybe",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, val)
			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestLoad_NegativeShippingFee(t *testing.T) {
	setRequired(t)
	t.Setenv("SHIPPING_FEE", "-1")

	_, err := Load()
	assert.EqualError(t, err, "SHIPPING_FEE must be >= 0")
}
