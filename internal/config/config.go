package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultAppName        = "GiftKart"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultAccessTTL      = 15 * time.Minute
	defaultRefreshTTL     = 7 * 24 * time.Hour
	defaultVerifyTimeout  = 10 * time.Second
	defaultVerifyBackoff  = time.Second
	defaultMinWithdrawal  = "100"
	defaultCommissionPct  = "3"
)

// GatewayConfig holds the SabPaisa integration settings. AuthKey and AuthIV
// are the pre-shared symmetric key and IV used to decrypt server callbacks.
type GatewayConfig struct {
	ClientCode string
	AuthKey    string
	AuthIV     string
	AllowedIPs []string
}

// VerifyConfig holds the identity/bank verification provider settings.
type VerifyConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	BackoffBase  time.Duration
}

// KafkaConfig holds the optional notification event stream settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName         string
	AppEnv          string
	Port            string
	LogLevel        string
	DatabaseURL     string
	RedisURL        string
	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ShutdownPeriod  time.Duration
	IdempotencyTTL  time.Duration
	MinWithdrawal   decimal.Decimal
	CommissionPct   decimal.Decimal
	Gateway         GatewayConfig
	Verify          VerifyConfig
	Kafka           KafkaConfig
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		RefreshSecret:   os.Getenv("REFRESH_SECRET"),
		AccessTokenTTL:  defaultAccessTTL,
		RefreshTokenTTL: defaultRefreshTTL,
		ShutdownPeriod:  defaultShutdownDelay,
		IdempotencyTTL:  defaultIdempotencyTTL,
		Gateway: GatewayConfig{
			ClientCode: os.Getenv("SABPAISA_CLIENT_CODE"),
			AuthKey:    os.Getenv("SABPAISA_AUTH_KEY"),
			AuthIV:     os.Getenv("SABPAISA_AUTH_IV"),
			AllowedIPs: splitCSV(os.Getenv("SABPAISA_ALLOWED_IPS")),
		},
		Verify: VerifyConfig{
			BaseURL:      os.Getenv("VERIFY_BASE_URL"),
			ClientID:     os.Getenv("VERIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("VERIFY_CLIENT_SECRET"),
			Timeout:      defaultVerifyTimeout,
			BackoffBase:  defaultVerifyBackoff,
		},
		Kafka: KafkaConfig{
			Brokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "giftkart.notifications"),
		},
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.Verify.Timeout, err = durationEnv("VERIFY_TIMEOUT", cfg.Verify.Timeout); err != nil {
		return Config{}, err
	}

	if cfg.MinWithdrawal, err = decimalEnv("MIN_WITHDRAWAL", defaultMinWithdrawal); err != nil {
		return Config{}, err
	}
	if cfg.CommissionPct, err = decimalEnv("COMMISSION_PERCENT", defaultCommissionPct); err != nil {
		return Config{}, err
	}

	// Outside development the in-memory store fallbacks are not acceptable.
	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.JWTSecret
	}
	if cfg.Gateway.AuthKey == "" || cfg.Gateway.AuthIV == "" {
		return Config{}, fmt.Errorf("SABPAISA_AUTH_KEY and SABPAISA_AUTH_IV must be set")
	}

	return cfg, nil
}

// IsDev reports whether the service runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func decimalEnv(key, fallback string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
