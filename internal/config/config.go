package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration, read once at startup
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	Auth    AuthConfig
	Casdoor CasdoorConfig
	Payment PaymentConfig
	Kafka   KafkaConfig

	CORSAllowedOrigin string
	RateLimitRPS      float64
	RateLimitBurst    int
}

type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	// RoleUpdateRequiresAdmin gates PATCH /users/:id behind token + admin.
	// Off by default, which keeps the route open for first-admin bootstrap.
	RoleUpdateRequiresAdmin bool
}

// CasdoorConfig enables an optional second token verifier for Casdoor-issued JWTs
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

func (c CasdoorConfig) Enabled() bool {
	return c.Endpoint != "" && c.Cert != ""
}

type PaymentConfig struct {
	StoreID       string
	StorePassword string
	IsLive        bool
	Currency      string
	Timeout       time.Duration

	// ServerBaseURL is where the gateway sends success/fail callbacks
	ServerBaseURL string
	SuccessURL    string
	FailURL       string
}

type KafkaConfig struct {
	Brokers    []string
	OrderTopic string
}

// LoadConfig reads an optional .env file and then the process environment
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Missing required
// variables are reported together.
func FromEnv(getenv func(string) string) (*Config, error) {
	var missing []string
	var invalid []string

	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	required := func(key string) string {
		v := get(key, "")
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	duration := func(key string, def time.Duration) time.Duration {
		raw := get(key, "")
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			invalid = append(invalid, key)
			return def
		}
		return d
	}
	boolean := func(key string, def bool) bool {
		raw := get(key, "")
		if raw == "" {
			return def
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return b
	}

	cfg := &Config{
		Port:              get("PORT", "3000"),
		Environment:       get("ENVIRONMENT", "development"),
		LogLevel:          parseLogLevel(get("LOG_LEVEL", "info")),
		RedisURL:          get("REDIS_URL", ""),
		CORSAllowedOrigin: get("CORS_ALLOWED_ORIGIN", "*"),
	}

	cfg.DatabaseURL = get("DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		user, pass := get("DB_USER", ""), get("DB_PASS", "")
		if user == "" || pass == "" {
			missing = append(missing, "DATABASE_URL (or DB_USER and DB_PASS)")
		} else {
			cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				get("DB_HOST", "localhost"), get("DB_PORT", "5432"), user, pass,
				get("DB_NAME", "sclsDB"), get("DB_SSLMODE", "disable"))
		}
	}

	cfg.Auth = AuthConfig{
		TokenSecret:             required("ACCESS_TOKEN_SECRET"),
		TokenTTL:                duration("TOKEN_TTL", time.Hour),
		RoleUpdateRequiresAdmin: boolean("ROLE_UPDATE_REQUIRES_ADMIN", false),
	}

	cfg.Casdoor = CasdoorConfig{
		Endpoint:     get("CASDOOR_ENDPOINT", ""),
		ClientID:     get("CASDOOR_CLIENT_ID", ""),
		ClientSecret: get("CASDOOR_CLIENT_SECRET", ""),
		Cert:         get("CASDOOR_CERT", ""),
		Organization: get("CASDOOR_ORGANIZATION", ""),
		Application:  get("CASDOOR_APPLICATION", ""),
	}

	cfg.Payment = PaymentConfig{
		StoreID:       required("STORE_ID"),
		StorePassword: required("STORE_PASSWORD"),
		IsLive:        boolean("IS_LIVE", false),
		Currency:      get("PAYMENT_CURRENCY", "BDT"),
		Timeout:       duration("GATEWAY_TIMEOUT", 15*time.Second),
		ServerBaseURL: strings.TrimRight(get("SERVER_BASE_URL", "http://localhost:"+cfg.Port), "/"),
		SuccessURL:    get("PAYMENT_SUCCESS_REDIRECT_URL", "http://localhost:5173/payment/success"),
		FailURL:       get("PAYMENT_FAIL_REDIRECT_URL", "http://localhost:5173/payment/fail"),
	}

	cfg.Kafka = KafkaConfig{
		Brokers:    splitList(get("KAFKA_BROKERS", "")),
		OrderTopic: get("KAFKA_ORDER_TOPIC", "camp.orders"),
	}

	// 0 turns the limiter off
	rps, err := strconv.ParseFloat(get("RATE_LIMIT_RPS", "10"), 64)
	if err != nil || rps < 0 {
		invalid = append(invalid, "RATE_LIMIT_RPS")
		rps = 10
	}
	cfg.RateLimitRPS = rps

	burst, err := strconv.Atoi(get("RATE_LIMIT_BURST", "40"))
	if err != nil || burst <= 0 {
		invalid = append(invalid, "RATE_LIMIT_BURST")
		burst = 40
	}
	cfg.RateLimitBurst = burst

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
