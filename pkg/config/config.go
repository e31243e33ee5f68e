package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "platevine"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Orders       OrdersConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PLATEVINE_APP_ENV" required:"true"`
	Port         string `envconfig:"PLATEVINE_APP_PORT" required:"true"`
	Timezone     string `envconfig:"PLATEVINE_APP_TIMEZONE" default:"Local"`
	LogLevel     string `envconfig:"PLATEVINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLATEVINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the configured timezone, falling back to the host zone.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" || strings.EqualFold(a.Timezone, "Local") {
		return time.Local
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type ServiceConfig struct {
	Kind string `envconfig:"PLATEVINE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PLATEVINE_DB_DSN"`
	Driver string `envconfig:"PLATEVINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PLATEVINE_DB_HOST"`
	LegacyPort     int    `envconfig:"PLATEVINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PLATEVINE_DB_USER"`
	LegacyPassword string `envconfig:"PLATEVINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"PLATEVINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"PLATEVINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLATEVINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLATEVINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLATEVINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLATEVINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("database DSN or host/user/name are required")
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   d.LegacyName,
	}
	query := dsn.Query()
	query.Set("sslmode", d.LegacySSLMode)
	dsn.RawQuery = query.Encode()
	d.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PLATEVINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PLATEVINE_REDIS_ADDR"`
	Password     string        `envconfig:"PLATEVINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLATEVINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLATEVINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLATEVINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLATEVINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLATEVINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLATEVINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PLATEVINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PLATEVINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PLATEVINE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PLATEVINE_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"PLATEVINE_PUBSUB_ORDERS_TOPIC" default:"order-events"`
}

type StripeConfig struct {
	APIKey string `envconfig:"PLATEVINE_STRIPE_API_KEY"`
	Secret string `envconfig:"PLATEVINE_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"PLATEVINE_STRIPE_ENV" default:"test"`
}

func (s StripeConfig) Environment() string {
	return s.Env
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PLATEVINE_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PLATEVINE_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PLATEVINE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	SweepInterval time.Duration `envconfig:"PLATEVINE_CRON_SWEEP_INTERVAL" default:"1m"`
	LockTTL       time.Duration `envconfig:"PLATEVINE_CRON_LOCK_TTL" default:"10m"`
}

type OrdersConfig struct {
	CheckoutWindow    time.Duration `envconfig:"PLATEVINE_ORDERS_CHECKOUT_WINDOW" default:"15m"`
	CommissionRate    float64       `envconfig:"PLATEVINE_ORDERS_COMMISSION_RATE" default:"0.10"`
	Currency          string        `envconfig:"PLATEVINE_ORDERS_CURRENCY" default:"usd"`
	VerificationGrace time.Duration `envconfig:"PLATEVINE_ORDERS_VERIFICATION_GRACE" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PLATEVINE_AUTO_MIGRATE" default:"false"`
}
