package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	// EnvPrefix is the envconfig namespace for all service variables.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DRIFTOPS_DB_DSN"
	EnvDBHost = "DRIFTOPS_DB_HOST"
	EnvDBUser = "DRIFTOPS_DB_USER"
	EnvDBName = "DRIFTOPS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Finance      FinanceConfig
	Cascade      CascadeConfig
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
	Env          string `envconfig:"DRIFTOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"DRIFTOPS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DRIFTOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DRIFTOPS_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"DRIFTOPS_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DRIFTOPS_DB_DSN"`
	Driver string `envconfig:"DRIFTOPS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DRIFTOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"DRIFTOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DRIFTOPS_DB_USER"`
	LegacyPassword string `envconfig:"DRIFTOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"DRIFTOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"DRIFTOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DRIFTOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DRIFTOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DRIFTOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DRIFTOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DRIFTOPS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DRIFTOPS_REDIS_ADDR"`
	Password     string        `envconfig:"DRIFTOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"DRIFTOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DRIFTOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DRIFTOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DRIFTOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DRIFTOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DRIFTOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DRIFTOPS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DRIFTOPS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DRIFTOPS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DRIFTOPS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DRIFTOPS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"DRIFTOPS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DRIFTOPS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic        string `envconfig:"DRIFTOPS_PUBSUB_EVENTS_TOPIC" default:"driftops-domain-events"`
	EventsSubscription string `envconfig:"DRIFTOPS_PUBSUB_EVENTS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DRIFTOPS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DRIFTOPS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DRIFTOPS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CascadeConfig tunes the deletion coordinator.
type CascadeConfig struct {
	CustomerLockTTL time.Duration `envconfig:"DRIFTOPS_CASCADE_LOCK_TTL" default:"30s"`
}

// PaymentFee is a single payment-method fee entry: a percentage of gross plus
// a fixed amount per transaction.
type PaymentFee struct {
	Pct   decimal.Decimal `json:"pct"`
	Fixed decimal.Decimal `json:"fixed"`
}

// FeeTable maps payment method names to their fee entries. It decodes from a
// JSON object in the environment, e.g.
// DRIFTOPS_FINANCE_PAYMENT_METHOD_FEES='{"card":{"pct":"1.75","fixed":"0.25"}}'.
type FeeTable map[string]PaymentFee

// Decode implements envconfig.Decoder.
func (f *FeeTable) Decode(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		*f = FeeTable{}
		return nil
	}
	parsed := map[string]PaymentFee{}
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		return fmt.Errorf("parsing payment method fees: %w", err)
	}
	*f = parsed
	return nil
}

// FinanceConfig carries the operator's configured expense rates. These are the
// estimation inputs used only when authoritative ledger snapshots are absent.
type FinanceConfig struct {
	TaxRatePct       decimal.Decimal `envconfig:"DRIFTOPS_FINANCE_TAX_RATE_PCT" default:"0"`
	InsuranceRatePct decimal.Decimal `envconfig:"DRIFTOPS_FINANCE_INSURANCE_RATE_PCT" default:"0"`
	EquipmentRatePct decimal.Decimal `envconfig:"DRIFTOPS_FINANCE_EQUIPMENT_RATE_PCT" default:"0"`
	PaymentFees      FeeTable        `envconfig:"DRIFTOPS_FINANCE_PAYMENT_METHOD_FEES"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
