package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Earnings     EarningsConfig
	Payouts      PayoutsConfig
	FeatureFlags FeatureFlagsConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Earnings.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Payouts.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKETDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKETDESK_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"MARKETDESK_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"MARKETDESK_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"MARKETDESK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETDESK_DB_DSN"`
	Driver string `envconfig:"MARKETDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETDESK_DB_USER"`
	LegacyPassword string `envconfig:"MARKETDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETDESK_REDIS_URL"`
	Address      string        `envconfig:"MARKETDESK_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"MARKETDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARKETDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MARKETDESK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// EarningsConfig holds the two fee rates. FeeRate applies to seller earnings and
// payouts; CommissionRate only feeds the marketplace commission report.
type EarningsConfig struct {
	FeeRate        string `envconfig:"MARKETDESK_EARNINGS_FEE_RATE" default:"0.05"`
	CommissionRate string `envconfig:"MARKETDESK_PLATFORM_COMMISSION_RATE" default:"0.10"`
	HoldDays       int    `envconfig:"MARKETDESK_EARNINGS_HOLD_DAYS" default:"7"`
}

// SellerFeeRate returns the parsed earnings fee rate.
func (e EarningsConfig) SellerFeeRate() decimal.Decimal {
	return mustRate(e.FeeRate)
}

// PlatformCommissionRate returns the parsed marketplace commission rate.
func (e EarningsConfig) PlatformCommissionRate() decimal.Decimal {
	return mustRate(e.CommissionRate)
}

// HoldDuration converts HoldDays into a duration.
func (e EarningsConfig) HoldDuration() time.Duration {
	if e.HoldDays < 0 {
		return 0
	}
	return time.Duration(e.HoldDays) * 24 * time.Hour
}

func (e EarningsConfig) validate() error {
	for env, raw := range map[string]string{EnvEarningsFeeRate: e.FeeRate, EnvCommissionRate: e.CommissionRate} {
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s must be a decimal fraction: %w", env, err)
		}
		if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be within [0, 1), got %s", env, raw)
		}
	}
	if e.HoldDays < 0 {
		return fmt.Errorf("%s must not be negative", EnvEarningsHoldDays)
	}
	return nil
}

func mustRate(raw string) decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

type PayoutsConfig struct {
	LockBackend    string        `envconfig:"MARKETDESK_PAYOUT_LOCK_BACKEND" default:"redis"`
	LockTTL        time.Duration `envconfig:"MARKETDESK_PAYOUT_LOCK_TTL" default:"30s"`
	LockWait       time.Duration `envconfig:"MARKETDESK_PAYOUT_LOCK_WAIT" default:"5s"`
	MinAmountCents int64         `envconfig:"MARKETDESK_PAYOUT_MIN_AMOUNT_CENTS" default:"1"`
}

func (p PayoutsConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(p.LockBackend)) {
	case PayoutLockRedis, PayoutLockLocal:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvPayoutLockBackend, PayoutLockRedis, PayoutLockLocal)
	}
	if p.MinAmountCents < 1 {
		return fmt.Errorf("%s must be at least 1", EnvPayoutMinAmount)
	}
	return nil
}

// UsesRedisLock reports whether payout admission is serialized through redis.
func (p PayoutsConfig) UsesRedisLock() bool {
	return strings.EqualFold(strings.TrimSpace(p.LockBackend), PayoutLockRedis)
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKETDESK_AUTO_MIGRATE" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"MARKETDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"MARKETDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"MARKETDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Stream         string `envconfig:"MARKETDESK_OUTBOX_STREAM" default:"marketdesk:domain-events"`
	StreamMaxLen   int64  `envconfig:"MARKETDESK_OUTBOX_STREAM_MAXLEN" default:"100000"`
	MetricsPort    string `envconfig:"MARKETDESK_OUTBOX_METRICS_PORT" default:"9091"`
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
