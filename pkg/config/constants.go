package config

const (
	EnvPrefix = "MARKETDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv            = "MARKETDESK_APP_ENV"
	EnvPort              = "MARKETDESK_APP_PORT"
	EnvDBDSN             = "MARKETDESK_DB_DSN"
	EnvDBHost            = "MARKETDESK_DB_HOST"
	EnvDBUser            = "MARKETDESK_DB_USER"
	EnvDBPassword        = "MARKETDESK_DB_PASSWORD"
	EnvDBName            = "MARKETDESK_DB_NAME"
	EnvRedisURL          = "MARKETDESK_REDIS_URL"
	EnvJWTSecret         = "MARKETDESK_JWT_SECRET"
	EnvJWTIssuer         = "MARKETDESK_JWT_ISSUER"
	EnvEarningsFeeRate   = "MARKETDESK_EARNINGS_FEE_RATE"
	EnvCommissionRate    = "MARKETDESK_PLATFORM_COMMISSION_RATE"
	EnvEarningsHoldDays  = "MARKETDESK_EARNINGS_HOLD_DAYS"
	EnvPayoutLockBackend = "MARKETDESK_PAYOUT_LOCK_BACKEND"
	EnvPayoutMinAmount   = "MARKETDESK_PAYOUT_MIN_AMOUNT_CENTS"

	PayoutLockRedis = "redis"
	PayoutLockLocal = "local"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
