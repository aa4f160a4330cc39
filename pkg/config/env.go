package config

const (
	EnvPrefix = "EFARM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Env var names referenced outside struct tags.
const (
	EnvAppEnv        = "EFARM_APP_ENV"
	EnvPort          = "EFARM_APP_PORT"
	EnvDBDSN         = "EFARM_DB_DSN"
	EnvDBHost        = "EFARM_DB_HOST"
	EnvDBUser        = "EFARM_DB_USER"
	EnvDBName        = "EFARM_DB_NAME"
	EnvDBPassword    = "EFARM_DB_PASSWORD"
	EnvRedisURL      = "EFARM_REDIS_URL"
	EnvJWTSecret     = "EFARM_JWT_SECRET"
	EnvJWTIssuer     = "EFARM_JWT_ISSUER"
	EnvJWTExpMins    = "EFARM_JWT_EXPIRATION_MINUTES"
	EnvGCPProjectID  = "EFARM_GCP_PROJECT_ID"
	EnvOrdersTopic   = "EFARM_PUBSUB_ORDERS_TOPIC"
	EnvMaxOrderItems = "EFARM_MAX_ORDER_ITEMS"
	EnvTaxRate       = "EFARM_TAX_RATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
