package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Marketplace  MarketplaceConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Marketplace.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"EFARM_APP_ENV" required:"true"`
	Port            string        `envconfig:"EFARM_APP_PORT" required:"true"`
	LogLevel        string        `envconfig:"EFARM_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"EFARM_LOG_WARN_STACK" default:"false"`
	LogErrorStack   bool          `envconfig:"EFARM_LOG_ERROR_STACK" default:"false"`
	CORSOrigins     []string      `envconfig:"EFARM_CORS_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"EFARM_SHUTDOWN_TIMEOUT" default:"15s"`
	WriteRateLimit  int           `envconfig:"EFARM_WRITE_RATE_LIMIT" default:"30"`
	WriteRateWindow time.Duration `envconfig:"EFARM_WRITE_RATE_WINDOW" default:"1m"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"EFARM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"EFARM_DB_DSN"`
	Driver string `envconfig:"EFARM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EFARM_DB_HOST"`
	LegacyPort     int    `envconfig:"EFARM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EFARM_DB_USER"`
	LegacyPassword string `envconfig:"EFARM_DB_PASSWORD"`
	LegacyName     string `envconfig:"EFARM_DB_NAME"`
	LegacySSLMode  string `envconfig:"EFARM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EFARM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EFARM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EFARM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EFARM_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	RunMigrationsDev bool `envconfig:"EFARM_DB_RUN_MIGRATIONS_DEV" default:"true"`
}

type RedisConfig struct {
	URL            string        `envconfig:"EFARM_REDIS_URL" required:"true"`
	Address        string        `envconfig:"EFARM_REDIS_ADDR"`
	Password       string        `envconfig:"EFARM_REDIS_PASSWORD"`
	DB             int           `envconfig:"EFARM_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"EFARM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"EFARM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"EFARM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"EFARM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"EFARM_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"EFARM_REDIS_IDEMPOTENCY_TTL" default:"24h"`
	AnalyticsTTL   time.Duration `envconfig:"EFARM_REDIS_ANALYTICS_TTL" default:"5m"`
}

type JWTConfig struct {
	Secret            string `envconfig:"EFARM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"EFARM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"EFARM_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	AnalyticsCache bool `envconfig:"EFARM_FEATURE_ANALYTICS_CACHE" default:"true"`
	Idempotency    bool `envconfig:"EFARM_FEATURE_IDEMPOTENCY" default:"true"`
	Metrics        bool `envconfig:"EFARM_FEATURE_METRICS" default:"true"`
}

// MarketplaceConfig holds the checkout pricing knobs. Amounts are decimal
// strings so they can be parsed without float rounding.
type MarketplaceConfig struct {
	FlatShippingFee       string `envconfig:"EFARM_SHIPPING_FLAT_FEE" default:"10"`
	FreeShippingThreshold string `envconfig:"EFARM_SHIPPING_FREE_THRESHOLD" default:"50"`
	TaxRate               string `envconfig:"EFARM_TAX_RATE" default:"0.08"`
	MaxOrderItems         int    `envconfig:"EFARM_MAX_ORDER_ITEMS" default:"50"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"EFARM_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"EFARM_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic         string `envconfig:"EFARM_PUBSUB_ORDERS_TOPIC" default:"efarm-order-events"`
	OrdersSubscription  string `envconfig:"EFARM_PUBSUB_ORDERS_SUBSCRIPTION"`
	JobsTopic           string `envconfig:"EFARM_PUBSUB_JOBS_TOPIC" default:"efarm-job-events"`
	JobsSubscription    string `envconfig:"EFARM_PUBSUB_JOBS_SUBSCRIPTION"`
	CatalogTopic        string `envconfig:"EFARM_PUBSUB_CATALOG_TOPIC" default:"efarm-catalog-events"`
	CatalogSubscription string `envconfig:"EFARM_PUBSUB_CATALOG_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"EFARM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"EFARM_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"EFARM_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"EFARM_OUTBOX_RETENTION" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"EFARM_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"EFARM_CRON_LOCK_TTL" default:"10m"`
}

func (m MarketplaceConfig) validate() error {
	if m.MaxOrderItems <= 0 {
		return fmt.Errorf("%s must be positive", EnvMaxOrderItems)
	}
	return nil
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
