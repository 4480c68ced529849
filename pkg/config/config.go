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
	Shopify      ShopifyConfig
	Klaviyo      KlaviyoConfig
	Session      SessionConfig
	Redis        RedisConfig
	DB           DBConfig
	Access       AccessConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Metrics      MetricsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}
	cfg.Session.resolveSecure(cfg.App)
	if cfg.Session.Store == SessionStoreSQL {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Session.Store == SessionStoreRedis && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s or %s is required when %s=%s", EnvRedisURL, EnvRedisAddr, EnvSessionStore, SessionStoreRedis)
	}
	return &cfg, nil
}

// RequireDB resolves the database DSN for tools that always need a database.
func (c *Config) RequireDB() error {
	return c.DB.ensureDSN()
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ShopifyConfig holds the Storefront API credentials. Both StoreDomain and
// StorefrontToken are optional; without them the cart runs local-only.
type ShopifyConfig struct {
	StoreDomain     string        `envconfig:"STOREFRONT_SHOPIFY_STORE_DOMAIN"`
	StorefrontToken string        `envconfig:"STOREFRONT_SHOPIFY_STOREFRONT_ACCESS_TOKEN"`
	APIVersion      string        `envconfig:"STOREFRONT_SHOPIFY_API_VERSION" default:"2025-01"`
	RequestTimeout  time.Duration `envconfig:"STOREFRONT_SHOPIFY_REQUEST_TIMEOUT" default:"10s"`
}

// Configured reports whether both credentials are present.
func (s ShopifyConfig) Configured() bool {
	return strings.TrimSpace(s.StoreDomain) != "" && strings.TrimSpace(s.StorefrontToken) != ""
}

type KlaviyoConfig struct {
	APIKey         string        `envconfig:"STOREFRONT_KLAVIYO_API_KEY"`
	ListID         string        `envconfig:"STOREFRONT_KLAVIYO_LIST_ID"`
	Revision       string        `envconfig:"STOREFRONT_KLAVIYO_REVISION" default:"2025-01-15"`
	BaseURL        string        `envconfig:"STOREFRONT_KLAVIYO_BASE_URL" default:"https://a.klaviyo.com/api"`
	RequestTimeout time.Duration `envconfig:"STOREFRONT_KLAVIYO_REQUEST_TIMEOUT" default:"10s"`
}

// Configured reports whether the newsletter integration can be used.
func (k KlaviyoConfig) Configured() bool {
	return strings.TrimSpace(k.APIKey) != "" && strings.TrimSpace(k.ListID) != ""
}

type SessionConfig struct {
	Store      string        `envconfig:"STOREFRONT_SESSION_STORE" default:"memory"`
	CookieName string        `envconfig:"STOREFRONT_SESSION_COOKIE" default:"sf_session"`
	CookieTTL  time.Duration `envconfig:"STOREFRONT_SESSION_COOKIE_TTL" default:"720h"`
	ValueTTL   time.Duration `envconfig:"STOREFRONT_SESSION_VALUE_TTL" default:"720h"`
	IdleTTL    time.Duration `envconfig:"STOREFRONT_SESSION_IDLE_TTL" default:"30m"`
	// SecureCookie overrides the Secure cookie flag; unset means Secure
	// everywhere except the dev environment.
	SecureCookie *bool `envconfig:"STOREFRONT_SESSION_SECURE"`
	Secure       bool  `ignored:"true"`
}

func (s *SessionConfig) resolveSecure(app AppConfig) {
	s.Secure = !app.IsDev()
	if s.SecureCookie != nil {
		s.Secure = *s.SecureCookie
	}
}

func (s SessionConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Store)) {
	case SessionStoreMemory, SessionStoreRedis, SessionStoreSQL:
		return nil
	default:
		return fmt.Errorf("%s must be one of %q, %q, %q", EnvSessionStore, SessionStoreMemory, SessionStoreRedis, SessionStoreSQL)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

// AccessConfig drives the storefront password gate. The gate is disabled when
// CookieSecret is empty.
type AccessConfig struct {
	PasswordHash string        `envconfig:"STOREFRONT_ACCESS_PASSWORD_HASH"`
	CookieSecret string        `envconfig:"STOREFRONT_ACCESS_COOKIE_SECRET"`
	CookieName   string        `envconfig:"STOREFRONT_ACCESS_COOKIE" default:"storeAccess"`
	CookieTTL    time.Duration `envconfig:"STOREFRONT_ACCESS_COOKIE_TTL" default:"24h"`
	Issuer       string        `envconfig:"STOREFRONT_ACCESS_ISSUER" default:"storefront"`
	EntryPath    string        `envconfig:"STOREFRONT_ACCESS_ENTRY_PATH" default:"/password"`
}

// Enabled reports whether the gate should be enforced.
func (a AccessConfig) Enabled() bool {
	return strings.TrimSpace(a.CookieSecret) != ""
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	NewsletterWindow     time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_NEWSLETTER_WINDOW" default:"10m"`
	NewsletterIPLimit    int           `envconfig:"STOREFRONT_RATE_LIMIT_NEWSLETTER_IP_LIMIT" default:"20"`
	NewsletterEmailLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_NEWSLETTER_EMAIL_LIMIT" default:"3"`
	AccessWindow         time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_ACCESS_WINDOW" default:"1m"`
	AccessIPLimit        int           `envconfig:"STOREFRONT_RATE_LIMIT_ACCESS_IP_LIMIT" default:"10"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"STOREFRONT_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"STOREFRONT_METRICS_PATH" default:"/metrics"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
