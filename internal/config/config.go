package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

const minSecretLength = 32

var (
	ErrSecretRequired  = errors.New("security.jwtsecret is required")
	ErrSecretTooShort  = fmt.Errorf("security.jwtsecret must be at least %d bytes", minSecretLength)
	ErrInvalidSameSite = errors.New("security.cookiesamesite must be one of lax, strict, none")
)

type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	DrainDelay      time.Duration
}

type PostgresConfig struct {
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConns        int
	QueueLimit      int
	AcquireTimeout  time.Duration
	ConnMaxLifetime time.Duration
	ConnectRetries  int
	ConnectDelay    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type EventsConfig struct {
	Stream        string
	MaxLen        int64
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	BucketAvatars string
	UseSSL        bool
	Region        string
	PublicURL     string
}

// Enabled reports whether avatar offloading to object storage is configured.
func (c StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

type SecurityConfig struct {
	JWTSecret      string
	JWTTTL         time.Duration
	BcryptCost     int
	CookieName     string
	CookieSameSite string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRate  float64
	ServiceName string
}

type MetricsConfig struct {
	Enabled bool
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Environment string
	Logging     LoggingConfig
	HTTP        HTTPConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Events      EventsConfig
	Storage     StorageConfig
	Security    SecurityConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Tracing     TracingConfig
	Metrics     MetricsConfig
}

// IsDevelopment reports whether the process runs on a local developer machine.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// SecureCookie reports whether the session cookie carries the Secure flag.
// Browsers drop SameSite=None cookies without it, so that policy forces it
// even in development.
func (c *AppConfig) SecureCookie() bool {
	return !c.IsDevelopment() || c.Security.SameSite() == http.SameSiteNoneMode
}

// SameSite maps the configured policy onto net/http. Validate guarantees the
// value is known.
func (c SecurityConfig) SameSite() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c *AppConfig) Validate() error {
	if c.Security.JWTSecret == "" {
		return ErrSecretRequired
	}
	if len(c.Security.JWTSecret) < minSecretLength {
		return ErrSecretTooShort
	}
	switch strings.ToLower(c.Security.CookieSameSite) {
	case "lax", "strict", "none":
	default:
		return ErrInvalidSameSite
	}
	if c.Postgres.MaxConns <= 0 {
		return fmt.Errorf("postgres.maxconns must be positive, got %d", c.Postgres.MaxConns)
	}
	if c.Postgres.QueueLimit < 0 {
		return fmt.Errorf("postgres.queuelimit must not be negative, got %d", c.Postgres.QueueLimit)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("ratelimit.requests and ratelimit.window must be positive")
	}
	return nil
}

// String renders the config for startup logs with secrets redacted.
func (c AppConfig) String() string {
	c.Postgres.Password = redact(c.Postgres.Password)
	c.Postgres.DSN = redact(c.Postgres.DSN)
	c.Redis.Password = redact(c.Redis.Password)
	c.Storage.SecretKey = redact(c.Storage.SecretKey)
	c.Security.JWTSecret = redact(c.Security.JWTSecret)
	type plain AppConfig
	return fmt.Sprintf("%+v", plain(c))
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

func Load() (*AppConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper("config", "ACCOUNTDESK")
	setDefaults(v)
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, decodeHooks); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func newViper(name, prefix string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decodeHooks(dc *mapstructure.DecoderConfig) {
	dc.TagName = "mapstructure"
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// loadDotEnv reads .env into the process environment without overriding
// variables that are already set.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !isNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// bindLegacyEnv keeps the environment variable names of existing deployments
// working next to the prefixed ones.
func bindLegacyEnv(v *viper.Viper) {
	legacy := map[string]string{
		"environment":             "NODE_ENV",
		"http.port":               "PORT",
		"postgres.host":           "DB_HOST",
		"postgres.user":           "DB_USER",
		"postgres.password":       "DB_PASS",
		"postgres.name":           "DB_NAME",
		"postgres.maxconns":       "DB_POOL_LIMIT",
		"security.jwtsecret":      "JWT_SECRET",
		"security.cookiesamesite": "COOKIE_SAMESITE",
		"cors.allowedorigins":     "CLIENT_URL",
		"redis.addr":              "REDIS_ADDR",
	}
	for key, env := range legacy {
		prefixed := "ACCOUNTDESK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, env)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", EnvDevelopment)
	v.SetDefault("logging.level", "info")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 4000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.shutdowntimeout", "10s")
	v.SetDefault("http.draindelay", "0s")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.host", "127.0.0.1")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.name", "accountdesk")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.maxconns", 10)
	v.SetDefault("postgres.queuelimit", 100)
	v.SetDefault("postgres.acquiretimeout", "5s")
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.connectretries", 20)
	v.SetDefault("postgres.connectdelay", "5s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("events.stream", "auth:events")
	v.SetDefault("events.maxlen", 100000)
	v.SetDefault("events.group", "audit-workers")
	v.SetDefault("events.consumer", "worker-1")
	v.SetDefault("events.claiminterval", "30s")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucketavatars", "accountdesk-avatars")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.publicurl", "")

	v.SetDefault("security.jwtsecret", "")
	v.SetDefault("security.jwtttl", "2h")
	v.SetDefault("security.bcryptcost", 10)
	v.SetDefault("security.cookiename", "token")
	v.SetDefault("security.cookiesamesite", "lax")

	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.window", "1m")

	v.SetDefault("cors.allowedorigins", "http://localhost")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.samplerate", 1.0)
	v.SetDefault("tracing.servicename", "accountdesk-api")

	v.SetDefault("metrics.enabled", true)
}
