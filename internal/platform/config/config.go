// Package config builds the process configuration once at startup.
//
// Values come from defaults, then an optional YAML file named by HOSTGUARD_CONFIG,
// then environment variables. Nothing below cmd/ reads the environment; components
// receive the sections they need by value.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pstrings "hostguard/pkg/platform/strings"
)

type Config struct {
	Environment string         `yaml:"environment"`
	LogLevel    string         `yaml:"log_level"`
	Server      Server         `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
	Authority   Authority      `yaml:"authority"`
	Quota       Quota          `yaml:"quota"`
	Chat        Chat           `yaml:"chat"`
	Intent      Intent         `yaml:"intent"`
	Kafka       Kafka          `yaml:"kafka"`
	RateLimit   RateLimit      `yaml:"rate_limit"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	JWTSigningKey  string        `yaml:"jwt_signing_key"`
	JWTIssuer      string        `yaml:"jwt_issuer"`
	JWTAudience    string        `yaml:"jwt_audience"`
	// Peers allowed to set X-Forwarded-For / X-Real-IP, as CIDRs or addresses.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Authority configures the tax-authority PIN checker.
type Authority struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	APISecret    string        `yaml:"api_secret"`
	TaxpayerType string        `yaml:"taxpayer_type"`
	Timeout      time.Duration `yaml:"timeout"`
	// Consecutive transport failures before the client stops calling out.
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown"`
}

type Quota struct {
	TrialCount         int           `yaml:"trial_count"`
	TrialPeriod        time.Duration `yaml:"trial_period"`
	SubscriptionPeriod time.Duration `yaml:"subscription_period"`
}

// Chat configures the WhatsApp Cloud API channel and the links its replies carry.
type Chat struct {
	GraphBaseURL    string        `yaml:"graph_base_url"`
	AccessToken     string        `yaml:"access_token"`
	PhoneNumberID   string        `yaml:"phone_number_id"`
	VerifyToken     string        `yaml:"verify_token"`
	AppSecret       string        `yaml:"app_secret"`
	SendTimeout     time.Duration `yaml:"send_timeout"`
	SendRatePerSec  float64       `yaml:"send_rate_per_sec"`
	SendBurst       int           `yaml:"send_burst"`
	DedupeTTL       time.Duration `yaml:"dedupe_ttl"`
	SiteURL         string        `yaml:"site_url"`
	RegisterPath    string        `yaml:"register_path"`
	PaymentPath     string        `yaml:"payment_path"`
	ReportPath      string        `yaml:"report_path"`
	MonthlyPriceKES int           `yaml:"monthly_price_kes"`
}

type Intent struct {
	OpenAIKey string        `yaml:"openai_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
}

type Kafka struct {
	Brokers    []string `yaml:"brokers"`
	AuditTopic string   `yaml:"audit_topic"`
}

// RateLimit bounds per-IP request rates on the verification and webhook endpoints.
type RateLimit struct {
	Enabled         bool          `yaml:"enabled"`
	VerifyRequests  int           `yaml:"verify_requests"`
	WebhookRequests int           `yaml:"webhook_requests"`
	Window          time.Duration `yaml:"window"`
}

// Enabled reports whether an audit broker is configured.
func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// Default returns the development configuration.
func Default() Config {
	return Config{
		Environment: "development",
		LogLevel:    "info",
		Server: Server{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
			// Use a default for development - should be overridden in production
			JWTSigningKey: "dev-secret-key-change-in-production",
			JWTIssuer:     "hostguard",
			JWTAudience:   "hostguard-api",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Authority: Authority{
			BaseURL:          "https://api.kra.go.ke",
			TaxpayerType:     "KE",
			Timeout:          10 * time.Second,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		Quota: Quota{
			TrialCount:         3,
			TrialPeriod:        7 * 24 * time.Hour,
			SubscriptionPeriod: 30 * 24 * time.Hour,
		},
		Chat: Chat{
			GraphBaseURL:    "https://graph.facebook.com/v22.0",
			SendTimeout:     10 * time.Second,
			SendRatePerSec:  20,
			SendBurst:       5,
			DedupeTTL:       24 * time.Hour,
			SiteURL:         "http://localhost:8080",
			RegisterPath:    "/register",
			PaymentPath:     "/payments/subscribe",
			ReportPath:      "/incidents/new",
			MonthlyPriceKES: 100,
		},
		Intent: Intent{
			Model:   "gpt-3.5-turbo",
			Timeout: 5 * time.Second,
		},
		Kafka: Kafka{
			AuditTopic: "hostguard.verification.audit",
		},
		RateLimit: RateLimit{
			Enabled:         true,
			VerifyRequests:  30,
			WebhookRequests: 600,
			Window:          time.Minute,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and the environment.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("HOSTGUARD_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("HOSTGUARD_ENV", &c.Environment)
	str("LOG_LEVEL", &c.LogLevel)
	str("HOSTGUARD_ADDR", &c.Server.Addr)
	dur("REQUEST_TIMEOUT", &c.Server.RequestTimeout)
	str("JWT_SIGNING_KEY", &c.Server.JWTSigningKey)
	if v, ok := lookup("TRUSTED_PROXIES"); ok && v != "" {
		c.Server.TrustedProxies = pstrings.SplitList(v, ",")
	}

	str("DATABASE_URL", &c.Database.URL)
	num("DATABASE_MAX_OPEN_CONNS", &c.Database.MaxOpenConns)
	str("REDIS_URL", &c.Redis.URL)

	str("GAVACONNECT_BASE_URL", &c.Authority.BaseURL)
	str("GAVACONNECT_API_KEY", &c.Authority.APIKey)
	str("GAVACONNECT_API_SECRET", &c.Authority.APISecret)
	dur("GAVACONNECT_TIMEOUT", &c.Authority.Timeout)

	num("TRIAL_COUNT", &c.Quota.TrialCount)
	dur("TRIAL_PERIOD", &c.Quota.TrialPeriod)

	str("WHATSAPP_ACCESS_TOKEN", &c.Chat.AccessToken)
	str("WHATSAPP_PHONE_NUMBER_ID", &c.Chat.PhoneNumberID)
	str("WHATSAPP_VERIFY_TOKEN", &c.Chat.VerifyToken)
	str("WHATSAPP_APP_SECRET", &c.Chat.AppSecret)
	str("SITE_URL", &c.Chat.SiteURL)

	str("OPENAI_API_KEY", &c.Intent.OpenAIKey)
	str("OPENAI_MODEL", &c.Intent.Model)
	str("OPENAI_BASE_URL", &c.Intent.BaseURL)

	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = pstrings.SplitList(v, ",")
	}
	str("KAFKA_AUDIT_TOPIC", &c.Kafka.AuditTopic)

	if v, ok := lookup("RATE_LIMIT_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_ENABLED: %w", err))
		} else {
			c.RateLimit.Enabled = b
		}
	}
	num("RATE_LIMIT_VERIFY_REQUESTS", &c.RateLimit.VerifyRequests)

	return errors.Join(errs...)
}

// Validate rejects configurations no component can run with.
func (c Config) Validate() error {
	var errs []error
	if c.Quota.TrialCount <= 0 {
		errs = append(errs, errors.New("quota.trial_count must be positive"))
	}
	if c.Quota.TrialPeriod <= 0 {
		errs = append(errs, errors.New("quota.trial_period must be positive"))
	}
	if c.Authority.Timeout <= 0 {
		errs = append(errs, errors.New("authority.timeout must be positive"))
	}
	if c.Authority.BaseURL == "" {
		errs = append(errs, errors.New("authority.base_url is required"))
	}
	if c.RateLimit.Enabled && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be positive"))
	}
	if c.Environment == "production" && c.Server.JWTSigningKey == Default().Server.JWTSigningKey {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	if c.Environment == "production" && c.Chat.AppSecret == "" {
		errs = append(errs, errors.New("WHATSAPP_APP_SECRET must be set in production"))
	}
	return errors.Join(errs...)
}

// URL joins the configured site URL with a path.
func (c Chat) URL(path string) string {
	return strings.TrimRight(c.SiteURL, "/") + path
}
