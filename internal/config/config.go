package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/shortlink/internal/domain"
)

// FileEnv names the environment variable pointing at an optional YAML config file.
const FileEnv = "SHORTLINK_CONFIG_FILE"

// Config is the immutable process configuration.
// Precedence: defaults < YAML file < environment.
type Config struct {
	ListenPort      string        `yaml:"listen_port" env:"SHORTLINK_LISTEN_PORT" validate:"required"`          // ex: ":8080"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHORTLINK_SHUTDOWN_TIMEOUT" validate:"gt=0"` // ex: 5s
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"SHORTLINK_REQUEST_TIMEOUT" validate:"gt=0"`   // per-request budget, must exceed the fallback timeout

	LogLevel  string `yaml:"log_level" env:"SHORTLINK_LOG_LEVEL" validate:"oneof=debug info warn error"`
	PrettyLog bool   `yaml:"pretty_log" env:"SHORTLINK_PRETTY_LOG"` // true => zap dev (color), false => zap prod (JSON)

	FallbackAPIURL  string `yaml:"fallback_api_url" env:"FALLBACK_API_URL" validate:"omitempty,url"`   // empty disables the fallback tier
	BaseRedirectURL string `yaml:"base_redirect_url" env:"BASE_REDIRECT_URL" validate:"required,url"` // ex: https://app.example.com/r
	DisableTestAPI  bool   `yaml:"disable_test_api" env:"DISABLE_TEST_API"`                          // hides /api/test/* and /test

	StrictRecords bool   `yaml:"strict_records" env:"SHORTLINK_STRICT_RECORDS"` // validate fallback bodies before use
	Coalesce      bool   `yaml:"coalesce" env:"SHORTLINK_COALESCE"`             // single-flight fallback lookups per key
	AsyncBackfill bool   `yaml:"async_backfill" env:"SHORTLINK_ASYNC_BACKFILL"` // write back to the cache off the request path
	KeyPrefix     string `yaml:"key_prefix" env:"SHORTLINK_KEY_PREFIX"`         // prepended to every cache key

	AllowedCIDRS []string `yaml:"allowed_cidrs" env:"SHORTLINK_ALLOWED_CIDRS" envSeparator:"," validate:"dive,cidr|ip"` // restricts /healthz, /readyz, /infra
	TrustProxy   bool     `yaml:"trust_proxy" env:"SHORTLINK_TRUST_PROXY"`                                              // true => trust X-Forwarded-For headers

	Redis Redis `yaml:"redis" envPrefix:"REDIS_"`
}

// Redis holds the cache connection settings.
type Redis struct {
	Addr           string        `yaml:"addr" env:"ADDR" validate:"required,hostname_port"` // ex: "localhost:6379"
	Username       string        `yaml:"username" env:"USERNAME"`                           // optional
	Password       string        `yaml:"password" env:"PASSWORD"`                           // optional
	DB             int           `yaml:"db" env:"DB" validate:"gte=0"`
	DialTimeout    time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT" validate:"gt=0"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" validate:"gt=0"`
	PoolSize       int           `yaml:"pool_size" env:"POOL_SIZE" validate:"gt=0"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT" validate:"gt=0"` // total time to retry connecting
	RetryInterval  time.Duration `yaml:"retry_interval" env:"RETRY_INTERVAL" validate:"gt=0"`   // initial wait between retries, grows exponentially
	MaxWait        time.Duration `yaml:"max_wait" env:"MAX_WAIT" validate:"gt=0"`               // max wait between retries
	PingTimeout    time.Duration `yaml:"ping_timeout" env:"PING_TIMEOUT" validate:"gt=0"`
	WarnThreshold  int           `yaml:"warn_threshold" env:"WARN_THRESHOLD" validate:"gte=0"` // warn after this many attempts
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenPort:      ":8080",
		ShutdownTimeout: 5 * time.Second,
		RequestTimeout:  10 * time.Second,
		LogLevel:        "info",
		BaseRedirectURL: domain.DefaultRedirectBaseURL,
		Redis: Redis{
			Addr:           "localhost:6379",
			DialTimeout:    5 * time.Second,
			ReadTimeout:    3 * time.Second,
			WriteTimeout:   3 * time.Second,
			PoolSize:       10,
			ConnectTimeout: 30 * time.Second,
			RetryInterval:  2 * time.Second,
			MaxWait:        10 * time.Second,
			PingTimeout:    5 * time.Second,
			WarnThreshold:  3,
		},
	}
}

// Load builds the configuration from the YAML file named by SHORTLINK_CONFIG_FILE
// (if any) and the process environment.
func Load() (*Config, error) {
	cfg, err := load(os.Getenv(FileEnv), nil)
	if err != nil {
		return nil, err
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg, nil
}

// load applies file then environment on top of Default. A nil environ reads the process environment.
func load(path string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config yaml: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.FallbackAPIURL = strings.TrimRight(strings.TrimSpace(c.FallbackAPIURL), "/")
	c.BaseRedirectURL = strings.TrimRight(strings.TrimSpace(c.BaseRedirectURL), "/")
	if c.BaseRedirectURL == "" {
		c.BaseRedirectURL = domain.DefaultRedirectBaseURL
	}
	c.AllowedCIDRS = splitAndTrim(c.AllowedCIDRS)
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cfgCopy := *c
	if cfgCopy.Redis.Password != "" {
		cfgCopy.Redis.Password = "***REDACTED***"
	}
	if cfgCopy.Redis.Username != "" {
		cfgCopy.Redis.Username = "***REDACTED***"
	}
	return cfgCopy
}

func splitAndTrim(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
