package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the storefront.
// Priority, lowest to highest:
//  1. Default values
//  2. Environment variables (PIZZERIA_*)
//  3. Config file (JSON or YAML), when WithConfigFile is passed
//  4. Functional options
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithStorageProvider("sqlite"),
//	    WithSQLitePath("/var/lib/pizzeria/store.db"),
//	    WithAPIBaseURL("http://localhost:8080"),
//	)
type Config struct {
	API       APIConfig       `json:"api" yaml:"api"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Cart      CartConfig      `json:"cart" yaml:"cart"`
	Orders    OrdersConfig    `json:"orders" yaml:"orders"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	MockAPI   MockAPIConfig   `json:"mock_api" yaml:"mock_api"`
}

// APIConfig configures the remote menu/order API client.
type APIConfig struct {
	BaseURL          string        `json:"base_url" yaml:"base_url"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`
	RetryAttempts    int           `json:"retry_attempts" yaml:"retry_attempts"`
	RetryBackoff     time.Duration `json:"retry_backoff" yaml:"retry_backoff"`
	FailureThreshold int           `json:"failure_threshold" yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `json:"recovery_timeout" yaml:"recovery_timeout"`
}

// StorageConfig selects the persistence provider.
type StorageConfig struct {
	Provider   string `json:"provider" yaml:"provider"` // memory, redis or sqlite
	RedisURL   string `json:"redis_url" yaml:"redis_url"`
	RedisDB    int    `json:"redis_db" yaml:"redis_db"`
	Namespace  string `json:"namespace" yaml:"namespace"`
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
}

type CartConfig struct {
	// GuestTTL expires the anonymous cart. Zero keeps it forever.
	GuestTTL time.Duration `json:"guest_ttl" yaml:"guest_ttl"`
}

type OrdersConfig struct {
	RefreshInterval time.Duration `json:"refresh_interval" yaml:"refresh_interval"`
}

type AuthConfig struct {
	PasswordCost int `json:"password_cost" yaml:"password_cost"`
}

// LoggingConfig controls the zap logger built by NewZapLogger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // json or console
	Output string `json:"output" yaml:"output"`
}

// TelemetryConfig controls tracing. Exporter is stdout or otlp.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Exporter    string `json:"exporter" yaml:"exporter"`
	Endpoint    string `json:"endpoint" yaml:"endpoint"`
	ServiceName string `json:"service_name" yaml:"service_name"`
	Insecure    bool   `json:"insecure" yaml:"insecure"`
}

// MockAPIConfig configures the bundled mock API server.
type MockAPIConfig struct {
	Port           int      `json:"port" yaml:"port"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// Option configures a Config
type Option func(*Config) error

// Supported providers
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"

	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Bcrypt cost bounds, mirrored here so core does not import bcrypt.
const (
	minPasswordCost = 4
	maxPasswordCost = 31
)

// DefaultConfig returns a configuration that works locally with no environment.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:          "http://localhost:8080",
			Timeout:          10 * time.Second,
			RetryAttempts:    3,
			RetryBackoff:     200 * time.Millisecond,
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
		},
		Storage: StorageConfig{
			Provider:   StorageMemory,
			Namespace:  "pizzeria",
			SQLitePath: "pizzeria.db",
		},
		Orders: OrdersConfig{
			RefreshInterval: 30 * time.Second,
		},
		Auth: AuthConfig{
			PasswordCost: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Exporter:    ExporterStdout,
			ServiceName: "pizzeria",
		},
		MockAPI: MockAPIConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
	}
}

// LoadFromEnv overlays PIZZERIA_* variables. Unparseable numbers and
// durations are ignored so one bad variable does not block startup.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("PIZZERIA_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("PIZZERIA_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.Timeout = d
		}
	}
	if v := os.Getenv("PIZZERIA_API_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.API.RetryAttempts = n
		}
	}

	if v := os.Getenv("PIZZERIA_STORAGE"); v != "" {
		c.Storage.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("PIZZERIA_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("PIZZERIA_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Storage.RedisDB = n
		}
	}
	if v := os.Getenv("PIZZERIA_NAMESPACE"); v != "" {
		c.Storage.Namespace = v
	}
	if v := os.Getenv("PIZZERIA_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}

	if v := os.Getenv("PIZZERIA_GUEST_CART_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cart.GuestTTL = d
		}
	}
	if v := os.Getenv("PIZZERIA_ORDER_REFRESH"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Orders.RefreshInterval = d
		}
	}
	if v := os.Getenv("PIZZERIA_PASSWORD_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Auth.PasswordCost = n
		}
	}

	if v := os.Getenv("PIZZERIA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PIZZERIA_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	if v := os.Getenv("PIZZERIA_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("PIZZERIA_TELEMETRY_EXPORTER"); v != "" {
		c.Telemetry.Exporter = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	}

	if v := os.Getenv("PIZZERIA_MOCK_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MockAPI.Port = n
		}
	}
	if v := os.Getenv("PIZZERIA_CORS_ORIGINS"); v != "" {
		c.MockAPI.AllowedOrigins = parseStringList(v)
	}

	return nil
}

// LoadFromFile overlays a JSON or YAML file. Fields absent from the file keep
// their current values.
func (c *Config) LoadFromFile(path string) error {
	cleanPath := filepath.Clean(path)

	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config file extension %s: %w", ext, ErrInvalidConfiguration)
	}

	data, err := os.ReadFile(cleanPath) // nosec G304 -- operator supplied path
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %v: %w", err, ErrInvalidConfiguration)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %v: %w", err, ErrInvalidConfiguration)
		}
	}
	return nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	invalid := func(msg string, sentinel error) error {
		return &Error{Op: "Config.Validate", Kind: KindConfig, Message: msg, Err: sentinel}
	}

	if c.API.BaseURL == "" {
		return invalid("api base URL is required", ErrMissingConfiguration)
	}
	if c.API.RetryAttempts < 1 {
		return invalid(fmt.Sprintf("retry attempts must be at least 1, got %d", c.API.RetryAttempts), ErrInvalidConfiguration)
	}

	switch c.Storage.Provider {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			return invalid("redis URL is required for the redis storage provider", ErrMissingConfiguration)
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return invalid("sqlite path is required for the sqlite storage provider", ErrMissingConfiguration)
		}
	default:
		return invalid(fmt.Sprintf("unknown storage provider: %s", c.Storage.Provider), ErrInvalidConfiguration)
	}

	if c.Orders.RefreshInterval <= 0 {
		return invalid("order refresh interval must be positive", ErrInvalidConfiguration)
	}
	if c.Auth.PasswordCost < minPasswordCost || c.Auth.PasswordCost > maxPasswordCost {
		return invalid(fmt.Sprintf("password cost must be between %d and %d", minPasswordCost, maxPasswordCost), ErrInvalidConfiguration)
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case ExporterStdout:
		case ExporterOTLP:
			if c.Telemetry.Endpoint == "" {
				return invalid("telemetry endpoint is required for the otlp exporter", ErrMissingConfiguration)
			}
		default:
			return invalid(fmt.Sprintf("unknown telemetry exporter: %s", c.Telemetry.Exporter), ErrInvalidConfiguration)
		}
	}

	if c.MockAPI.Port < 1 || c.MockAPI.Port > 65535 {
		return invalid(fmt.Sprintf("invalid port: %d", c.MockAPI.Port), ErrInvalidConfiguration)
	}
	return nil
}

func parseStringList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WithConfigFile overlays a JSON or YAML file.
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		return c.LoadFromFile(path)
	}
}

func WithAPIBaseURL(url string) Option {
	return func(c *Config) error {
		c.API.BaseURL = url
		return nil
	}
}

func WithAPITimeout(d time.Duration) Option {
	return func(c *Config) error {
		c.API.Timeout = d
		return nil
	}
}

// WithRetry sets attempts and the initial backoff for idempotent API calls.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Config) error {
		c.API.RetryAttempts = attempts
		c.API.RetryBackoff = backoff
		return nil
	}
}

func WithStorageProvider(provider string) Option {
	return func(c *Config) error {
		c.Storage.Provider = strings.ToLower(provider)
		return nil
	}
}

func WithRedisURL(url string) Option {
	return func(c *Config) error {
		c.Storage.RedisURL = url
		return nil
	}
}

func WithSQLitePath(path string) Option {
	return func(c *Config) error {
		c.Storage.SQLitePath = path
		return nil
	}
}

func WithGuestCartTTL(ttl time.Duration) Option {
	return func(c *Config) error {
		c.Cart.GuestTTL = ttl
		return nil
	}
}

func WithOrderRefresh(interval time.Duration) Option {
	return func(c *Config) error {
		c.Orders.RefreshInterval = interval
		return nil
	}
}

func WithPasswordCost(cost int) Option {
	return func(c *Config) error {
		c.Auth.PasswordCost = cost
		return nil
	}
}

func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Logging.Level = level
		return nil
	}
}

func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = format
		return nil
	}
}

// WithTelemetry enables tracing with the given exporter and endpoint.
func WithTelemetry(exporter, endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = true
		c.Telemetry.Exporter = exporter
		c.Telemetry.Endpoint = endpoint
		return nil
	}
}

func WithMockAPIPort(port int) Option {
	return func(c *Config) error {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port %d: %w", port, ErrInvalidConfiguration)
		}
		c.MockAPI.Port = port
		return nil
	}
}

// NewConfig builds a validated Config from defaults, env and options.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
