package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. HEALTHSYNC_DATABASE_HOST.
const EnvPrefix = "HEALTHSYNC"

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Broker       BrokerConfig       `mapstructure:"broker"`
	Mail         MailConfig         `mapstructure:"mail"`
	Notification NotificationConfig `mapstructure:"notification"`
	Booking      BookingConfig      `mapstructure:"booking"`
	Cache        CacheConfig        `mapstructure:"cache"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit" split_words:"true"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	Security     SecurityConfig     `mapstructure:"security"`
	Log          LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" split_words:"true"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" split_words:"true"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" split_words:"true"`
	// BasePath prefixes every resource route; health and metrics stay at the root.
	BasePath string `mapstructure:"base_path" split_words:"true"`
	// TimeZone is used for naive booking timestamps and for "today".
	TimeZone string `mapstructure:"time_zone" split_words:"true"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	// Driver memory keeps records in process and ignores the rest.
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" split_words:"true"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" split_words:"true"`
	AutoMigrate     bool          `mapstructure:"auto_migrate" split_words:"true"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours" split_words:"true"`
}

type RedisConfig struct {
	// URL empty disables every Redis backed component.
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MinIdleConns int           `mapstructure:"min_idle_conns" split_words:"true"`
	MaxRetries   int           `mapstructure:"max_retries" split_words:"true"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" split_words:"true"`
}

const (
	BrokerNone     = "none"
	BrokerRedis    = "redis"
	BrokerRabbitMQ = "rabbitmq"
)

type BrokerConfig struct {
	Kind          string `mapstructure:"kind"`
	ChannelPrefix string `mapstructure:"channel_prefix" split_words:"true"`
	RabbitMQURL   string `mapstructure:"rabbitmq_url" envconfig:"rabbitmq_url"`
	Exchange      string `mapstructure:"exchange"`
}

type MailConfig struct {
	// Host empty logs notifications instead of sending them.
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	From               string        `mapstructure:"from"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures" split_words:"true"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout" split_words:"true"`
}

type NotificationConfig struct {
	Async   bool          `mapstructure:"async"`
	Timeout time.Duration `mapstructure:"timeout"`
}

const (
	LockerLocal = "local"
	LockerRedis = "redis"
)

type BookingConfig struct {
	Duration     time.Duration `mapstructure:"duration"`
	Locker       string        `mapstructure:"locker"`
	LockTTL      time.Duration `mapstructure:"lock_ttl" split_words:"true"`
	LockWait     time.Duration `mapstructure:"lock_wait" split_words:"true"`
	MaxIDRetries int           `mapstructure:"max_id_retries" split_words:"true"`
}

type CacheConfig struct {
	SummaryTTL      time.Duration `mapstructure:"summary_ttl" split_words:"true"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" split_words:"true"`
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins" split_words:"true"`
}

type MonitoringConfig struct {
	MetricsNamespace string `mapstructure:"metrics_namespace" split_words:"true"`
}

type SecurityConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost" split_words:"true"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.time_zone", "Local")
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "healthsync")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("jwt.issuer", "healthsync")
	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 8*time.Millisecond)

	v.SetDefault("broker.kind", BrokerNone)
	v.SetDefault("broker.channel_prefix", "healthsync.")
	v.SetDefault("broker.exchange", "healthsync.events")

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "healthsync009@yourdomain.com")
	v.SetDefault("mail.breaker_max_failures", 5)
	v.SetDefault("mail.breaker_timeout", 30*time.Second)

	v.SetDefault("notification.async", true)
	v.SetDefault("notification.timeout", 30*time.Second)

	v.SetDefault("booking.duration", 30*time.Minute)
	v.SetDefault("booking.locker", LockerLocal)
	v.SetDefault("booking.lock_ttl", 10*time.Second)
	v.SetDefault("booking.lock_wait", 5*time.Second)
	v.SetDefault("booking.max_id_retries", 3)

	v.SetDefault("cache.summary_ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.ttl", 10*time.Minute)

	v.SetDefault("cors.allow_origins", []string{"*"})

	v.SetDefault("monitoring.metrics_namespace", "healthsync")

	v.SetDefault("security.bcrypt_cost", 12)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
}

// LoadConfig reads config.yaml from the usual locations, then applies
// HEALTHSYNC_* environment overrides. A missing file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Broker.Kind {
	case BrokerNone, BrokerRedis, BrokerRabbitMQ:
	default:
		return fmt.Errorf("unknown broker kind %q", c.Broker.Kind)
	}
	if c.Broker.Kind == BrokerRedis && c.Redis.URL == "" {
		return errors.New("broker kind redis requires redis.url")
	}
	if c.Broker.Kind == BrokerRabbitMQ && c.Broker.RabbitMQURL == "" {
		return errors.New("broker kind rabbitmq requires broker.rabbitmq_url")
	}
	switch c.Booking.Locker {
	case LockerLocal:
	case LockerRedis:
		if c.Redis.URL == "" {
			return errors.New("booking locker redis requires redis.url")
		}
	default:
		return fmt.Errorf("unknown booking locker %q", c.Booking.Locker)
	}
	if c.Booking.Duration <= 0 {
		return errors.New("booking.duration must be positive")
	}
	return nil
}

// Location resolves Server.TimeZone.
func (c *Config) Location() (*time.Location, error) {
	if c.Server.TimeZone == "" || c.Server.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Server.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid server.time_zone: %w", err)
	}
	return loc, nil
}
