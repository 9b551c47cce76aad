// Package config loads server configuration from defaults, an optional YAML file
// and SMP_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SMP_SERVER_ADDR.
const EnvPrefix = "SMP"

type Config struct {
	Server       Server       `mapstructure:"server"`
	Log          Log          `mapstructure:"log"`
	Database     Database     `mapstructure:"database"`
	Redis        RedisConfig  `mapstructure:"redis"`
	Cache        Cache        `mapstructure:"cache"`
	Kafka        Kafka        `mapstructure:"kafka"`
	BusinessCard BusinessCard `mapstructure:"business_card"`
	Identifier   Identifier   `mapstructure:"identifier"`
	RateLimit    RateLimit    `mapstructure:"rate_limit"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `mapstructure:"addr"`
	AdminToken        string        `mapstructure:"admin_token"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Database selects Postgres persistence when URL is set; otherwise stores are in memory.
type Database struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// RedisConfig configures the Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Cache configures read-through caching of business cards. Redis is used when
// configured, otherwise an in-process cache.
type Cache struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// Kafka configures directory notifications. No brokers means notifications are dropped.
type Kafka struct {
	Brokers         []string      `mapstructure:"brokers"`
	Topic           string        `mapstructure:"topic"`
	Partitions      int32         `mapstructure:"partitions"`
	Replicas        int16         `mapstructure:"replicas"`
	QueueSize       int           `mapstructure:"queue_size"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
}

type BusinessCard struct {
	Enabled bool `mapstructure:"enabled"`
}

type Identifier struct {
	DefaultScheme string `mapstructure:"default_scheme"`
}

// RateLimit bounds requests per client IP. Zero RPS disables limiting.
type RateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Log:      Log{Level: "info", Format: "json"},
		Database: Database{MaxOpenConns: 10, MaxIdleConns: 5},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Cache:        Cache{Enabled: true, TTL: 5 * time.Minute},
		Kafka: Kafka{
			Topic:           "smp.businesscards",
			Partitions:      1,
			Replicas:        1,
			QueueSize:       1024,
			DeliveryTimeout: 10 * time.Second,
		},
		BusinessCard: BusinessCard{Enabled: true},
		Identifier:   Identifier{DefaultScheme: "iso6523-actorid-upis"},
		RateLimit:    RateLimit{RPS: 50, Burst: 100},
	}
}

// Load reads configuration. path may be empty, in which case only defaults and
// environment variables apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.admin_token", d.Server.AdminToken)
	v.SetDefault("server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("redis.url", d.Redis.URL)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)
	v.SetDefault("redis.min_idle_conns", d.Redis.MinIdleConns)
	v.SetDefault("redis.dial_timeout", d.Redis.DialTimeout)
	v.SetDefault("redis.read_timeout", d.Redis.ReadTimeout)
	v.SetDefault("redis.write_timeout", d.Redis.WriteTimeout)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)
	v.SetDefault("kafka.partitions", d.Kafka.Partitions)
	v.SetDefault("kafka.replicas", d.Kafka.Replicas)
	v.SetDefault("kafka.queue_size", d.Kafka.QueueSize)
	v.SetDefault("kafka.delivery_timeout", d.Kafka.DeliveryTimeout)
	v.SetDefault("business_card.enabled", d.BusinessCard.Enabled)
	v.SetDefault("identifier.default_scheme", d.Identifier.DefaultScheme)
	v.SetDefault("rate_limit.rps", d.RateLimit.RPS)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive when caching is enabled"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are configured"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.DeliveryTimeout <= 0 {
		errs = append(errs, errors.New("kafka.delivery_timeout must be positive when brokers are configured"))
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate_limit values must not be negative"))
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		errs = append(errs, errors.New("rate_limit.burst must be positive when rps is set"))
	}
	return errors.Join(errs...)
}
