package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	boardAuth "github.com/MrEthical07/boardAuth"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BOARDAUTH_AUTH_ACCESS_SECRET.
const EnvPrefix = "BOARDAUTH"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	AccessSecret    string        `mapstructure:"access_secret"`
	RefreshSecret   string        `mapstructure:"refresh_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	Issuer          string        `mapstructure:"issuer"`
}

// StoreConfig selects where refresh credentials live: memory, redis or postgres.
type StoreConfig struct {
	Backend     string `mapstructure:"backend"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig selects the board repository: memory or postgres. Postgres is
// also required when the refresh store backend is postgres.
type DatabaseConfig struct {
	Type     string         `mapstructure:"type"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuditConfig picks the audit sink: none, slog, json (stdout) or nats.
type AuditConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Sink        string `mapstructure:"sink"`
	BufferSize  int    `mapstructure:"buffer_size"`
	DropIfFull  bool   `mapstructure:"drop_if_full"`
	NATSURL     string `mapstructure:"nats_url"`
	NATSSubject string `mapstructure:"nats_subject"`
}

type MetricsConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	LatencyHistograms bool `mapstructure:"latency_histograms"`
	OTel              bool `mapstructure:"otel"`
}

// RateLimitConfig throttles failed logins through Redis (redis.* settings).
type RateLimitConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxLoginAttempts int           `mapstructure:"max_login_attempts"`
	LoginWindow      time.Duration `mapstructure:"login_window"`
	PerIP            bool          `mapstructure:"per_ip"`
}

// Load reads configPath (or config.yaml from the working directory and
// /etc/boardauth) and applies BOARDAUTH_* environment overrides. A missing
// config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/boardauth")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := boardAuth.DefaultConfig()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("auth.access_secret", "")
	v.SetDefault("auth.refresh_secret", "")
	v.SetDefault("auth.access_token_ttl", def.JWT.AccessTTL.String())
	v.SetDefault("auth.refresh_token_ttl", def.JWT.RefreshTTL.String())
	v.SetDefault("auth.issuer", def.JWT.Issuer)

	v.SetDefault("store.backend", string(def.Store.Backend))
	v.SetDefault("store.redis_prefix", def.Store.RedisPrefix)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.type", "memory")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "boardauth")
	v.SetDefault("database.postgres.user", "boardauth")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.sink", "slog")
	v.SetDefault("audit.buffer_size", def.Audit.BufferSize)
	v.SetDefault("audit.drop_if_full", def.Audit.DropIfFull)
	v.SetDefault("audit.nats_url", "nats://localhost:4222")
	v.SetDefault("audit.nats_subject", "boardauth.audit")

	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.latency_histograms", true)
	v.SetDefault("metrics.otel", false)

	v.SetDefault("rate_limit.enabled", def.RateLimit.Enabled)
	v.SetDefault("rate_limit.max_login_attempts", def.RateLimit.MaxLoginAttempts)
	v.SetDefault("rate_limit.login_window", def.RateLimit.LoginWindow.String())
	v.SetDefault("rate_limit.per_ip", def.RateLimit.PerIP)
}

// DSN renders a pgx connection URL.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   p.Host + ":" + strconv.Itoa(p.Port),
		Path:   "/" + p.Database,
	}
	q := u.Query()
	if p.SSLMode != "" {
		q.Set("sslmode", p.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// NeedsRedis reports whether any component is configured to use Redis.
func (c *Config) NeedsRedis() bool {
	return c.Store.Backend == string(boardAuth.StoreRedis) || c.RateLimit.Enabled
}

// NeedsPostgres reports whether any component is configured to use Postgres.
func (c *Config) NeedsPostgres() bool {
	return c.Database.Type == "postgres" || c.Store.Backend == string(boardAuth.StorePostgres)
}

// Validate checks the service-level settings. Engine settings are validated
// by the engine itself when it is built.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Database.Type {
	case "memory", "postgres":
	default:
		return fmt.Errorf("database.type %q must be memory or postgres", c.Database.Type)
	}
	switch c.Audit.Sink {
	case "none", "slog", "json", "nats":
	default:
		return fmt.Errorf("audit.sink %q must be none, slog, json or nats", c.Audit.Sink)
	}
	if c.Audit.Enabled && c.Audit.Sink == "nats" && c.Audit.NATSURL == "" {
		return errors.New("audit.nats_url is required for the nats sink")
	}
	if c.NeedsRedis() && c.Redis.Addr == "" {
		return errors.New("redis.addr is required for the redis store and the login rate limit")
	}
	return nil
}

// Engine converts the service configuration into an engine configuration.
func (c *Config) Engine() boardAuth.Config {
	cfg := boardAuth.DefaultConfig()

	cfg.JWT.AccessSecret = []byte(c.Auth.AccessSecret)
	cfg.JWT.RefreshSecret = []byte(c.Auth.RefreshSecret)
	cfg.JWT.AccessTTL = c.Auth.AccessTokenTTL
	cfg.JWT.RefreshTTL = c.Auth.RefreshTokenTTL
	cfg.JWT.Issuer = c.Auth.Issuer

	cfg.Store.Backend = boardAuth.StoreBackend(c.Store.Backend)
	cfg.Store.RedisPrefix = c.Store.RedisPrefix

	cfg.Audit.Enabled = c.Audit.Enabled && c.Audit.Sink != "none"
	cfg.Audit.BufferSize = c.Audit.BufferSize
	cfg.Audit.DropIfFull = c.Audit.DropIfFull

	cfg.RateLimit.Enabled = c.RateLimit.Enabled
	cfg.RateLimit.MaxLoginAttempts = c.RateLimit.MaxLoginAttempts
	cfg.RateLimit.LoginWindow = c.RateLimit.LoginWindow
	cfg.RateLimit.PerIP = c.RateLimit.PerIP

	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Enabled && c.Metrics.LatencyHistograms

	return cfg
}
