package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rl1809/inventory-service/internal/core/domain"
)

const (
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	MySQL    MySQLConfig
	Redis    RedisConfig
	Sequence SequenceConfig
	Storage  StorageConfig
	Log      LogConfig
	HTTP     HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name     string
	Env      string
	HTTPAddr string
	GRPCAddr string
}

// MySQLConfig holds database connection settings
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool // create tables on startup
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// SequenceConfig controls id allocation for new inventory items
type SequenceConfig struct {
	Backend      string // redis, mysql, memory
	ItemSequence string
	MaxAttempts  int
	Backoff      time.Duration
}

// StorageConfig selects where items and report data live
type StorageConfig struct {
	Backend string // mysql, memory
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from config.toml and INV_ environment variables.
// Priority (highest to lowest):
// 1. Environment variables (e.g. INV_MYSQL_DSN)
// 2. config.toml in the working directory or /app
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("INV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			HTTPAddr: v.GetString("app.http_addr"),
			GRPCAddr: v.GetString("app.grpc_addr"),
		},
		MySQL: MySQLConfig{
			DSN:             v.GetString("mysql.dsn"),
			MaxOpenConns:    v.GetInt("mysql.max_open_conns"),
			MaxIdleConns:    v.GetInt("mysql.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("mysql.conn_max_lifetime"),
			Migrate:         v.GetBool("mysql.migrate"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			PoolSize: v.GetInt("redis.pool_size"),
		},
		Sequence: SequenceConfig{
			Backend:      v.GetString("sequence.backend"),
			ItemSequence: v.GetString("sequence.item_sequence"),
			MaxAttempts:  v.GetInt("sequence.max_attempts"),
			Backoff:      v.GetDuration("sequence.backoff"),
		},
		Storage: StorageConfig{
			Backend: v.GetString("storage.backend"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "inventory-service"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = ":8000"
	}
	if cfg.App.GRPCAddr == "" {
		cfg.App.GRPCAddr = ":50051"
	}
	if cfg.MySQL.MaxOpenConns == 0 {
		cfg.MySQL.MaxOpenConns = 50
	}
	if cfg.MySQL.MaxIdleConns == 0 {
		cfg.MySQL.MaxIdleConns = 25
	}
	if cfg.MySQL.ConnMaxLifetime == 0 {
		cfg.MySQL.ConnMaxLifetime = 5 * time.Minute
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 100
	}
	if cfg.Sequence.Backend == "" {
		cfg.Sequence.Backend = BackendRedis
	}
	if cfg.Sequence.ItemSequence == "" {
		cfg.Sequence.ItemSequence = domain.ItemSequence
	}
	if cfg.Sequence.MaxAttempts == 0 {
		cfg.Sequence.MaxAttempts = 5
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendMySQL
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
		if cfg.IsProduction() {
			cfg.Log.Format = "json"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 5 * time.Second
	}
}

func (c *Config) validate() error {
	switch c.Sequence.Backend {
	case BackendRedis, BackendMySQL, BackendMemory:
	default:
		return fmt.Errorf("unknown sequence backend %q", c.Sequence.Backend)
	}
	switch c.Storage.Backend {
	case BackendMySQL, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Sequence.MaxAttempts < 1 {
		return fmt.Errorf("sequence.max_attempts must be at least 1, got %d", c.Sequence.MaxAttempts)
	}
	if c.Sequence.Backoff < 0 {
		return fmt.Errorf("sequence.backoff must not be negative, got %s", c.Sequence.Backoff)
	}
	if c.Sequence.Backend == BackendMemory && c.Storage.Backend == BackendMySQL {
		// A process-local counter cannot coordinate with other instances writing
		// to the same table.
		return errors.New("sequence backend memory requires storage backend memory")
	}
	if c.UsesMySQL() && c.MySQL.DSN == "" {
		return errors.New("mysql.dsn is required when a mysql backend is selected")
	}
	return nil
}

// UsesMySQL reports whether either backend needs a MySQL connection
func (c *Config) UsesMySQL() bool {
	return c.Sequence.Backend == BackendMySQL || c.Storage.Backend == BackendMySQL
}

// UsesRedis reports whether the sequence backend needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.Sequence.Backend == BackendRedis
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
