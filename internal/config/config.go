// Package config loads DatServe's configuration from a YAML file, with
// environment variables taking precedence so credentials can stay out of
// files.
package config

import (
	"os"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/DatServe/internal/database"
	"github.com/koustreak/DatServe/internal/errs"
	"github.com/koustreak/DatServe/internal/filestore"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown before in-flight
	// requests are cut off.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DatabaseConfig holds the initial database connection settings. The
// running service can replace them through the reconfiguration endpoint.
type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	SSLMode    string `yaml:"sslmode"`
	MaxConns   int32  `yaml:"max_conns"`
	MinConns   int32  `yaml:"min_conns"`
	QueueLimit int32  `yaml:"queue_limit"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`

	// ProbeInterval is how often the background health prober runs.
	// 0 disables background probing.
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

// StorageConfig holds the optional object storage settings.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
}

// Default returns the configuration used when no file and no environment
// overrides are present. It carries no database target; that must come
// from the file or the environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Driver:        string(database.DriverPostgres),
			ProbeInterval: 15 * time.Second,
		},
	}
}

// Load reads the configuration file at path (skipped when path is empty)
// and applies DATSERVE_* environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config file", err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// PoolConfig converts the database section into pool settings, filling
// unset fields with the pool defaults.
func (c DatabaseConfig) PoolConfig() database.Config {
	return database.DefaultConfig().Merge(database.Config{
		Driver:         database.Driver(c.Driver),
		Host:           c.Host,
		Port:           c.Port,
		User:           c.Username,
		Password:       c.Password,
		Database:       c.Database,
		SSLMode:        c.SSLMode,
		MaxConns:       c.MaxConns,
		MinConns:       c.MinConns,
		QueueLimit:     c.QueueLimit,
		ConnectTimeout: c.ConnectTimeout,
		QueryTimeout:   c.QueryTimeout,
	})
}

// StoreConfig converts the storage section into filestore settings.
func (c StorageConfig) StoreConfig() filestore.Config {
	return filestore.Config{
		Provider:      filestore.ProviderMinIO,
		Endpoint:      c.Endpoint,
		AccessKey:     c.AccessKey,
		SecretKey:     c.SecretKey,
		UseSSL:        c.UseSSL,
		Region:        c.Region,
		DefaultBucket: c.Bucket,
	}
}

// applyEnv overrides cfg fields from DATSERVE_* environment variables.
func applyEnv(cfg *Config) {
	envStr("DATSERVE_ADDR", &cfg.Server.Addr)
	envStr("DATSERVE_LOG_LEVEL", &cfg.Log.Level)
	envStr("DATSERVE_LOG_FORMAT", &cfg.Log.Format)

	envStr("DATSERVE_DB_DRIVER", &cfg.Database.Driver)
	envStr("DATSERVE_DB_HOST", &cfg.Database.Host)
	envInt("DATSERVE_DB_PORT", &cfg.Database.Port)
	envStr("DATSERVE_DB_USER", &cfg.Database.Username)
	envStr("DATSERVE_DB_PASSWORD", &cfg.Database.Password)
	envStr("DATSERVE_DB_NAME", &cfg.Database.Database)
	envStr("DATSERVE_DB_SSLMODE", &cfg.Database.SSLMode)

	envBool("DATSERVE_STORAGE_ENABLED", &cfg.Storage.Enabled)
	envStr("DATSERVE_STORAGE_ENDPOINT", &cfg.Storage.Endpoint)
	envStr("DATSERVE_STORAGE_ACCESS_KEY", &cfg.Storage.AccessKey)
	envStr("DATSERVE_STORAGE_SECRET_KEY", &cfg.Storage.SecretKey)
	envStr("DATSERVE_STORAGE_BUCKET", &cfg.Storage.Bucket)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
