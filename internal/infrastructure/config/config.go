package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Render    RenderConfig
	Worker    WorkerConfig
	Retention RetentionConfig
	Orders    OrdersConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string // used when Driver is sqlite
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// StorageConfig holds object storage settings for designs and artifacts.
// Compatible with any S3 API (AWS S3, MinIO, RustFS).
type StorageConfig struct {
	Driver            string // s3 or filesystem
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
	BasePath          string // filesystem driver root
	DesignPrefix      string // object key prefix for design images
	ArtifactPrefix    string // object key prefix for generated zips
}

// RenderConfig holds rasterization settings
type RenderConfig struct {
	MaxRollWorkers int // parallel roll renders per job
}

// WorkerConfig holds background job runner settings
type WorkerConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// OrdersConfig holds connection settings for the internal order service
type OrdersConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// RetentionConfig holds artifact retention settings
type RetentionConfig struct {
	Enabled         bool
	ArtifactMaxAge  time.Duration
	CleanupInterval time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PRINTNEST_ prefix (e.g., PRINTNEST_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PRINTNEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Storage: StorageConfig{
			Driver:            v.GetString("storage.driver"),
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
			BasePath:          v.GetString("storage.base_path"),
			DesignPrefix:      v.GetString("storage.design_prefix"),
			ArtifactPrefix:    v.GetString("storage.artifact_prefix"),
		},
		Render: RenderConfig{
			MaxRollWorkers: v.GetInt("render.max_roll_workers"),
		},
		Worker: WorkerConfig{
			Workers:    v.GetInt("worker.workers"),
			QueueSize:  v.GetInt("worker.queue_size"),
			JobTimeout: v.GetDuration("worker.job_timeout"),
		},
		Retention: RetentionConfig{
			Enabled:         v.GetBool("retention.enabled"),
			ArtifactMaxAge:  v.GetDuration("retention.artifact_max_age"),
			CleanupInterval: v.GetDuration("retention.cleanup_interval"),
		},
		Orders: OrdersConfig{
			BaseURL:        v.GetString("orders.base_url"),
			APIKey:         v.GetString("orders.api_key"),
			TimeoutSeconds: v.GetInt("orders.timeout_seconds"),
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
		cfg.App.Name = "printnest-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "printnest"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "printnest.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Artifact downloads can be hundreds of megabytes.
		cfg.HTTP.WriteTimeout = 120 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB, requests here are small JSON
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "s3"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "printnest"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "/data/gangsheets"
	}
	if cfg.Storage.DesignPrefix == "" {
		cfg.Storage.DesignPrefix = "designs/"
	}
	if cfg.Storage.ArtifactPrefix == "" {
		cfg.Storage.ArtifactPrefix = "gangsheets/"
	}
	if cfg.Render.MaxRollWorkers == 0 {
		cfg.Render.MaxRollWorkers = 4
	}
	if cfg.Worker.Workers == 0 {
		cfg.Worker.Workers = 2
	}
	if cfg.Worker.QueueSize == 0 {
		cfg.Worker.QueueSize = 100
	}
	if cfg.Worker.JobTimeout == 0 {
		cfg.Worker.JobTimeout = 15 * time.Minute
	}
	if cfg.Retention.ArtifactMaxAge == 0 {
		cfg.Retention.ArtifactMaxAge = 30 * 24 * time.Hour
	}
	if cfg.Retention.CleanupInterval == 0 {
		cfg.Retention.CleanupInterval = 6 * time.Hour
	}
	if cfg.Orders.BaseURL == "" {
		cfg.Orders.BaseURL = "http://localhost:9000"
	}
	if cfg.Orders.TimeoutSeconds == 0 {
		cfg.Orders.TimeoutSeconds = 10
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Storage.Driver != "s3" && c.Storage.Driver != "filesystem" {
		return fmt.Errorf("storage.driver must be s3 or filesystem, got %q", c.Storage.Driver)
	}
	if c.Render.MaxRollWorkers <= 0 {
		return fmt.Errorf("render.max_roll_workers must be positive")
	}
	if c.Worker.Workers <= 0 {
		return fmt.Errorf("worker.workers must be positive")
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		if c.Storage.Driver == "s3" {
			if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
				return fmt.Errorf("storage credentials are required in production")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
