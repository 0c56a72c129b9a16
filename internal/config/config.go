package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Feed       FeedConfig       `yaml:"feed"`
	Sync       SyncConfig       `yaml:"sync"`
	Validation ValidationConfig `yaml:"validation"`
	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq"`
	LogLevel   string           `yaml:"log_level" validate:"oneof=debug info warn error"`
}

type RabbitMQConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url" validate:"required_if=Enabled true"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname" validate:"required"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// PublicBaseURL is where portals reach this service; feed URLs are built
	// from it.
	PublicBaseURL string `yaml:"public_base_url" validate:"required,url"`
	// SiteURL is the tenant-facing listing site used for detail links.
	SiteURL      string        `yaml:"site_url" validate:"omitempty,url"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// CatalogConfig selects how the property catalog is read: straight from
// Postgres, or through the catalog's REST API.
type CatalogConfig struct {
	Driver   string        `yaml:"driver" validate:"oneof=postgres rest"`
	BaseURL  string        `yaml:"base_url" validate:"required_if=Driver rest"`
	APIKey   string        `yaml:"api_key"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type FeedConfig struct {
	Path         string        `yaml:"path"`
	CacheMaxAge  time.Duration `yaml:"cache_max_age"`
	ProviderName string        `yaml:"provider_name"`
}

type SyncConfig struct {
	Enabled           bool          `yaml:"enabled"`
	Interval          time.Duration `yaml:"interval"`
	RunTimeout        time.Duration `yaml:"run_timeout"`
	UpsertConcurrency int           `yaml:"upsert_concurrency" validate:"min=1"`
	PortalConcurrency int           `yaml:"portal_concurrency" validate:"min=1"`
}

type ValidationConfig struct {
	SampleSize  int `yaml:"sample_size" validate:"min=1"`
	PreviewSize int `yaml:"preview_size" validate:"min=1"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse expands environment references in data, decodes it and validates the
// result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.SiteURL == "" {
		c.Server.SiteURL = c.Server.PublicBaseURL
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = "postgres"
	}
	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = 100
	}
	if c.Catalog.Timeout == 0 {
		c.Catalog.Timeout = 30 * time.Second
	}
	if c.Catalog.Retry.MaxAttempts == 0 {
		c.Catalog.Retry.MaxAttempts = 3
	}
	if c.Catalog.Retry.InitialBackoff == 0 {
		c.Catalog.Retry.InitialBackoff = 1 * time.Second
	}
	if c.Catalog.Retry.MaxBackoff == 0 {
		c.Catalog.Retry.MaxBackoff = 30 * time.Second
	}
	if c.Feed.Path == "" {
		c.Feed.Path = "/api/portal-feed"
	}
	if c.Feed.CacheMaxAge == 0 {
		c.Feed.CacheMaxAge = time.Hour
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "portal_syndicator"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "portal.sync.completed"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "portal_sync_events"
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 30 * time.Minute
	}
	if c.Sync.RunTimeout == 0 {
		c.Sync.RunTimeout = 5 * time.Minute
	}
	if c.Sync.UpsertConcurrency == 0 {
		c.Sync.UpsertConcurrency = 8
	}
	if c.Sync.PortalConcurrency == 0 {
		c.Sync.PortalConcurrency = 4
	}
	if c.Validation.SampleSize == 0 {
		c.Validation.SampleSize = 100
	}
	if c.Validation.PreviewSize == 0 {
		c.Validation.PreviewSize = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
