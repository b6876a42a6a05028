package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"mspro-labs/cellar-scout/internal/models"
)

// AppConfig holds infrastructure config from env vars and an optional file
type AppConfig struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	LogFile     string         `mapstructure:"log_file"`
	ServiceName string         `mapstructure:"service_name"`
	ConfigPath  string         `mapstructure:"config_path"` // Path to the YAML site config
	Database    DatabaseConfig `mapstructure:"database"`
}

type DatabaseConfig struct {
	Driver  string         `mapstructure:"driver"` // sqlite3, pgx or postgres
	DSN     string         `mapstructure:"dsn"`
	Table   string         `mapstructure:"table"`
	Variant models.Variant `mapstructure:"variant"`
}

// SiteConfig holds all retailer specific settings (from YAML)
type SiteConfig struct {
	Retailer    string            `yaml:"retailer"`
	ProductURLs []string          `yaml:"product_urls"`
	Fields      map[string]Field  `yaml:"fields"`
	Fetch       FetchConfig       `yaml:"fetch"`
	QueryParams map[string]string `yaml:"query_params"`
}

// Field locates one Record field on a product page.
type Field struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr"` // read this attribute instead of the node text
}

type FetchConfig struct {
	Timeout  time.Duration     `yaml:"timeout"`
	MinDelay time.Duration     `yaml:"min_delay"`
	MaxDelay time.Duration     `yaml:"max_delay"`
	Headers  map[string]string `yaml:"headers"`
}

// DefaultFetchConfig is what a site gets for any fetch setting it leaves out.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:  30 * time.Second,
		MinDelay: 300 * time.Millisecond,
		MaxDelay: 800 * time.Millisecond,
	}
}

// Load reads the application config from environment variables and, when
// path is set, a config file.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "cellar-scout.log")
	v.SetDefault("service_name", "cellar-scout")
	v.SetDefault("config_path", "config.yaml")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "./local-data/alcohol.db")
	v.SetDefault("database.table", "alcohol_data")
	v.SetDefault("database.variant", string(models.Standard))

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file at '%s': %w", path, err)
		}
	}

	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("log_file", "LOG_FILE")
	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("config_path", "CONFIG_PATH")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.dsn", "DB_DSN", "DB_PATH")
	v.BindEnv("database.table", "DB_TABLE")
	v.BindEnv("database.variant", "SCHEMA_VARIANT")

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "pgx", "postgres":
	case "":
		return errors.New("database.driver is required")
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Database.Table == "" {
		return errors.New("database.table is required")
	}
	if _, err := c.Database.Variant.Columns(); err != nil {
		return err
	}
	return nil
}

// LoadSiteConfig reads the YAML file describing a retailer.
func LoadSiteConfig(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file at '%s': %w", path, err)
	}
	return ParseSiteConfig(data)
}

// ParseSiteConfig decodes a site config and fills unset fetch settings
// from DefaultFetchConfig.
func ParseSiteConfig(data []byte) (*SiteConfig, error) {
	var cfg SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := mergo.Merge(&cfg.Fetch, DefaultFetchConfig()); err != nil {
		return nil, fmt.Errorf("failed to apply fetch defaults: %w", err)
	}
	if cfg.Fetch.MaxDelay < cfg.Fetch.MinDelay {
		return nil, fmt.Errorf("fetch.max_delay (%s) is below fetch.min_delay (%s)", cfg.Fetch.MaxDelay, cfg.Fetch.MinDelay)
	}
	if cfg.Retailer == "" {
		return nil, errors.New("retailer is required")
	}
	for name := range cfg.Fields {
		if !models.IsField(name) {
			return nil, fmt.Errorf("fields.%s is not a product column", name)
		}
	}
	return &cfg, nil
}
