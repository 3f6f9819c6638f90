package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Menu     MenuConfig     `mapstructure:"menu"`
	Session  SessionConfig  `mapstructure:"session"`
	Workers  WorkersConfig  `mapstructure:"workers"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

// CatalogConfig holds catalog service configuration
type CatalogConfig struct {
	BaseURL              string   `mapstructure:"base_url"`
	Endpoints            []string `mapstructure:"endpoints"`
	HealthPath           string   `mapstructure:"health_path"`
	TreePath             string   `mapstructure:"tree_path"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRetries           int      `mapstructure:"max_retries"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	CircuitBreakerDelay  int      `mapstructure:"circuit_breaker_delay"`
	MaxTreeDepth         int      `mapstructure:"max_tree_depth"`
	MaxTreeNodes         int      `mapstructure:"max_tree_nodes"`
	TreeTTL              int      `mapstructure:"tree_ttl"`

	// Root category ids of the served menus
	RootID         int64 `mapstructure:"root_id"`
	TrendingRootID int64 `mapstructure:"trending_root_id"`

	// Authentication
	Token string `mapstructure:"token"`
}

// MenuConfig holds menu rendering configuration
type MenuConfig struct {
	Icons           map[string]string `mapstructure:"icons"`
	IconTable       []string          `mapstructure:"icon_table"`
	PlaceholderIcon string            `mapstructure:"placeholder_icon"`
	// Gated maps a top-level entry name to the permission needed to see it
	Gated map[string]string `mapstructure:"gated"`
}

// SessionConfig holds navigation session configuration
type SessionConfig struct {
	IdleTimeout     int `mapstructure:"idle_timeout"`
	JanitorInterval int `mapstructure:"janitor_interval"`
}

// WorkersConfig holds the consumer count per task stream
type WorkersConfig struct {
	Selection int `mapstructure:"selection"`
	Refresh   int `mapstructure:"refresh"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DSN renders the pgx connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

// Addr renders host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load loads configuration from config.yaml in the working directory with
// environment variable overrides
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads config.yaml from dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in %s", dir)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Catalog.BaseURL == "" && len(c.Catalog.Endpoints) == 0 {
		return fmt.Errorf("catalog.base_url or catalog.endpoints must be set")
	}
	if c.Catalog.RootID <= 0 {
		return fmt.Errorf("catalog.root_id must be positive, got %d", c.Catalog.RootID)
	}
	if c.Catalog.MaxTreeDepth <= 0 {
		return fmt.Errorf("catalog.max_tree_depth must be positive, got %d", c.Catalog.MaxTreeDepth)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.request_timeout", 30)
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("catalog.base_url", "http://localhost:9000/api/v1")
	v.SetDefault("catalog.endpoints", []string{})
	v.SetDefault("catalog.health_path", "/health")
	v.SetDefault("catalog.tree_path", "/category/tree")
	v.SetDefault("catalog.timeout", 30)
	v.SetDefault("catalog.max_retries", 3)
	v.SetDefault("catalog.max_requests_per_second", 20)
	v.SetDefault("catalog.circuit_breaker_delay", 60)
	v.SetDefault("catalog.max_tree_depth", 8)
	v.SetDefault("catalog.max_tree_nodes", 50000)
	v.SetDefault("catalog.tree_ttl", 300)
	v.SetDefault("catalog.root_id", 7)
	v.SetDefault("catalog.trending_root_id", 8)
	v.SetDefault("catalog.token", "")

	v.SetDefault("menu.icons", map[string]string{
		"store":     "icons/store.svg",
		"buy group": "icons/buygroup.svg",
		"factories": "icons/factories.svg",
		"rfq":       "icons/rfq.svg",
	})
	v.SetDefault("menu.icon_table", []string{})
	v.SetDefault("menu.placeholder_icon", "icons/category-placeholder.svg")
	v.SetDefault("menu.gated", map[string]string{})

	v.SetDefault("session.idle_timeout", 1800)
	v.SetDefault("session.janitor_interval", 60)

	v.SetDefault("workers.selection", 4)
	v.SetDefault("workers.refresh", 1)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "catnav")
	v.SetDefault("database.user", "catnav_user")
	v.SetDefault("database.password", "catnav_pass")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "catnav_consumer")
	v.SetDefault("redis.min_idle_time", 120)
}
