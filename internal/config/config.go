package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rl1809/order-backoffice/internal/core/domain"
)

type Config struct {
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	GRPCAddr string `mapstructure:"GRPC_ADDR"`

	MySQLDSN             string        `mapstructure:"MYSQL_DSN"`
	MySQLMaxOpenConns    int           `mapstructure:"MYSQL_MAX_OPEN_CONNS"`
	MySQLMaxIdleConns    int           `mapstructure:"MYSQL_MAX_IDLE_CONNS"`
	MySQLConnMaxLifetime time.Duration `mapstructure:"MYSQL_CONN_MAX_LIFETIME"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPoolSize int    `mapstructure:"REDIS_POOL_SIZE"`

	CacheTTL          time.Duration `mapstructure:"CACHE_TTL"`
	AppEnv            string        `mapstructure:"APP_ENV"`
	ReportTimezone    string        `mapstructure:"REPORT_TIMEZONE"`
	DefaultPageSize   int           `mapstructure:"DEFAULT_PAGE_SIZE"`
	StatusTransitions string        `mapstructure:"STATUS_TRANSITIONS"`
	QueryPushdown     bool          `mapstructure:"QUERY_PUSHDOWN"`
	ShutdownTimeout   time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"HTTP_ADDR":               ":8080",
	"GRPC_ADDR":               ":50051",
	"MYSQL_DSN":               "root:root@tcp(localhost:3306)/backoffice?parseTime=true",
	"MYSQL_MAX_OPEN_CONNS":    50,
	"MYSQL_MAX_IDLE_CONNS":    25,
	"MYSQL_CONN_MAX_LIFETIME": 5 * time.Minute,
	"REDIS_ADDR":              "localhost:6379",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"REDIS_POOL_SIZE":         100,
	"CACHE_TTL":               time.Minute,
	"APP_ENV":                 "development",
	"REPORT_TIMEZONE":         "UTC",
	"DEFAULT_PAGE_SIZE":       domain.DefaultPageSize,
	"STATUS_TRANSITIONS":      "",
	"QUERY_PUSHDOWN":          true,
	"SHUTDOWN_TIMEOUT":        5 * time.Second,
}

// Load reads defaults, then the optional file at path (.env or any format
// viper understands), then the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}
	if strings.TrimSpace(c.GRPCAddr) == "" {
		errs = append(errs, errors.New("GRPC_ADDR is required"))
	}
	if strings.TrimSpace(c.MySQLDSN) == "" {
		errs = append(errs, errors.New("MYSQL_DSN is required"))
	}
	if strings.TrimSpace(c.RedisAddr) == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required"))
	}
	if c.DefaultPageSize <= 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Transitions(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c *Config) Transitions() (domain.TransitionTable, error) {
	table, err := domain.ParseTransitionTable(c.StatusTransitions)
	if err != nil {
		return nil, fmt.Errorf("STATUS_TRANSITIONS: %w", err)
	}
	return table, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}
