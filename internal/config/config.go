package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Security  SecurityConfig  `mapstructure:"security" yaml:"security"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	CSVFile string `mapstructure:"csv_file" yaml:"csv_file"`
}

// DashboardConfig controls sampling and the parsed-table cache.
type DashboardConfig struct {
	SampleSize int    `mapstructure:"sample_size" yaml:"sample_size"`
	Seed       uint64 `mapstructure:"seed" yaml:"seed"`
	CacheDir   string `mapstructure:"cache_dir" yaml:"cache_dir"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type SecurityConfig struct {
	EnableCSRF      bool     `mapstructure:"csrf_enabled" yaml:"csrf_enabled"`
	EnableRateLimit bool     `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled"`
	RateLimitRPS    int      `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst  int      `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	AllowedOrigins  []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	TrustedProxies  []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`
}

var defaults = map[string]any{
	"server.host":                 "localhost",
	"server.port":                 8084,
	"server.read_timeout":         10 * time.Second,
	"server.write_timeout":        10 * time.Second,
	"server.idle_timeout":         60 * time.Second,
	"server.shutdown_timeout":     30 * time.Second,
	"database.csv_file":           "Imports_Exports_Dataset.csv",
	"dashboard.sample_size":       3001,
	"dashboard.seed":              55040,
	"dashboard.cache_dir":         ".cache",
	"logger.level":                "info",
	"logger.format":               "json",
	"security.csrf_enabled":       true,
	"security.rate_limit_enabled": true,
	"security.rate_limit_rps":     100,
	"security.rate_limit_burst":   10,
	"security.allowed_origins":    []string{"http://localhost:8084"},
	"security.trusted_proxies":    []string{"127.0.0.1"},
}

// Environment variable names kept flat so existing deployments keep working.
var envNames = map[string]string{
	"server.host":                 "SERVER_HOST",
	"server.port":                 "SERVER_PORT",
	"server.read_timeout":         "SERVER_READ_TIMEOUT",
	"server.write_timeout":        "SERVER_WRITE_TIMEOUT",
	"server.idle_timeout":         "SERVER_IDLE_TIMEOUT",
	"server.shutdown_timeout":     "SERVER_SHUTDOWN_TIMEOUT",
	"database.csv_file":           "CSV_FILE",
	"dashboard.sample_size":       "DASHBOARD_SAMPLE_SIZE",
	"dashboard.seed":              "DASHBOARD_SEED",
	"dashboard.cache_dir":         "DASHBOARD_CACHE_DIR",
	"logger.level":                "LOG_LEVEL",
	"logger.format":               "LOG_FORMAT",
	"security.csrf_enabled":       "SECURITY_CSRF_ENABLED",
	"security.rate_limit_enabled": "SECURITY_RATE_LIMIT_ENABLED",
	"security.rate_limit_rps":     "SECURITY_RATE_LIMIT_RPS",
	"security.rate_limit_burst":   "SECURITY_RATE_LIMIT_BURST",
	"security.allowed_origins":    "SECURITY_ALLOWED_ORIGINS",
	"security.trusted_proxies":    "SECURITY_TRUSTED_PROXIES",
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment. Precedence: env > config file > defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Database.CSVFile == "" {
		return fmt.Errorf("CSV file path cannot be empty")
	}

	if c.Dashboard.SampleSize <= 0 {
		return fmt.Errorf("dashboard sample size must be positive, got %d", c.Dashboard.SampleSize)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
