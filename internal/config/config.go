package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	// Timezone decides the calendar day used for payment dates and overdue checks.
	Timezone string

	HTTPAddr string

	DatabaseDriver string
	DatabaseDSN    string
	SnowflakeNode  int64

	RedisURL         string
	SettingsCacheTTL time.Duration

	JWTSecret string
	JWTIssuer string
	LoginURL  string

	LogLevel  string
	LogFormat string

	TracingEnabled       bool
	TracingEndpoint      string
	TracingProtocol      string
	TracingSamplingRatio float64

	RenderOutputDir string
	RenderFormat    string

	PaymentRateLimit  int
	PaymentRateWindow time.Duration
}

// IsProduction reports whether the app runs in production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

type configFile struct {
	App struct {
		Name        string `yaml:"name"`
		Version     string `yaml:"version"`
		Environment string `yaml:"environment"`
		Timezone    string `yaml:"timezone"`
	} `yaml:"app"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Database struct {
		Driver        string `yaml:"driver"`
		DSN           string `yaml:"dsn"`
		SnowflakeNode int64  `yaml:"snowflake_node"`
	} `yaml:"database"`
	Redis struct {
		URL              string `yaml:"url"`
		SettingsCacheTTL string `yaml:"settings_cache_ttl"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		JWTIssuer string `yaml:"jwt_issuer"`
		LoginURL  string `yaml:"login_url"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Tracing struct {
		Enabled       *bool   `yaml:"enabled"`
		Endpoint      string  `yaml:"endpoint"`
		Protocol      string  `yaml:"protocol"`
		SamplingRatio float64 `yaml:"sampling_ratio"`
	} `yaml:"tracing"`
	Rendering struct {
		OutputDir string `yaml:"output_dir"`
		Format    string `yaml:"format"`
	} `yaml:"rendering"`
	Payments struct {
		RateLimit  int    `yaml:"rate_limit"`
		RateWindow string `yaml:"rate_window"`
	} `yaml:"payments"`
}

func defaults() Config {
	return Config{
		AppName:              "invoicer",
		AppVersion:           "dev",
		Environment:          "development",
		Timezone:             "Asia/Kolkata",
		HTTPAddr:             ":8080",
		DatabaseDriver:       "sqlite",
		DatabaseDSN:          "file:invoicer.db?cache=shared",
		SnowflakeNode:        1,
		SettingsCacheTTL:     5 * time.Minute,
		JWTIssuer:            "invoicer",
		LoginURL:             "/login",
		LogLevel:             "info",
		LogFormat:            "json",
		TracingProtocol:      "grpc",
		TracingSamplingRatio: 0.1,
		RenderOutputDir:      "out",
		RenderFormat:         "pdf",
		PaymentRateLimit:     30,
		PaymentRateWindow:    time.Minute,
	}
}

// Load resolves configuration in priority order: defaults -> YAML file ->
// .env -> environment. Missing files are skipped.
func Load(path string) (Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&cfg.AppName, f.App.Name)
	setString(&cfg.AppVersion, f.App.Version)
	setString(&cfg.Environment, f.App.Environment)
	setString(&cfg.Timezone, f.App.Timezone)
	setString(&cfg.HTTPAddr, f.HTTP.Addr)
	setString(&cfg.DatabaseDriver, f.Database.Driver)
	setString(&cfg.DatabaseDSN, f.Database.DSN)
	if f.Database.SnowflakeNode > 0 {
		cfg.SnowflakeNode = f.Database.SnowflakeNode
	}
	setString(&cfg.RedisURL, f.Redis.URL)
	if err := setDuration(&cfg.SettingsCacheTTL, f.Redis.SettingsCacheTTL, "redis.settings_cache_ttl"); err != nil {
		return err
	}
	setString(&cfg.JWTSecret, f.Auth.JWTSecret)
	setString(&cfg.JWTIssuer, f.Auth.JWTIssuer)
	setString(&cfg.LoginURL, f.Auth.LoginURL)
	setString(&cfg.LogLevel, f.Log.Level)
	setString(&cfg.LogFormat, f.Log.Format)
	if f.Tracing.Enabled != nil {
		cfg.TracingEnabled = *f.Tracing.Enabled
	}
	setString(&cfg.TracingEndpoint, f.Tracing.Endpoint)
	setString(&cfg.TracingProtocol, f.Tracing.Protocol)
	if f.Tracing.SamplingRatio > 0 {
		cfg.TracingSamplingRatio = f.Tracing.SamplingRatio
	}
	setString(&cfg.RenderOutputDir, f.Rendering.OutputDir)
	setString(&cfg.RenderFormat, f.Rendering.Format)
	if f.Payments.RateLimit > 0 {
		cfg.PaymentRateLimit = f.Payments.RateLimit
	}
	return setDuration(&cfg.PaymentRateWindow, f.Payments.RateWindow, "payments.rate_window")
}

func applyEnv(cfg *Config) error {
	setString(&cfg.AppName, os.Getenv("APP_NAME"))
	setString(&cfg.AppVersion, os.Getenv("APP_VERSION"))
	setString(&cfg.Environment, os.Getenv("APP_ENV"))
	setString(&cfg.Timezone, os.Getenv("APP_TIMEZONE"))
	setString(&cfg.HTTPAddr, os.Getenv("HTTP_ADDR"))
	setString(&cfg.DatabaseDriver, os.Getenv("DB_DRIVER"))
	setString(&cfg.DatabaseDSN, os.Getenv("DATABASE_URL"))
	setString(&cfg.RedisURL, os.Getenv("REDIS_URL"))
	setString(&cfg.JWTSecret, os.Getenv("JWT_SECRET"))
	setString(&cfg.JWTIssuer, os.Getenv("JWT_ISSUER"))
	setString(&cfg.LoginURL, os.Getenv("LOGIN_URL"))
	setString(&cfg.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&cfg.LogFormat, os.Getenv("LOG_FORMAT"))
	setString(&cfg.TracingEndpoint, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	setString(&cfg.TracingProtocol, os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"))
	setString(&cfg.RenderOutputDir, os.Getenv("RENDER_OUTPUT_DIR"))

	if raw := strings.TrimSpace(os.Getenv("SNOWFLAKE_NODE")); raw != "" {
		node, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parse SNOWFLAKE_NODE: %w", err)
		}
		cfg.SnowflakeNode = node
	}
	if raw := strings.TrimSpace(os.Getenv("TRACING_ENABLED")); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse TRACING_ENABLED: %w", err)
		}
		cfg.TracingEnabled = enabled
	}
	if raw := strings.TrimSpace(os.Getenv("PAYMENT_RATE_LIMIT")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse PAYMENT_RATE_LIMIT: %w", err)
		}
		cfg.PaymentRateLimit = limit
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("snowflake node %d out of range", c.SnowflakeNode)
	}
	if c.IsProduction() && strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("jwt secret is required in production")
	}
	if c.PaymentRateLimit <= 0 {
		return errors.New("payment rate limit must be positive")
	}
	return nil
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, raw, field string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	*dst = d
	return nil
}

// Path is the config file location handed to Module.
type Path string

var Module = fx.Module("config",
	fx.Provide(func(path Path) (Config, error) {
		return Load(string(path))
	}),
)
