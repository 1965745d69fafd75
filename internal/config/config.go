package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"gstfiling/internal/taxtable"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	CORS   CORSConfig
	Engine EngineConfig
	S3     S3Config
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
}

func (c *DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// S3Config holds the export archive settings. An empty Bucket disables
// archiving.
type S3Config struct {
	Region        string
	Bucket        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PresignExpiry int64
}

// Enabled reports whether exports should be archived.
func (c *S3Config) Enabled() bool { return c.Bucket != "" }

// EngineConfig tunes the validation engine's policy knobs.
type EngineConfig struct {
	AssumeStandardRate  bool
	StandardRate        decimal.Decimal
	TimeBarMonths       int
	StalePeriodMonths   int
	InterestRatePercent decimal.Decimal
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("GSTFILING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "gstfiling")
	v.SetDefault("db.password", "gstfiling")
	v.SetDefault("db.name", "gstfiling")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	v.SetDefault("engine.assume_standard_rate", false)
	v.SetDefault("engine.standard_rate", "18")
	v.SetDefault("engine.time_bar_months", 3)
	v.SetDefault("engine.stale_period_months", 12)
	v.SetDefault("engine.interest_rate_percent", "18")

	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Bind env vars explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                  "GSTFILING_SERVER_PORT",
		"server.read_timeout":          "GSTFILING_SERVER_READ_TIMEOUT",
		"server.write_timeout":         "GSTFILING_SERVER_WRITE_TIMEOUT",
		"server.environment":           "GSTFILING_SERVER_ENVIRONMENT",
		"db.host":                      "GSTFILING_DB_HOST",
		"db.port":                      "GSTFILING_DB_PORT",
		"db.user":                      "GSTFILING_DB_USER",
		"db.password":                  "GSTFILING_DB_PASSWORD",
		"db.name":                      "GSTFILING_DB_NAME",
		"db.sslmode":                   "GSTFILING_DB_SSLMODE",
		"db.max_open_conns":            "GSTFILING_DB_MAX_OPEN_CONNS",
		"db.max_idle_conns":            "GSTFILING_DB_MAX_IDLE_CONNS",
		"log.level":                    "GSTFILING_LOG_LEVEL",
		"log.format":                   "GSTFILING_LOG_FORMAT",
		"cors.allowed_origins":         "GSTFILING_CORS_ALLOWED_ORIGINS",
		"engine.assume_standard_rate":  "GSTFILING_ENGINE_ASSUME_STANDARD_RATE",
		"engine.standard_rate":         "GSTFILING_ENGINE_STANDARD_RATE",
		"engine.time_bar_months":       "GSTFILING_ENGINE_TIME_BAR_MONTHS",
		"engine.stale_period_months":   "GSTFILING_ENGINE_STALE_PERIOD_MONTHS",
		"engine.interest_rate_percent": "GSTFILING_ENGINE_INTEREST_RATE_PERCENT",
		"s3.region":                    "GSTFILING_S3_REGION",
		"s3.bucket":                    "GSTFILING_S3_BUCKET",
		"s3.endpoint":                  "GSTFILING_S3_ENDPOINT",
		"s3.access_key":                "GSTFILING_S3_ACCESS_KEY",
		"s3.secret_key":                "GSTFILING_S3_SECRET_KEY",
		"s3.presign_expiry":            "GSTFILING_S3_PRESIGN_EXPIRY",
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding env %s: %w", env, err)
		}
	}

	// Platforms that inject PORT win when no explicit port is set.
	if port := os.Getenv("PORT"); port != "" && os.Getenv("GSTFILING_SERVER_PORT") == "" {
		v.Set("server.port", ":"+port)
	}

	standardRate, err := decimal.NewFromString(v.GetString("engine.standard_rate"))
	if err != nil {
		return nil, fmt.Errorf("parsing engine.standard_rate: %w", err)
	}
	interestRate, err := decimal.NewFromString(v.GetString("engine.interest_rate_percent"))
	if err != nil {
		return nil, fmt.Errorf("parsing engine.interest_rate_percent: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			Environment:  v.GetString("server.environment"),
		},
		DB: DBConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
			MaxOpen:  v.GetInt("db.max_open_conns"),
			MaxIdle:  v.GetInt("db.max_idle_conns"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
		},
		Engine: EngineConfig{
			AssumeStandardRate:  v.GetBool("engine.assume_standard_rate"),
			StandardRate:        standardRate,
			TimeBarMonths:       v.GetInt("engine.time_bar_months"),
			StalePeriodMonths:   v.GetInt("engine.stale_period_months"),
			InterestRatePercent: interestRate,
		},
		S3: S3Config{
			Region:        v.GetString("s3.region"),
			Bucket:        v.GetString("s3.bucket"),
			Endpoint:      v.GetString("s3.endpoint"),
			AccessKey:     v.GetString("s3.access_key"),
			SecretKey:     v.GetString("s3.secret_key"),
			PresignExpiry: v.GetInt64("s3.presign_expiry"),
		},
	}

	if cfg.Engine.TimeBarMonths <= 0 || cfg.Engine.StalePeriodMonths <= 0 {
		return nil, fmt.Errorf("engine month windows must be positive")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Table builds the tax table these settings describe.
func (c *EngineConfig) Table() *taxtable.Table {
	return taxtable.New(taxtable.Options{
		StandardRate:        c.StandardRate,
		TimeBarMonths:       c.TimeBarMonths,
		StalePeriodMonths:   c.StalePeriodMonths,
		InterestRatePercent: c.InterestRatePercent,
	})
}
