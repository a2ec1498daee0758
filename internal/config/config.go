// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimit      int           `yaml:"rate_limit"`  // order creations per window per principal
	RateWindow     time.Duration `yaml:"rate_window"` // window for rate_limit
}

type LogConfig struct {
	Level      string `yaml:"level"`    // trace|debug|info|warn|error
	Format     string `yaml:"format"`   // json|console
	Sampling   bool   `yaml:"sampling"` // enable sampling in prod
	File       string `yaml:"file"`     // optional rotating file sink
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PaymentConfig struct {
	Provider string `yaml:"provider"` // razorpay | noop
	Currency string `yaml:"currency"`
	Razorpay struct {
		KeyID     string        `yaml:"key_id"`
		KeySecret string        `yaml:"key_secret"`
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"razorpay"`
}

type CommissionConfig struct {
	RateBps int64 `yaml:"rate_bps"` // 200 = 2%
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
	JWTSecret     string `yaml:"jwt_secret"`
}

type NotificationConfig struct {
	Workers int `yaml:"workers"`
	SMTP    struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`
	Telegram struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`
}

type StorageConfig struct {
	S3 struct {
		Bucket          string `yaml:"bucket"`
		Region          string `yaml:"region"`
		Endpoint        string `yaml:"endpoint"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		Prefix          string `yaml:"prefix"`
	} `yaml:"s3"`
}

type JobsConfig struct {
	BillingSweepInterval time.Duration `yaml:"billing_sweep_interval"` // 0 uses the default; negative disables
}

type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Log          LogConfig          `yaml:"log"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Payment      PaymentConfig      `yaml:"payment"`
	Commission   CommissionConfig   `yaml:"commission"`
	Security     SecurityConfig     `yaml:"security"`
	Notification NotificationConfig `yaml:"notification"`
	Storage      StorageConfig      `yaml:"storage"`
	Jobs         JobsConfig         `yaml:"jobs"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, then lets environment variables
// (optionally from a .env file) override secrets.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployment
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	envStr("DATABASE_URL", &cfg.Database.URL)
	envStr("REDIS_URL", &cfg.Redis.URL)
	envStr("REDIS_PASSWORD", &cfg.Redis.Password)
	envStr("RAZORPAY_KEY_ID", &cfg.Payment.Razorpay.KeyID)
	envStr("RAZORPAY_KEY_SECRET", &cfg.Payment.Razorpay.KeySecret)
	envStr("JWT_SECRET", &cfg.Security.JWTSecret)
	envStr("ENCRYPTION_KEY", &cfg.Security.EncryptionKey)
	envStr("SMTP_PASSWORD", &cfg.Notification.SMTP.Password)
	envStr("TELEGRAM_BOT_TOKEN", &cfg.Notification.Telegram.Token)
	envStr("S3_ACCESS_KEY_ID", &cfg.Storage.S3.AccessKeyID)
	envStr("S3_SECRET_ACCESS_KEY", &cfg.Storage.S3.SecretAccessKey)
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = p
		}
	}
}

func envStr(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTP.RateLimit <= 0 {
		cfg.HTTP.RateLimit = 20
	}
	if cfg.HTTP.RateWindow <= 0 {
		cfg.HTTP.RateWindow = time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "razorpay"
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "INR"
	}
	if cfg.Payment.Razorpay.BaseURL == "" {
		cfg.Payment.Razorpay.BaseURL = "https://api.razorpay.com"
	}
	if cfg.Payment.Razorpay.Timeout <= 0 {
		cfg.Payment.Razorpay.Timeout = 15 * time.Second
	}
	if cfg.Commission.RateBps <= 0 {
		cfg.Commission.RateBps = 200
	}
	if cfg.Notification.Workers <= 0 {
		cfg.Notification.Workers = 2
	}
	if cfg.Notification.SMTP.Port == 0 {
		cfg.Notification.SMTP.Port = 587
	}
	if cfg.Jobs.BillingSweepInterval == 0 {
		cfg.Jobs.BillingSweepInterval = time.Hour
	}
}

// Validate performs minimal checks on required settings.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Security.JWTSecret == "" {
		return errors.New("security.jwt_secret is required")
	}
	if c.Security.EncryptionKey == "" {
		return errors.New("security.encryption_key is required")
	}
	if c.Payment.Provider != "razorpay" && c.Payment.Provider != "noop" {
		return fmt.Errorf("payment.provider must be razorpay or noop, got %q", c.Payment.Provider)
	}
	if c.Payment.Provider == "razorpay" && (c.Payment.Razorpay.KeyID == "" || c.Payment.Razorpay.KeySecret == "") {
		return errors.New("payment.razorpay.key_id and key_secret are required")
	}
	if c.Commission.RateBps > 10000 {
		return fmt.Errorf("commission.rate_bps out of range: %d", c.Commission.RateBps)
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
