package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Seedgta1/N8/internal/domain/compliance"
	"github.com/Seedgta1/N8/internal/infra/db"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		PublicHost     string   `yaml:"publicHost"`
		CORSOrigins    []string `yaml:"corsOrigins"`
		TimeZone       string   `yaml:"timeZone"`
		TrustedProxies []string `yaml:"trustedProxies"` // CIDRs allowed to set X-Forwarded-For
	} `yaml:"server"`

	Database struct {
		Driver   string  `yaml:"driver"` // mysql | postgres | memory
		Host     string  `yaml:"host"`
		Port     int     `yaml:"port"`
		User     string  `yaml:"user"`
		Password string  `yaml:"password"`
		Name     string  `yaml:"name"`
		SSLMode  string  `yaml:"sslMode"`
		Pool     db.Pool `yaml:"pool"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Redis struct {
		Address   string        `yaml:"address"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		ScriptTTL time.Duration `yaml:"scriptTTL"`
	} `yaml:"redis"`

	OpenAI struct {
		APIKey  string        `yaml:"apiKey"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"openai"`

	Stripe struct {
		SecretKey     string `yaml:"secretKey"`
		WebhookSecret string `yaml:"webhookSecret"`
		PriceID       string `yaml:"priceID"`
		SuccessURL    string `yaml:"successURL"`
		CancelURL     string `yaml:"cancelURL"`
	} `yaml:"stripe"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`

	Auth struct {
		JWTSecret  string        `yaml:"jwtSecret"`
		Expiry     time.Duration `yaml:"expiry"`
		AdminEmail string        `yaml:"adminEmail"`
	} `yaml:"auth"`

	Scan struct {
		Mode string `yaml:"mode"` // development | production
		// nil means "use the preset of Mode"
		ComplianceThreshold *int   `yaml:"complianceThreshold"`
		CatalogPath         string `yaml:"catalogPath"`
	} `yaml:"scan"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rateLimit"`
}

// Load baca file .env (opsional) lalu config.yaml, kemudian override dari env
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("DB_PASSWORD", &c.Database.Password)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("ADMIN_EMAIL", &c.Auth.AdminEmail)
	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("STRIPE_SECRET_KEY", &c.Stripe.SecretKey)
	str("STRIPE_WEBHOOK_SECRET", &c.Stripe.WebhookSecret)
	str("MINIO_SECRET_KEY", &c.Minio.SecretKey)
	str("SMTP_PASSWORD", &c.SMTP.Password)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("SCAN_MODE", &c.Scan.Mode)
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.TimeZone == "" {
		c.Server.TimeZone = "Europe/Rome"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Redis.ScriptTTL == 0 {
		c.Redis.ScriptTTL = 24 * time.Hour
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = 60 * time.Second
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Auth.Expiry == 0 {
		c.Auth.Expiry = 24 * time.Hour
	}
	if c.Scan.Mode == "" {
		c.Scan.Mode = "production"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 1
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 5
	}
}

var (
	ErrInvalidDriver    = errors.New("database.driver must be mysql, postgres or memory")
	ErrInvalidScanMode  = errors.New("scan.mode must be development or production")
	ErrMissingJWTSecret = errors.New("auth.jwtSecret is required")
)

// Validate cek nilai config yang wajib
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "memory":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Database.Driver)
	}
	switch c.Scan.Mode {
	case "development", "production":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScanMode, c.Scan.Mode)
	}
	if err := c.Threshold().Validate(); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// Threshold returns the configured compliance threshold, falling back to the mode preset.
func (c *Config) Threshold() compliance.Threshold {
	if c.Scan.ComplianceThreshold != nil {
		return compliance.Threshold(*c.Scan.ComplianceThreshold)
	}
	return compliance.ThresholdForMode(c.Scan.Mode)
}

// Location is the time zone used for locale dates; UTC when unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}
