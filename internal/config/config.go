package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	ModelPath         string `mapstructure:"MODEL_PATH"`
	DeliveryStorePath string `mapstructure:"DELIVERY_STORE_PATH"`

	SMTPHost       string `mapstructure:"SMTP_HOST"`
	SMTPPort       int    `mapstructure:"SMTP_PORT"`
	SMTPUser       string `mapstructure:"SMTP_USER"`
	SMTPPassword   string `mapstructure:"SMTP_PASSWORD"`
	SMTPSenderName string `mapstructure:"SMTP_SENDER_NAME"`

	ConnectTimeoutMs int `mapstructure:"NOTIFY_CONNECT_TIMEOUT_MS"`
	SendTimeoutMs    int `mapstructure:"NOTIFY_SEND_TIMEOUT_MS"`
	OverallTimeoutMs int `mapstructure:"NOTIFY_OVERALL_TIMEOUT_MS"`

	AuditQueueSize int    `mapstructure:"AUDIT_QUEUE_SIZE"`
	AuthSecret     string `mapstructure:"AUTH_SECRET"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("MODEL_PATH", "models/model_snapshot.json")
	v.SetDefault("DELIVERY_STORE_PATH", "data/reports")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_SENDER_NAME", "MediCare+ Platform")
	v.SetDefault("NOTIFY_CONNECT_TIMEOUT_MS", 15000)
	v.SetDefault("NOTIFY_SEND_TIMEOUT_MS", 30000)
	v.SetDefault("NOTIFY_OVERALL_TIMEOUT_MS", 45000)
	v.SetDefault("AUDIT_QUEUE_SIZE", 256)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MODEL_PATH")
	v.BindEnv("DELIVERY_STORE_PATH")
	v.BindEnv("SMTP_HOST")
	v.BindEnv("SMTP_PORT")
	v.BindEnv("SMTP_USER")
	v.BindEnv("SMTP_PASSWORD")
	v.BindEnv("SMTP_SENDER_NAME")
	v.BindEnv("NOTIFY_CONNECT_TIMEOUT_MS")
	v.BindEnv("NOTIFY_SEND_TIMEOUT_MS")
	v.BindEnv("NOTIFY_OVERALL_TIMEOUT_MS")
	v.BindEnv("AUDIT_QUEUE_SIZE")
	v.BindEnv("AUTH_SECRET")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ConnectTimeout returns the notifier connection timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
}

// SendTimeout returns the notifier send timeout as a duration.
func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutMs) * time.Millisecond
}

// OverallTimeout returns the notifier wall-clock budget as a duration.
func (c *Config) OverallTimeout() time.Duration {
	return time.Duration(c.OverallTimeoutMs) * time.Millisecond
}

// SMTPConfigured reports whether outbound email credentials are present.
// The pipeline still runs without them; reports stay in the delivery store.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPassword != ""
}

// Validate checks that the configuration is safe to run. Timeout tiers must
// be positive and nested inside the overall budget, and production requires
// an auth secret so the API is not left open.
func (c *Config) Validate() error {
	if c.ConnectTimeoutMs <= 0 || c.SendTimeoutMs <= 0 || c.OverallTimeoutMs <= 0 {
		return fmt.Errorf("notifier timeouts must be positive (connect=%d send=%d overall=%d)",
			c.ConnectTimeoutMs, c.SendTimeoutMs, c.OverallTimeoutMs)
	}
	if c.ConnectTimeoutMs > c.OverallTimeoutMs {
		return fmt.Errorf("NOTIFY_CONNECT_TIMEOUT_MS (%d) exceeds NOTIFY_OVERALL_TIMEOUT_MS (%d)",
			c.ConnectTimeoutMs, c.OverallTimeoutMs)
	}
	if c.SendTimeoutMs > c.OverallTimeoutMs {
		return fmt.Errorf("NOTIFY_SEND_TIMEOUT_MS (%d) exceeds NOTIFY_OVERALL_TIMEOUT_MS (%d)",
			c.SendTimeoutMs, c.OverallTimeoutMs)
	}
	if c.AuditQueueSize <= 0 {
		return fmt.Errorf("AUDIT_QUEUE_SIZE must be positive, got %d", c.AuditQueueSize)
	}
	if c.IsProduction() && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required in production")
	}
	return nil
}
