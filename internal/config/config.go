// Package config provides application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	DBPath         string
	FrontendURL    string
	AllowedOrigins []string
	TemplateDir    string
	ContentPath    string

	Assistant AssistantConfig
	RateLimit RateLimitConfig
	SMTP      SMTPConfig
	Admin     AdminConfig

	AnalyticsEnabled bool
	VisitorRetention time.Duration
}

// AssistantConfig controls the canned-response assistant.
type AssistantConfig struct {
	ReplyDelay time.Duration
	SessionTTL time.Duration
	RulesPath  string
}

// RateLimitConfig bounds message submissions per client.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// SMTPConfig is used by the contact form mailer.
type SMTPConfig struct {
	Host    string
	Port    string
	User    string
	Pass    string
	ToEmail string
}

// Configured reports whether credentials are present.
func (s SMTPConfig) Configured() bool {
	return s.User != "" && s.Pass != ""
}

// AdminConfig holds dashboard credentials.
type AdminConfig struct {
	Username string
	Password string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "./data/folio.db")
	v.SetDefault("frontend_url", "")
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("template_dir", "")
	v.SetDefault("content_path", "")
	v.SetDefault("assistant_reply_delay", "300ms")
	v.SetDefault("assistant_session_ttl", "30m")
	v.SetDefault("assistant_rules_path", "")
	v.SetDefault("rate_limit_requests", 20)
	v.SetDefault("rate_limit_window", "1m")
	v.SetDefault("smtp_host", "smtp.gmail.com")
	v.SetDefault("smtp_port", "587")
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_pass", "")
	v.SetDefault("to_email", "contact@alsabribhuiyan.xyz")
	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_password", "admin123")
	v.SetDefault("analytics_enabled", true)
	v.SetDefault("visitor_retention", "8760h")
}

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(viper.GetViper())
}

// FromViper builds a Config from v, binding environment variables such as
// PORT or ASSISTANT_REPLY_DELAY onto the lowercase keys.
func FromViper(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Port:           v.GetString("port"),
		DBPath:         v.GetString("db_path"),
		FrontendURL:    v.GetString("frontend_url"),
		AllowedOrigins: splitList(v.GetString("allowed_origins")),
		TemplateDir:    v.GetString("template_dir"),
		ContentPath:    v.GetString("content_path"),
		Assistant: AssistantConfig{
			ReplyDelay: v.GetDuration("assistant_reply_delay"),
			SessionTTL: v.GetDuration("assistant_session_ttl"),
			RulesPath:  v.GetString("assistant_rules_path"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("rate_limit_requests"),
			Window:   v.GetDuration("rate_limit_window"),
		},
		SMTP: SMTPConfig{
			Host:    v.GetString("smtp_host"),
			Port:    v.GetString("smtp_port"),
			User:    v.GetString("smtp_user"),
			Pass:    v.GetString("smtp_pass"),
			ToEmail: v.GetString("to_email"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin_username"),
			Password: v.GetString("admin_password"),
		},
		AnalyticsEnabled: v.GetBool("analytics_enabled"),
		VisitorRetention: v.GetDuration("visitor_retention"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Assistant.ReplyDelay < 0 {
		return fmt.Errorf("ASSISTANT_REPLY_DELAY must be >= 0")
	}
	if c.Assistant.SessionTTL < 0 {
		return fmt.Errorf("ASSISTANT_SESSION_TTL must be >= 0")
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	if c.SMTP.ToEmail == "" {
		return fmt.Errorf("TO_EMAIL cannot be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
