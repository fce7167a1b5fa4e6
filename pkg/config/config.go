package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	// Mail account
	EmailAddress  string
	EmailPassword string
	Provider      string // gmail, outlook, or custom

	// IMAP settings
	IMAPServer string
	IMAPPort   int
	Mailbox    string

	// SMTP settings
	SMTPServer string
	SMTPPort   int

	// Webmail settings
	ListenAddr      string
	AllowedOrigin   string
	WebUser         string
	WebPasswordHash string
	SessionSecret   string
	SessionTTL      time.Duration

	// Rate limiting
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Snapshot fallback storage
	FilesRoot   string
	SnapshotTTL time.Duration

	// Timeouts
	ConnectTimeoutSeconds int
	ConnectTimeout        time.Duration
	TimeoutSeconds        int
	Timeout               time.Duration

	// Logging
	LogLevel string

	// Derived paths
	SnapshotDir string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Provider:              "gmail",
		Mailbox:               "INBOX",
		ListenAddr:            ":8080",
		SessionTTL:            12 * time.Hour,
		RateLimitPerSecond:    5,
		RateLimitBurst:        10,
		SnapshotTTL:           24 * time.Hour,
		ConnectTimeoutSeconds: 15,
		TimeoutSeconds:        60,
		FilesRoot:             "/tmp/webmail",
		LogLevel:              "info",
	}

	// Mail account settings
	cfg.EmailAddress = os.Getenv("EMAIL_ADDRESS")
	cfg.EmailPassword = os.Getenv("EMAIL_APP_PASSWORD")

	// Provider
	if provider := os.Getenv("EMAIL_PROVIDER"); provider != "" {
		cfg.Provider = provider
	}

	// Auto-configure for known providers
	switch cfg.Provider {
	case "gmail":
		cfg.IMAPServer = "imap.gmail.com"
		cfg.IMAPPort = 993
		cfg.SMTPServer = "smtp.gmail.com"
		cfg.SMTPPort = 587
	case "outlook":
		cfg.IMAPServer = "outlook.office365.com"
		cfg.IMAPPort = 993
		cfg.SMTPServer = "smtp-mail.outlook.com"
		cfg.SMTPPort = 587
	}

	// Override with explicit settings if provided
	if server := os.Getenv("EMAIL_IMAP_SERVER"); server != "" {
		cfg.IMAPServer = server
	}
	if port := os.Getenv("EMAIL_IMAP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid EMAIL_IMAP_PORT: %w", err)
		}
		cfg.IMAPPort = p
	}
	if server := os.Getenv("EMAIL_SMTP_SERVER"); server != "" {
		cfg.SMTPServer = server
	}
	if port := os.Getenv("EMAIL_SMTP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid EMAIL_SMTP_PORT: %w", err)
		}
		cfg.SMTPPort = p
	}
	if mailbox := os.Getenv("EMAIL_MAILBOX"); mailbox != "" {
		cfg.Mailbox = mailbox
	}

	// Webmail settings
	if addr := os.Getenv("WEBMAIL_LISTEN"); addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.AllowedOrigin = os.Getenv("WEBMAIL_ALLOWED_ORIGIN")
	cfg.WebUser = os.Getenv("WEBMAIL_USER")
	cfg.WebPasswordHash = os.Getenv("WEBMAIL_PASSWORD_HASH")
	cfg.SessionSecret = os.Getenv("WEBMAIL_SESSION_SECRET")
	if ttl := os.Getenv("WEBMAIL_SESSION_TTL_HOURS"); ttl != "" {
		h, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid WEBMAIL_SESSION_TTL_HOURS: %w", err)
		}
		cfg.SessionTTL = time.Duration(h) * time.Hour
	}

	// Rate limiting
	if rps := os.Getenv("WEBMAIL_RATE_LIMIT_PER_SECOND"); rps != "" {
		r, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid WEBMAIL_RATE_LIMIT_PER_SECOND: %w", err)
		}
		cfg.RateLimitPerSecond = r
	}
	if burst := os.Getenv("WEBMAIL_RATE_LIMIT_BURST"); burst != "" {
		b, err := strconv.Atoi(burst)
		if err != nil {
			return nil, fmt.Errorf("invalid WEBMAIL_RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = b
	}

	// Storage settings
	if root := os.Getenv("FILES_ROOT"); root != "" {
		cfg.FilesRoot = root
	}
	if ttl := os.Getenv("WEBMAIL_SNAPSHOT_TTL_HOURS"); ttl != "" {
		h, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid WEBMAIL_SNAPSHOT_TTL_HOURS: %w", err)
		}
		cfg.SnapshotTTL = time.Duration(h) * time.Hour
	}

	// Timeouts
	if timeout := os.Getenv("EMAIL_CONNECT_TIMEOUT_SECONDS"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid EMAIL_CONNECT_TIMEOUT_SECONDS: %w", err)
		}
		cfg.ConnectTimeoutSeconds = t
	}
	if timeout := os.Getenv("EMAIL_TIMEOUT_SECONDS"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid EMAIL_TIMEOUT_SECONDS: %w", err)
		}
		cfg.TimeoutSeconds = t
	}
	cfg.ConnectTimeout = time.Duration(cfg.ConnectTimeoutSeconds) * time.Second
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	// Logging
	if level := os.Getenv("WEBMAIL_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Derived paths; the snapshot store creates the directory itself
	cfg.SnapshotDir = filepath.Join(cfg.FilesRoot, "snapshots")

	return cfg, nil
}

// Validate checks that all required settings are present
func (c *Config) Validate() error {
	if c.EmailAddress == "" {
		return fmt.Errorf("EMAIL_ADDRESS is required")
	}
	if c.EmailPassword == "" {
		return fmt.Errorf("EMAIL_APP_PASSWORD is required")
	}
	if c.IMAPServer == "" {
		return fmt.Errorf("EMAIL_IMAP_SERVER is required")
	}
	if c.IMAPPort == 0 {
		return fmt.Errorf("EMAIL_IMAP_PORT is required")
	}
	if c.SMTPServer == "" {
		return fmt.Errorf("EMAIL_SMTP_SERVER is required")
	}
	if c.SMTPPort == 0 {
		return fmt.Errorf("EMAIL_SMTP_PORT is required")
	}
	if c.Mailbox == "" {
		return fmt.Errorf("EMAIL_MAILBOX must not be empty")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("WEBMAIL_SESSION_SECRET is required")
	}
	if c.WebUser == "" {
		return fmt.Errorf("WEBMAIL_USER is required")
	}
	if c.WebPasswordHash == "" {
		return fmt.Errorf("WEBMAIL_PASSWORD_HASH is required")
	}
	return nil
}
