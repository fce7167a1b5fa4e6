package config

import (
	"testing"
	"time"
)

// requiredEnv is the minimal environment for a loadable config
var requiredEnv = map[string]string{
	"EMAIL_ADDRESS":          "test@gmail.com",
	"EMAIL_APP_PASSWORD":     "test-password",
	"WEBMAIL_USER":           "alex",
	"WEBMAIL_PASSWORD_HASH":  "$2a$10$abcdefghijklmnopqrstuv",
	"WEBMAIL_SESSION_SECRET": "secret",
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	for k, v := range requiredEnv {
		t.Setenv(k, v)
	}
	t.Setenv("FILES_ROOT", t.TempDir())
}

func TestLoadConfig(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Check Gmail auto-configuration
	if cfg.IMAPServer != "imap.gmail.com" {
		t.Errorf("Expected imap.gmail.com, got %s", cfg.IMAPServer)
	}
	if cfg.IMAPPort != 993 {
		t.Errorf("Expected port 993, got %d", cfg.IMAPPort)
	}
	if cfg.SMTPServer != "smtp.gmail.com" {
		t.Errorf("Expected smtp.gmail.com, got %s", cfg.SMTPServer)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("Expected port 587, got %d", cfg.SMTPPort)
	}

	// Defaults
	if cfg.Mailbox != "INBOX" {
		t.Errorf("Expected INBOX default, got %s", cfg.Mailbox)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("Expected :8080 default, got %s", cfg.ListenAddr)
	}
	if cfg.ConnectTimeout != 15*time.Second {
		t.Errorf("Expected 15s connect timeout, got %v", cfg.ConnectTimeout)
	}
	if cfg.SnapshotDir == "" {
		t.Error("Expected derived snapshot dir")
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_ADDRESS", "")
	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for missing EMAIL_ADDRESS")
	}

	setRequiredEnv(t)
	t.Setenv("WEBMAIL_SESSION_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for missing WEBMAIL_SESSION_SECRET")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_PROVIDER", "custom")
	t.Setenv("EMAIL_IMAP_SERVER", "mail.example.com")
	t.Setenv("EMAIL_IMAP_PORT", "1993")
	t.Setenv("EMAIL_SMTP_SERVER", "smtp.example.com")
	t.Setenv("EMAIL_SMTP_PORT", "1587")
	t.Setenv("EMAIL_MAILBOX", "Archive")
	t.Setenv("EMAIL_TIMEOUT_SECONDS", "30")
	t.Setenv("WEBMAIL_RATE_LIMIT_PER_SECOND", "2.5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.IMAPServer != "mail.example.com" || cfg.IMAPPort != 1993 {
		t.Errorf("IMAP override not applied: %s:%d", cfg.IMAPServer, cfg.IMAPPort)
	}
	if cfg.SMTPServer != "smtp.example.com" || cfg.SMTPPort != 1587 {
		t.Errorf("SMTP override not applied: %s:%d", cfg.SMTPServer, cfg.SMTPPort)
	}
	if cfg.Mailbox != "Archive" {
		t.Errorf("Mailbox override not applied: %s", cfg.Mailbox)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout override not applied: %v", cfg.Timeout)
	}
	if cfg.RateLimitPerSecond != 2.5 {
		t.Errorf("Rate limit override not applied: %v", cfg.RateLimitPerSecond)
	}
}

func TestLoadConfigInvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_IMAP_PORT", "not-a-number")
	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for invalid EMAIL_IMAP_PORT")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{
		EmailAddress:    "test@example.com",
		EmailPassword:   "password",
		IMAPServer:      "imap.example.com",
		IMAPPort:        993,
		SMTPServer:      "smtp.example.com",
		SMTPPort:        587,
		Mailbox:         "INBOX",
		WebUser:         "alex",
		WebPasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		SessionSecret:   "secret",
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Valid config failed validation: %v", err)
	}

	cfg.Mailbox = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for empty mailbox")
	}
	cfg.Mailbox = "INBOX"

	cfg.WebPasswordHash = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for missing password hash")
	}
}
