package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		TelegramBotToken:  "123:abc",
		TeraboxCookieLang: "en",
		TeraboxCookieNDUS: "Y-secret",
		MaxFileBytes:      1900 << 20,
		UserRateLimit:     3,
		RateWindow:        time.Hour,
		UserQuotaBytes:    4096 << 20,
		MaxConcurrent:     3,
		QueueBacklog:      16,
		TmpDir:            "/tmp/terabox_bot",
		DownloadTimeout:   30 * time.Minute,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_MissingCookie(t *testing.T) {
	cfg := validConfig()
	cfg.TeraboxCookieNDUS = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing ndus cookie")
	}
}

func TestValidate_BadWebhookPath(t *testing.T) {
	cfg := validConfig()
	cfg.TelegramWebhookURL = "https://bot.example.com/telegram/webhook"
	cfg.TelegramWebhookPath = "telegram/webhook"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for path without leading slash")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("TERABOX_COOKIE_NDUS", "Y-secret")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.MaxFileBytes != 1900<<20 {
		t.Errorf("MaxFileBytes default: got %d", cfg.MaxFileBytes)
	}
	if cfg.UserRateLimit != 3 {
		t.Errorf("UserRateLimit default: got %d", cfg.UserRateLimit)
	}
	if cfg.RateWindow != time.Hour {
		t.Errorf("RateWindow default: got %v", cfg.RateWindow)
	}
	if cfg.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent default: got %d", cfg.MaxConcurrent)
	}
	if cfg.TmpDir != "/tmp/terabox_bot" {
		t.Errorf("TmpDir default: got %q", cfg.TmpDir)
	}
	if cfg.Cookie() != "lang=en; ndus=Y-secret;" {
		t.Errorf("Cookie(): got %q", cfg.Cookie())
	}
}

func TestFromEnv_MissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error when BOT_TOKEN is unset")
	}
}
