package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr string

	TelegramBotToken      string
	TelegramWebhookURL    string
	TelegramWebhookPath   string
	TelegramWebhookSecret string
	TelegramDebug         bool

	// OwnerID is exempt from rate limiting and may run /stats. 0 disables.
	OwnerID int64

	// TeraBox session cookie, two named fields joined as "lang=..; ndus=..".
	TeraboxCookieLang string
	TeraboxCookieNDUS string

	MaxFileBytes    int64
	UserRateLimit   int
	RateWindow      time.Duration
	UserQuotaBytes  int64
	MaxConcurrent   int
	QueueBacklog    int
	TmpDir          string
	DownloadTimeout time.Duration

	DBPath string
}

func FromEnv() (Config, error) {
	var cfg Config

	cfg.ListenAddr = envString("LISTEN_ADDR", ":8080")
	cfg.TelegramWebhookURL = envString("TELEGRAM_WEBHOOK_URL", "")
	cfg.TelegramWebhookPath = envString("TELEGRAM_WEBHOOK_PATH", "/telegram/webhook")
	cfg.TelegramWebhookSecret = envString("TELEGRAM_WEBHOOK_SECRET", "")
	cfg.TelegramDebug = envBool("TELEGRAM_DEBUG", false)

	cfg.TelegramBotToken = strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if cfg.TelegramBotToken == "" {
		return Config{}, errors.New("BOT_TOKEN is required")
	}

	cfg.OwnerID = envInt64("OWNER_ID", 0)

	cfg.TeraboxCookieLang = envString("TERABOX_COOKIE_LANG", "en")
	cfg.TeraboxCookieNDUS = strings.TrimSpace(os.Getenv("TERABOX_COOKIE_NDUS"))

	cfg.MaxFileBytes = envInt64("MAX_FILE_MB", 1900) << 20
	cfg.UserRateLimit = int(envInt64("USER_RATE_LIMIT", 3))
	cfg.RateWindow = time.Duration(envInt64("RATE_WINDOW_MINUTES", 60)) * time.Minute
	cfg.UserQuotaBytes = envInt64("USER_QUOTA_MB", 4096) << 20
	cfg.MaxConcurrent = int(envInt64("MAX_CONCURRENT", 3))
	cfg.QueueBacklog = int(envInt64("QUEUE_BACKLOG", 16))
	cfg.TmpDir = envString("DOWNLOAD_TMP_DIR", "/tmp/terabox_bot")
	cfg.DownloadTimeout = time.Duration(envInt64("DOWNLOAD_TIMEOUT_MINUTES", 30)) * time.Minute

	cfg.DBPath = envString("DB_PATH", "./data/bot.sqlite")

	return cfg, nil
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		// safer default than crashing during boot: return default, but caller can validate if needed
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// Cookie renders the TeraBox session cookie header value.
func (c Config) Cookie() string {
	return fmt.Sprintf("lang=%s; ndus=%s;", c.TeraboxCookieLang, c.TeraboxCookieNDUS)
}

func (c Config) Validate() error {
	if c.TelegramBotToken == "" {
		return errors.New("telegram bot token is empty")
	}
	if strings.TrimSpace(c.TeraboxCookieNDUS) == "" {
		return errors.New("TERABOX_COOKIE_NDUS is required (ndus value from a logged-in TeraBox session)")
	}
	if c.TelegramWebhookURL != "" && !strings.HasPrefix(c.TelegramWebhookPath, "/") {
		return fmt.Errorf("TELEGRAM_WEBHOOK_PATH must start with '/': %q", c.TelegramWebhookPath)
	}
	if c.MaxFileBytes <= 0 {
		return errors.New("MAX_FILE_MB must be positive")
	}
	if c.UserRateLimit <= 0 {
		return errors.New("USER_RATE_LIMIT must be positive")
	}
	if c.RateWindow <= 0 {
		return errors.New("RATE_WINDOW_MINUTES must be positive")
	}
	if c.MaxConcurrent <= 0 {
		return errors.New("MAX_CONCURRENT must be positive")
	}
	if c.QueueBacklog < 0 {
		return errors.New("QUEUE_BACKLOG must not be negative")
	}
	if strings.TrimSpace(c.TmpDir) == "" {
		return errors.New("DOWNLOAD_TMP_DIR is empty")
	}
	return nil
}
