package telegram

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the slice of the bot API this package needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// HumanBytes renders a byte count for chat messages ("12.34 MB").
func HumanBytes(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 || unit == "GB" {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return ""
}

// ProgressEditor edits one status message in place while a download runs.
// Edits are throttled: Telegram rate-limits message edits hard, and the
// original message churns every chunk otherwise.
type ProgressEditor struct {
	Bot       Sender
	Logger    *slog.Logger
	ChatID    int64
	MessageID int
	// MinInterval between edits; defaults to 2s.
	MinInterval time.Duration

	mu       sync.Mutex
	lastEdit time.Time
}

func NewProgressEditor(bot Sender, logger *slog.Logger, chatID int64, messageID int) *ProgressEditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressEditor{
		Bot:         bot,
		Logger:      logger,
		ChatID:      chatID,
		MessageID:   messageID,
		MinInterval: 2 * time.Second,
	}
}

// Update reports transfer progress for displayName. Drops the edit when the
// throttle window hasn't elapsed.
func (p *ProgressEditor) Update(displayName string, done, total int64) {
	p.mu.Lock()
	now := time.Now()
	if now.Sub(p.lastEdit) < p.MinInterval {
		p.mu.Unlock()
		return
	}
	p.lastEdit = now
	p.mu.Unlock()

	text := fmt.Sprintf("⬇️ Downloading…\n%s\n%s", displayName, HumanBytes(done))
	if total > 0 {
		pct := float64(done) / float64(total) * 100
		text = fmt.Sprintf("⬇️ Downloading…\n%s\n%s / %s (%.1f%%)",
			displayName, HumanBytes(done), HumanBytes(total), pct)
	}
	p.Set(text)
}

// Set replaces the status message text immediately, bypassing the throttle.
// Edit failures are logged and swallowed; progress is best effort.
func (p *ProgressEditor) Set(text string) {
	edit := tgbotapi.NewEditMessageText(p.ChatID, p.MessageID, text)
	if _, err := p.Bot.Send(edit); err != nil {
		p.Logger.Warn("progress edit failed", "chat_id", p.ChatID, "message_id", p.MessageID, "err", err)
	}
}
