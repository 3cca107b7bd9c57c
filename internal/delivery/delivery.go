// Package delivery uploads a downloaded temp file to the requesting chat
// and guarantees the temp file is gone afterwards, whatever happened.
package delivery

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"terabox-telegram-bot/internal/fault"
)

// Sender is the slice of the bot API delivery needs; *tgbotapi.BotAPI
// satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var videoExts = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".avi": {}, ".mov": {}, ".webm": {}, ".m4v": {},
}

// IsVideoName reports whether the filename should be sent as a video so
// Telegram renders an inline player.
func IsVideoName(name string) bool {
	_, ok := videoExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

var unsafeNameRE = regexp.MustCompile(`[^\w.\- ]+`)

// SafeName strips characters that misbehave in filesystem paths.
func SafeName(name string) string {
	name = unsafeNameRE.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" {
		return "file.bin"
	}
	return name
}

type Deliverer struct {
	Bot    Sender
	Logger *slog.Logger
}

func New(bot Sender, logger *slog.Logger) *Deliverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deliverer{Bot: bot, Logger: logger}
}

// Send uploads path to chatID as a video or document and removes the temp
// file on every exit path. Upload failures come back as UploadError, after
// cleanup.
func (d *Deliverer) Send(chatID int64, path, displayName, caption string) error {
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			d.Logger.Warn("temp file removal failed", "path", path, "err", err)
		}
	}()

	var msg tgbotapi.Chattable
	if IsVideoName(displayName) {
		v := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
		v.Caption = caption
		v.SupportsStreaming = true
		msg = v
	} else {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
		doc.Caption = caption
		msg = doc
	}

	if _, err := d.Bot.Send(msg); err != nil {
		return fault.Errorf(fault.UploadError, "send to chat %d: %v", chatID, err)
	}
	return nil
}
