package app

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"terabox-telegram-bot/internal/config"
	"terabox-telegram-bot/internal/telegram"
)

const (
	cbMenu    = "menu"
	cbHelp    = "help"
	cbLimits  = "limits"
	cbPrivacy = "privacy"
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ How to use", cbHelp),
			tgbotapi.NewInlineKeyboardButtonData("📏 Limits", cbLimits),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔒 Privacy", cbPrivacy),
		),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbMenu),
		),
	)
}

func textWelcome() string {
	return "🎬 TeraBox Downloader Bot\n\n" +
		"Paste a TeraBox share link and I'll download & send the file.\n" +
		"• Clean temp files automatically 🧹\n" +
		"• Smart size limits & rate limits ⚖️\n" +
		"• Direct link fallback for oversized files 🔗\n\n" +
		"Open /menu to begin."
}

func textHelp() string {
	return "❓ How to use\n" +
		"1) Copy a public TeraBox share link (e.g. https://terabox.com/s/...).\n" +
		"2) Send it here. If the file is within the limit, I'll download & send it.\n" +
		"3) If it's larger than the cap, I'll give you a direct link instead.\n\n" +
		"🧹 I store files only in a temp folder and delete them right after sending.\n\n" +
		"💡 Works best for single files; folder links use the first file."
}

func textLimits(cfg config.Config) string {
	return fmt.Sprintf("📏 Limits & Quotas\n"+
		"• Max upload size: %s (bigger files come back as direct links)\n"+
		"• Per-user downloads: %d per %s\n"+
		"• Per-user traffic: %s per %s\n"+
		"• Concurrent downloads: %d\n"+
		"• Only TeraBox domains are accepted.",
		telegram.HumanBytes(cfg.MaxFileBytes),
		cfg.UserRateLimit, cfg.RateWindow,
		telegram.HumanBytes(cfg.UserQuotaBytes), cfg.RateWindow,
		cfg.MaxConcurrent,
	)
}

func textPrivacy() string {
	return "🔒 Privacy & Terms\n" +
		"• Downloads are user-initiated; I do not keep logs of file contents.\n" +
		"• Temp files are deleted immediately after sending.\n" +
		"• Use only for content you have rights to. No bypassing paywalls or private links.\n" +
		"• The file is shared with you in this chat; mind Telegram's size limits."
}

func textGuidance() string {
	return "Send a TeraBox share link to download.\nOpen /menu for help & limits."
}
