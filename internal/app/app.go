package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"terabox-telegram-bot/internal/config"
	"terabox-telegram-bot/internal/delivery"
	"terabox-telegram-bot/internal/download"
	"terabox-telegram-bot/internal/fault"
	"terabox-telegram-bot/internal/gate"
	"terabox-telegram-bot/internal/queue"
	"terabox-telegram-bot/internal/storage"
	"terabox-telegram-bot/internal/telegram"
	"terabox-telegram-bot/internal/terabox"
)

// Bot is the slice of tgbotapi.BotAPI the app talks through.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Resolver turns a share URL into a direct link.
type Resolver interface {
	Resolve(ctx context.Context, shareURL string) (terabox.ResolvedLink, error)
}

// Fetcher streams a direct URL to disk.
type Fetcher interface {
	Fetch(ctx context.Context, directURL, destPath string, sizeHint int64, progress download.Progress) (int64, error)
}

// Deliverer uploads a local file to a chat and cleans it up.
type Deliverer interface {
	Send(chatID int64, path, displayName, caption string) error
}

// App wires the pipeline together and owns all chat-facing behavior.
// Everything mutable (usage windows, queue) hangs off this one value, so
// tests construct a fresh App instead of touching globals.
type App struct {
	Bot       Bot
	Cfg       config.Config
	Store     *storage.Store
	Gate      *gate.Gate
	Queue     *queue.Queue
	Resolver  Resolver
	Fetcher   Fetcher
	Deliverer Deliverer
	Logger    *slog.Logger
}

func (a *App) log() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// HandleUpdate is the single entry point for Telegram updates, from either
// the webhook handler or the long-polling loop.
func (a *App) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		a.handleCallback(ctx, upd.CallbackQuery)
		return
	}
	if upd.Message == nil || upd.Message.From == nil {
		return
	}
	msg := upd.Message

	if a.Store != nil {
		if err := a.Store.UpsertUser(ctx, msg.From.ID, msg.From.FirstName, msg.From.UserName); err != nil {
			a.log().Warn("upsert user failed", "err", err)
		}
	}

	if msg.IsCommand() {
		a.handleCommand(ctx, msg)
		return
	}

	if url := terabox.FindShareURL(msg.Text); url != "" {
		a.handleLink(ctx, msg, url)
		return
	}

	_, _ = a.Bot.Send(tgbotapi.NewMessage(msg.Chat.ID, textGuidance()))
}

func (a *App) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch strings.ToLower(msg.Command()) {
	case "start":
		out := tgbotapi.NewMessage(msg.Chat.ID, textWelcome())
		out.ReplyMarkup = mainMenuKeyboard()
		_, _ = a.Bot.Send(out)
	case "menu":
		out := tgbotapi.NewMessage(msg.Chat.ID, "🧭 Main Menu")
		out.ReplyMarkup = mainMenuKeyboard()
		_, _ = a.Bot.Send(out)
	case "help":
		_, _ = a.Bot.Send(tgbotapi.NewMessage(msg.Chat.ID, textHelp()))
	case "limits":
		_, _ = a.Bot.Send(tgbotapi.NewMessage(msg.Chat.ID, textLimits(a.Cfg)))
	case "privacy":
		_, _ = a.Bot.Send(tgbotapi.NewMessage(msg.Chat.ID, textPrivacy()))
	case "stats":
		a.cmdStats(ctx, msg)
	default:
		_, _ = a.Bot.Send(tgbotapi.NewMessage(msg.Chat.ID, "Unknown command. /help"))
	}
}

func (a *App) cmdStats(ctx context.Context, msg *tgbotapi.Message) {
	if a.Cfg.OwnerID == 0 || msg.From.ID != a.Cfg.OwnerID {
		_, _ = a.Bot.Send(tgbotapi.NewMessage(msg.Chat.ID, "Unknown command. /help"))
		return
	}
	if a.Store == nil {
		return
	}
	st, err := a.Store.GetStats(ctx)
	if err != nil {
		a.log().Warn("stats query failed", "err", err)
		_, _ = a.Bot.Send(tgbotapi.NewMessage(msg.Chat.ID, "Stats unavailable."))
		return
	}
	text := fmt.Sprintf("📊 Stats\nUsers: %d\nDownloads: %d\nTraffic: %s",
		st.Users, st.DownloadsTotal, telegram.HumanBytes(st.BytesTotal))
	_, _ = a.Bot.Send(tgbotapi.NewMessage(msg.Chat.ID, text))
}

func (a *App) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID

	var edit tgbotapi.EditMessageTextConfig
	switch cb.Data {
	case cbMenu:
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, "🧭 Main Menu", mainMenuKeyboard())
	case cbHelp:
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, textHelp(), backKeyboard())
	case cbLimits:
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, textLimits(a.Cfg), backKeyboard())
	case cbPrivacy:
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, textPrivacy(), backKeyboard())
	default:
		_, _ = a.Bot.Request(tgbotapi.NewCallback(cb.ID, ""))
		return
	}
	if _, err := a.Bot.Send(edit); err != nil {
		a.log().Warn("callback edit failed", "data", cb.Data, "err", err)
	}
	_, _ = a.Bot.Request(tgbotapi.NewCallback(cb.ID, ""))
}

// handleLink runs admission and enqueues the job. Rejections never create a
// queue entry or a temp file.
func (a *App) handleLink(ctx context.Context, msg *tgbotapi.Message, shareURL string) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if d := a.Gate.Check(userID, 0); !d.Allowed {
		a.log().Info("request denied at gate", "user_id", userID, "reason", d.Reason)
		text := fault.UserMessage(fault.New(d.Reason, nil))
		if d.Reason == fault.RateLimited && d.RetryAfter > 0 {
			text = fmt.Sprintf("⏳ Rate limit: try again in ~%ds.", int(d.RetryAfter.Seconds())+1)
		}
		_, _ = a.Bot.Send(tgbotapi.NewMessage(chatID, text))
		return
	}

	ack, err := a.Bot.Send(tgbotapi.NewMessage(chatID, "🔍 Queued…"))
	if err != nil {
		a.log().Warn("failed to send ack", "err", err)
		return
	}

	job := &queue.Job{
		ID:          uuid.NewString(),
		UserID:      userID,
		ChatID:      chatID,
		MessageID:   ack.MessageID,
		ShareURL:    shareURL,
		RequestedAt: time.Now(),
	}

	if err := a.Queue.Submit(job); err != nil {
		a.log().Warn("queue rejected job", "job_id", job.ID, "err", err)
		a.editStatus(chatID, ack.MessageID, fault.UserMessage(err))
		return
	}
	a.log().Info("job queued", "job_id", job.ID, "user_id", userID, "chat_id", chatID)
}

// RunJob drives one job through resolve → gate → download → deliver. It is
// the queue's Handler and always leaves the job in a terminal state with no
// temp file behind.
func (a *App) RunJob(ctx context.Context, job *queue.Job) {
	log := a.log().With("job_id", job.ID, "user_id", job.UserID)
	progress := telegram.NewProgressEditor(a.Bot, log, job.ChatID, job.MessageID)

	job.To(queue.StateResolving)
	progress.Set("🔍 Fetching file info…")

	link, err := a.Resolver.Resolve(ctx, job.ShareURL)
	if err != nil {
		a.failJob(job, progress, log, err)
		return
	}
	log.Info("link resolved", "file", link.FileName, "size", link.SizeBytes)

	// The extractor's size is authoritative; it can still kill a queued job
	// before any bytes move.
	if d := a.Gate.CheckSize(job.UserID, link.SizeBytes); !d.Allowed {
		if d.Reason == fault.TooLarge && link.DirectURL != "" {
			a.replyOversize(job, link)
			return
		}
		a.failJob(job, progress, log, fault.New(d.Reason, nil))
		return
	}

	job.To(queue.StateDownloading)
	dest := filepath.Join(a.Cfg.TmpDir, job.ID+"_"+delivery.SafeName(link.FileName))

	written, err := a.Fetcher.Fetch(ctx, link.DirectURL, dest, link.SizeBytes, func(done, total int64) {
		progress.Update(link.FileName, done, total)
	})
	if err != nil {
		a.failJob(job, progress, log, err)
		return
	}

	job.To(queue.StateDelivering)
	progress.Set("📤 Uploading to Telegram…")

	caption := fmt.Sprintf("%s\n%s", link.FileName, telegram.HumanBytes(written))
	if err := a.Deliverer.Send(job.ChatID, dest, link.FileName, caption); err != nil {
		a.failJob(job, progress, log, err)
		return
	}

	a.Gate.AddBytes(job.UserID, written)
	if a.Store != nil {
		if err := a.Store.RecordDownload(context.Background(), job.UserID, written); err != nil {
			log.Warn("record download failed", "err", err)
		}
	}

	job.To(queue.StateDone)
	progress.Set("✅ Sent successfully. (Cleaned temporary file.)")
	log.Info("job done", "bytes", written)
}

// replyOversize is the restored direct-link fallback: the download is
// denied, but the user still gets the resolved URL as a button.
func (a *App) replyOversize(job *queue.Job, link terabox.ResolvedLink) {
	job.Fail(fault.TooLarge)

	text := fmt.Sprintf("⚠️ File is too large for Telegram upload.\n\nName: %s\nSize: %s\n\nUse the direct link instead.",
		link.FileName, telegram.HumanBytes(link.SizeBytes))
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 Open Direct Link", link.DirectURL),
		),
	)
	edit := tgbotapi.NewEditMessageTextAndMarkup(job.ChatID, job.MessageID, text, kb)
	if _, err := a.Bot.Send(edit); err != nil {
		a.log().Warn("oversize reply failed", "job_id", job.ID, "err", err)
	}
}

func (a *App) failJob(job *queue.Job, progress *telegram.ProgressEditor, log *slog.Logger, err error) {
	job.Fail(fault.ReasonOf(err))
	log.Warn("job failed", "reason", fault.ReasonOf(err), "err", err)
	progress.Set(fault.UserMessage(err))
}

func (a *App) editStatus(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := a.Bot.Send(edit); err != nil {
		a.log().Warn("status edit failed", "chat_id", chatID, "err", err)
	}
}
