// Package telegram connects the engine to the moderators' Telegram chat. It
// posts an alert when a user is flagged for admin review and accepts
// /restore and /queue commands from that chat.
package telegram

import (
	"context"
	"fmt"
	"gurimarket/backend/internal/localization"
	"gurimarket/backend/internal/models"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const queueListLimit = 10

// Restorer restores a user's hidden posts.
type Restorer interface {
	RestoreUserPostsAfterSuspension(ctx context.Context, uid string) (int, error)
}

// PendingLister lists open admin reviews.
type PendingLister interface {
	Pending(ctx context.Context, limit int) ([]models.AdminReview, error)
}

// BotService receives updates from Telegram and answers moderator commands.
// Messages from chats other than the moderator chat are ignored.
type BotService struct {
	BotAPI   *tgbotapi.BotAPI
	Alerts   *Alerter
	Restorer Restorer
	Queue    PendingLister
	Log      *zap.SugaredLogger
}

// NewBotService authorizes the bot token.
func NewBotService(token string, adminChatID int64, text *localization.Localizer, log *zap.SugaredLogger) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	bot.Debug = false
	log.Infow("Authorized on Telegram", "account", bot.Self.UserName)

	return &BotService{
		BotAPI: bot,
		Alerts: NewAlerter(bot, adminChatID, text, log),
		Log:    log,
	}, nil
}

// Run handles updates until ctx is cancelled.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)
	defer s.BotAPI.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil && update.Message.IsCommand() {
				s.HandleCommand(ctx, update.Message)
			}
		}
	}
}

// HandleCommand answers a command sent to the moderator chat.
func (s *BotService) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.ID != s.Alerts.ChatID {
		s.Log.Warnw("Ignoring command from foreign chat", "chat_id", msg.Chat.ID, "command", msg.Command())
		return
	}
	lang := s.Alerts.Lang
	text := s.Alerts.Text

	switch msg.Command() {
	case "restore":
		uid := strings.TrimSpace(msg.CommandArguments())
		if uid == "" || s.Restorer == nil {
			_ = s.Alerts.send(text.GetString(lang, localization.AlertRestoreUsage))
			return
		}
		restored, err := s.Restorer.RestoreUserPostsAfterSuspension(ctx, uid)
		if err != nil {
			s.Log.Errorw("Restore from Telegram failed", "user_id", uid, "error", err)
			_ = s.Alerts.send(fmt.Sprintf("⚠️ %s: %v", uid, err))
			return
		}
		_ = s.Alerts.send(text.Format(lang, localization.AlertRestored, map[string]string{
			"uid":   uid,
			"posts": strconv.Itoa(restored),
		}))

	case "queue":
		if s.Queue == nil {
			_ = s.Alerts.send(text.GetString(lang, localization.AlertQueueEmpty))
			return
		}
		reviews, err := s.Queue.Pending(ctx, queueListLimit)
		if err != nil {
			s.Log.Errorw("Failed to list reviews", "error", err)
			return
		}
		_ = s.Alerts.send(formatQueue(text, lang, reviews))
	}
}

func formatQueue(text *localization.Localizer, lang string, reviews []models.AdminReview) string {
	if len(reviews) == 0 {
		return text.GetString(lang, localization.AlertQueueEmpty)
	}
	var b strings.Builder
	b.WriteString(text.Format(lang, localization.AlertQueueHeader, map[string]string{
		"count": strconv.Itoa(len(reviews)),
	}))
	for _, r := range reviews {
		fmt.Fprintf(&b, "\n• %s (%d) %s", r.UserID, r.Recent30Days, r.ID)
	}
	return b.String()
}
