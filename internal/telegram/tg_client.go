package telegram

import (
	"context"
	"gurimarket/backend/internal/analysis"
	"gurimarket/backend/internal/localization"
	"gurimarket/backend/internal/models"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of the Bot API used for outgoing messages.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Alerter posts moderation alerts to the moderator chat.
type Alerter struct {
	Bot    Sender
	ChatID int64
	Text   *localization.Localizer
	Lang   string
	Log    *zap.SugaredLogger
}

func NewAlerter(bot Sender, chatID int64, text *localization.Localizer, log *zap.SugaredLogger) *Alerter {
	return &Alerter{Bot: bot, ChatID: chatID, Text: text, Lang: localization.DefaultLanguage, Log: log}
}

// NotifyFlagged tells moderators a user crossed the 30-day report threshold.
func (a *Alerter) NotifyFlagged(_ context.Context, review models.AdminReview) error {
	until := "-"
	if review.SuspendUntil != nil {
		until = review.SuspendUntil.In(analysis.Location()).Format("2006-01-02 15:04")
	}
	categories := "-"
	if len(review.Categories) > 0 {
		categories = strings.Join(review.Categories, ", ")
	}

	return a.send(a.Text.Format(a.Lang, localization.AlertFlagged, map[string]string{
		"uid":        review.UserID,
		"recent":     strconv.Itoa(review.Recent30Days),
		"until":      until,
		"posts":      strconv.Itoa(review.HiddenPosts),
		"categories": categories,
	}))
}

func (a *Alerter) send(text string) error {
	msg := tgbotapi.NewMessage(a.ChatID, text)
	if _, err := a.Bot.Send(msg); err != nil {
		a.Log.Errorw("Failed to send Telegram message", "chat_id", a.ChatID, "error", err)
		return err
	}
	return nil
}
