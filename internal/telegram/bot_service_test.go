package telegram

import (
	"context"
	"errors"
	"gurimarket/backend/internal/localization"
	"gurimarket/backend/internal/models"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const modChat int64 = 100

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

type MockRestorer struct {
	mock.Mock
}

func (m *MockRestorer) RestoreUserPostsAfterSuspension(ctx context.Context, uid string) (int, error) {
	args := m.Called(ctx, uid)
	return args.Int(0), args.Error(1)
}

type stubQueue []models.AdminReview

func (q stubQueue) Pending(context.Context, int) ([]models.AdminReview, error) {
	return q, nil
}

func textContaining(parts ...string) interface{} {
	return mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		if !ok {
			return false
		}
		for _, p := range parts {
			if !strings.Contains(msg.Text, p) {
				return false
			}
		}
		return true
	})
}

func command(chatID int64, text string) *tgbotapi.Message {
	name := strings.SplitN(text, " ", 2)[0]
	return &tgbotapi.Message{
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
		Chat:     tgbotapi.Chat{ID: chatID},
	}
}

func newTestBot(sender Sender) *BotService {
	log := zap.NewNop().Sugar()
	return &BotService{
		Alerts: NewAlerter(sender, modChat, localization.MustDefault(), log),
		Log:    log,
	}
}

func TestAlerter_NotifyFlagged(t *testing.T) {
	sender := new(MockSender)
	a := NewAlerter(sender, modChat, localization.MustDefault(), zap.NewNop().Sugar())
	until := time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC) // 2026-05-02 00:00 KST

	sender.On("Send", textContaining("u1", "30일 신고: 7", "2026-05-02 00:00", "spam, scam")).Return(nil).Once()

	err := a.NotifyFlagged(context.Background(), models.AdminReview{
		UserID:       "u1",
		Recent30Days: 7,
		SuspendUntil: &until,
		HiddenPosts:  3,
		Categories:   pq.StringArray{"spam", "scam"},
	})

	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestAlerter_SendFailure(t *testing.T) {
	sender := new(MockSender)
	a := NewAlerter(sender, modChat, localization.MustDefault(), zap.NewNop().Sugar())
	sender.On("Send", mock.Anything).Return(errors.New("bot was kicked"))

	err := a.NotifyFlagged(context.Background(), models.AdminReview{UserID: "u1"})

	assert.Error(t, err)
}

func TestHandleCommand_Restore(t *testing.T) {
	sender := new(MockSender)
	restorer := new(MockRestorer)
	bot := newTestBot(sender)
	bot.Restorer = restorer

	restorer.On("RestoreUserPostsAfterSuspension", mock.Anything, "u1").Return(2, nil).Once()
	sender.On("Send", textContaining("u1", "2개")).Return(nil).Once()

	bot.HandleCommand(context.Background(), command(modChat, "/restore u1"))

	restorer.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleCommand_RestoreWithoutUID(t *testing.T) {
	sender := new(MockSender)
	restorer := new(MockRestorer)
	bot := newTestBot(sender)
	bot.Restorer = restorer

	sender.On("Send", textContaining("/restore <uid>")).Return(nil).Once()

	bot.HandleCommand(context.Background(), command(modChat, "/restore"))

	sender.AssertExpectations(t)
	restorer.AssertNotCalled(t, "RestoreUserPostsAfterSuspension", mock.Anything, mock.Anything)
}

func TestHandleCommand_Queue(t *testing.T) {
	sender := new(MockSender)
	bot := newTestBot(sender)
	bot.Queue = stubQueue{{ID: "rev-1", UserID: "u1", Recent30Days: 8}}

	sender.On("Send", textContaining("검토 대기 1건", "u1 (8) rev-1")).Return(nil).Once()

	bot.HandleCommand(context.Background(), command(modChat, "/queue"))

	sender.AssertExpectations(t)
}

func TestHandleCommand_EmptyQueue(t *testing.T) {
	sender := new(MockSender)
	bot := newTestBot(sender)
	bot.Queue = stubQueue{}

	sender.On("Send", textContaining("없습니다")).Return(nil).Once()

	bot.HandleCommand(context.Background(), command(modChat, "/queue"))

	sender.AssertExpectations(t)
}

func TestHandleCommand_IgnoresOtherChats(t *testing.T) {
	sender := new(MockSender)
	restorer := new(MockRestorer)
	bot := newTestBot(sender)
	bot.Restorer = restorer

	bot.HandleCommand(context.Background(), command(999, "/restore u1"))

	sender.AssertNotCalled(t, "Send", mock.Anything)
	restorer.AssertNotCalled(t, "RestoreUserPostsAfterSuspension", mock.Anything, mock.Anything)
}
