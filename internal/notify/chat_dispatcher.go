// Package notify derives chat-room state from new messages and sends push
// notifications for chat messages and comment replies.
package notify

import (
	"context"
	"errors"
	"fmt"
	"gurimarket/backend/internal/config"
	"gurimarket/backend/internal/localization"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/push"
	"gurimarket/backend/internal/storage"
	"gurimarket/backend/internal/textutil"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ChatDispatcher handles new chat messages.
type ChatDispatcher struct {
	Storage storage.Storage
	Pusher  push.Pusher
	Text    *localization.Localizer
	Log     *zap.SugaredLogger
	Now     func() time.Time
}

// NewChatDispatcher creates a dispatcher that sends Korean pushes.
func NewChatDispatcher(s storage.Storage, p push.Pusher, text *localization.Localizer, log *zap.SugaredLogger) *ChatDispatcher {
	return &ChatDispatcher{Storage: s, Pusher: p, Text: text, Log: log, Now: time.Now}
}

// OnChatMessageCreated updates the room and notifies the receiver
// concurrently. It never fails; every error is logged.
func (d *ChatDispatcher) OnChatMessageCreated(ctx context.Context, chatID string, msg models.ChatMessage) {
	if config.ReservedSenders[msg.SenderID] {
		return
	}
	if chatID == "" || msg.SenderID == "" || msg.ReceiverID == "" || msg.Body == "" {
		return
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer d.recoverBranch(chatID, "room_update")
		d.updateRoom(ctx, chatID, msg)
	}()
	go func() {
		defer wg.Done()
		defer d.recoverBranch(chatID, "push")
		if err := d.notify(ctx, chatID, msg); err != nil {
			d.Log.Errorw("Failed to send chat push", "chat_id", chatID, "receiver_id", msg.ReceiverID, "error", err)
		}
	}()
	wg.Wait()
}

// recoverBranch must be deferred directly by every goroutine the dispatcher
// starts; a panic does not cross goroutines.
func (d *ChatDispatcher) recoverBranch(chatID, branch string) {
	if r := recover(); r != nil {
		d.Log.Errorw("Chat dispatcher panicked", "chat_id", chatID, "branch", branch, "panic", r)
	}
}

func (d *ChatDispatcher) updateRoom(ctx context.Context, chatID string, msg models.ChatMessage) {
	err := d.Storage.ApplyRoomUpdate(ctx, chatID, models.RoomUpdate{
		LastMessage: msg.Body,
		SenderID:    msg.SenderID,
		ReceiverID:  msg.ReceiverID,
		UpdatedAt:   d.Now(),
	})
	if err != nil {
		d.Log.Errorw("Failed to update chat room", "chat_id", chatID, "error", err)
	}
}

func (d *ChatDispatcher) notify(ctx context.Context, chatID string, msg models.ChatMessage) error {
	var (
		wg                     sync.WaitGroup
		receiver, sender       *models.User
		receiverErr, senderErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer d.recoverBranch(chatID, "load_receiver")
		receiver, receiverErr = d.Storage.GetUser(ctx, msg.ReceiverID)
	}()
	go func() {
		defer wg.Done()
		defer d.recoverBranch(chatID, "load_sender")
		sender, senderErr = d.Storage.GetUser(ctx, msg.SenderID)
	}()
	wg.Wait()

	if receiver == nil && receiverErr == nil {
		return errors.New("receiver lookup aborted")
	}

	if errors.Is(receiverErr, storage.ErrNotFound) {
		return nil
	}
	if receiverErr != nil {
		return fmt.Errorf("load receiver: %w", receiverErr)
	}
	if receiver.PushToken == "" || receiver.ActiveChatRoomID == chatID {
		return nil
	}

	lang := localization.DefaultLanguage
	name := d.Text.GetString(lang, localization.UnknownSender)
	if senderErr == nil && sender != nil && sender.DisplayName != "" {
		name = sender.DisplayName
	} else if senderErr != nil && !errors.Is(senderErr, storage.ErrNotFound) {
		d.Log.Warnw("Failed to load chat sender", "sender_id", msg.SenderID, "error", senderErr)
	}

	return d.Pusher.Send(ctx, push.Message{
		To:    receiver.PushToken,
		Title: d.Text.GetString(lang, localization.ChatPushTitle),
		Body: d.Text.Format(lang, localization.ChatPushBody, map[string]string{
			"sender": name,
			"body":   textutil.Truncate(msg.Body, config.PushBodyMaxLength),
		}),
		Data: &push.Data{URL: fmt.Sprintf(config.ChatDeepLinkFormat, chatID)},
	})
}
