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

	"go.uber.org/zap"
)

// ReplyDispatcher sends a push when someone replies to a user's comment.
type ReplyDispatcher struct {
	Storage storage.Storage
	Pusher  push.Pusher
	Text    *localization.Localizer
	Log     *zap.SugaredLogger
}

// NewReplyDispatcher creates a new reply dispatcher.
func NewReplyDispatcher(s storage.Storage, p push.Pusher, text *localization.Localizer, log *zap.SugaredLogger) *ReplyDispatcher {
	return &ReplyDispatcher{Storage: s, Pusher: p, Text: text, Log: log}
}

// OnReplyCreated notifies the receiver of a reply notification. Errors are
// logged and swallowed.
func (d *ReplyDispatcher) OnReplyCreated(ctx context.Context, n models.ReplyNotification, notificationID string) {
	if n.ReceiverID == "" || n.SenderID == "" || n.Body == "" {
		return
	}
	if err := d.send(ctx, n, notificationID); err != nil {
		d.Log.Errorw("Failed to send reply push",
			"notification_id", notificationID,
			"receiver_id", n.ReceiverID,
			"post_id", n.PostID,
			"error", err,
		)
	}
}

func (d *ReplyDispatcher) send(ctx context.Context, n models.ReplyNotification, notificationID string) error {
	collection, ok := models.CollectionForType(n.Type)
	if !ok || n.PostID == "" {
		return nil
	}

	var (
		wg                   sync.WaitGroup
		receiver             *models.User
		post                 *models.Post
		receiverErr, postErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		receiver, receiverErr = d.Storage.GetUser(ctx, n.ReceiverID)
	}()
	go func() {
		defer wg.Done()
		post, postErr = d.Storage.GetPost(ctx, collection, n.PostID)
	}()
	wg.Wait()

	for _, err := range []error{receiverErr, postErr} {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	if receiver.PushToken == "" {
		return nil
	}

	lang := localization.DefaultLanguage
	return d.Pusher.Send(ctx, push.Message{
		To:    receiver.PushToken,
		Title: d.Text.GetString(lang, localization.ReplyPushTitle),
		Body: d.Text.Format(lang, localization.ReplyPushBody, map[string]string{
			"title": textutil.Truncate(post.Title, config.ReplyTitleMaxLength),
			"body":  textutil.Truncate(n.Body, config.PushBodyMaxLength),
		}),
		Data: &push.Data{URL: fmt.Sprintf(config.PostDeepLinkFormat, n.Type, n.PostID, notificationID)},
	})
}
