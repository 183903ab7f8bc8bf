package hub

import (
	"context"
	"errors"
	"fmt"
	"gurimarket/backend/internal/block"
	"gurimarket/backend/internal/counter"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/notify"
	"gurimarket/backend/internal/report"
	"gurimarket/backend/internal/reputation"
	"time"
)

// Services are the trigger handlers the hub routes to. Nil services leave
// their kinds unregistered.
type Services struct {
	Reports    *report.Service
	Reputation *reputation.Service
	Counter    *counter.Service
	Blocks     *block.Service
	Chat       *notify.ChatDispatcher
	Replies    *notify.ReplyDispatcher
}

// Register binds every trigger kind to its service.
func Register(d *Dispatcher, s Services) {
	if s.Reports != nil {
		d.Register(KindReportCreated, func(ctx context.Context, ev Event) error {
			var r models.Report
			if err := ev.Decode(&r); err != nil {
				return fmt.Errorf("decode report: %w", err)
			}
			return s.Reports.OnReportCreated(ctx, r)
		})
	}

	if s.Reputation != nil {
		d.Register(KindReviewCreated, func(ctx context.Context, ev Event) error {
			var r models.Review
			if err := ev.Decode(&r); err != nil {
				return fmt.Errorf("decode review: %w", err)
			}
			s.Reputation.OnReviewCreated(ctx, r)
			return nil
		})
	}

	if s.Counter != nil {
		d.Register(KindCommentCreated, counterHandler(s.Counter.OnCommentCreated))
		d.Register(KindCommentDeleted, counterHandler(s.Counter.OnCommentDeleted))
		d.Register(KindReplyCreated, counterHandler(s.Counter.OnReplyCreated))
		d.Register(KindReplyDeleted, counterHandler(s.Counter.OnReplyDeleted))
	}

	if s.Chat != nil {
		d.Register(KindMessageCreated, func(ctx context.Context, ev Event) error {
			var m models.ChatMessage
			if err := ev.Decode(&m); err != nil {
				return fmt.Errorf("decode message: %w", err)
			}
			chatID := ev.Param(ParamChatID)
			if chatID == "" {
				chatID = m.ChatID
			}
			s.Chat.OnChatMessageCreated(ctx, chatID, m)
			return nil
		})
	}

	if s.Replies != nil {
		d.Register(KindNotificationCreated, func(ctx context.Context, ev Event) error {
			var n models.ReplyNotification
			if err := ev.Decode(&n); err != nil {
				return fmt.Errorf("decode notification: %w", err)
			}
			id := ev.Param(ParamDocumentID)
			if id == "" {
				id = n.ID
			}
			s.Replies.OnReplyCreated(ctx, n, id)
			return nil
		})
	}

	if s.Blocks != nil {
		d.Register(KindBlockCreated, func(ctx context.Context, ev Event) error {
			var b models.BlockedUser
			if err := ev.Decode(&b); err != nil {
				return fmt.Errorf("decode block: %w", err)
			}
			if b.BlockedAt.IsZero() {
				b.BlockedAt = time.Now()
			}
			s.Blocks.OnUserBlocked(ctx, b.UserID, b.BlockedUserID, b.BlockedAt)
			return nil
		})
		d.Register(KindBlockDeleted, func(ctx context.Context, ev Event) error {
			var b models.BlockedUser
			if err := ev.Decode(&b); err != nil {
				return fmt.Errorf("decode block: %w", err)
			}
			s.Blocks.OnUserUnblocked(ctx, b.UserID, b.BlockedUserID)
			return nil
		})
	}
}

// counterHandler decodes the post reference of a comment or reply. Params
// override the document, and post types ("board") are accepted in place of
// collection names.
func counterHandler(apply func(context.Context, models.CommentRef)) HandlerFunc {
	return func(ctx context.Context, ev Event) error {
		var ref models.CommentRef
		if err := ev.Decode(&ref); err != nil && !errors.Is(err, errNoDocument) {
			return fmt.Errorf("decode comment: %w", err)
		}
		if c := ev.Param(ParamCollection); c != "" {
			ref.PostCollection = c
		}
		if p := ev.Param(ParamPostID); p != "" {
			ref.PostID = p
		}
		if !models.IsPostCollection(ref.PostCollection) {
			if c, ok := models.CollectionForType(ref.PostCollection); ok {
				ref.PostCollection = c
			}
		}
		apply(ctx, ref)
		return nil
	}
}
