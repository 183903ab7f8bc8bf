package hub

import (
	"context"
	"fmt"
	"gurimarket/backend/internal/storage"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// TokenStore persists change-stream resume tokens.
type TokenStore interface {
	SaveResumeToken(ctx context.Context, collection string, token []byte) error
	LoadResumeToken(ctx context.Context, collection string) ([]byte, error)
}

type kindPair struct {
	insert, delete Kind
}

// watched maps each trigger collection to the kinds its inserts and deletes
// produce. Deletes need pre-images enabled on the collection.
var watched = map[string]kindPair{
	storage.ReportsCollection:       {insert: KindReportCreated},
	storage.ReviewsCollection:       {insert: KindReviewCreated},
	storage.CommentsCollection:      {insert: KindCommentCreated, delete: KindCommentDeleted},
	storage.RepliesCollection:       {insert: KindReplyCreated, delete: KindReplyDeleted},
	storage.MessagesCollection:      {insert: KindMessageCreated},
	storage.NotificationsCollection: {insert: KindNotificationCreated},
	storage.BlockedUsersCollection:  {insert: KindBlockCreated, delete: KindBlockDeleted},
}

// changeEvent is the subset of a change stream document the hub reads. Its
// _id is the resume token, which names this one change.
type changeEvent struct {
	ID            bson.Raw `bson:"_id"`
	OperationType string   `bson:"operationType"`
	NS            struct {
		Coll string `bson:"coll"`
	} `bson:"ns"`
	DocumentKey struct {
		ID interface{} `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument             bson.Raw `bson:"fullDocument"`
	FullDocumentBeforeChange bson.Raw `bson:"fullDocumentBeforeChange"`
}

// ChangeStreamSource watches the trigger collections of one database with
// one stream per collection. Events of a collection are handled in stream
// order, and its resume token only advances past an event once the handler
// succeeded, so a failure replays it on restart. Collections do not wait on
// each other.
type ChangeStreamSource struct {
	DB     *mongo.Database
	Tokens TokenStore
	Log    *zap.SugaredLogger
}

// NewChangeStreamSource creates a source over db.
func NewChangeStreamSource(db *mongo.Database, tokens TokenStore, log *zap.SugaredLogger) *ChangeStreamSource {
	return &ChangeStreamSource{DB: db, Tokens: tokens, Log: log}
}

func (s *ChangeStreamSource) Name() string { return "changestream" }

func watchPipeline(pair kindPair) mongo.Pipeline {
	ops := bson.A{}
	if pair.insert != "" {
		ops = append(ops, "insert")
	}
	if pair.delete != "" {
		ops = append(ops, "delete")
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: ops}}},
		}}},
	}
}

// Run watches every trigger collection until ctx is cancelled. The first
// stream to fail stops the others and its error is returned.
func (s *ChangeStreamSource) Run(ctx context.Context, d *Dispatcher) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for coll, pair := range watched {
		wg.Add(1)
		go func(coll string, pair kindPair) {
			defer wg.Done()
			if err := s.watch(ctx, d, coll, pair); err != nil && ctx.Err() == nil {
				once.Do(func() {
					firstErr = fmt.Errorf("%s: %w", coll, err)
					cancel()
				})
			}
		}(coll, pair)
	}
	s.Log.Infow("Watching trigger collections", "database", s.DB.Name(), "collections", len(watched))
	wg.Wait()
	return firstErr
}

func (s *ChangeStreamSource) watch(ctx context.Context, d *Dispatcher, coll string, pair kindPair) error {
	opts := options.ChangeStream().SetFullDocumentBeforeChange(options.WhenAvailable)
	if s.Tokens != nil {
		token, err := s.Tokens.LoadResumeToken(ctx, coll)
		if err != nil {
			return fmt.Errorf("load resume token: %w", err)
		}
		if token != nil {
			opts.SetResumeAfter(bson.Raw(token))
		}
	}

	cs, err := s.DB.Collection(coll).Watch(ctx, watchPipeline(pair), opts)
	if err != nil {
		return fmt.Errorf("open change stream: %w", err)
	}
	defer cs.Close(context.Background())

	for cs.Next(ctx) {
		var ch changeEvent
		if err := cs.Decode(&ch); err != nil {
			return fmt.Errorf("decode change event: %w", err)
		}

		if ev, ok := eventFromChange(ch); ok {
			if !d.Handles(ev.Kind) {
				s.Log.Debugw("No handler for change", "kind", ev.Kind)
			} else if err := d.Handle(ctx, ev); err != nil {
				return fmt.Errorf("handle %s %s: %w", ev.Kind, ev.Param(ParamDocumentID), err)
			}
		} else {
			s.Log.Warnw("Skipping change without usable document",
				"collection", ch.NS.Coll,
				"operation", ch.OperationType,
			)
		}

		if s.Tokens != nil {
			if err := s.Tokens.SaveResumeToken(ctx, coll, cs.ResumeToken()); err != nil {
				s.Log.Warnw("Failed to save resume token", "collection", coll, "error", err)
			}
		}
	}
	return cs.Err()
}

// eventFromChange converts a change document. The event id is the change's
// own token, not the document key: a blocked user document keeps its id across
// block, unblock and block again, and each of those must be handled. Deletes
// without a pre-image cannot be routed because handlers need the removed
// document.
func eventFromChange(ch changeEvent) (Event, bool) {
	pair, ok := watched[ch.NS.Coll]
	if !ok {
		return Event{}, false
	}

	var (
		kind Kind
		doc  bson.Raw
	)
	switch ch.OperationType {
	case "insert":
		kind, doc = pair.insert, ch.FullDocument
	case "delete":
		kind, doc = pair.delete, ch.FullDocumentBeforeChange
	}
	if kind == "" || len(doc) == 0 {
		return Event{}, false
	}

	docID := documentID(ch.DocumentKey.ID)
	return NewBSONEvent(changeID(ch.ID), kind, map[string]string{ParamDocumentID: docID}, doc), true
}

// changeID flattens a resume token to its opaque _data string.
func changeID(token bson.Raw) string {
	if len(token) == 0 {
		return ""
	}
	if data, ok := token.Lookup("_data").StringValueOK(); ok {
		return data
	}
	return token.String()
}

func documentID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case primitive.ObjectID:
		return id.Hex()
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
