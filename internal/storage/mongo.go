package storage

import (
	"context"
	"errors"
	"fmt"
	"gurimarket/backend/internal/config"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/textutil"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMaxPoolSize = 100
	defaultMaxRetry    = 3
)

// MongoConfig describes how to reach the document store.
type MongoConfig struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MaxRetry    int
}

// ConnectMongo dials and pings MongoDB, retrying transient failures.
// Transactions and change streams require a replica set deployment.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = defaultMaxPoolSize
	}
	if cfg.MaxRetry <= 0 {
		cfg.MaxRetry = defaultMaxRetry
	}

	opts := options.Client().ApplyURI(cfg.URI).SetMaxPoolSize(cfg.MaxPoolSize)

	var (
		cli *mongo.Client
		err error
	)
	for i := 0; i < cfg.MaxRetry; i++ {
		cli, err = connectMongo(ctx, opts)
		if err != nil && shouldRetry(ctx, err) {
			time.Sleep(time.Second / 2)
			continue
		}
		break
	}
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	return cli, nil
}

func connectMongo(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}
	return cli, nil
}

// shouldRetry rejects auth failures (codes 13 and 18) and cancelled contexts.
func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code != 13 && cmdErr.Code != 18
	}
	return true
}

// MongoStore implements Storage on MongoDB.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore creates a store over the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{client: db.Client(), db: db}
}

// Database exposes the underlying database for change-stream watchers.
func (s *MongoStore) Database() *mongo.Database {
	return s.db
}

func (s *MongoStore) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (s *MongoStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	if err := s.coll(UsersCollection).FindOne(ctx, bson.M{"_id": uid}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *MongoStore) GetPost(ctx context.Context, collection, postID string) (*models.Post, error) {
	if !models.IsPostCollection(collection) {
		return nil, fmt.Errorf("unknown post collection %q", collection)
	}
	var p models.Post
	if err := s.coll(collection).FindOne(ctx, bson.M{"_id": postID}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func reportsSince(reporteeID string, since time.Time) bson.M {
	return bson.M{"reporteeId": reporteeID, "createdAt": bson.M{"$gte": since}}
}

func (s *MongoStore) CountReportsSince(ctx context.Context, reporteeID string, since time.Time) (int, error) {
	n, err := s.coll(ReportsCollection).CountDocuments(ctx, reportsSince(reporteeID, since))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *MongoStore) ReportCategoriesSince(ctx context.Context, reporteeID string, since time.Time) ([]string, error) {
	values, err := s.coll(ReportsCollection).Distinct(ctx, "category", reportsSince(reporteeID, since))
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if c, ok := v.(string); ok && c != "" {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

// inTransaction runs fn in a multi-document transaction. The driver retries
// fn on transient transaction errors.
func (s *MongoStore) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *MongoStore) setPostStatus(ctx context.Context, uid, from, to string) (int, error) {
	filter := bson.M{"authorId": uid, "status": from}
	if from == "" {
		filter = bson.M{"authorId": uid, "status": bson.M{"$ne": to}}
	}
	changed := 0
	for _, c := range models.PostCollections {
		res, err := s.coll(c).UpdateMany(ctx, filter, bson.M{"$set": bson.M{"status": to}})
		if err != nil {
			return 0, fmt.Errorf("set %s status on %s: %w", to, c, err)
		}
		changed += int(res.ModifiedCount)
	}
	return changed, nil
}

func (s *MongoStore) UpdateUserTrust(ctx context.Context, uid string, mutate TrustMutation) (models.TrustRecord, int, error) {
	var (
		next   models.TrustRecord
		hidden int
	)
	err := s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		var u models.User
		if err := s.coll(UsersCollection).FindOne(sc, bson.M{"_id": uid}).Decode(&u); err != nil {
			return notFound(err)
		}

		n, hide := mutate(u.Report)
		hidden = 0
		if hide {
			changed, err := s.setPostStatus(sc, uid, "", config.PostStatusHidden)
			if err != nil {
				return err
			}
			hidden = changed
		}

		set := bson.M{
			"report.total":        n.Total,
			"report.recent30Days": n.Recent30Days,
			"report.suspendUntil": n.SuspendUntil,
		}
		if n.NeedsAdminReview {
			set["report.needsAdminReview"] = true
		}
		if _, err := s.coll(UsersCollection).UpdateOne(sc, bson.M{"_id": uid}, bson.M{"$set": set}); err != nil {
			return fmt.Errorf("persist report aggregate: %w", err)
		}
		next = n
		return nil
	})
	return next, hidden, err
}

func (s *MongoStore) UpdateUserReputation(ctx context.Context, uid string, mutate ReputationMutation) (models.ReputationRecord, error) {
	var next models.ReputationRecord
	err := s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		var u models.User
		if err := s.coll(UsersCollection).FindOne(sc, bson.M{"_id": uid}).Decode(&u); err != nil {
			return notFound(err)
		}
		n := mutate(u.Review)
		if _, err := s.coll(UsersCollection).UpdateOne(sc, bson.M{"_id": uid}, bson.M{"$set": bson.M{"review": n}}); err != nil {
			return fmt.Errorf("persist review aggregate: %w", err)
		}
		next = n
		return nil
	})
	return next, err
}

func (s *MongoStore) RestoreUserPosts(ctx context.Context, uid string) (int, error) {
	var restored int
	err := s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		n, err := s.setPostStatus(sc, uid, config.PostStatusHidden, config.PostStatusActive)
		restored = n
		return err
	})
	return restored, err
}

func (s *MongoStore) IncrementCommentCount(ctx context.Context, collection, postID string, delta int) error {
	if !models.IsPostCollection(collection) {
		return fmt.Errorf("unknown post collection %q", collection)
	}
	res, err := s.coll(collection).UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$inc": bson.M{"commentCount": delta}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ApplyRoomUpdate(ctx context.Context, chatID string, u models.RoomUpdate) error {
	update := bson.M{
		"$set": bson.M{
			"lastMessage":         u.LastMessage,
			"lastMessageSenderId": u.SenderID,
			"updatedAt":           u.UpdatedAt,
		},
		"$inc":      bson.M{"unreadCount." + textutil.SafeUID(u.ReceiverID): 1},
		"$addToSet": bson.M{"visibleTo": u.ReceiverID},
	}
	res, err := s.coll(ChatsCollection).UpdateOne(ctx, bson.M{"_id": chatID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetBlockedBy(ctx context.Context, entry models.BlockedBy) error {
	if entry.Path == "" {
		entry.Path = models.BlockedByPath(entry.UserID, entry.BlockerID)
	}
	_, err := s.coll(BlockedByCollection).UpdateOne(ctx,
		bson.M{"_id": entry.Path},
		bson.M{"$set": bson.M{
			"userId":    entry.UserID,
			"id":        entry.BlockerID,
			"blockedAt": entry.BlockedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) DeleteBlockedBy(ctx context.Context, user, blocker string) error {
	_, err := s.coll(BlockedByCollection).DeleteOne(ctx, bson.M{"_id": models.BlockedByPath(user, blocker)})
	return err
}
