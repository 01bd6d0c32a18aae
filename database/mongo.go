package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"messmate/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UserCollection        = "users"
	MessCollection        = "messes"
	MessRequestCollection = "mess_requests"
	OrderCollection       = "orders"
	ReviewCollection      = "reviews"
	CounterCollection     = "counters"
	BlacklistCollection   = "blacklist_tokens"

	messIDCounter = "mess_id"
)

// Connect dials MongoDB and verifies the deployment answers a ping.
func Connect(ctx context.Context, uri, dbName string, log *logrus.Logger) (*mongo.Client, *mongo.Database, error) {
	if uri == "" || dbName == "" {
		return nil, nil, errors.New("MONGO_URI or DB_NAME not set")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.WithField("db", dbName).Info("connected to MongoDB")
	return client, client.Database(dbName), nil
}

// Store implements store.Store on top of a Mongo database.
type Store struct {
	users     *mongo.Collection
	messes    *mongo.Collection
	requests  *mongo.Collection
	orders    *mongo.Collection
	reviews   *mongo.Collection
	counters  *mongo.Collection
	blacklist *mongo.Collection
}

var _ store.Store = (*Store)(nil)

func NewStore(db *mongo.Database) *Store {
	return &Store{
		users:     db.Collection(UserCollection),
		messes:    db.Collection(MessCollection),
		requests:  db.Collection(MessRequestCollection),
		orders:    db.Collection(OrderCollection),
		reviews:   db.Collection(ReviewCollection),
		counters:  db.Collection(CounterCollection),
		blacklist: db.Collection(BlacklistCollection),
	}
}

// EnsureIndexes creates the indexes the repositories rely on and moves the
// mess id counter past any mess already stored.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		}},
		{s.messes, []mongo.IndexModel{
			{Keys: bson.D{{Key: "mess_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		}},
		{s.requests, []mongo.IndexModel{
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		}},
		{s.orders, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "mess_id", Value: 1}}},
		}},
		{s.reviews, []mongo.IndexModel{
			{Keys: bson.D{{Key: "mess_id", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{s.blacklist, []mongo.IndexModel{
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", idx.coll.Name(), err)
		}
	}
	return s.syncMessCounter(ctx)
}

func (s *Store) syncMessCounter(ctx context.Context) error {
	var last struct {
		MessID int64 `bson:"mess_id"`
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "mess_id", Value: -1}}).SetProjection(bson.M{"mess_id": 1})
	err := s.messes.FindOne(ctx, bson.M{}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read highest mess id: %w", err)
	}
	_, err = s.counters.UpdateOne(ctx,
		bson.M{"_id": messIDCounter},
		bson.M{"$max": bson.M{"seq": last.MessID}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("sync mess id counter: %w", err)
	}
	return nil
}

func mapErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", what, store.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", what, err)
}
