package database

import (
	"context"
	"fmt"
	"time"

	"github.com/computersciencehouse/quickpoll/logging"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	pollsCollection   = "polls"
	choicesCollection = "choices"
	votesCollection   = "votes"
)

const DefaultTimeout = 10 * time.Second

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	logging.Logger.WithFields(logrus.Fields{"module": "database", "method": "Connect"}).Info("beginning database connection")

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	logging.Logger.WithFields(logrus.Fields{"module": "database", "method": "Connect"}).Info("connected to mongodb")

	return client, nil
}

func Disconnect(ctx context.Context, client *mongo.Client) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		logging.Logger.WithFields(logrus.Fields{"error": err, "module": "database", "method": "Disconnect"}).Error("error disconnecting from database")
		return
	}

	logging.Logger.WithFields(logrus.Fields{"module": "database", "method": "Disconnect"}).Info("disconnected from database")
}

// MongoStore keeps polls, choices and votes in three collections of one database.
// It is safe for concurrent use.
type MongoStore struct {
	db      *mongo.Database
	timeout time.Duration
}

func NewMongoStore(client *mongo.Client, name string, timeout time.Duration) *MongoStore {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &MongoStore{
		db:      client.Database(name),
		timeout: timeout,
	}
}

func (s *MongoStore) polls() *mongo.Collection   { return s.db.Collection(pollsCollection) }
func (s *MongoStore) choices() *mongo.Collection { return s.db.Collection(choicesCollection) }
func (s *MongoStore) votes() *mongo.Collection   { return s.db.Collection(votesCollection) }

// EnsureIndexes creates the indexes the store relies on. The unique index on
// choices.title makes a concurrent duplicate insert fail with ErrDuplicateKey.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.choices().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "pollId", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("database: create choice indexes: %w", err)
	}

	_, err = s.votes().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "choiceId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("database: create vote indexes: %w", err)
	}

	logging.Logger.WithFields(logrus.Fields{"module": "database", "method": "EnsureIndexes"}).Info("indexes ready")

	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.db.Client().Ping(ctx, readpref.Primary())
}
