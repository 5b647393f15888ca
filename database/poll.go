package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Poll struct {
	ID       string `bson:"_id,omitempty" json:"_id"`
	Title    string `bson:"title" json:"title"`
	ExpireAt string `bson:"expireAt" json:"expireAt"`
}

func (s *MongoStore) CreatePoll(ctx context.Context, poll *Poll) error {
	const op = "database.CreatePoll"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.polls().InsertOne(ctx, poll)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	poll.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *MongoStore) GetPoll(ctx context.Context, id string) (*Poll, error) {
	const op = "database.GetPoll"

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var poll Poll
	if err := s.polls().FindOne(ctx, bson.M{"_id": objID}).Decode(&poll); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &poll, nil
}

func (s *MongoStore) ListPolls(ctx context.Context) ([]*Poll, error) {
	const op = "database.ListPolls"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.polls().Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	polls := []*Poll{}
	if err := cursor.All(ctx, &polls); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return polls, nil
}
