package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vote.ChoiceID holds the hex form of the choice id, matching Choice.ID.
type Vote struct {
	ID        string `bson:"_id,omitempty" json:"_id"`
	ChoiceID  string `bson:"choiceId" json:"choiceId"`
	CreatedAt string `bson:"createdAt" json:"createdAt"`
}

func (s *MongoStore) CreateVote(ctx context.Context, vote *Vote) error {
	const op = "database.CreateVote"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.votes().InsertOne(ctx, vote)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	vote.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *MongoStore) CountVotes(ctx context.Context, choiceID string) (int64, error) {
	const op = "database.CountVotes"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.votes().CountDocuments(ctx, bson.M{"choiceId": choiceID})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}
