package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Choice.PollID holds the hex form of the owning poll's id.
type Choice struct {
	ID     string `bson:"_id,omitempty" json:"_id"`
	Title  string `bson:"title" json:"title"`
	PollID string `bson:"pollId" json:"pollId"`
}

func (s *MongoStore) CreateChoice(ctx context.Context, choice *Choice) error {
	const op = "database.CreateChoice"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.choices().InsertOne(ctx, choice)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	choice.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *MongoStore) GetChoice(ctx context.Context, id string) (*Choice, error) {
	const op = "database.GetChoice"

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidID)
	}

	return s.findChoice(ctx, op, bson.M{"_id": objID})
}

func (s *MongoStore) FindChoiceByTitle(ctx context.Context, title string) (*Choice, error) {
	return s.findChoice(ctx, "database.FindChoiceByTitle", bson.M{"title": title})
}

func (s *MongoStore) findChoice(ctx context.Context, op string, filter bson.M) (*Choice, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var choice Choice
	if err := s.choices().FindOne(ctx, filter).Decode(&choice); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &choice, nil
}

func (s *MongoStore) ListChoices(ctx context.Context, pollID string) ([]*Choice, error) {
	const op = "database.ListChoices"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.choices().Find(ctx, bson.M{"pollId": pollID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	choices := []*Choice{}
	if err := cursor.All(ctx, &choices); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return choices, nil
}
