package database

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore mirrors MongoStore without a server: ObjectID-shaped ids, insertion
// order on reads and a unique choice title. Data lives for the process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	polls   []*Poll
	choices []*Choice
	votes   []*Vote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) CreatePoll(ctx context.Context, poll *Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll.ID = primitive.NewObjectID().Hex()
	stored := *poll
	s.polls = append(s.polls, &stored)
	return nil
}

func (s *MemoryStore) GetPoll(ctx context.Context, id string) (*Poll, error) {
	const op = "database.GetPoll"

	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.polls {
		if p.ID == id {
			poll := *p
			return &poll, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
}

func (s *MemoryStore) ListPolls(ctx context.Context) ([]*Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	polls := make([]*Poll, 0, len(s.polls))
	for _, p := range s.polls {
		poll := *p
		polls = append(polls, &poll)
	}
	return polls, nil
}

// CreateChoice checks the title and inserts under one lock, so two concurrent
// creates with the same title cannot both succeed.
func (s *MemoryStore) CreateChoice(ctx context.Context, choice *Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.choices {
		if c.Title == choice.Title {
			return fmt.Errorf("database.CreateChoice: %w", ErrDuplicateKey)
		}
	}

	choice.ID = primitive.NewObjectID().Hex()
	stored := *choice
	s.choices = append(s.choices, &stored)
	return nil
}

func (s *MemoryStore) GetChoice(ctx context.Context, id string) (*Choice, error) {
	const op = "database.GetChoice"

	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidID)
	}

	return s.findChoice(op, func(c *Choice) bool { return c.ID == id })
}

func (s *MemoryStore) FindChoiceByTitle(ctx context.Context, title string) (*Choice, error) {
	return s.findChoice("database.FindChoiceByTitle", func(c *Choice) bool { return c.Title == title })
}

func (s *MemoryStore) findChoice(op string, match func(*Choice) bool) (*Choice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.choices {
		if match(c) {
			choice := *c
			return &choice, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
}

func (s *MemoryStore) ListChoices(ctx context.Context, pollID string) ([]*Choice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	choices := []*Choice{}
	for _, c := range s.choices {
		if c.PollID == pollID {
			choice := *c
			choices = append(choices, &choice)
		}
	}
	return choices, nil
}

func (s *MemoryStore) CreateVote(ctx context.Context, vote *Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vote.ID = primitive.NewObjectID().Hex()
	stored := *vote
	s.votes = append(s.votes, &stored)
	return nil
}

func (s *MemoryStore) CountVotes(ctx context.Context, choiceID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, v := range s.votes {
		if v.ChoiceID == choiceID {
			count++
		}
	}
	return count, nil
}
