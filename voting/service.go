package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/computersciencehouse/quickpoll/database"
	"github.com/computersciencehouse/quickpoll/validation"
)

type PollStore interface {
	CreatePoll(ctx context.Context, poll *database.Poll) error
	GetPoll(ctx context.Context, id string) (*database.Poll, error)
	ListPolls(ctx context.Context) ([]*database.Poll, error)
}

type ChoiceStore interface {
	CreateChoice(ctx context.Context, choice *database.Choice) error
	GetChoice(ctx context.Context, id string) (*database.Choice, error)
	FindChoiceByTitle(ctx context.Context, title string) (*database.Choice, error)
	ListChoices(ctx context.Context, pollID string) ([]*database.Choice, error)
}

type VoteStore interface {
	CreateVote(ctx context.Context, vote *database.Vote) error
	CountVotes(ctx context.Context, choiceID string) (int64, error)
}

type Store interface {
	PollStore
	ChoiceStore
	VoteStore
}

var (
	_ Store = (*database.MongoStore)(nil)
	_ Store = (*database.MemoryStore)(nil)
)

type Service struct {
	polls   PollStore
	choices ChoiceStore
	votes   VoteStore
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(polls PollStore, choices ChoiceStore, votes VoteStore, opts ...Option) *Service {
	s := &Service{
		polls:   polls,
		choices: choices,
		votes:   votes,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePoll stores a poll. An empty expireAt defaults to DefaultPollDays from now.
func (s *Service) CreatePoll(ctx context.Context, title, expireAt string) (*database.Poll, error) {
	const op = "voting.CreatePoll"

	if expireAt == "" {
		expireAt = DefaultExpireAt(s.now())
	}

	poll := &database.Poll{Title: title, ExpireAt: expireAt}
	if err := s.polls.CreatePoll(ctx, poll); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return poll, nil
}

func (s *Service) ListPolls(ctx context.Context) ([]*database.Poll, error) {
	const op = "voting.ListPolls"

	polls, err := s.polls.ListPolls(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return polls, nil
}

// CreateChoice adds a choice to an open poll. Checks run in order: the poll exists,
// the title is unused by any choice of any poll, the poll has not expired.
func (s *Service) CreateChoice(ctx context.Context, title, pollID string) (*database.Choice, error) {
	const op = "voting.CreateChoice"

	poll, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.choices.FindChoiceByTitle(ctx, title)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", op, ErrDuplicateTitle)
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if Expired(poll.ExpireAt, s.now()) {
		return nil, fmt.Errorf("%s: %w", op, ErrPollExpired)
	}

	// A concurrent create can pass the lookup above too; the store's unique
	// title constraint decides which insert wins.
	choice := &database.Choice{Title: title, PollID: poll.ID}
	if err := s.choices.CreateChoice(ctx, choice); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateTitle)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return choice, nil
}

func (s *Service) ListChoices(ctx context.Context, pollID string) ([]*database.Choice, error) {
	const op = "voting.ListChoices"

	poll, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	choices, err := s.choices.ListChoices(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return choices, nil
}

// CastVote records one vote for the choice and returns that choice.
// The expiry check and the insert are not atomic.
func (s *Service) CastVote(ctx context.Context, choiceID string) (*database.Choice, error) {
	const op = "voting.CastVote"

	choice, err := s.choices.GetChoice(ctx, choiceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrInvalidID) {
			return nil, fmt.Errorf("%s: %w", op, ErrChoiceNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	poll, err := s.getPoll(ctx, choice.PollID)
	if err != nil {
		return nil, fmt.Errorf("%s: owning poll %s: %w", op, choice.PollID, err)
	}

	now := s.now()
	if Expired(poll.ExpireAt, now) {
		return nil, fmt.Errorf("%s: %w", op, ErrPollExpired)
	}

	vote := &database.Vote{
		ChoiceID:  choice.ID,
		CreatedAt: now.Format(validation.DateTimeLayout),
	}
	if err := s.votes.CreateVote(ctx, vote); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return choice, nil
}

// getPoll maps both a malformed and an unknown id to ErrPollNotFound.
func (s *Service) getPoll(ctx context.Context, id string) (*database.Poll, error) {
	poll, err := s.polls.GetPoll(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrInvalidID) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	return poll, nil
}
