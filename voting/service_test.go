package voting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/computersciencehouse/quickpoll/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("store unreachable")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(t *testing.T, now time.Time) (*Service, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	return NewService(store, store, store, WithClock(fixedClock(now))), store
}

func mustPoll(t *testing.T, s *Service, title, expireAt string) *database.Poll {
	t.Helper()
	poll, err := s.CreatePoll(context.Background(), title, expireAt)
	require.NoError(t, err)
	return poll
}

func mustChoice(t *testing.T, s *Service, title, pollID string) *database.Choice {
	t.Helper()
	choice, err := s.CreateChoice(context.Background(), title, pollID)
	require.NoError(t, err)
	return choice
}

func TestCreatePoll(t *testing.T) {
	now := time.Date(2024, time.March, 10, 9, 41, 37, 0, time.UTC)
	ctx := context.Background()

	t.Run("Happy path - default expiration is thirty days out", func(t *testing.T) {
		s, store := newTestService(t, now)

		poll, err := s.CreatePoll(ctx, "Team lunch", "")
		require.NoError(t, err)

		assert.NotEmpty(t, poll.ID)
		assert.Equal(t, "Team lunch", poll.Title)
		assert.Equal(t, "2024-04-09 09:41", poll.ExpireAt)

		stored, err := store.GetPoll(ctx, poll.ID)
		require.NoError(t, err)
		assert.Equal(t, poll, stored)
	})

	t.Run("Happy path - default expiration tracks the real clock", func(t *testing.T) {
		store := database.NewMemoryStore()
		s := NewService(store, store, store)

		before := time.Now()
		poll, err := s.CreatePoll(ctx, "Now", "")
		require.NoError(t, err)

		expireAt, err := time.ParseInLocation("2006-01-02 15:04", poll.ExpireAt, time.Local)
		require.NoError(t, err)
		assert.WithinDuration(t, before.AddDate(0, 0, 30), expireAt, time.Minute+5*time.Second)
	})

	t.Run("Happy path - explicit expiration is kept", func(t *testing.T) {
		s, _ := newTestService(t, now)

		poll, err := s.CreatePoll(ctx, "Retro", "2024-03-11 17:00")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-11 17:00", poll.ExpireAt)
	})

	t.Run("Unhappy path - store failure", func(t *testing.T) {
		s := NewService(failingStore{}, failingStore{}, failingStore{})

		_, err := s.CreatePoll(ctx, "x", "")
		assert.ErrorIs(t, err, errStoreDown)
	})
}

func TestListPolls(t *testing.T) {
	s, _ := newTestService(t, time.Now())

	polls, err := s.ListPolls(context.Background())
	require.NoError(t, err)
	assert.Empty(t, polls)

	mustPoll(t, s, "One", "")
	mustPoll(t, s, "Two", "")

	polls, err = s.ListPolls(context.Background())
	require.NoError(t, err)
	require.Len(t, polls, 2)
	assert.Equal(t, "One", polls[0].Title)
	assert.Equal(t, "Two", polls[1].Title)
}

func TestCreateChoice(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 30, 0, time.UTC)
	ctx := context.Background()

	t.Run("Happy path - choice references the poll id string", func(t *testing.T) {
		s, store := newTestService(t, now)
		poll := mustPoll(t, s, "Pets", "")

		choice, err := s.CreateChoice(ctx, "Cats", poll.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, choice.ID)
		assert.Equal(t, "Cats", choice.Title)
		assert.Equal(t, poll.ID, choice.PollID)

		choices, err := store.ListChoices(ctx, poll.ID)
		require.NoError(t, err)
		assert.Equal(t, []*database.Choice{choice}, choices)
	})

	t.Run("Happy path - poll expiring this minute is still open", func(t *testing.T) {
		s, _ := newTestService(t, now)
		poll := mustPoll(t, s, "Edge", "2024-03-10 12:00")

		_, err := s.CreateChoice(ctx, "Inside", poll.ID)
		assert.NoError(t, err)
	})

	t.Run("Unhappy path - poll does not exist", func(t *testing.T) {
		s, store := newTestService(t, now)

		_, err := s.CreateChoice(ctx, "Ghost", primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, ErrPollNotFound)

		_, err = store.FindChoiceByTitle(ctx, "Ghost")
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("Unhappy path - malformed poll id", func(t *testing.T) {
		s, _ := newTestService(t, now)

		_, err := s.CreateChoice(ctx, "Ghost", "1234")
		assert.ErrorIs(t, err, ErrPollNotFound)
	})

	t.Run("Unhappy path - title used in another poll", func(t *testing.T) {
		s, store := newTestService(t, now)
		first := mustPoll(t, s, "First", "")
		second := mustPoll(t, s, "Second", "")
		mustChoice(t, s, "Yes", first.ID)

		_, err := s.CreateChoice(ctx, "Yes", second.ID)
		assert.ErrorIs(t, err, ErrDuplicateTitle)

		choices, err := store.ListChoices(ctx, second.ID)
		require.NoError(t, err)
		assert.Empty(t, choices)
	})

	t.Run("Unhappy path - duplicate wins over expired", func(t *testing.T) {
		s, _ := newTestService(t, now)
		open := mustPoll(t, s, "Open", "")
		closed := mustPoll(t, s, "Closed", "2020-01-01 00:00")
		mustChoice(t, s, "Taken", open.ID)

		_, err := s.CreateChoice(ctx, "Taken", closed.ID)
		assert.ErrorIs(t, err, ErrDuplicateTitle)
	})

	t.Run("Unhappy path - poll expired", func(t *testing.T) {
		s, store := newTestService(t, now)
		poll := mustPoll(t, s, "Old", "2024-03-10 11:59")

		_, err := s.CreateChoice(ctx, "Late", poll.ID)
		assert.ErrorIs(t, err, ErrPollExpired)

		choices, err := store.ListChoices(ctx, poll.ID)
		require.NoError(t, err)
		assert.Empty(t, choices)
	})

	t.Run("Unhappy path - concurrent duplicate passes the lookup but not the insert", func(t *testing.T) {
		store := database.NewMemoryStore()
		racing := blindTitleStore{MemoryStore: store}
		s := NewService(store, racing, store, WithClock(fixedClock(now)))
		poll := mustPoll(t, s, "Race", "")

		mustChoice(t, s, "Same", poll.ID)
		_, err := s.CreateChoice(ctx, "Same", poll.ID)
		assert.ErrorIs(t, err, ErrDuplicateTitle)
	})

	t.Run("Unhappy path - store failure is not classified", func(t *testing.T) {
		store := database.NewMemoryStore()
		s := NewService(store, failingStore{}, store, WithClock(fixedClock(now)))
		poll := mustPoll(t, s, "Broken", "")

		_, err := s.CreateChoice(ctx, "Any", poll.ID)
		assert.ErrorIs(t, err, errStoreDown)
		assert.NotErrorIs(t, err, ErrDuplicateTitle)
	})
}

func TestListChoices(t *testing.T) {
	s, _ := newTestService(t, time.Now())
	ctx := context.Background()

	t.Run("Happy path - only the poll's choices", func(t *testing.T) {
		poll := mustPoll(t, s, "Fruit", "")
		other := mustPoll(t, s, "Veg", "")
		apple := mustChoice(t, s, "Apple", poll.ID)
		pear := mustChoice(t, s, "Pear", poll.ID)
		mustChoice(t, s, "Leek", other.ID)

		choices, err := s.ListChoices(ctx, poll.ID)
		require.NoError(t, err)
		assert.Equal(t, []*database.Choice{apple, pear}, choices)
	})

	t.Run("Unhappy path - unknown and malformed poll", func(t *testing.T) {
		_, err := s.ListChoices(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, ErrPollNotFound)

		_, err = s.ListChoices(ctx, "nope")
		assert.ErrorIs(t, err, ErrPollNotFound)
	})
}

func TestCastVote(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 45, 0, time.UTC)
	ctx := context.Background()

	t.Run("Happy path - vote stored with minute timestamp", func(t *testing.T) {
		s, store := newTestService(t, now)
		poll := mustPoll(t, s, "Snack", "")
		choice := mustChoice(t, s, "Chips", poll.ID)

		voted, err := s.CastVote(ctx, choice.ID)
		require.NoError(t, err)
		assert.Equal(t, choice, voted)

		count, err := store.CountVotes(ctx, choice.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("Unhappy path - unknown and malformed choice", func(t *testing.T) {
		s, _ := newTestService(t, now)

		_, err := s.CastVote(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, ErrChoiceNotFound)

		_, err = s.CastVote(ctx, "bogus")
		assert.ErrorIs(t, err, ErrChoiceNotFound)
	})

	t.Run("Unhappy path - poll expired after the choice was added", func(t *testing.T) {
		store := database.NewMemoryStore()
		clock := now
		s := NewService(store, store, store, WithClock(func() time.Time { return clock }))
		poll := mustPoll(t, s, "Short", "2024-03-10 12:00")
		choice := mustChoice(t, s, "Only", poll.ID)

		clock = now.Add(time.Minute)
		_, err := s.CastVote(ctx, choice.ID)
		assert.ErrorIs(t, err, ErrPollExpired)

		count, err := store.CountVotes(ctx, choice.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Known gap - deadline can pass between the expiry check and the insert", func(t *testing.T) {
		store := database.NewMemoryStore()
		clock := now
		slow := &slowVoteStore{MemoryStore: store, advance: func() { clock = clock.Add(time.Minute) }}
		s := NewService(store, store, slow, WithClock(func() time.Time { return clock }))
		poll := mustPoll(t, s, "Closing", "2024-03-10 12:00")
		choice := mustChoice(t, s, "Last", poll.ID)

		_, err := s.CastVote(ctx, choice.ID)
		require.NoError(t, err)

		// The vote lands although the poll is expired by the time it is written.
		assert.True(t, Expired(poll.ExpireAt, clock))
		count, err := store.CountVotes(ctx, choice.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func TestResult(t *testing.T) {
	ctx := context.Background()

	vote := func(t *testing.T, s *Service, choice *database.Choice, n int) {
		t.Helper()
		for i := 0; i < n; i++ {
			_, err := s.CastVote(ctx, choice.ID)
			require.NoError(t, err)
		}
	}

	t.Run("Happy path - tie goes to the first listed choice", func(t *testing.T) {
		s, _ := newTestService(t, time.Now())
		poll := mustPoll(t, s, "Letters", "")
		a := mustChoice(t, s, "A", poll.ID)
		b := mustChoice(t, s, "B", poll.ID)
		c := mustChoice(t, s, "C", poll.ID)
		vote(t, s, a, 2)
		vote(t, s, b, 5)
		vote(t, s, c, 5)

		result, err := s.Result(ctx, poll.ID)
		require.NoError(t, err)
		assert.Equal(t, poll, result.Poll)
		assert.Equal(t, &Tally{Title: "B", Votes: 5}, result.Winner)
	})

	t.Run("Happy path - choices without votes", func(t *testing.T) {
		s, _ := newTestService(t, time.Now())
		poll := mustPoll(t, s, "Quiet", "")
		mustChoice(t, s, "Nobody", poll.ID)

		result, err := s.Result(ctx, poll.ID)
		require.NoError(t, err)
		assert.Nil(t, result.Winner)
	})

	t.Run("Happy path - poll without choices", func(t *testing.T) {
		s, _ := newTestService(t, time.Now())
		poll := mustPoll(t, s, "Empty", "")

		result, err := s.Result(ctx, poll.ID)
		require.NoError(t, err)
		assert.Nil(t, result.Winner)
	})

	t.Run("Happy path - votes of other polls are not counted", func(t *testing.T) {
		s, _ := newTestService(t, time.Now())
		mine := mustPoll(t, s, "Mine", "")
		theirs := mustPoll(t, s, "Theirs", "")
		x := mustChoice(t, s, "X", mine.ID)
		y := mustChoice(t, s, "Y", theirs.ID)
		vote(t, s, x, 1)
		vote(t, s, y, 4)

		result, err := s.Result(ctx, mine.ID)
		require.NoError(t, err)
		assert.Equal(t, &Tally{Title: "X", Votes: 1}, result.Winner)
	})

	t.Run("Regression - votes written through the store match choice ids", func(t *testing.T) {
		s, store := newTestService(t, time.Now())
		poll := mustPoll(t, s, "Typed ids", "")
		choice := mustChoice(t, s, "Only", poll.ID)
		require.NoError(t, store.CreateVote(ctx, &database.Vote{ChoiceID: choice.ID, CreatedAt: "2024-01-01 00:00"}))

		result, err := s.Result(ctx, poll.ID)
		require.NoError(t, err)
		assert.Equal(t, &Tally{Title: "Only", Votes: 1}, result.Winner)
	})

	t.Run("Unhappy path - unknown poll", func(t *testing.T) {
		s, _ := newTestService(t, time.Now())

		_, err := s.Result(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, ErrPollNotFound)
	})

	t.Run("Unhappy path - count failure", func(t *testing.T) {
		store := database.NewMemoryStore()
		s := NewService(store, store, failingStore{})
		poll := mustPoll(t, s, "Broken", "")
		mustChoice(t, s, "One", poll.ID)

		_, err := s.Result(ctx, poll.ID)
		assert.ErrorIs(t, err, errStoreDown)
	})
}

func TestExpired(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 59, 0, time.UTC)

	tests := []struct {
		expireAt string
		want     bool
	}{
		{"2024-03-10 12:00", false},
		{"2024-03-10 12:01", false},
		{"2024-03-10 11:59", true},
		{"2023-12-31 23:59", true},
		{"2030-01-01 00:00", false},
		{"2024-03-10 12:00:30", false},
		{"2024-03-10 11:59:59", true},
		{"2024-03-10T12:00", false},
		{"2024-03-10T11:59", true},
		{"2024-03-10T11:59:00.000Z", true},
		{"2024-03-10T12:00:00Z", false},
		{"2024-03-10T13:00:00+01:00", false},
		{"2024-03-10T12:59:00+01:00", true},
		{"2024-03-09", true},
		{"2024-03-10", true},
		{"2024-03-11", false},
		{"not a date", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.expireAt, func(t *testing.T) {
			assert.Equal(t, tt.want, Expired(tt.expireAt, now))
		})
	}
}

// failingStore fails every call.
type failingStore struct{}

func (failingStore) CreatePoll(context.Context, *database.Poll) error { return errStoreDown }
func (failingStore) GetPoll(context.Context, string) (*database.Poll, error) {
	return nil, errStoreDown
}
func (failingStore) ListPolls(context.Context) ([]*database.Poll, error) { return nil, errStoreDown }
func (failingStore) CreateChoice(context.Context, *database.Choice) error { return errStoreDown }
func (failingStore) GetChoice(context.Context, string) (*database.Choice, error) {
	return nil, errStoreDown
}
func (failingStore) FindChoiceByTitle(context.Context, string) (*database.Choice, error) {
	return nil, errStoreDown
}
func (failingStore) ListChoices(context.Context, string) ([]*database.Choice, error) {
	return nil, errStoreDown
}
func (failingStore) CreateVote(context.Context, *database.Vote) error { return errStoreDown }
func (failingStore) CountVotes(context.Context, string) (int64, error) { return 0, errStoreDown }

// blindTitleStore never finds a title, as if a concurrent create had not landed yet.
type blindTitleStore struct {
	*database.MemoryStore
}

func (blindTitleStore) FindChoiceByTitle(context.Context, string) (*database.Choice, error) {
	return nil, database.ErrNotFound
}

// slowVoteStore moves the clock forward before every insert.
type slowVoteStore struct {
	*database.MemoryStore
	advance func()
}

func (s *slowVoteStore) CreateVote(ctx context.Context, vote *database.Vote) error {
	s.advance()
	return s.MemoryStore.CreateVote(ctx, vote)
}
