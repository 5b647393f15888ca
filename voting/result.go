package voting

import (
	"context"
	"fmt"

	"github.com/computersciencehouse/quickpoll/database"
)

const NoVotesResult = "no votes found"

type Tally struct {
	Title string `json:"title"`
	Votes int64  `json:"votes"`
}

// Result is a poll and its leading choice. Winner is nil when no choice has a vote.
type Result struct {
	Poll   *database.Poll
	Winner *Tally
}

// Result counts the votes of every choice of the poll, one count per choice, and
// keeps the strictly greatest. Ties go to the choice listed first.
func (s *Service) Result(ctx context.Context, pollID string) (*Result, error) {
	const op = "voting.Result"

	poll, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	choices, err := s.choices.ListChoices(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &Result{Poll: poll}
	var best int64
	for _, choice := range choices {
		count, err := s.votes.CountVotes(ctx, choice.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: count votes of %s: %w", op, choice.ID, err)
		}
		if count > best {
			best = count
			result.Winner = &Tally{Title: choice.Title, Votes: count}
		}
	}

	return result, nil
}
