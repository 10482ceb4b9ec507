package tui

import (
	"context"
	"fmt"

	"github.com/DarinMao/rctf-client/internal/api"
)

// DefaultPageSize is the number of scoreboard rows fetched per request.
const DefaultPageSize = api.DefaultScoreboardLimit

// ScoreboardFetcher loads one page of the scoreboard.
type ScoreboardFetcher interface {
	Scoreboard(ctx context.Context, opts api.ScoreboardOptions) (api.Leaderboard, error)
}

// Standing is a scoreboard row with its 1-based rank.
type Standing struct {
	Rank int
	api.LeaderboardEntry
}

// Leaderboard is a lazily fetched, append-only scoreboard. Pages are
// requested at the offset just past the loaded rows, so they never overlap.
type Leaderboard struct {
	ctx      context.Context
	client   ScoreboardFetcher
	division string
	pageSize int

	entries []api.LeaderboardEntry
	total   int
}

// NewLeaderboard creates an empty leaderboard for division, empty for all
// divisions. A non-positive pageSize uses DefaultPageSize.
func NewLeaderboard(ctx context.Context, client ScoreboardFetcher, division string, pageSize int) *Leaderboard {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Leaderboard{ctx: ctx, client: client, division: division, pageSize: pageSize}
}

// Reset drops every loaded row and fetches the first page. The total it
// reports bounds navigation until the next Reset, even if teams register
// in the meantime.
func (l *Leaderboard) Reset() error {
	l.entries = nil
	l.total = 0
	total, err := l.fetch()
	if err != nil {
		return err
	}
	l.total = max(total, len(l.entries))
	return nil
}

// Division returns the division the leaderboard is for.
func (l *Leaderboard) Division() string { return l.division }

// Len returns the total number of teams.
func (l *Leaderboard) Len() int { return l.total }

// Loaded returns the number of rows fetched so far.
func (l *Leaderboard) Loaded() int { return len(l.entries) }

// Row returns the standing at index i, fetching pages until it is loaded.
// Indexes at or past the total return ErrOutOfRange without fetching.
func (l *Leaderboard) Row(i int) (Standing, error) {
	if i < 0 || i >= l.total {
		return Standing{}, ErrOutOfRange
	}
	for i >= len(l.entries) {
		before := len(l.entries)
		if _, err := l.fetch(); err != nil {
			return Standing{}, err
		}
		if len(l.entries) == before {
			// The board shrank since the total was read.
			return Standing{}, ErrOutOfRange
		}
	}
	return Standing{Rank: i + 1, LeaderboardEntry: l.entries[i]}, nil
}

// fetch appends the next page and returns the total the server reported.
func (l *Leaderboard) fetch() (int, error) {
	board, err := l.client.Scoreboard(l.ctx, api.ScoreboardOptions{
		Division: l.division,
		Limit:    l.pageSize,
		Offset:   len(l.entries),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load scoreboard: %w", err)
	}
	l.entries = append(l.entries, board.Entries...)
	return board.Total, nil
}
