package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/format"
	"github.com/DarinMao/rctf-client/internal/output"
)

// ScoreboardClient is the part of the API client the scoreboard command needs.
type ScoreboardClient interface {
	Config() api.ClientConfig
	Scoreboard(ctx context.Context, opts api.ScoreboardOptions) (api.Leaderboard, error)
}

// ScoreboardOptions contains configuration for the scoreboard command.
type ScoreboardOptions struct {
	Client   ScoreboardClient
	Output   *output.Writer
	Division string // Division id (default: all divisions)
	Limit    int
	Offset   int
}

// RunScoreboard prints one page of the scoreboard.
func RunScoreboard(ctx context.Context, opts ScoreboardOptions) error {
	if opts.Division != "" {
		if _, ok := opts.Client.Config().Divisions[opts.Division]; !ok {
			return fmt.Errorf("unknown division %q (available: %s)", opts.Division,
				strings.Join(opts.Client.Config().DivisionIDs(), ", "))
		}
	}
	lb, err := opts.Client.Scoreboard(ctx, api.ScoreboardOptions{
		Division: opts.Division,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch scoreboard: %w", err)
	}

	return opts.Output.Write(lb, func() string {
		title := DivisionTitle(opts.Client.Config(), opts.Division)
		if len(lb.Entries) == 0 {
			return title + "\nNo teams\n"
		}
		rows := make([][]string, len(lb.Entries))
		for i, e := range lb.Entries {
			rows[i] = []string{strconv.Itoa(opts.Offset + i + 1), e.Name, format.Number(e.Score)}
		}
		return fmt.Sprintf("%s\n%s%d-%d of %s\n", title,
			opts.Output.Table([]string{"#", "Team", "Points"}, rows),
			opts.Offset+1, opts.Offset+len(lb.Entries), format.Plural(lb.Total, "team"))
	})
}

// DivisionTitle names a division filter, "All Divisions" when empty.
func DivisionTitle(cfg api.ClientConfig, division string) string {
	if division == "" {
		return "All Divisions"
	}
	return cfg.DivisionName(division) + " Division"
}

// SolvesClient is the part of the API client the solves command needs.
type SolvesClient interface {
	ChallengeSolves(ctx context.Context, id string, limit, offset int) (api.ChallengeSolves, error)
}

// SolvesOptions contains configuration for the challenges solves command.
type SolvesOptions struct {
	Client SolvesClient
	Output *output.Writer
	ID     string
	Limit  int
	Offset int
}

// RunSolves prints a page of a challenge's solves.
func RunSolves(ctx context.Context, opts SolvesOptions) error {
	solves, err := opts.Client.ChallengeSolves(ctx, opts.ID, opts.Limit, opts.Offset)
	if err != nil {
		return fmt.Errorf("failed to fetch solves: %w", err)
	}
	return opts.Output.Write(solves, func() string {
		if len(solves.Solves) == 0 {
			return "No solves\n"
		}
		rows := make([][]string, len(solves.Solves))
		for i, s := range solves.Solves {
			rows[i] = []string{strconv.Itoa(opts.Offset + i + 1), s.UserName, format.Timestamp(s.SolvedAt())}
		}
		return opts.Output.Table([]string{"#", "Team", "Solve time"}, rows)
	})
}

// GraphClient is the part of the API client the graph command needs.
type GraphClient interface {
	Config() api.ClientConfig
	Graph(ctx context.Context, opts api.ScoreboardOptions) (api.Graph, error)
}

// GraphOptions contains configuration for the scoreboard graph command.
type GraphOptions struct {
	Client   GraphClient
	Output   *output.Writer
	Division string
	Limit    int
}

// RunGraph prints the score history of the top teams. Pretty output shows
// each team's latest score and when it was reached.
func RunGraph(ctx context.Context, opts GraphOptions) error {
	g, err := opts.Client.Graph(ctx, api.ScoreboardOptions{Division: opts.Division, Limit: opts.Limit})
	if err != nil {
		return fmt.Errorf("failed to fetch graph: %w", err)
	}
	return opts.Output.Write(g, func() string {
		title := DivisionTitle(opts.Client.Config(), opts.Division)
		if len(g.Entries) == 0 {
			return title + "\nNo teams\n"
		}
		rows := make([][]string, len(g.Entries))
		for i, e := range g.Entries {
			score, at := 0, "-"
			if latest, ok := e.Latest(); ok {
				score = latest.Score
				at = format.Timestamp(latest.At())
			}
			rows[i] = []string{strconv.Itoa(i + 1), e.Name, format.Number(score), at, strconv.Itoa(len(e.Points))}
		}
		return title + "\n" + opts.Output.Table([]string{"#", "Team", "Points", "Last change", "Samples"}, rows)
	})
}
