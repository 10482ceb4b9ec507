package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DarinMao/rctf-client/internal/config"
	"github.com/DarinMao/rctf-client/internal/format"
)

// ScoreboardPage lists teams of the selected division. Opening a team shows
// its public profile in a second column.
type ScoreboardPage struct {
	ctx      context.Context
	client   API
	cfg      *config.Config
	pageSize int

	board *Leaderboard
	list  *ListColumn[Standing]
	stack ColumnStack
}

// NewScoreboardPage creates the page. Nothing is fetched until Reload.
func NewScoreboardPage(ctx context.Context, client API, cfg *config.Config, pageSize int) *ScoreboardPage {
	return &ScoreboardPage{ctx: ctx, client: client, cfg: cfg, pageSize: pageSize}
}

// Name returns the tab name.
func (p *ScoreboardPage) Name() string { return "Scoreboard" }

// Reload refetches the scoreboard from offset 0 for the configured division.
func (p *ScoreboardPage) Reload() error {
	board := NewLeaderboard(p.ctx, p.client, p.cfg.Division(), p.pageSize)
	if err := board.Reset(); err != nil {
		return err
	}
	p.board = board
	p.list = NewListColumn[Standing](p.title(), board, standingCells).
		WithHeaders("#", "Team", "Points").
		WithFlex(1).
		WithEmpty("No teams").
		OnSelect(p.openTeam)
	p.stack.Reset(p.list)
	return nil
}

// Leaderboard returns the loaded scoreboard.
func (p *ScoreboardPage) Leaderboard() *Leaderboard { return p.board }

func (p *ScoreboardPage) title() string {
	division := p.cfg.Division()
	if division == "" {
		return "All Divisions (F)"
	}
	return p.client.Config().DivisionName(division) + " Division (F)"
}

func standingCells(s Standing) []string {
	return []string{format.Number(s.Rank), s.Name, format.Number(s.Score)}
}

func (p *ScoreboardPage) openTeam(s Standing) tea.Cmd {
	profile, err := p.client.PublicProfile(p.ctx, s.ID)
	if err != nil {
		return errorDialog(err)
	}
	p.stack.Push(NewTeamColumn(profile, p.client.Config()))
	return nil
}

// Team returns the team whose profile is open.
func (p *ScoreboardPage) Team() (*TeamColumn, bool) {
	team, ok := p.stack.Top().(*TeamColumn)
	return team, ok
}

// Update handles the division dialog and list navigation.
func (p *ScoreboardPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case DivisionMsg:
		if msg.Division == p.cfg.Division() {
			return nil
		}
		p.cfg.SetDivision(msg.Division)
		if err := p.Reload(); err != nil {
			return errorDialog(err)
		}
		return nil

	case tea.KeyMsg:
		if key.Matches(msg, pageKeys.Filter) {
			return openDialog(p.divisionDialog())
		}
	}
	return p.stack.Update(msg)
}

func (p *ScoreboardPage) divisionDialog() *DivisionDialog {
	cfg := p.client.Config()
	ids := cfg.DivisionIDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = cfg.DivisionName(id)
	}
	return NewDivisionDialog(ids, names, p.cfg.Division())
}

// View renders the column stack.
func (p *ScoreboardPage) View(width, height int) string {
	return p.stack.View(width, height)
}

// CapturesInput is always false; the page has no text fields.
func (p *ScoreboardPage) CapturesInput() bool { return false }

// ShortHelp returns the page's key bindings.
func (p *ScoreboardPage) ShortHelp() []key.Binding {
	return []key.Binding{columnKeys.Up, columnKeys.Down, columnKeys.Select, columnKeys.Back, pageKeys.Filter}
}
