package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/format"
)

// profileSummary returns the score and placement lines shown for a team.
func profileSummary(p api.Profile, cfg api.ClientConfig) []string {
	division := cfg.DivisionName(p.Division)
	lines := make([]string, 0, 4)

	if p.Score > 0 {
		lines = append(lines, format.Number(p.Score)+" total points")
	} else {
		lines = append(lines, "No points earned")
	}
	if p.DivisionPlace > 0 {
		lines = append(lines, fmt.Sprintf("%s place in the %s division", format.Ordinal(p.DivisionPlace), division))
	} else {
		lines = append(lines, "Unranked")
	}
	if p.GlobalPlace > 0 {
		lines = append(lines, format.Ordinal(p.GlobalPlace)+" place across all teams")
	} else {
		lines = append(lines, "Unranked")
	}
	lines = append(lines, division+" division")
	return lines
}

// solvesTable renders a solve history in server order.
func solvesTable(solves []api.Solve, width int) string {
	if len(solves) == 0 {
		return emptyStyle.Render("No solves")
	}
	rows := make([][]string, 0, len(solves))
	for _, s := range solves {
		rows = append(rows, []string{
			s.Category,
			s.Name,
			format.Timestamp(s.SolvedAt()),
			format.Number(s.Points),
		})
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(MutedColor).PaddingRight(2)
	cell := lipgloss.NewStyle().Foreground(TextColor).PaddingRight(2)
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderRow(false).
		Width(width).
		Headers("Category", "Challenge", "Solve time", "Points").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}

// TeamColumn shows a team's public profile next to the scoreboard.
type TeamColumn struct {
	profile  api.Profile
	config   api.ClientConfig
	viewport viewport.Model
}

// NewTeamColumn creates a column for profile.
func NewTeamColumn(profile api.Profile, cfg api.ClientConfig) *TeamColumn {
	return &TeamColumn{profile: profile, config: cfg, viewport: viewport.New(0, 0)}
}

// Title returns the team name.
func (c *TeamColumn) Title() string { return c.profile.Name }

// Profile returns the team shown.
func (c *TeamColumn) Profile() api.Profile { return c.profile }

// Update scrolls the profile. Every other key falls through so the stack
// can close the column.
func (c *TeamColumn) Update(msg tea.Msg) (bool, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil
	}
	return scrollViewport(&c.viewport, keyMsg), nil
}

// View renders the summary followed by the solves.
func (c *TeamColumn) View(width, height int, focused bool) string {
	style := panelStyle
	if focused {
		style = PanelActiveStyle
	}
	inner := max(width-style.GetHorizontalFrameSize(), 1)

	var body strings.Builder
	for _, line := range profileSummary(c.profile, c.config) {
		body.WriteString(textStyle.Render(line))
		body.WriteString("\n")
	}
	body.WriteString("\n")
	body.WriteString(PanelTitleStyle.Render("Solves"))
	body.WriteString("\n")
	body.WriteString(solvesTable(c.profile.Solves, inner))

	c.viewport.Width = inner
	c.viewport.Height = max(height-style.GetVerticalFrameSize()-1, 1)
	c.viewport.SetContent(body.String())

	content := PanelTitleStyle.Render(truncate(c.profile.Name, inner)) + "\n" + c.viewport.View()
	return style.Width(inner + style.GetHorizontalPadding()).Render(content)
}

// scrollViewport applies the list movement keys to a viewport and reports
// whether the key was one of them.
func scrollViewport(vp *viewport.Model, msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, columnKeys.Up):
		vp.ScrollUp(1)
	case key.Matches(msg, columnKeys.Down):
		vp.ScrollDown(1)
	case key.Matches(msg, columnKeys.PageUp):
		vp.HalfPageUp()
	case key.Matches(msg, columnKeys.PageDown):
		vp.HalfPageDown()
	default:
		return false
	}
	return true
}
