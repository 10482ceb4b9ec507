package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/DarinMao/rctf-client/internal/format"
)

// TabBar is the header: the CTF name, one numbered tab per page and the
// time left in the CTF.
type TabBar struct {
	title       string
	names       []string
	activeIndex int
	end         time.Time
	width       int

	now func() time.Time
}

// NewTabBar creates a header for the given page names.
func NewTabBar(title string, names []string, end time.Time) *TabBar {
	return &TabBar{title: title, names: names, end: end, now: time.Now}
}

// SetActive selects the tab at the given 0-based index.
func (t *TabBar) SetActive(index int) {
	if index >= 0 && index < len(t.names) {
		t.activeIndex = index
	}
}

// Active returns the selected tab index.
func (t *TabBar) Active() int { return t.activeIndex }

// Count returns the number of tabs.
func (t *TabBar) Count() int { return len(t.names) }

// SetSize sets the available width for the tab bar.
func (t *TabBar) SetSize(width int) {
	t.width = width
}

// Render renders the header line.
func (t *TabBar) Render() string {
	tabs := []string{headerStyle.Render(t.title)}
	for i, name := range t.names {
		label := fmt.Sprintf("%s (%d)", name, i+1)
		if i == t.activeIndex {
			tabs = append(tabs, TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, TabStyle.Render(label))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	clock := t.clock()
	if clock == "" {
		return left
	}
	right := footerStyle.Render(clock)
	gap := t.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// clock describes when the CTF ends relative to now.
func (t *TabBar) clock() string {
	if t.end.IsZero() {
		return ""
	}
	now := t.now()
	if now.Before(t.end) {
		return "Ends " + format.Relative(t.end, now)
	}
	return "Ended " + format.Relative(t.end, now)
}
