package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/format"
)

type detailKeyMap struct {
	Download   key.Binding
	Submit     key.Binding
	SubmitFlag key.Binding
	Leave      key.Binding
}

var detailKeys = detailKeyMap{
	Download:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
	Submit:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit flag")),
	SubmitFlag: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Leave:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave field")),
}

// ChallengeTitle formats "category/name (N solves / P points)".
func ChallengeTitle(c api.Challenge) string {
	return fmt.Sprintf("%s/%s (%s / %s)", c.Category, c.Name,
		format.Plural(c.Solves, "solve"), format.Plural(c.Points, "point"))
}

// ChallengeDetail shows one challenge with its files, a download action
// and a flag field.
type ChallengeDetail struct {
	challenge api.Challenge
	solved    bool
	dir       string

	flag     textinput.Model
	viewport viewport.Model

	// Rendered description, cached per width.
	rendered      string
	renderedWidth int

	onSubmit   func(flag string) tea.Cmd
	onDownload func() tea.Cmd
}

// NewChallengeDetail creates the detail column for c.
func NewChallengeDetail(c api.Challenge, solved bool) *ChallengeDetail {
	ti := textinput.New()
	ti.Placeholder = "flag{...}"
	ti.Prompt = "> "
	ti.CharLimit = 256

	return &ChallengeDetail{
		challenge: c,
		solved:    solved,
		flag:      ti,
		viewport:  viewport.New(0, 0),
	}
}

// Challenge returns the challenge shown.
func (d *ChallengeDetail) Challenge() api.Challenge { return d.challenge }

// SetDir records where the challenge was downloaded, relative to the CTF root.
func (d *ChallengeDetail) SetDir(dir string) { d.dir = dir }

// Dir returns the download directory, empty if not downloaded.
func (d *ChallengeDetail) Dir() string { return d.dir }

// Typing reports whether the flag field has focus.
func (d *ChallengeDetail) Typing() bool { return d.flag.Focused() }

// Flag returns the text in the flag field.
func (d *ChallengeDetail) Flag() string { return d.flag.Value() }

// Title returns the challenge title with its solve and point counts.
func (d *ChallengeDetail) Title() string { return ChallengeTitle(d.challenge) }

// Update edits the flag while it has focus, otherwise handles the
// download and submit actions and scrolling.
func (d *ChallengeDetail) Update(msg tea.Msg) (bool, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)

	if d.flag.Focused() {
		if isKey {
			switch {
			case key.Matches(keyMsg, detailKeys.Leave):
				d.flag.Blur()
				return true, nil
			case key.Matches(keyMsg, detailKeys.SubmitFlag):
				flag := strings.TrimSpace(d.flag.Value())
				if flag == "" || d.onSubmit == nil {
					return true, nil
				}
				d.flag.Blur()
				return true, d.onSubmit(flag)
			}
		}
		var cmd tea.Cmd
		d.flag, cmd = d.flag.Update(msg)
		return true, cmd
	}

	if !isKey {
		return false, nil
	}
	switch {
	case key.Matches(keyMsg, detailKeys.Submit):
		return true, d.flag.Focus()
	case key.Matches(keyMsg, detailKeys.Download):
		if d.onDownload == nil {
			return true, nil
		}
		return true, d.onDownload()
	}
	return scrollViewport(&d.viewport, keyMsg), nil
}

// View renders the challenge. The body scrolls; the flag field stays at
// the bottom.
func (d *ChallengeDetail) View(width, height int, focused bool) string {
	style := panelStyle
	if focused {
		style = PanelActiveStyle
	}
	inner := max(width-style.GetHorizontalFrameSize(), 1)

	if d.renderedWidth != inner {
		d.rendered = d.body(inner)
		d.renderedWidth = inner
	}

	flag := PanelTitleStyle.Render("Submit (S)") + "\n" + d.flag.View()
	if d.solved {
		flag = solvedStyle.Render("Solved") + "\n" + flag
	}
	// Title and flag lines are fixed.
	fixed := 1 + strings.Count(flag, "\n") + 2
	d.viewport.Width = inner
	d.viewport.Height = max(height-style.GetVerticalFrameSize()-fixed, 1)
	d.viewport.SetContent(d.rendered + d.dirLine())

	content := strings.Join([]string{
		PanelTitleStyle.Render(truncate(d.Title(), inner)),
		d.viewport.View(),
		"",
		flag,
	}, "\n")
	return style.Width(inner + style.GetHorizontalPadding()).Render(content)
}

func (d *ChallengeDetail) body(width int) string {
	c := d.challenge
	var b strings.Builder

	b.WriteString(labelStyle.Render("Author: "))
	b.WriteString(textStyle.Render(c.Author))
	b.WriteString("\n")
	b.WriteString(Divider(width))
	b.WriteString("\n")
	if desc := renderGlamour(c.Description, width); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("Files:"))
	b.WriteString("\n")
	if len(c.Files) == 0 {
		b.WriteString(emptyStyle.Render("(none)"))
		b.WriteString("\n")
	}
	for _, f := range c.Files {
		b.WriteString(textStyle.Render(fmt.Sprintf("  - %s (%s)", f.Name, f.URL)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(buttonStyle.Render("Download (D)"))
	b.WriteString("\n")
	return b.String()
}

func (d *ChallengeDetail) dirLine() string {
	if d.dir == "" {
		return ""
	}
	return labelStyle.Render("Downloaded to ") + textStyle.Render(d.dir) + "\n"
}
