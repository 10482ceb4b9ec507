package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Dialog is a modal window. While a dialog is open it receives every key.
type Dialog interface {
	// HandleKey processes a key press. When done is true the dialog is
	// closed and result, if non-nil, is delivered to the active page.
	HandleKey(msg tea.KeyMsg) (result tea.Msg, done bool)
	View(width int) string
}

// OpenDialogMsg asks the controller to show a dialog.
type OpenDialogMsg struct {
	Dialog Dialog
}

// openDialog returns a command that opens d.
func openDialog(d Dialog) tea.Cmd {
	return func() tea.Msg {
		return OpenDialogMsg{Dialog: d}
	}
}

// errorDialog opens an error alert for err.
func errorDialog(err error) tea.Cmd {
	return openDialog(NewErrorAlert(err))
}

// ChallengeFilterMsg is delivered when the challenge filter dialog is saved.
type ChallengeFilterMsg struct {
	ShowSolved bool
	Categories []string
}

// DivisionMsg is delivered when the division dialog is saved. An empty
// Division means all divisions.
type DivisionMsg struct {
	Division string
}

type dialogKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Save   key.Binding
	Cancel key.Binding
}

var dialogKeys = dialogKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle: key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
	Save:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
	Cancel: key.NewBinding(key.WithKeys("c", "esc"), key.WithHelp("c", "cancel")),
}

// Alert shows a message with a single Ok button.
type Alert struct {
	Title   string
	Message string
	isError bool
}

// NewAlert creates an informational alert.
func NewAlert(title, message string) *Alert {
	return &Alert{Title: title, Message: message}
}

// NewErrorAlert creates an alert titled "Error" showing err.
func NewErrorAlert(err error) *Alert {
	return &Alert{Title: "Error", Message: err.Error(), isError: true}
}

// HandleKey closes the alert on enter, space, esc or o.
func (a *Alert) HandleKey(msg tea.KeyMsg) (tea.Msg, bool) {
	switch msg.String() {
	case "enter", " ", "esc", "o":
		return nil, true
	}
	return nil, false
}

// View renders the alert.
func (a *Alert) View(width int) string {
	modalWidth := dialogWidth(width)
	var content strings.Builder

	if a.isError {
		content.WriteString(errorTitleStyle.Render(a.Title))
	} else {
		content.WriteString(titleStyle.Render(a.Title))
	}
	content.WriteString("\n")
	content.WriteString(Divider(modalWidth - 6))
	content.WriteString("\n\n")
	content.WriteString(textStyle.Width(modalWidth - 6).Render(a.Message))
	content.WriteString("\n\n")
	content.WriteString(buttonFocusedStyle.Render("Ok"))

	style := modalStyle
	if a.isError {
		style = modalErrorStyle
	}
	return style.Width(modalWidth).Render(content.String())
}

// ChallengeFilterDialog edits which challenges the Challenges page lists.
// The first row toggles solved challenges, the rest are one checkbox per
// category. No checked category means every category.
type ChallengeFilterDialog struct {
	categories []string
	showSolved bool
	checked    map[string]bool
	cursor     int
}

// NewChallengeFilterDialog creates a filter dialog over the known categories,
// starting from the current filter.
func NewChallengeFilterDialog(categories []string, showSolved bool, selected []string) *ChallengeFilterDialog {
	checked := make(map[string]bool, len(selected))
	for _, c := range selected {
		checked[c] = true
	}
	cats := slices.Clone(categories)
	slices.Sort(cats)
	return &ChallengeFilterDialog{
		categories: slices.Compact(cats),
		showSolved: showSolved,
		checked:    checked,
	}
}

// HandleKey moves the cursor, toggles checkboxes, saves or cancels.
func (d *ChallengeFilterDialog) HandleKey(msg tea.KeyMsg) (tea.Msg, bool) {
	switch {
	case key.Matches(msg, dialogKeys.Up):
		if d.cursor > 0 {
			d.cursor--
		}
	case key.Matches(msg, dialogKeys.Down):
		if d.cursor < len(d.categories) {
			d.cursor++
		}
	case key.Matches(msg, dialogKeys.Toggle):
		if d.cursor == 0 {
			d.showSolved = !d.showSolved
		} else {
			cat := d.categories[d.cursor-1]
			d.checked[cat] = !d.checked[cat]
		}
	case key.Matches(msg, dialogKeys.Save):
		return d.result(), true
	case key.Matches(msg, dialogKeys.Cancel):
		return nil, true
	}
	return nil, false
}

func (d *ChallengeFilterDialog) result() ChallengeFilterMsg {
	categories := []string{}
	for c, ok := range d.checked {
		if ok {
			categories = append(categories, c)
		}
	}
	slices.Sort(categories)
	return ChallengeFilterMsg{ShowSolved: d.showSolved, Categories: categories}
}

// View renders the filter dialog.
func (d *ChallengeFilterDialog) View(width int) string {
	modalWidth := dialogWidth(width)
	var content strings.Builder

	content.WriteString(titleStyle.Render("Filter Challenges"))
	content.WriteString("\n")
	content.WriteString(Divider(modalWidth - 6))
	content.WriteString("\n\n")

	content.WriteString(checkboxRow(d.cursor == 0, d.showSolved, "Show solved"))
	content.WriteString("\n\n")
	content.WriteString(labelStyle.Render("Categories"))
	content.WriteString("\n")
	if len(d.categories) == 0 {
		content.WriteString(emptyStyle.Render("  no categories"))
		content.WriteString("\n")
	}
	for i, c := range d.categories {
		content.WriteString(checkboxRow(d.cursor == i+1, d.checked[c], c))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(dialogFooter())
	return modalStyle.Width(modalWidth).Render(content.String())
}

// DivisionDialog picks the scoreboard division, or all divisions.
type DivisionDialog struct {
	ids      []string
	names    []string
	selected int
	cursor   int
}

// NewDivisionDialog creates a division picker. ids and names are parallel;
// current is the selected division id, empty for all divisions.
func NewDivisionDialog(ids, names []string, current string) *DivisionDialog {
	d := &DivisionDialog{
		ids:   append([]string{""}, ids...),
		names: append([]string{"All Divisions"}, names...),
	}
	if i := slices.Index(d.ids, current); i >= 0 {
		d.selected = i
		d.cursor = i
	}
	return d
}

// HandleKey moves the cursor, picks a division, saves or cancels.
func (d *DivisionDialog) HandleKey(msg tea.KeyMsg) (tea.Msg, bool) {
	switch {
	case key.Matches(msg, dialogKeys.Up):
		if d.cursor > 0 {
			d.cursor--
		}
	case key.Matches(msg, dialogKeys.Down):
		if d.cursor < len(d.ids)-1 {
			d.cursor++
		}
	case key.Matches(msg, dialogKeys.Toggle):
		d.selected = d.cursor
	case key.Matches(msg, dialogKeys.Save):
		return DivisionMsg{Division: d.ids[d.selected]}, true
	case key.Matches(msg, dialogKeys.Cancel):
		return nil, true
	}
	return nil, false
}

// View renders the division picker.
func (d *DivisionDialog) View(width int) string {
	modalWidth := dialogWidth(width)
	var content strings.Builder

	content.WriteString(titleStyle.Render("Scoreboard Division"))
	content.WriteString("\n")
	content.WriteString(Divider(modalWidth - 6))
	content.WriteString("\n\n")
	for i, name := range d.names {
		mark := "( )"
		if i == d.selected {
			mark = "(•)"
		}
		content.WriteString(optionRow(i == d.cursor, fmt.Sprintf("%s %s", mark, name)))
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(dialogFooter())
	return modalStyle.Width(modalWidth).Render(content.String())
}

func checkboxRow(focused, checked bool, label string) string {
	mark := "[ ]"
	if checked {
		mark = "[x]"
	}
	return optionRow(focused, mark+" "+label)
}

func optionRow(focused bool, text string) string {
	if focused {
		return selectedStyle.Render("▶ " + text)
	}
	return unselectedStyle.Render("  " + text)
}

func dialogFooter() string {
	return footerStyle.UnsetPadding().Render("↑/↓: Navigate  Space: Toggle  s: Save  c: Cancel")
}

func dialogWidth(screenWidth int) int {
	w := min(60, screenWidth-10)
	if w < 40 {
		w = 40
	}
	return w
}

// centerModal centers a modal string on the screen.
func centerModal(modal string, screenWidth, screenHeight int) string {
	lines := strings.Split(modal, "\n")
	modalHeight := len(lines)
	modalWidth := 0
	for _, line := range lines {
		if lipgloss.Width(line) > modalWidth {
			modalWidth = lipgloss.Width(line)
		}
	}

	topPadding := max((screenHeight-modalHeight)/2, 0)
	leftPadding := max((screenWidth-modalWidth)/2, 0)

	var result strings.Builder
	result.WriteString(strings.Repeat("\n", topPadding))

	leftPad := strings.Repeat(" ", leftPadding)
	for _, line := range lines {
		result.WriteString(leftPad)
		result.WriteString(line)
		result.WriteString("\n")
	}

	return result.String()
}
