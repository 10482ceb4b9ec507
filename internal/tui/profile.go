package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DarinMao/rctf-client/internal/api"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// profileUpdate is the set of calls needed to save the team information
// form. Nil fields need no call.
type profileUpdate struct {
	// Email is the new email; empty removes it.
	Email   *string
	Account *api.AccountUpdate
}

// planProfileUpdate diffs the form against the loaded profile. Surrounding
// whitespace is ignored on both sides and trimmed from what is sent.
func planProfileUpdate(loaded api.Profile, name, email, division string) profileUpdate {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	var u profileUpdate
	if email != strings.TrimSpace(loaded.Email) {
		u.Email = &email
	}
	if name != strings.TrimSpace(loaded.Name) || division != loaded.Division {
		u.Account = &api.AccountUpdate{Name: &name, Division: &division}
	}
	return u
}

type profileFocus int

const (
	focusNone profileFocus = iota
	focusInfo
	focusMembers
	focusSolves
)

// Team information form fields, in tab order.
const (
	fieldName = iota
	fieldEmail
	fieldDivision
	fieldSave
	fieldCount
)

type profileKeyMap struct {
	Copy    key.Binding
	Info    key.Binding
	Members key.Binding
	Solves  key.Binding
	Next    key.Binding
	Prev    key.Binding
	Left    key.Binding
	Right   key.Binding
	Confirm key.Binding
	Unfocus key.Binding
}

var profileKeys = profileKeyMap{
	Copy:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "copy token")),
	Info:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "edit info")),
	Members: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "members")),
	Solves:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "solves")),
	Next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
	Left:    key.NewBinding(key.WithKeys("left", "h")),
	Right:   key.NewBinding(key.WithKeys("right", "l")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Unfocus: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "done")),
}

// ProfilePage shows and edits the authenticated team.
type ProfilePage struct {
	ctx    context.Context
	client API

	profile api.Profile
	members []api.Member

	focus    profileFocus
	field    int
	name     textinput.Model
	email    textinput.Model
	division int

	memberCursor int
	memberEmail  textinput.Model

	solves viewport.Model
	copied bool
}

// NewProfilePage creates the page. Nothing is fetched until Reload.
func NewProfilePage(ctx context.Context, client API) *ProfilePage {
	name := textinput.New()
	name.Prompt = ""
	name.CharLimit = 64
	email := textinput.New()
	email.Prompt = ""
	email.Placeholder = "no email"
	member := textinput.New()
	member.Prompt = "> "
	member.Placeholder = "Add Member Email"

	return &ProfilePage{
		ctx:         ctx,
		client:      client,
		name:        name,
		email:       email,
		memberEmail: member,
		solves:      viewport.New(0, 0),
	}
}

// Name returns the tab name.
func (p *ProfilePage) Name() string { return "Profile" }

// Profile returns the last loaded profile.
func (p *ProfilePage) Profile() api.Profile { return p.profile }

// Members returns the last loaded team members.
func (p *ProfilePage) Members() []api.Member { return p.members }

func (p *ProfilePage) membersEnabled() bool {
	return p.client.Config().UserMembers
}

// Reload refetches the profile, and the members when the server has them
// enabled, and resets the form to the loaded values.
func (p *ProfilePage) Reload() error {
	profile, err := p.client.Profile(p.ctx)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	var members []api.Member
	if p.membersEnabled() {
		if members, err = p.client.Members(p.ctx); err != nil {
			return fmt.Errorf("failed to load members: %w", err)
		}
	}

	p.profile = profile
	p.members = members
	p.name.SetValue(profile.Name)
	p.email.SetValue(profile.Email)
	p.division = max(slices.Index(p.divisions(), profile.Division), 0)
	p.memberCursor = min(p.memberCursor, len(p.members))
	p.copied = false
	return nil
}

// divisions returns the divisions the team may pick, always including its
// current one.
func (p *ProfilePage) divisions() []string {
	divs := slices.Clone(p.profile.AllowedDivisions)
	if p.profile.Division != "" && !slices.Contains(divs, p.profile.Division) {
		divs = append([]string{p.profile.Division}, divs...)
	}
	return divs
}

func (p *ProfilePage) divisionValue() string {
	divs := p.divisions()
	if p.division < 0 || p.division >= len(divs) {
		return p.profile.Division
	}
	return divs[p.division]
}

// saveInfo sends the changed team information. Email goes first. Failures
// are collected into one error dialog and the profile is reloaded either way.
func (p *ProfilePage) saveInfo() tea.Cmd {
	u := planProfileUpdate(p.profile, p.name.Value(), p.email.Value(), p.divisionValue())

	var errs []error
	var notes []string
	if u.Email != nil {
		var msg string
		var err error
		if *u.Email == "" {
			msg, err = p.client.DeleteEmail(p.ctx)
		} else {
			msg, err = p.client.UpdateEmail(p.ctx, *u.Email)
		}
		if err != nil {
			errs = append(errs, err)
		} else if msg != "" {
			notes = append(notes, msg)
		}
	}
	if u.Account != nil {
		if err := p.client.UpdateAccount(p.ctx, *u.Account); err != nil {
			errs = append(errs, err)
		}
	}

	p.blurAll()
	p.focus = focusNone
	if err := p.Reload(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errorDialog(errors.Join(errs...))
	}
	if len(notes) > 0 {
		return openDialog(NewAlert("Team Information", strings.Join(notes, "\n")))
	}
	return nil
}

func (p *ProfilePage) addMember() tea.Cmd {
	email := strings.TrimSpace(p.memberEmail.Value())
	if email == "" {
		return nil
	}
	if _, err := p.client.AddMember(p.ctx, email); err != nil {
		return errorDialog(err)
	}
	p.memberEmail.Reset()
	if err := p.Reload(); err != nil {
		return errorDialog(err)
	}
	return nil
}

func (p *ProfilePage) removeMember(m api.Member) tea.Cmd {
	if err := p.client.RemoveMember(p.ctx, m.ID); err != nil {
		return errorDialog(err)
	}
	if err := p.Reload(); err != nil {
		return errorDialog(err)
	}
	return nil
}

func (p *ProfilePage) copyToken() tea.Cmd {
	if err := writeClipboard(p.profile.TeamToken); err != nil {
		return errorDialog(fmt.Errorf("failed to copy token: %w", err))
	}
	p.copied = true
	return nil
}

func (p *ProfilePage) blurAll() {
	p.name.Blur()
	p.email.Blur()
	p.memberEmail.Blur()
}

// focusField moves the form cursor and focuses the matching text input.
func (p *ProfilePage) focusField(field int) tea.Cmd {
	p.field = (field + fieldCount) % fieldCount
	p.blurAll()
	switch p.field {
	case fieldName:
		return p.name.Focus()
	case fieldEmail:
		return p.email.Focus()
	}
	return nil
}

func (p *ProfilePage) focusMember(i int) tea.Cmd {
	p.memberCursor = max(0, min(i, len(p.members)))
	p.blurAll()
	if p.memberCursor == 0 {
		return p.memberEmail.Focus()
	}
	return nil
}

// Update routes keys to the focused panel.
func (p *ProfilePage) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p.updateInputs(msg)
	}

	switch p.focus {
	case focusInfo:
		return p.updateInfo(keyMsg)
	case focusMembers:
		return p.updateMembers(keyMsg)
	case focusSolves:
		if key.Matches(keyMsg, profileKeys.Unfocus) {
			p.focus = focusNone
			return nil
		}
		scrollViewport(&p.solves, keyMsg)
		return nil
	}

	switch {
	case key.Matches(keyMsg, profileKeys.Copy):
		return p.copyToken()
	case key.Matches(keyMsg, profileKeys.Info):
		p.focus = focusInfo
		return p.focusField(fieldName)
	case key.Matches(keyMsg, profileKeys.Members):
		if !p.membersEnabled() {
			return nil
		}
		p.focus = focusMembers
		return p.focusMember(0)
	case key.Matches(keyMsg, profileKeys.Solves):
		p.focus = focusSolves
	}
	return nil
}

func (p *ProfilePage) updateInfo(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, profileKeys.Unfocus):
		p.blurAll()
		p.focus = focusNone
		return nil
	case key.Matches(msg, profileKeys.Next):
		return p.focusField(p.field + 1)
	case key.Matches(msg, profileKeys.Prev):
		return p.focusField(p.field - 1)
	case key.Matches(msg, profileKeys.Confirm):
		return p.saveInfo()
	}

	switch p.field {
	case fieldName:
		var cmd tea.Cmd
		p.name, cmd = p.name.Update(msg)
		return cmd
	case fieldEmail:
		var cmd tea.Cmd
		p.email, cmd = p.email.Update(msg)
		return cmd
	case fieldDivision:
		n := len(p.divisions())
		if n == 0 {
			return nil
		}
		switch {
		case key.Matches(msg, profileKeys.Left):
			p.division = (p.division - 1 + n) % n
		case key.Matches(msg, profileKeys.Right):
			p.division = (p.division + 1) % n
		}
	}
	return nil
}

func (p *ProfilePage) updateMembers(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, profileKeys.Unfocus):
		p.blurAll()
		p.focus = focusNone
		return nil
	case key.Matches(msg, profileKeys.Next):
		return p.focusMember(p.memberCursor + 1)
	case key.Matches(msg, profileKeys.Prev):
		return p.focusMember(p.memberCursor - 1)
	case key.Matches(msg, profileKeys.Confirm):
		if p.memberCursor == 0 {
			return p.addMember()
		}
		return p.removeMember(p.members[p.memberCursor-1])
	}
	if p.memberCursor == 0 {
		var cmd tea.Cmd
		p.memberEmail, cmd = p.memberEmail.Update(msg)
		return cmd
	}
	return nil
}

// updateInputs forwards non-key messages, such as cursor blinks, to the
// focused text input.
func (p *ProfilePage) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case p.name.Focused():
		p.name, cmd = p.name.Update(msg)
	case p.email.Focused():
		p.email, cmd = p.email.Update(msg)
	case p.memberEmail.Focused():
		p.memberEmail, cmd = p.memberEmail.Update(msg)
	}
	return cmd
}

// CapturesInput reports whether a text field has focus.
func (p *ProfilePage) CapturesInput() bool {
	return p.name.Focused() || p.email.Focused() || p.memberEmail.Focused()
}

// ShortHelp returns the page's key bindings.
func (p *ProfilePage) ShortHelp() []key.Binding {
	switch p.focus {
	case focusInfo, focusMembers:
		return []key.Binding{profileKeys.Next, profileKeys.Prev, profileKeys.Confirm, profileKeys.Unfocus}
	case focusSolves:
		return []key.Binding{columnKeys.Up, columnKeys.Down, profileKeys.Unfocus}
	}
	bindings := []key.Binding{profileKeys.Copy, profileKeys.Info}
	if p.membersEnabled() {
		bindings = append(bindings, profileKeys.Members)
	}
	return append(bindings, profileKeys.Solves)
}

// View renders the editable panels on the left and the team summary and
// solves on the right.
func (p *ProfilePage) View(width, height int) string {
	leftWidth := min(max(width/2, 40), width)
	rightWidth := width - leftWidth

	left := []string{p.tokenPanel(leftWidth), p.infoPanel(leftWidth)}
	if p.membersEnabled() {
		left = append(left, p.membersPanel(leftWidth))
	}
	leftView := lipgloss.JoinVertical(lipgloss.Left, left...)
	if rightWidth < 30 {
		return leftView
	}

	summary := p.summaryPanel(rightWidth)
	solvesHeight := max(height-lipgloss.Height(summary), 5)
	right := lipgloss.JoinVertical(lipgloss.Left, summary, p.solvesPanel(rightWidth, solvesHeight))
	return lipgloss.JoinHorizontal(lipgloss.Top, leftView, right)
}

func panel(title string, body string, width int, focused bool) string {
	style := panelStyle
	if focused {
		style = PanelActiveStyle
	}
	inner := max(width-style.GetHorizontalFrameSize(), 1)
	return style.Width(inner + style.GetHorizontalPadding()).
		Render(PanelTitleStyle.Render(title) + "\n" + body)
}

func (p *ProfilePage) tokenPanel(width int) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Use this token to log in"))
	b.WriteString("\n")
	b.WriteString(textStyle.Render(p.profile.TeamToken))
	b.WriteString("\n\n")
	b.WriteString(buttonStyle.Render("Copy to Clipboard (T)"))
	if p.copied {
		b.WriteString(" ")
		b.WriteString(solvedStyle.Render("Copied!"))
	}
	return panel("Login Token", b.String(), width, false)
}

func (p *ProfilePage) infoPanel(width int) string {
	focused := p.focus == focusInfo
	label := func(field int, text string) string {
		if focused && p.field == field {
			return ShortcutKeyStyle.Render(text)
		}
		return labelStyle.Render(text)
	}

	var b strings.Builder
	b.WriteString(label(fieldName, "Team Name"))
	b.WriteString("\n")
	b.WriteString(p.name.View())
	b.WriteString("\n")
	b.WriteString(label(fieldEmail, "Email"))
	b.WriteString("\n")
	b.WriteString(p.email.View())
	b.WriteString("\n")
	b.WriteString(label(fieldDivision, "Division"))
	b.WriteString("\n")
	cfg := p.client.Config()
	var radios []string
	for i, d := range p.divisions() {
		mark := "( )"
		if i == p.division {
			mark = "(•)"
		}
		radios = append(radios, mark+" "+cfg.DivisionName(d))
	}
	b.WriteString(textStyle.Render(strings.Join(radios, "  ")))
	b.WriteString("\n\n")
	if focused && p.field == fieldSave {
		b.WriteString(buttonFocusedStyle.Render("Save"))
	} else {
		b.WriteString(buttonStyle.Render("Save"))
	}
	return panel("Team Information (I)", b.String(), width, focused)
}

func (p *ProfilePage) membersPanel(width int) string {
	focused := p.focus == focusMembers
	var b strings.Builder
	b.WriteString(p.memberEmail.View())
	b.WriteString("\n\n")
	if len(p.members) == 0 {
		b.WriteString(emptyStyle.Render("no members"))
	}
	for i, m := range p.members {
		if i > 0 {
			b.WriteString("\n")
		}
		remove := buttonStyle.Render("Remove")
		if focused && p.memberCursor == i+1 {
			remove = buttonFocusedStyle.Render("Remove")
		}
		b.WriteString(textStyle.Render(m.Email) + "  " + remove)
	}
	return panel("Team Members (M)", b.String(), width, focused)
}

func (p *ProfilePage) summaryPanel(width int) string {
	lines := profileSummary(p.profile, p.client.Config())
	for i, l := range lines {
		lines[i] = textStyle.Render(l)
	}
	return panel(p.profile.Name, strings.Join(lines, "\n"), width, false)
}

func (p *ProfilePage) solvesPanel(width, height int) string {
	focused := p.focus == focusSolves
	style := panelStyle
	if focused {
		style = PanelActiveStyle
	}
	inner := max(width-style.GetHorizontalFrameSize(), 1)
	p.solves.Width = inner
	p.solves.Height = max(height-style.GetVerticalFrameSize()-1, 1)
	p.solves.SetContent(solvesTable(p.profile.Solves, inner))
	return panel("Solves (S)", p.solves.View(), width, focused)
}
