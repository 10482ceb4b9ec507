package tui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/config"
)

// fakeAPI is an in-memory rCTF server.
type fakeAPI struct {
	config     api.ClientConfig
	challenges []api.Challenge
	flags      map[string]string
	profile    api.Profile
	public     map[string]api.Profile
	members    []api.Member
	teams      []api.LeaderboardEntry

	emailMessage string
	emailErr     error
	accountErr   error

	calls      []string
	boardCalls []api.ScoreboardOptions
	updates    []api.AccountUpdate
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		config: api.ClientConfig{
			CTFName:   "Example CTF",
			Divisions: map[string]string{"open": "Open", "hs": "High School"},
		},
		challenges: []api.Challenge{
			{ID: "warmup", Name: "warmup", Category: "misc", Points: 50, Solves: 100, SortWeight: 10},
			{ID: "baby-rop", Name: "baby-rop", Category: "pwn", Points: 200, Solves: 12, Author: "ginkoid"},
			{ID: "xss", Name: "xss", Category: "web", Points: 300, Solves: 1, Files: []api.File{{Name: "app.zip", URL: "/uploads/app.zip"}}},
			{ID: "sqli", Name: "sqli", Category: "web", Points: 150, Solves: 40, SortWeight: 5},
		},
		flags: map[string]string{"xss": "flag{xss}", "sqli": "flag{sqli}"},
		profile: api.Profile{
			ID:               "me",
			Name:             "team",
			Email:            "team@example.com",
			Division:         "open",
			AllowedDivisions: []string{"open", "hs"},
			TeamToken:        "team-token",
			Score:            50,
			DivisionPlace:    3,
			GlobalPlace:      7,
			Solves:           []api.Solve{{ID: "warmup", Category: "misc", Name: "warmup", Points: 50}},
		},
		public: map[string]api.Profile{},
	}
}

func (f *fakeAPI) Config() api.ClientConfig { return f.config }

func (f *fakeAPI) Challenges(context.Context) ([]api.Challenge, error) {
	f.calls = append(f.calls, "Challenges")
	return append([]api.Challenge(nil), f.challenges...), nil
}

func (f *fakeAPI) SubmitFlag(_ context.Context, id, flag string) error {
	f.calls = append(f.calls, "SubmitFlag "+id)
	if f.flags[id] != flag {
		return &api.APIError{Kind: "badFlag", Message: "The flag was incorrect."}
	}
	for _, c := range f.challenges {
		if c.ID == id {
			f.profile.Solves = append(f.profile.Solves, api.Solve{ID: id, Category: c.Category, Name: c.Name, Points: c.Points})
			f.profile.Score += c.Points
		}
	}
	return nil
}

func (f *fakeAPI) Profile(context.Context) (api.Profile, error) {
	f.calls = append(f.calls, "Profile")
	return f.profile, nil
}

func (f *fakeAPI) PublicProfile(_ context.Context, id string) (api.Profile, error) {
	f.calls = append(f.calls, "PublicProfile "+id)
	p, ok := f.public[id]
	if !ok {
		return api.Profile{}, &api.APIError{Kind: "badUnknownUser", Message: "The user does not exist."}
	}
	return p, nil
}

func (f *fakeAPI) UpdateAccount(_ context.Context, u api.AccountUpdate) error {
	f.calls = append(f.calls, "UpdateAccount")
	f.updates = append(f.updates, u)
	if f.accountErr != nil {
		return f.accountErr
	}
	if u.Name != nil {
		f.profile.Name = *u.Name
	}
	if u.Division != nil {
		f.profile.Division = *u.Division
	}
	return nil
}

func (f *fakeAPI) UpdateEmail(_ context.Context, email string) (string, error) {
	f.calls = append(f.calls, "UpdateEmail "+email)
	if f.emailErr != nil {
		return "", f.emailErr
	}
	f.profile.Email = email
	return f.emailMessage, nil
}

func (f *fakeAPI) DeleteEmail(context.Context) (string, error) {
	f.calls = append(f.calls, "DeleteEmail")
	f.profile.Email = ""
	return "The email was removed.", nil
}

func (f *fakeAPI) Members(context.Context) ([]api.Member, error) {
	f.calls = append(f.calls, "Members")
	return append([]api.Member(nil), f.members...), nil
}

func (f *fakeAPI) AddMember(_ context.Context, email string) (api.Member, error) {
	f.calls = append(f.calls, "AddMember "+email)
	m := api.Member{ID: fmt.Sprintf("m%d", len(f.members)+1), Email: email}
	f.members = append(f.members, m)
	return m, nil
}

func (f *fakeAPI) RemoveMember(_ context.Context, id string) error {
	f.calls = append(f.calls, "RemoveMember "+id)
	for i, m := range f.members {
		if m.ID == id {
			f.members = append(f.members[:i], f.members[i+1:]...)
			return nil
		}
	}
	return &api.APIError{Kind: "badMemberNotFound", Message: "The member does not exist."}
}

func (f *fakeAPI) Scoreboard(_ context.Context, opts api.ScoreboardOptions) (api.Leaderboard, error) {
	f.boardCalls = append(f.boardCalls, opts)
	start := min(opts.Offset, len(f.teams))
	end := min(start+opts.Limit, len(f.teams))
	return api.Leaderboard{Total: len(f.teams), Entries: f.teams[start:end]}, nil
}

// count returns how many recorded calls equal call.
func (f *fakeAPI) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func makeTeams(n int) []api.LeaderboardEntry {
	teams := make([]api.LeaderboardEntry, n)
	for i := range teams {
		teams[i] = api.LeaderboardEntry{ID: fmt.Sprintf("t%d", i+1), Name: fmt.Sprintf("team %d", i+1), Score: 1000 - i}
	}
	return teams
}

// keyPress builds the key message for a key name as bubbletea reports it.
func keyPress(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func newTestApp(t *testing.T, client *fakeAPI, cfg *config.Config) App {
	t.Helper()
	app, err := NewApp(context.Background(), Options{Client: client, Config: cfg, PageSize: 10})
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App)
}

func send(a App, msg tea.Msg) (App, tea.Cmd) {
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

// press sends keys one at a time and opens any dialog a key asks for. Only
// use it for keys whose command is a dialog or nothing.
func press(a App, keys ...string) App {
	for _, k := range keys {
		var cmd tea.Cmd
		a, cmd = send(a, keyPress(k))
		if cmd == nil {
			continue
		}
		if open, ok := cmd().(OpenDialogMsg); ok {
			a, _ = send(a, open)
		}
	}
	return a
}

// typeText sends text as a single paste-like rune event without running
// the resulting command.
func typeText(a App, text string) App {
	a, _ = send(a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return a
}

// dialogOf runs cmd and returns the dialog it opens.
func dialogOf(t *testing.T, cmd tea.Cmd) Dialog {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command opening a dialog, got nil")
	}
	open, ok := cmd().(OpenDialogMsg)
	if !ok {
		t.Fatal("expected an OpenDialogMsg")
	}
	return open.Dialog
}
