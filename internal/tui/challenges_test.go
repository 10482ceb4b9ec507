package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/config"
)

type recordingSaver struct {
	saved []string
	err   error
	cfg   *config.Config
}

func (s *recordingSaver) Save(_ context.Context, ch api.Challenge) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, ch.ID)
	dir := ch.Category + "/" + ch.Name
	if s.cfg != nil {
		s.cfg.RecordChallengeDir(dir, ch.ID)
	}
	return "/ctf/" + dir, nil
}

func ids(challs []api.Challenge) []string {
	out := make([]string, len(challs))
	for i, c := range challs {
		out[i] = c.ID
	}
	return out
}

func TestVisibleChallenges(t *testing.T) {
	all := []api.Challenge{
		{ID: "a", Category: "web"},
		{ID: "b", Category: "pwn"},
		{ID: "c", Category: "web"},
		{ID: "d", Category: "crypto"},
	}
	solved := map[string]bool{"c": true, "d": true}

	tests := []struct {
		name       string
		showSolved bool
		categories []string
		want       string
	}{
		{"everything", true, nil, "a,b,c,d"},
		{"hide solved", false, nil, "a,b"},
		{"one category", true, []string{"web"}, "a,c"},
		{"category and hide solved", false, []string{"web"}, "a"},
		{"two categories", false, []string{"pwn", "crypto"}, "b"},
		{"unknown category", true, []string{"misc"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(ids(visibleChallenges(all, solved, tt.showSolved, tt.categories)), ",")
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func newChallengesPage(t *testing.T, client *fakeAPI, cfg *config.Config) *ChallengesPage {
	t.Helper()
	page := NewChallengesPage(context.Background(), client, cfg, &recordingSaver{cfg: cfg})
	if err := page.Reload(); err != nil {
		t.Fatal(err)
	}
	return page
}

func categoryTitles(p *ChallengesPage) []string {
	var out []string
	for i := 0; i < p.categories.source.Len(); i++ {
		c, _ := p.categories.source.Row(i)
		out = append(out, c)
	}
	return out
}

func TestChallengesPageListsVisibleCategories(t *testing.T) {
	client := newFakeAPI()
	cfg := config.Default()

	page := newChallengesPage(t, client, cfg)
	// misc only holds the solved warmup.
	if got := strings.Join(categoryTitles(page), ","); got != "pwn,web" {
		t.Errorf("categories = %q, want pwn,web", got)
	}
	if page.categories.Title() != "Categories (F)" {
		t.Errorf("unexpected title %q", page.categories.Title())
	}

	cfg.ChallengesShowSolved = true
	if err := page.Reload(); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(categoryTitles(page), ","); got != "misc,pwn,web" {
		t.Errorf("categories = %q, want misc,pwn,web", got)
	}
}

func TestChallengesPageSortsAndMarksSolved(t *testing.T) {
	client := newFakeAPI()
	cfg := config.Default()
	cfg.ChallengesShowSolved = true
	page := newChallengesPage(t, client, cfg)

	page.categories.SelectWhere(func(c string) bool { return c == "web" })
	page.Update(keyPress("enter"))
	first, _ := page.challenges.Selected()
	if first.ID != "sqli" {
		t.Errorf("expected sqli first by sort weight, got %s", first.ID)
	}

	page.stack.Truncate(1)
	page.categories.SelectWhere(func(c string) bool { return c == "misc" })
	page.Update(keyPress("enter"))
	warmup, _ := page.challenges.Selected()
	if cells := page.challengeCells(warmup); cells[0] != "warmup (Solved)" {
		t.Errorf("expected solved suffix, got %q", cells[0])
	}
}

func TestChallengesDrillDownAndBack(t *testing.T) {
	client := newFakeAPI()
	page := newChallengesPage(t, client, config.Default())

	page.Update(keyPress("j"))
	page.Update(keyPress("enter"))
	if page.stack.Depth() != 2 || page.stack.Top().Title() != "web" {
		t.Fatalf("expected web challenges open, got depth %d", page.stack.Depth())
	}
	afterCategory := page.stack.Top()

	page.Update(keyPress("j"))
	page.Update(keyPress("enter"))
	detail, ok := page.Detail()
	if !ok {
		t.Fatal("expected challenge detail open")
	}
	if detail.Title() != "web/xss (1 solve / 300 points)" {
		t.Errorf("unexpected detail title %q", detail.Title())
	}

	page.Update(keyPress("h"))
	if page.stack.Depth() != 2 || page.stack.Top() != afterCategory {
		t.Fatal("back from detail must return to the challenge list")
	}
	if page.challenges.Cursor() != 1 {
		t.Errorf("expected challenge cursor kept at 1, got %d", page.challenges.Cursor())
	}

	page.Update(keyPress("left"))
	if page.stack.Depth() != 1 || page.categories.Cursor() != 1 {
		t.Errorf("expected categories with cursor 1, got depth %d cursor %d", page.stack.Depth(), page.categories.Cursor())
	}
}

func openChallenge(t *testing.T, a App, category, id string) App {
	t.Helper()
	page := a.ActivePage().(*ChallengesPage)
	if !page.categories.SelectWhere(func(c string) bool { return c == category }) {
		t.Fatalf("category %s not visible", category)
	}
	a = press(a, "enter")
	if !page.challenges.SelectWhere(func(c api.Challenge) bool { return c.ID == id }) {
		t.Fatalf("challenge %s not visible", id)
	}
	return press(a, "enter")
}

func TestSubmitFlagSuccess(t *testing.T) {
	client := newFakeAPI()
	cfg := config.Default()
	cfg.SelectedTab = 2
	a := newTestApp(t, client, cfg)
	a = openChallenge(t, a, "web", "xss")

	a, _ = send(a, keyPress("s"))
	if !a.ActivePage().CapturesInput() {
		t.Fatal("expected the flag field to capture input")
	}
	a = typeText(a, "flag{xss}")
	loads := client.count("Challenges")
	a = press(a, "enter")

	if client.count("SubmitFlag xss") != 1 {
		t.Fatalf("expected one submission, calls: %v", client.calls)
	}
	alert, ok := a.Dialog().(*Alert)
	if !ok || alert.Message != "Flag submitted!" {
		t.Fatalf("expected confirmation dialog, got %#v", a.Dialog())
	}
	if client.count("Challenges") != loads+1 {
		t.Error("expected a full reload after a correct flag")
	}

	page := a.ActivePage().(*ChallengesPage)
	if page.stack.Depth() != 2 || page.stack.Top().Title() != "web" {
		t.Errorf("expected web re-expanded, depth %d", page.stack.Depth())
	}
	// xss is solved and hidden now; only sqli is left.
	if got := strings.Join(ids(page.challenges.source.(sliceSource[api.Challenge])), ","); got != "sqli" {
		t.Errorf("visible web challenges = %q", got)
	}
}

func TestSubmitFlagFailureKeepsState(t *testing.T) {
	client := newFakeAPI()
	cfg := config.Default()
	cfg.SelectedTab = 2
	a := newTestApp(t, client, cfg)
	a = openChallenge(t, a, "web", "xss")

	a, _ = send(a, keyPress("s"))
	a = typeText(a, "flag{wrong}")
	loads := client.count("Challenges")
	a = press(a, "enter")

	alert, ok := a.Dialog().(*Alert)
	if !ok || alert.Title != "Error" || !strings.Contains(alert.Message, "The flag was incorrect.") {
		t.Fatalf("expected error dialog, got %#v", a.Dialog())
	}
	if client.count("Challenges") != loads {
		t.Error("a wrong flag must not reload")
	}
	page := a.ActivePage().(*ChallengesPage)
	detail, ok := page.Detail()
	if !ok || detail.Challenge().ID != "xss" {
		t.Fatal("expected the detail to stay open")
	}
	if detail.Flag() != "flag{wrong}" {
		t.Errorf("expected flag text kept, got %q", detail.Flag())
	}

	a = press(a, "enter")
	if a.Dialog() != nil {
		t.Error("expected Ok to close the dialog")
	}
}

func TestSubmitEmptyFlagDoesNothing(t *testing.T) {
	client := newFakeAPI()
	cfg := config.Default()
	cfg.SelectedTab = 2
	a := newTestApp(t, client, cfg)
	a = openChallenge(t, a, "pwn", "baby-rop")

	a, _ = send(a, keyPress("s"))
	a, _ = send(a, keyPress("enter"))
	if client.count("SubmitFlag baby-rop") != 0 || a.Dialog() != nil {
		t.Error("an empty flag must not be submitted")
	}
	if !a.ActivePage().CapturesInput() {
		t.Error("an empty flag must keep the field focused")
	}

	a, _ = send(a, keyPress("esc"))
	if a.ActivePage().CapturesInput() {
		t.Error("esc must leave the flag field")
	}
}

func TestDownloadChallenge(t *testing.T) {
	client := newFakeAPI()
	cfg := config.Default()
	saver := &recordingSaver{cfg: cfg}
	page := NewChallengesPage(context.Background(), client, cfg, saver)
	if err := page.Reload(); err != nil {
		t.Fatal(err)
	}
	page.categories.SelectWhere(func(c string) bool { return c == "web" })
	page.Update(keyPress("enter"))
	page.challenges.SelectWhere(func(c api.Challenge) bool { return c.ID == "xss" })
	page.Update(keyPress("enter"))

	d := dialogOf(t, page.Update(keyPress("d")))
	alert := d.(*Alert)
	if alert.Title != "Successfully Downloaded" || !strings.Contains(alert.Message, "/ctf/web/xss") {
		t.Errorf("unexpected alert %+v", alert)
	}
	if len(saver.saved) != 1 || saver.saved[0] != "xss" {
		t.Errorf("saved = %v", saver.saved)
	}
	detail, _ := page.Detail()
	if detail.Dir() != "web/xss" {
		t.Errorf("expected detail to show the directory, got %q", detail.Dir())
	}

	saver.err = errors.New("disk full")
	d = dialogOf(t, page.Update(keyPress("d")))
	if alert := d.(*Alert); alert.Title != "Error" || alert.Message != "disk full" {
		t.Errorf("unexpected alert %+v", alert)
	}
}

func TestChallengeFilterDialog(t *testing.T) {
	client := newFakeAPI()
	cfg := config.Default()
	cfg.SelectedTab = 2
	a := newTestApp(t, client, cfg)

	a = press(a, "f")
	if _, ok := a.Dialog().(*ChallengeFilterDialog); !ok {
		t.Fatalf("expected filter dialog, got %#v", a.Dialog())
	}

	// Cancelling changes nothing.
	loads := client.count("Challenges")
	a = press(a, " ", "c")
	if a.Dialog() != nil || cfg.ChallengesShowSolved || client.count("Challenges") != loads {
		t.Error("cancel must close the dialog without changes")
	}

	// Saving an unchanged filter doesn't reload.
	a = press(a, "f", "s")
	if client.count("Challenges") != loads {
		t.Error("an unchanged filter must not reload")
	}

	// Show solved and restrict to web. Rows: show solved, misc, pwn, web.
	a = press(a, "f", " ", "j", "j", "j", " ", "s")
	if !cfg.ChallengesShowSolved {
		t.Error("expected show solved to be saved")
	}
	if strings.Join(cfg.ChallengesCategories, ",") != "web" {
		t.Errorf("categories = %v", cfg.ChallengesCategories)
	}
	if client.count("Challenges") != loads+1 {
		t.Error("a changed filter must reload")
	}
	page := a.ActivePage().(*ChallengesPage)
	if got := strings.Join(categoryTitles(page), ","); got != "web" {
		t.Errorf("categories = %q", got)
	}
}

func TestChallengeFilterUnsortedConfigIsUnchanged(t *testing.T) {
	client := newFakeAPI()
	cfg := config.Default()
	cfg.ChallengesShowSolved = true
	cfg.ChallengesCategories = []string{"web", "pwn"}
	page := newChallengesPage(t, client, cfg)

	loads := client.count("Challenges")
	if cmd := page.Update(ChallengeFilterMsg{ShowSolved: true, Categories: []string{"pwn", "web"}}); cmd != nil {
		t.Error("an unchanged filter shows no dialog")
	}
	if client.count("Challenges") != loads {
		t.Error("a reordered but equal category list must not reload")
	}

	page.Update(ChallengeFilterMsg{ShowSolved: true, Categories: []string{"web"}})
	if client.count("Challenges") != loads+1 {
		t.Error("a changed filter must reload")
	}
}

func TestChallengeDetailView(t *testing.T) {
	c := api.Challenge{
		ID: "xss", Name: "xss", Category: "web", Author: "jane",
		Description: "Find the **bug**.",
		Points:      1, Solves: 2,
		Files:       []api.File{{Name: "app.zip", URL: "https://cdn.example.com/app.zip"}},
	}
	d := NewChallengeDetail(c, true)
	d.SetDir("web/xss")
	view := stripANSI(d.View(90, 40, true))
	for _, want := range []string{
		"web/xss (2 solves / 1 point)",
		"Author: jane",
		"bug",
		"Files:",
		"  - app.zip (https://cdn.example.com/app.zip)",
		"Download (D)",
		"Submit (S)",
		"Solved",
		"Downloaded to web/xss",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}

	empty := NewChallengeDetail(api.Challenge{Name: "x", Category: "misc"}, false)
	if view := stripANSI(empty.View(90, 40, true)); !strings.Contains(view, "(none)") {
		t.Errorf("expected (none) for no files:\n%s", view)
	}
}
