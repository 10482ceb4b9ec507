package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/config"
	"github.com/DarinMao/rctf-client/internal/format"
)

// ChallengeSaver downloads a challenge into the CTF root and returns the
// directory it was written to.
type ChallengeSaver interface {
	Save(ctx context.Context, ch api.Challenge) (string, error)
}

// visibleChallenges returns the challenges passing the filter, in their
// original order. No categories means every category.
func visibleChallenges(all []api.Challenge, solved map[string]bool, showSolved bool, categories []string) []api.Challenge {
	var out []api.Challenge
	for _, c := range all {
		if len(categories) > 0 && !slices.Contains(categories, c.Category) {
			continue
		}
		if solved[c.ID] && !showSolved {
			continue
		}
		out = append(out, c)
	}
	return out
}

// categoriesOf returns the sorted distinct categories of challs.
func categoriesOf(challs []api.Challenge) []string {
	var cats []string
	for _, c := range challs {
		cats = append(cats, c.Category)
	}
	slices.Sort(cats)
	return slices.Compact(cats)
}

// ChallengesPage drills from categories to challenges to a challenge's
// details, where flags are submitted and files downloaded.
type ChallengesPage struct {
	ctx    context.Context
	client API
	cfg    *config.Config
	saver  ChallengeSaver

	all    []api.Challenge
	solved map[string]bool

	categories *ListColumn[string]
	challenges *ListColumn[api.Challenge]
	stack      ColumnStack
}

// NewChallengesPage creates the page. Nothing is fetched until Reload.
func NewChallengesPage(ctx context.Context, client API, cfg *config.Config, saver ChallengeSaver) *ChallengesPage {
	return &ChallengesPage{ctx: ctx, client: client, cfg: cfg, saver: saver}
}

// Name returns the tab name.
func (p *ChallengesPage) Name() string { return "Challenges" }

// Reload refetches the challenges and the team's solves and collapses the
// stack to the category list.
func (p *ChallengesPage) Reload() error {
	challs, err := p.client.Challenges(p.ctx)
	if err != nil {
		return fmt.Errorf("failed to load challenges: %w", err)
	}
	profile, err := p.client.Profile(p.ctx)
	if err != nil {
		return fmt.Errorf("failed to load solves: %w", err)
	}
	api.SortChallenges(challs)
	p.all = challs
	p.solved = profile.SolvedIDs()

	cats := categoriesOf(p.visible())
	p.categories = NewListColumn[string]("Categories (F)", sliceSource[string](cats), p.categoryCells).
		WithFlex(0).
		WithEmpty("No challenges").
		OnSelect(p.openCategory)
	p.challenges = nil
	p.stack.Reset(p.categories)
	return nil
}

func (p *ChallengesPage) visible() []api.Challenge {
	return visibleChallenges(p.all, p.solved, p.cfg.ChallengesShowSolved, p.cfg.ChallengesCategories)
}

func (p *ChallengesPage) categoryCells(cat string) []string {
	n := 0
	for _, c := range p.visible() {
		if c.Category == cat {
			n++
		}
	}
	return []string{cat, format.Number(n)}
}

func (p *ChallengesPage) challengeCells(c api.Challenge) []string {
	name := c.Name
	if p.solved[c.ID] {
		name += " (Solved)"
	}
	return []string{name, format.Number(c.Points)}
}

// openCategory lists the visible challenges of cat to the right of the
// categories, replacing whatever was open.
func (p *ChallengesPage) openCategory(cat string) tea.Cmd {
	var list []api.Challenge
	for _, c := range p.visible() {
		if c.Category == cat {
			list = append(list, c)
		}
	}
	p.challenges = NewListColumn[api.Challenge](cat, sliceSource[api.Challenge](list), p.challengeCells).
		WithFlex(0).
		WithEmpty("No challenges").
		OnSelect(p.openChallenge)
	p.stack.Truncate(1)
	p.stack.Push(p.challenges)
	return nil
}

func (p *ChallengesPage) openChallenge(c api.Challenge) tea.Cmd {
	detail := NewChallengeDetail(c, p.solved[c.ID])
	if dir, ok := p.cfg.DirOf(c.ID); ok {
		detail.SetDir(dir)
	}
	detail.onSubmit = func(flag string) tea.Cmd { return p.submit(c, flag) }
	detail.onDownload = func() tea.Cmd { return p.download(c) }
	p.stack.Truncate(2)
	p.stack.Push(detail)
	return nil
}

// Detail returns the open challenge, if any.
func (p *ChallengesPage) Detail() (*ChallengeDetail, bool) {
	d, ok := p.stack.Top().(*ChallengeDetail)
	return d, ok
}

// submit sends a flag. On success the page reloads and the challenge's
// category is expanded again; on failure the page is left as it was.
func (p *ChallengesPage) submit(c api.Challenge, flag string) tea.Cmd {
	if err := p.client.SubmitFlag(p.ctx, c.ID, flag); err != nil {
		return errorDialog(err)
	}
	if err := p.Reload(); err != nil {
		return errorDialog(err)
	}
	p.expand(c.Category)
	return openDialog(NewAlert("Success", "Flag submitted!"))
}

// expand reopens cat if it is still visible.
func (p *ChallengesPage) expand(cat string) {
	if p.categories.SelectWhere(func(c string) bool { return c == cat }) {
		p.openCategory(cat)
	}
}

func (p *ChallengesPage) download(c api.Challenge) tea.Cmd {
	if p.saver == nil {
		return errorDialog(errors.New("downloads are not available"))
	}
	dir, err := p.saver.Save(p.ctx, c)
	if err != nil {
		return errorDialog(err)
	}
	if d, ok := p.Detail(); ok {
		if rel, ok := p.cfg.DirOf(c.ID); ok {
			d.SetDir(rel)
		}
	}
	return openDialog(NewAlert("Successfully Downloaded", "Saved to "+dir))
}

// applyFilter stores a new filter and reloads if it differs from the
// current one.
func (p *ChallengesPage) applyFilter(msg ChallengeFilterMsg) tea.Cmd {
	categories := slices.Clone(msg.Categories)
	slices.Sort(categories)
	current := slices.Clone(p.cfg.ChallengesCategories)
	slices.Sort(current)
	if msg.ShowSolved == p.cfg.ChallengesShowSolved && slices.Equal(categories, current) {
		return nil
	}
	p.cfg.ChallengesShowSolved = msg.ShowSolved
	p.cfg.ChallengesCategories = categories
	if err := p.Reload(); err != nil {
		return errorDialog(err)
	}
	return nil
}

// Update handles the filter dialog and forwards everything else to the
// column stack.
func (p *ChallengesPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case ChallengeFilterMsg:
		return p.applyFilter(msg)
	case tea.KeyMsg:
		if !p.CapturesInput() && key.Matches(msg, pageKeys.Filter) {
			return openDialog(NewChallengeFilterDialog(categoriesOf(p.all), p.cfg.ChallengesShowSolved, p.cfg.ChallengesCategories))
		}
	}
	return p.stack.Update(msg)
}

// RefreshDirs picks up challenge directories recorded by other processes.
func (p *ChallengesPage) RefreshDirs() {
	if d, ok := p.Detail(); ok {
		if dir, ok := p.cfg.DirOf(d.Challenge().ID); ok {
			d.SetDir(dir)
		}
	}
}

// View renders the column stack.
func (p *ChallengesPage) View(width, height int) string {
	return p.stack.View(width, height)
}

// CapturesInput reports whether the flag field is being edited.
func (p *ChallengesPage) CapturesInput() bool {
	d, ok := p.Detail()
	return ok && d.Typing()
}

// ShortHelp returns the page's key bindings.
func (p *ChallengesPage) ShortHelp() []key.Binding {
	if d, ok := p.Detail(); ok {
		if d.Typing() {
			return []key.Binding{detailKeys.SubmitFlag, detailKeys.Leave}
		}
		return []key.Binding{columnKeys.Up, columnKeys.Down, columnKeys.Back, detailKeys.Download, detailKeys.Submit}
	}
	return []key.Binding{columnKeys.Up, columnKeys.Down, columnKeys.Select, columnKeys.Back, pageKeys.Filter}
}
