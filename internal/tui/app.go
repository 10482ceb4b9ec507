package tui

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/config"
)

// API is the part of the rCTF client the interface uses.
type API interface {
	Config() api.ClientConfig
	Challenges(ctx context.Context) ([]api.Challenge, error)
	SubmitFlag(ctx context.Context, id, flag string) error
	Profile(ctx context.Context) (api.Profile, error)
	PublicProfile(ctx context.Context, id string) (api.Profile, error)
	UpdateAccount(ctx context.Context, update api.AccountUpdate) error
	UpdateEmail(ctx context.Context, email string) (string, error)
	DeleteEmail(ctx context.Context) (string, error)
	Members(ctx context.Context) ([]api.Member, error)
	AddMember(ctx context.Context, email string) (api.Member, error)
	RemoveMember(ctx context.Context, id string) error
	Scoreboard(ctx context.Context, opts api.ScoreboardOptions) (api.Leaderboard, error)
}

// Page is one tab of the interface.
type Page interface {
	Name() string
	// Reload refetches everything the page shows.
	Reload() error
	Update(msg tea.Msg) tea.Cmd
	View(width, height int) string
	// CapturesInput reports whether a text field has focus, in which case
	// the page receives every key.
	CapturesInput() bool
	ShortHelp() []key.Binding
}

// ConfigUpdateMsg is sent when the config file changed on disk.
type ConfigUpdateMsg struct {
	Config *config.Config
	Error  error
}

type appKeyMap struct {
	Quit   key.Binding
	Tabs   key.Binding
	Reload key.Binding
	Help   key.Binding
}

var appKeys = appKeyMap{
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Tabs:   key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "tabs")),
	Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

type pageKeyMap struct {
	Filter key.Binding
}

var pageKeys = pageKeyMap{
	Filter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
}

// Options configures the interface.
type Options struct {
	Client API
	Config *config.Config
	// ConfigPath is watched for challenge directories recorded by other
	// processes. Empty disables watching.
	ConfigPath string
	Saver      ChallengeSaver
	// PageSize is the number of scoreboard rows fetched at once.
	PageSize int
	Logger   *log.Logger
}

// App is the main Bubble Tea model. It owns the pages and at most one open
// dialog, which receives all input. Dialogs opened meanwhile wait in queue
// and are shown in order as each one closes.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	logger *log.Logger

	pages      []Page
	challenges *ChallengesPage
	header     *TabBar
	dialog     Dialog
	queued     []Dialog
	help       help.Model
	showHelp   bool

	width  int
	height int

	watcher *config.Watcher
}

// NewApp creates the interface and loads every page. A page that fails to
// load is a startup error.
func NewApp(ctx context.Context, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	challenges := NewChallengesPage(ctx, opts.Client, opts.Config, opts.Saver)
	pages := []Page{
		NewScoreboardPage(ctx, opts.Client, opts.Config, opts.PageSize),
		NewProfilePage(ctx, opts.Client),
		challenges,
	}
	names := make([]string, len(pages))
	for i, p := range pages {
		if err := p.Reload(); err != nil {
			return nil, err
		}
		names[i] = p.Name()
	}

	cfg := opts.Client.Config()
	header := NewTabBar(cfg.CTFName, names, cfg.End())
	active := opts.Config.SelectedTab
	if active < 0 || active >= len(pages) {
		active = 0
	}
	header.SetActive(active)

	a := &App{
		ctx:        ctx,
		cfg:        opts.Config,
		logger:     logger,
		pages:      pages,
		challenges: challenges,
		header:     header,
		help:       help.New(),
		showHelp:   true,
	}

	if opts.ConfigPath != "" {
		watcher, err := config.NewWatcher(opts.ConfigPath)
		if err != nil {
			logger.Warn("config watcher unavailable", "err", err)
		} else {
			a.watcher = watcher
		}
	}
	return a, nil
}

// Init starts watching the config file.
func (a App) Init() tea.Cmd {
	if a.watcher != nil {
		if err := a.watcher.Start(); err != nil {
			a.logger.Warn("failed to start config watcher", "err", err)
			return nil
		}
	}
	return a.listenForConfigChanges()
}

// Update handles messages and updates the model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.header.SetSize(msg.Width)
		a.help.Width = msg.Width
		return a, nil

	case OpenDialogMsg:
		if a.dialog != nil {
			a.queued = append(a.queued, msg.Dialog)
			return a, nil
		}
		a.dialog = msg.Dialog
		return a, nil

	case ConfigUpdateMsg:
		return a.handleConfigUpdate(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, a.page().Update(msg)
}

// handleKey routes a key to the dialog if one is open, else to a page with
// a focused text field, else to the global keys and finally the page.
func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a.quit()
	}

	if a.dialog != nil {
		result, done := a.dialog.HandleKey(msg)
		if !done {
			return a, nil
		}
		a.dialog = nil
		if len(a.queued) > 0 {
			a.dialog, a.queued = a.queued[0], a.queued[1:]
		}
		if result == nil {
			return a, nil
		}
		return a, a.page().Update(result)
	}

	if a.page().CapturesInput() {
		return a, a.page().Update(msg)
	}

	switch {
	case key.Matches(msg, appKeys.Quit):
		return a.quit()
	case key.Matches(msg, appKeys.Tabs):
		n, _ := strconv.Atoi(msg.String())
		a.selectTab(n - 1)
		return a, nil
	case key.Matches(msg, appKeys.Reload):
		if err := a.page().Reload(); err != nil {
			a.logger.Debug("reload failed", "page", a.page().Name(), "err", err)
			return a, errorDialog(err)
		}
		return a, nil
	case key.Matches(msg, appKeys.Help):
		a.showHelp = !a.showHelp
		return a, nil
	}

	return a, a.page().Update(msg)
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.stopWatcher()
	return a, tea.Quit
}

// selectTab switches pages and remembers the choice in the config.
func (a *App) selectTab(index int) {
	if index < 0 || index >= len(a.pages) {
		return
	}
	a.header.SetActive(index)
	a.cfg.SelectedTab = index
}

func (a App) page() Page {
	return a.pages[a.header.Active()]
}

// ActivePage returns the page shown.
func (a App) ActivePage() Page { return a.page() }

// Dialog returns the open dialog, nil if none.
func (a App) Dialog() Dialog { return a.dialog }

// View renders the header, the active page or dialog, and the footer.
func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.header.Render()
	footer := a.footer()
	bodyHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer)-1, 3)

	var body string
	if a.dialog != nil {
		body = centerModal(a.dialog.View(a.width), a.width, bodyHeight)
	} else {
		body = a.page().View(a.width, bodyHeight)
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	parts := []string{header, Divider(a.width), body}
	if footer != "" {
		parts = append(parts, footer)
	}
	return strings.Join(parts, "\n")
}

func (a App) footer() string {
	if !a.showHelp {
		return ""
	}
	var bindings []key.Binding
	if a.dialog == nil {
		bindings = append(bindings, a.page().ShortHelp()...)
		if !a.page().CapturesInput() {
			bindings = append(bindings, appKeys.Tabs, appKeys.Reload, appKeys.Help, appKeys.Quit)
		}
	}
	if len(bindings) == 0 {
		return ""
	}
	return footerStyle.Render(a.help.ShortHelpView(bindings))
}

// listenForConfigChanges waits for the next config change on disk.
func (a *App) listenForConfigChanges() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-a.watcher.Events()
		if !ok {
			return nil
		}
		return ConfigUpdateMsg{Config: event.Config, Error: event.Error}
	}
}

// handleConfigUpdate merges challenge directories recorded by other
// processes into the in-memory config.
func (a App) handleConfigUpdate(msg ConfigUpdateMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		a.logger.Debug("config watcher error", "err", msg.Error)
	} else if msg.Config != nil {
		if added := a.cfg.MergeChallengeDirs(msg.Config.ChallengeDirs); added > 0 {
			a.logger.Debug("picked up challenge directories", "count", added)
			a.challenges.RefreshDirs()
		}
	}

	return a, a.listenForConfigChanges()
}

func (a *App) stopWatcher() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
}
