package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrOutOfRange is returned for a row index outside a source.
var ErrOutOfRange = errors.New("row index out of range")

// RowSource supplies the rows of a ListColumn.
type RowSource[T any] interface {
	// Len is the number of rows the cursor may reach.
	Len() int
	// Loaded is the number of rows available without fetching.
	Loaded() int
	// Row returns row i, fetching it first if needed.
	Row(i int) (T, error)
}

// sliceSource is a RowSource over an in-memory slice.
type sliceSource[T any] []T

func (s sliceSource[T]) Len() int    { return len(s) }
func (s sliceSource[T]) Loaded() int { return len(s) }

func (s sliceSource[T]) Row(i int) (T, error) {
	if i < 0 || i >= len(s) {
		var zero T
		return zero, ErrOutOfRange
	}
	return s[i], nil
}

// Column is one level of a ColumnStack.
type Column interface {
	Title() string
	// Update handles a message and reports whether it was consumed.
	Update(msg tea.Msg) (handled bool, cmd tea.Cmd)
	View(width, height int, focused bool) string
}

type columnKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Select   key.Binding
	Back     key.Binding
}

var columnKeys = columnKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("ctrl+u", "page up")),
	PageDown: key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d", "page down")),
	Select:   key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("→/l", "open")),
	Back:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "back")),
}

// ListColumn is a scrolling list of rows with a cursor. Rows render as
// cells under optional headers.
type ListColumn[T any] struct {
	title    string
	headers  []string
	source   RowSource[T]
	cells    func(T) []string
	onSelect func(T) tea.Cmd
	empty    string
	flex     int

	cursor int
	offset int
	height int
	err    error
}

// NewListColumn creates a list over source. cells renders a row.
func NewListColumn[T any](title string, source RowSource[T], cells func(T) []string) *ListColumn[T] {
	return &ListColumn[T]{
		title:  title,
		source: source,
		cells:  cells,
		empty:  "Nothing here",
		height: 10,
	}
}

// WithHeaders sets the header row.
func (c *ListColumn[T]) WithHeaders(headers ...string) *ListColumn[T] {
	c.headers = headers
	return c
}

// WithFlex makes cell i take the width the other cells leave over.
func (c *ListColumn[T]) WithFlex(i int) *ListColumn[T] {
	c.flex = i
	return c
}

// WithEmpty sets the text shown when there are no rows.
func (c *ListColumn[T]) WithEmpty(text string) *ListColumn[T] {
	c.empty = text
	return c
}

// OnSelect sets the action run when a row is opened.
func (c *ListColumn[T]) OnSelect(fn func(T) tea.Cmd) *ListColumn[T] {
	c.onSelect = fn
	return c
}

// Title returns the column title.
func (c *ListColumn[T]) Title() string { return c.title }

// SetTitle changes the column title.
func (c *ListColumn[T]) SetTitle(title string) { c.title = title }

// Cursor returns the selected row index.
func (c *ListColumn[T]) Cursor() int { return c.cursor }

// Selected returns the row under the cursor.
func (c *ListColumn[T]) Selected() (T, bool) {
	row, err := c.source.Row(c.cursor)
	return row, err == nil
}

// Err returns the last error from fetching rows.
func (c *ListColumn[T]) Err() error { return c.err }

// MoveTo moves the cursor to row i, fetching it if needed.
func (c *ListColumn[T]) MoveTo(i int) error {
	n := c.source.Len()
	if n == 0 {
		c.cursor, c.offset = 0, 0
		return nil
	}
	i = max(0, min(i, n-1))
	if _, err := c.source.Row(i); err != nil {
		c.err = err
		return err
	}
	c.err = nil
	c.cursor = i
	c.scroll()
	return nil
}

// SelectWhere moves the cursor to the first loaded row matching fn.
func (c *ListColumn[T]) SelectWhere(fn func(T) bool) bool {
	for i := 0; i < c.source.Loaded(); i++ {
		row, err := c.source.Row(i)
		if err == nil && fn(row) {
			c.cursor = i
			c.scroll()
			return true
		}
	}
	return false
}

func (c *ListColumn[T]) scroll() {
	visible := max(c.visibleRows(), 1)
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+visible {
		c.offset = c.cursor - visible + 1
	}
}

func (c *ListColumn[T]) visibleRows() int {
	rows := c.height
	if len(c.headers) > 0 {
		rows--
	}
	return rows
}

// Update moves the cursor and opens rows.
func (c *ListColumn[T]) Update(msg tea.Msg) (bool, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil
	}
	page := max(c.visibleRows()/2, 1)
	switch {
	case key.Matches(keyMsg, columnKeys.Up):
		c.move(c.cursor - 1)
	case key.Matches(keyMsg, columnKeys.Down):
		c.move(c.cursor + 1)
	case key.Matches(keyMsg, columnKeys.PageUp):
		c.move(c.cursor - page)
	case key.Matches(keyMsg, columnKeys.PageDown):
		c.move(c.cursor + page)
	case key.Matches(keyMsg, columnKeys.Select):
		if c.onSelect == nil {
			return false, nil
		}
		row, ok := c.Selected()
		if !ok {
			return true, nil
		}
		return true, c.onSelect(row)
	default:
		return false, nil
	}
	if c.err != nil {
		return true, errorDialog(c.err)
	}
	return true, nil
}

func (c *ListColumn[T]) move(i int) {
	// MoveTo clamps and records fetch errors.
	_ = c.MoveTo(i)
}

// View renders the visible rows. Only rows already loaded are drawn.
func (c *ListColumn[T]) View(width, height int, focused bool) string {
	style := panelStyle
	if focused {
		style = PanelActiveStyle
	}
	innerWidth := max(width-style.GetHorizontalFrameSize(), 1)
	// Title line inside the panel.
	c.height = max(height-style.GetVerticalFrameSize()-1, 1)
	c.scroll()

	var lines []string
	lines = append(lines, PanelTitleStyle.Render(truncate(c.title, innerWidth)))

	if c.source.Len() == 0 {
		lines = append(lines, emptyStyle.Render(c.empty))
		return style.Width(innerWidth + style.GetHorizontalPadding()).Height(height - style.GetVerticalBorderSize()).
			Render(strings.Join(lines, "\n"))
	}

	widths := c.columnWidths(innerWidth)
	if len(c.headers) > 0 {
		lines = append(lines, labelStyle.Render(joinCells(c.headers, widths)))
	}

	end := min(c.offset+c.visibleRows(), c.source.Loaded())
	for i := c.offset; i < end; i++ {
		row, err := c.source.Row(i)
		if err != nil {
			break
		}
		text := joinCells(c.cells(row), widths)
		if i == c.cursor && focused {
			lines = append(lines, selectedStyle.Width(innerWidth).Render(text))
		} else if i == c.cursor {
			lines = append(lines, titleStyle.Render(text))
		} else {
			lines = append(lines, unselectedStyle.Render(text))
		}
	}

	return style.Width(innerWidth + style.GetHorizontalPadding()).Height(height - style.GetVerticalBorderSize()).
		Render(strings.Join(lines, "\n"))
}

// columnWidths gives the flex cell whatever the others leave over.
func (c *ListColumn[T]) columnWidths(width int) []int {
	n := len(c.headers)
	if n == 0 {
		if row, err := c.source.Row(c.cursor); err == nil {
			n = len(c.cells(row))
		}
	}
	if n <= 1 {
		return []int{width}
	}
	widths := make([]int, n)
	rest := 0
	for i := range widths {
		if i == c.flex {
			continue
		}
		widths[i] = 8
		if i < len(c.headers) {
			widths[i] = max(widths[i], lipgloss.Width(c.headers[i])+1)
		}
		rest += widths[i]
	}
	if c.flex >= 0 && c.flex < n {
		widths[c.flex] = max(width-rest, 4)
	}
	return widths
}

func joinCells(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		w := widths[i]
		cell = truncate(cell, w-1)
		b.WriteString(cell)
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", max(w-lipgloss.Width(cell), 1)))
		}
	}
	return b.String()
}

// truncate shortens s to width cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// ColumnStack is a drill-down of columns. The root column is never popped.
type ColumnStack struct {
	columns []Column
}

// Reset replaces the stack with a single root column.
func (s *ColumnStack) Reset(root Column) {
	s.columns = []Column{root}
}

// Push opens a column to the right of the current one.
func (s *ColumnStack) Push(c Column) {
	s.columns = append(s.columns, c)
}

// Pop closes the top column. It reports false at the root.
func (s *ColumnStack) Pop() bool {
	if len(s.columns) <= 1 {
		return false
	}
	s.columns = s.columns[:len(s.columns)-1]
	return true
}

// Truncate closes every column deeper than depth. The root always stays.
func (s *ColumnStack) Truncate(depth int) {
	if depth < 1 {
		depth = 1
	}
	if len(s.columns) > depth {
		s.columns = s.columns[:depth]
	}
}

// Top returns the focused column.
func (s *ColumnStack) Top() Column {
	if len(s.columns) == 0 {
		return nil
	}
	return s.columns[len(s.columns)-1]
}

// Depth returns the number of open columns.
func (s *ColumnStack) Depth() int {
	return len(s.columns)
}

// At returns the column at depth i, 0 being the root.
func (s *ColumnStack) At(i int) Column {
	if i < 0 || i >= len(s.columns) {
		return nil
	}
	return s.columns[i]
}

// Update gives msg to the top column; an unhandled back key pops it.
func (s *ColumnStack) Update(msg tea.Msg) tea.Cmd {
	top := s.Top()
	if top == nil {
		return nil
	}
	handled, cmd := top.Update(msg)
	if handled {
		return cmd
	}
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, columnKeys.Back) {
		s.Pop()
	}
	return nil
}

// minColumnWidth is the narrowest a column is drawn before older columns
// scroll off to the left.
const minColumnWidth = 28

// View lays the columns out side by side, the last one getting the
// remaining width.
func (s *ColumnStack) View(width, height int) string {
	if len(s.columns) == 0 {
		return ""
	}
	fit := max(width/minColumnWidth, 1)
	first := max(len(s.columns)-fit, 0)
	shown := s.columns[first:]

	// Earlier columns are narrow lists, the last one gets the rest.
	narrow := 0
	if len(shown) > 1 {
		narrow = min(width/(len(shown)+1), 40)
	}
	views := make([]string, 0, len(shown))
	for i, c := range shown {
		w := narrow
		if i == len(shown)-1 {
			w = width - narrow*(len(shown)-1)
		}
		views = append(views, c.View(w, height, i == len(shown)-1))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}
