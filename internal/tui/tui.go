package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/azye/tabdog/internal/render"
	"github.com/azye/tabdog/internal/sessions"
	"github.com/azye/tabdog/pkg/models"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// proximityRows is how close to the last rendered row the cursor must come
// before the next batch is rendered.
const proximityRows = 5

const emptyState = "No saved tabs yet. Press s to save your open tabs!"

type viewMode int

const (
	browseView viewMode = iota
	renameView
	confirmView
)

// row is one selectable line: a session header or a tab.
type row struct {
	group int
	// item is -1 for a session header.
	item int
}

// batchBuffer collects renderer output. It is shared by pointer so the
// renderer's sink survives bubbletea copying the model.
type batchBuffer struct {
	batches []render.Batch
}

func (b *batchBuffer) sink(batch render.Batch) {
	b.batches = append(b.batches, batch)
}

type confirmation struct {
	prompt string
	busy   string
	run    tea.Cmd
}

type model struct {
	ctx      context.Context
	svc      *sessions.Service
	renderer *render.Renderer
	run      *render.Run
	buffer   *batchBuffer

	groups []render.Group
	rows   []row
	total  int
	loaded bool

	cursor   int
	mode     viewMode
	confirm  confirmation
	renaming models.SessionKey

	viewport viewport.Model
	input    textinput.Model
	busy     busyIndicator

	notice string
	err    error
	ready  bool
	width  int
	height int
}

func initialModel(ctx context.Context, svc *sessions.Service, batchSize, maxNameLength int) model {
	input := textinput.New()
	input.Placeholder = "Session Name"
	input.CharLimit = maxNameLength
	input.Prompt = "Rename: "

	return model{
		ctx:      ctx,
		svc:      svc,
		renderer: render.New(batchSize, svc.Dates()),
		buffer:   &batchBuffer{},
		input:    input,
		busy:     newBusyIndicator(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.busy.Start("Loading saved tabs..."), loadSnapshotCmd(m.ctx, m.svc))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.resumeNearEnd()
		m.updateViewport()
		return m, nil

	case spinner.TickMsg:
		return m, m.busy.Update(msg)

	case SnapshotLoadedMsg:
		m.busy.Stop()
		if msg.Error != nil {
			m.err = msg.Error
			return m, nil
		}
		m.err = nil
		m.loaded = true
		m.total = len(msg.Snapshot.Tabs)
		m.groups = nil
		m.rows = nil
		m.buffer.batches = nil
		m.run = m.renderer.Render(msg.Snapshot.Tabs, msg.Snapshot.Metadata, m.buffer.sink)
		m.drain()
		m.resumeNearEnd()
		if m.cursor >= len(m.rows) {
			m.cursor = max(len(m.rows)-1, 0)
		}
		m.updateViewport()
		return m, nil

	case ActionDoneMsg:
		m.busy.Stop()
		switch {
		case msg.Error == nil:
			m.notice = msg.Notice
		case sessions.IsNoOp(msg.Error):
			m.notice = msg.Error.Error()
		default:
			m.notice = "Error: " + msg.Error.Error()
		}
		if msg.Reload {
			return m, tea.Batch(m.busy.Start("Reloading..."), loadSnapshotCmd(m.ctx, m.svc))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case renameView:
			return m.updateRename(msg)
		case confirmView:
			return m.updateConfirm(msg)
		}
		if cmd, quit := m.handleBrowseKey(msg); quit {
			return m, tea.Quit
		} else if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	// Keys move the cursor, which drives scrolling; the viewport only sees the rest.
	if _, isKey := msg.(tea.KeyMsg); m.ready && !isKey {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *model) handleBrowseKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return nil, true

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.updateViewport()
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		m.resumeNearEnd()
		m.updateViewport()

	case "enter":
		g, item, ok := m.selected()
		if !ok {
			return nil, false
		}
		m.notice = ""
		if item >= 0 {
			return tea.Batch(m.busy.Start("Opening tab..."), openCmd(m.ctx, m.svc, g.Items[item].URL)), false
		}
		return tea.Batch(m.busy.Start("Restoring session..."), restoreCmd(m.ctx, m.svc, g.Key)), false

	case "r":
		g, _, ok := m.selected()
		if !ok {
			return nil, false
		}
		if g.Key.IsLegacy() {
			m.notice = "Error: " + sessions.ErrLegacyRename.Error()
			return nil, false
		}
		m.mode = renameView
		m.renaming = g.Key
		m.input.SetValue("")
		if g.Named {
			m.input.SetValue(g.Name)
		}
		m.input.CursorEnd()
		return m.input.Focus(), false

	case "d":
		g, _, ok := m.selected()
		if !ok {
			return nil, false
		}
		m.ask(sessions.DeletePrompt(g.Key, m.sessionSize(g.Key)), "Deleting...", deleteCmd(m.ctx, m.svc, g.Key))

	case "x":
		if m.total == 0 {
			m.notice = sessions.ErrNothingToClear.Error()
			return nil, false
		}
		m.ask(sessions.ClearPrompt(m.total), "Clearing...", clearCmd(m.ctx, m.svc))

	case "s":
		m.notice = ""
		return tea.Batch(m.busy.Start("Saving tabs..."), captureCmd(m.ctx, m.svc, sessions.ModeOthers)), false
	}
	return nil, false
}

// ask switches to the y/n prompt; cmd runs only on "y".
func (m *model) ask(prompt, busy string, cmd tea.Cmd) {
	m.mode = confirmView
	m.confirm = confirmation{prompt: prompt, busy: busy, run: cmd}
	m.notice = ""
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		c := m.confirm
		m.mode = browseView
		m.confirm = confirmation{}
		return m, tea.Batch(m.busy.Start(c.busy), c.run)
	case "n", "N", "esc", "q", "ctrl+c":
		m.mode = browseView
		m.confirm = confirmation{}
		m.notice = sessions.ErrNotConfirmed.Error()
	}
	return m, nil
}

func (m model) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		key, name := m.renaming, m.input.Value()
		m.mode = browseView
		m.input.Blur()
		return m, tea.Batch(m.busy.Start("Renaming..."), renameCmd(m.ctx, m.svc, key, name))
	case tea.KeyEsc:
		m.mode = browseView
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// drain moves delivered batches into the row list.
func (m *model) drain() {
	for _, batch := range m.buffer.batches {
		for _, g := range batch.Groups {
			gi := len(m.groups)
			m.groups = append(m.groups, g)
			if g.Grouped {
				m.rows = append(m.rows, row{group: gi, item: -1})
			}
			for i := range g.Items {
				m.rows = append(m.rows, row{group: gi, item: i})
			}
		}
	}
	m.buffer.batches = nil
}

// resumeNearEnd renders the next batch while the pending line is in reach:
// the cursor is close to the last rendered row, or the rows do not fill the
// viewport.
func (m *model) resumeNearEnd() {
	for m.run != nil && m.run.Pending() && m.wantMore() {
		if !m.run.Resume() {
			break
		}
		m.drain()
	}
}

func (m model) wantMore() bool {
	if len(m.rows)-1-m.cursor <= proximityRows {
		return true
	}
	return m.ready && len(m.rows) < m.viewport.Height
}

func (m model) selected() (render.Group, int, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return render.Group{}, 0, false
	}
	r := m.rows[m.cursor]
	return m.groups[r.group], r.item, true
}

func (m model) sessionSize(key models.SessionKey) int {
	for _, g := range m.groups {
		if g.Key == key {
			return len(g.Items)
		}
	}
	return 0
}

func (m *model) updateViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderRows())
	// Keep the cursor visible.
	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

var (
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	urlStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("63"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

func (m model) renderRows() string {
	if m.loaded && len(m.rows) == 0 {
		return emptyStyle.Render(emptyState)
	}

	var s strings.Builder
	width := m.viewport.Width - 6
	if width < 20 {
		width = 20
	}
	for i, r := range m.rows {
		g := m.groups[r.group]
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		if r.item < 0 {
			line := cursor + truncate(g.Header(), width)
			if i == m.cursor {
				s.WriteString(cursorStyle.Render(line) + "\n")
			} else {
				s.WriteString(headerStyle.Render(line) + "\n")
			}
			continue
		}

		indent := ""
		if g.Grouped {
			indent = "  "
		}
		it := g.Items[r.item]
		title := titleStyle
		if i == m.cursor {
			title = cursorStyle
		}
		s.WriteString(title.Render(cursor+indent+truncate(it.Title, width/2)) + "  " + urlStyle.Render(truncate(it.URL, width/2)) + "\n")
	}
	if m.run != nil && m.run.Pending() {
		s.WriteString(pendingStyle.Render(fmt.Sprintf("  … %d more sessions", m.run.Total()-m.run.Rendered())) + "\n")
	}
	return s.String()
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.err != nil {
		var serr *sessions.StorageError
		if errors.As(m.err, &serr) {
			return fmt.Sprintf("\n  Error reading saved tabs: %v\n", serr.Err)
		}
		return fmt.Sprintf("\n  Error: %v\n", m.err)
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s", m.renderHeader(), m.viewport.View(), m.renderStatus(), m.renderFooter())
}

func (m model) renderHeader() string {
	return bannerStyle.Render(fmt.Sprintf("TabDog - %d saved tabs", m.total))
}

func (m model) renderStatus() string {
	switch {
	case m.busy.active:
		return m.busy.View()
	case m.mode == confirmView:
		return headerStyle.Render(m.confirm.prompt + " [y/n]")
	case m.mode == renameView:
		return m.input.View()
	case strings.HasPrefix(m.notice, "Error: "):
		return errorStyle.Render(m.notice)
	default:
		return noticeStyle.Render(m.notice)
	}
}

func (m model) renderFooter() string {
	info := "↑/↓: navigate • enter: restore/open • r: rename • d: delete • x: clear all • s: save tabs • q: quit"
	if m.mode == renameView {
		info = "enter: save • esc: cancel"
	}
	return footerStyle.Render(info)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// Options configures the management view.
type Options struct {
	BatchSize     int
	MaxNameLength int
}

// Run shows the management view until the user quits.
func Run(ctx context.Context, svc *sessions.Service, opts Options) error {
	maxName := opts.MaxNameLength
	if maxName <= 0 {
		maxName = sessions.DefaultMaxNameLength
	}
	p := tea.NewProgram(
		initialModel(ctx, svc, opts.BatchSize, maxName),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
