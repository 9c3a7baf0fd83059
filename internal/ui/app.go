package ui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/controldeck/internal/logtail"
	"github.com/five82/controldeck/internal/prefs"
	"github.com/five82/controldeck/internal/state"
)

// Source is the engine as seen by the render loop. None of its methods may
// block.
type Source interface {
	Snapshot() state.Snapshot
	RequestRefresh() bool
	MarkRendered(ids []string) bool
}

// Page is one of the dashboard screens.
type Page int

const (
	PageDashboard Page = iota
	PageRepos
	PageActivity
	PageLogs
	pageCount
)

var pageNames = [...]string{"dashboard", "repositories", "activity", "logs"}

func (p Page) String() string {
	if p < 0 || p >= pageCount {
		return "unknown"
	}
	return pageNames[p]
}

// Title is the tab label.
func (p Page) Title() string {
	s := p.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParsePage maps a page name (or its first letters) to a Page.
func ParsePage(name string) (Page, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return PageDashboard, false
	}
	for i, n := range pageNames {
		if strings.HasPrefix(n, name) {
			return Page(i), true
		}
	}
	return PageDashboard, false
}

// Options configures the UI.
type Options struct {
	Context       context.Context
	Source        Source
	User          string
	ThemeName     string
	StartPage     string
	PrefsPath     string
	LogPath       string
	ReducedMotion bool
	RefreshEvery  time.Duration

	// Now overrides the wall clock. Tests only.
	Now func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx           context.Context
	source        Source
	user          string
	saver         *prefs.Writer
	logPath       string
	reducedMotion bool
	refreshEvery  time.Duration
	clock         func() time.Time

	keys   keyMap
	help   help.Model
	theme  Theme
	styles Styles
	page   Page
	width  int
	height int
	ready  bool

	showHelp bool
	paused   bool
	pausedAt time.Time
	start    time.Time
	now      time.Time

	snapshot state.Snapshot

	// glow maps event ids to the end of their highlight. unacked holds
	// new ids drawn by the last frame that the engine has not taken yet.
	glow    map[string]time.Time
	unacked []string

	notice      string
	noticeUntil time.Time

	reposView    viewport.Model
	activityView viewport.Model
	logView      viewport.Model
	filter       textinput.Model
	filtering    bool

	logLines   []string
	logErr     error
	logLoading bool
	logReadAt  time.Time
}

// New creates the dashboard model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	clock := opts.Now
	if clock == nil {
		clock = time.Now
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	page, _ := ParsePage(opts.StartPage)

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter repositories"
	filter.CharLimit = 64

	theme := GetTheme(themeName)
	now := clock()
	m := Model{
		ctx:           ctx,
		source:        opts.Source,
		user:          opts.User,
		saver:         prefs.NewWriter(prefsPath),
		logPath:       opts.LogPath,
		reducedMotion: opts.ReducedMotion,
		refreshEvery:  opts.RefreshEvery,
		clock:         clock,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		theme:         theme,
		styles:        theme.Styles(),
		page:          page,
		start:         now,
		now:           now,
		glow:          make(map[string]time.Time),
		filter:        filter,
	}
	if m.source != nil {
		m.snapshot = m.source.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{frameCmd()}
	if m.page == PageLogs {
		cmds = append(cmds, loadLogsCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.resize()
		m.syncViews()
		return m, nil

	case frameMsg:
		return m.handleFrame(time.Time(msg))

	case logsMsg:
		m.logLoading = false
		m.logReadAt = m.clock()
		m.logErr = msg.err
		follow := m.logView.AtBottom() || len(m.logLines) == 0
		m.logLines = msg.lines
		m.syncLogView()
		if follow {
			m.logView.GotoBottom()
		}
		return m, nil
	}

	if m.filtering {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.page {
	case PageRepos:
		return m.renderRepos()
	case PageActivity:
		return m.renderActivity()
	case PageLogs:
		return m.renderLogs()
	default:
		return m.renderDashboard()
	}
}

// handleFrame runs once per frame: acknowledge what the previous frame drew,
// pick up the latest snapshot, and note which new events this frame shows.
func (m Model) handleFrame(t time.Time) (tea.Model, tea.Cmd) {
	m.now = t
	m.ackRendered()
	if m.source != nil {
		m.snapshot = m.source.Snapshot()
	}
	m.trackNovelty()
	m.syncViews()

	cmds := []tea.Cmd{frameCmd()}
	if m.page == PageLogs && !m.logLoading && t.Sub(m.logReadAt) >= LogRefreshInterval {
		m.logLoading = true
		cmds = append(cmds, loadLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) ackRendered() {
	if len(m.unacked) == 0 || m.source == nil {
		return
	}
	if m.source.MarkRendered(m.unacked) {
		m.unacked = nil
	}
}

func (m *Model) trackNovelty() {
	for _, ev := range m.visibleEvents() {
		if !ev.New {
			continue
		}
		if _, ok := m.glow[ev.ID]; !ok {
			m.glow[ev.ID] = m.now.Add(GlowDuration)
		}
		if !slices.Contains(m.unacked, ev.ID) {
			m.unacked = append(m.unacked, ev.ID)
		}
	}
	if m.paused {
		return
	}
	for id, until := range m.glow {
		if !until.After(m.now) {
			delete(m.glow, id)
		}
	}
}

// animNow is the clock animations are drawn against; it stops while paused.
func (m Model) animNow() time.Time {
	if m.paused {
		return m.pausedAt
	}
	return m.now
}

func (m Model) glowing(id string) bool {
	until, ok := m.glow[id]
	return ok && until.After(m.animNow())
}

func (m *Model) flash(msg string) {
	m.notice = msg
	m.noticeUntil = m.now.Add(3 * time.Second)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.Refresh):
		if m.source != nil && m.source.RequestRefresh() {
			m.flash("refresh requested")
		} else {
			m.flash("refresh already pending")
		}

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if m.paused {
			m.pausedAt = m.now
		} else {
			for id, until := range m.glow {
				m.glow[id] = until.Add(m.now.Sub(m.pausedAt))
			}
		}

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.styles = m.theme.Styles()
		m.savePrefs()
		m.syncViews()

	case key.Matches(msg, m.keys.Tab, m.keys.Right):
		return m.setPage((m.page + 1) % pageCount)

	case key.Matches(msg, m.keys.ShiftTab, m.keys.Left):
		return m.setPage((m.page + pageCount - 1) % pageCount)

	case key.Matches(msg, m.keys.Page1):
		return m.setPage(PageDashboard)
	case key.Matches(msg, m.keys.Page2):
		return m.setPage(PageRepos)
	case key.Matches(msg, m.keys.Page3):
		return m.setPage(PageActivity)
	case key.Matches(msg, m.keys.Page4):
		return m.setPage(PageLogs)

	case key.Matches(msg, m.keys.Filter) && m.page == PageRepos:
		m.filtering = true
		m.resize()
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.Escape) && m.page == PageRepos:
		m.filter.SetValue("")
		m.resize()
		m.syncReposView()

	default:
		m.scroll(msg)
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.filter.SetValue("")
		m.filter.Blur()
		m.filtering = false
	case key.Matches(msg, m.keys.Confirm):
		m.filter.Blur()
		m.filtering = false
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.syncReposView()
		m.reposView.GotoTop()
		return m, cmd
	}
	m.resize()
	m.syncReposView()
	return m, nil
}

func (m Model) setPage(p Page) (tea.Model, tea.Cmd) {
	if p == m.page {
		return m, nil
	}
	m.page = p
	m.savePrefs()
	m.syncViews()
	m.trackNovelty()
	if p == PageLogs && !m.logLoading {
		m.logLoading = true
		return m, loadLogsCmd(m.logPath)
	}
	return m, nil
}

func (m *Model) scroll(msg tea.KeyMsg) {
	vp := m.activeView()
	if vp == nil {
		return
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		vp.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		vp.LineDown(1)
	case key.Matches(msg, m.keys.PageUp):
		vp.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		vp.ViewDown()
	case key.Matches(msg, m.keys.Top):
		vp.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
	default:
		return
	}
	if m.page == PageActivity {
		m.trackNovelty()
	}
}

func (m *Model) activeView() *viewport.Model {
	switch m.page {
	case PageRepos:
		return &m.reposView
	case PageActivity:
		return &m.activityView
	case PageLogs:
		return &m.logView
	default:
		return nil
	}
}

// savePrefs hands the current theme and page to the background writer.
func (m Model) savePrefs() {
	m.saver.Submit(prefs.Prefs{Theme: m.theme.Name, StartPage: m.page.String()})
}

// bodyHeight is the space between the header and the status bar.
func (m Model) bodyHeight() int {
	return max(m.height-2, 1)
}

func (m *Model) resize() {
	h := m.bodyHeight()
	reposH := h - 1 // column header
	if m.filtering || m.filter.Value() != "" {
		reposH--
	}
	m.reposView.Width, m.reposView.Height = m.width, max(reposH, 1)
	m.activityView.Width, m.activityView.Height = m.width, h
	m.logView.Width, m.logView.Height = m.width, h
	m.filter.Width = max(m.width-4, 10)
}

// syncViews refreshes the viewport content of the page on screen.
func (m *Model) syncViews() {
	switch m.page {
	case PageRepos:
		m.syncReposView()
	case PageActivity:
		m.syncActivityView()
	case PageLogs:
		m.syncLogView()
	}
}

// Messages

type frameMsg time.Time

type logsMsg struct {
	lines []string
	err   error
}

// Commands

func frameCmd() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		lines, err := logtail.Read(path, LogBufferLimit)
		return logsMsg{lines: lines, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	m.saver.Close()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
