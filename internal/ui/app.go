package ui

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/parley/internal/control"
	"github.com/five82/parley/internal/state"
)

const (
	defaultRefresh  = 50 * time.Millisecond
	maxInputHistory = 200
	noticeLifetime  = 5 * time.Second
)

// Publisher accepts user intents for the dispatcher.
type Publisher interface {
	Publish(ev control.Event) error
}

// Options configures the UI.
type Options struct {
	Events          Publisher
	Theme           string
	TimestampFormat string
	RefreshEvery    time.Duration
	Bell            io.Writer // nil writes the bell to stderr
	Now             func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	events      Publisher
	feed        *feed
	keys        keyMap
	refresh     time.Duration
	stampFormat string
	now         func() time.Time

	// UI state
	theme         Theme
	width         int
	height        int
	ready         bool
	showHelp      bool
	showTransfers bool
	follow        bool

	// Data state
	snapshot state.Snapshot
	order    []state.BufferKey
	notice   string
	noticeAt time.Time

	// Components
	input  textinput.Model
	scroll viewport.Model
	bar    progress.Model

	// Input history
	history     []string
	historyPos  int // -1 when not browsing
	historyTemp string
}

// feed is the hand-off point between the dispatcher goroutine and the
// Bubble Tea event loop. Neither side ever blocks the other.
type feed struct {
	latest atomic.Pointer[state.Snapshot]
	notes  chan string
}

func newFeed() *feed {
	return &feed{notes: make(chan string, 16)}
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	return newModel(opts, newFeed())
}

func newModel(opts Options, f *feed) Model {
	refresh := opts.RefreshEvery
	if refresh <= 0 {
		refresh = defaultRefresh
	}
	stamp := opts.TimestampFormat
	if stamp == "" {
		stamp = "15:04"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Type a message or /help"
	input.CharLimit = 400
	input.Focus()

	return Model{
		events:        opts.Events,
		feed:          f,
		keys:          DefaultKeyMap(),
		refresh:       refresh,
		stampFormat:   stamp,
		now:           now,
		theme:         GetTheme(opts.Theme),
		showTransfers: true,
		follow:        true,
		input:         input,
		scroll:        viewport.New(80, 20),
		bar:           progress.New(progress.WithoutPercentage(), progress.WithWidth(20)),
		historyPos:    -1,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tickCmd(m.refresh))
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
		m.layout()
		return m, nil

	case tickMsg:
		m.handleTick(time.Time(msg))
		return m, tickCmd(m.refresh)

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input. Global bindings win over the input
// line; everything else is typed into it.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if err := m.publish(control.QuitRequested{At: m.now()}); err != nil {
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.ToggleTransfer):
		m.showTransfers = !m.showTransfers
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.renderScrollback()
		_ = m.publish(control.ThemeChanged{Theme: m.theme.Name, At: m.now()})
		return m, nil

	case key.Matches(msg, m.keys.NextBuffer):
		m.selectRelative(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevBuffer):
		m.selectRelative(-1)
		return m, nil

	case key.Matches(msg, m.keys.JumpBuffer):
		m.selectIndex(int(msg.String()[len(msg.String())-1] - '1'))
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.scroll.PageUp()
		m.follow = m.scroll.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.scroll.PageDown()
		m.follow = m.scroll.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.ScrollBottom):
		m.scroll.GotoBottom()
		m.follow = true
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.submit()
		return m, nil

	case key.Matches(msg, m.keys.HistoryPrev):
		m.historyBack()
		return m, nil

	case key.Matches(msg, m.keys.HistoryNext):
		m.historyForward()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) publish(ev control.Event) error {
	if m.events == nil {
		return nil
	}
	return m.events.Publish(ev)
}

// submit sends the input line to the dispatcher and records it in history.
func (m *Model) submit() {
	text := m.input.Value()
	if text == "" {
		return
	}
	if err := m.publish(control.InputLine{Text: text, At: m.now()}); err != nil {
		m.notice = "Input not sent: " + err.Error()
		m.noticeAt = m.now()
		return
	}
	m.history = append(m.history, text)
	if len(m.history) > maxInputHistory {
		m.history = m.history[len(m.history)-maxInputHistory:]
	}
	m.historyPos = -1
	m.historyTemp = ""
	m.input.Reset()
	m.follow = true
	m.scroll.GotoBottom()
}

func (m *Model) historyBack() {
	if len(m.history) == 0 {
		return
	}
	switch {
	case m.historyPos == -1:
		m.historyTemp = m.input.Value()
		m.historyPos = len(m.history) - 1
	case m.historyPos > 0:
		m.historyPos--
	}
	m.input.SetValue(m.history[m.historyPos])
	m.input.CursorEnd()
}

func (m *Model) historyForward() {
	if m.historyPos == -1 {
		return
	}
	if m.historyPos < len(m.history)-1 {
		m.historyPos++
		m.input.SetValue(m.history[m.historyPos])
	} else {
		m.historyPos = -1
		m.input.SetValue(m.historyTemp)
		m.historyTemp = ""
	}
	m.input.CursorEnd()
}

func (m *Model) selectRelative(delta int) {
	if len(m.order) == 0 {
		return
	}
	current := 0
	for i, k := range m.order {
		if k == m.snapshot.App.Active {
			current = i
			break
		}
	}
	next := (current + delta + len(m.order)) % len(m.order)
	m.selectIndex(next)
}

func (m *Model) selectIndex(i int) {
	if i < 0 || i >= len(m.order) {
		return
	}
	_ = m.publish(control.SelectBuffer{Key: m.order[i], At: m.now()})
}

// handleTick pulls the newest snapshot and pending notices from the feed.
func (m *Model) handleTick(at time.Time) {
	if m.feed != nil {
		if snap := m.feed.latest.Load(); snap != nil && snap.Version != m.snapshot.Version {
			m.applySnapshot(*snap)
		}
	drain:
		for {
			select {
			case note := <-m.feed.notes:
				m.notice = note
				m.noticeAt = at
			default:
				break drain
			}
		}
	}
	if m.notice != "" && at.Sub(m.noticeAt) > noticeLifetime {
		m.notice = ""
	}
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	activeChanged := snap.App.Active != m.snapshot.App.Active
	m.snapshot = snap
	m.order = snap.App.BufferKeys()
	if snap.App.Theme != "" && snap.App.Theme != m.theme.Name {
		m.theme = GetTheme(snap.App.Theme)
	}
	if activeChanged {
		m.follow = true
	}
	m.layout()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Program runs the UI and receives state from the dispatcher.
type Program struct {
	model Model
	feed  *feed
	bell  io.Writer
	opts  []tea.ProgramOption
}

// NewProgram prepares a full-screen program. Extra options are passed to
// Bubble Tea.
func NewProgram(opts Options, teaOpts ...tea.ProgramOption) *Program {
	f := newFeed()
	bell := opts.Bell
	if bell == nil {
		bell = os.Stderr
	}
	return &Program{
		model: newModel(opts, f),
		feed:  f,
		bell:  bell,
		opts:  append([]tea.ProgramOption{tea.WithAltScreen()}, teaOpts...),
	}
}

// Refresh hands a new snapshot to the UI. It never blocks.
func (p *Program) Refresh(snap state.Snapshot) {
	p.feed.latest.Store(&snap)
}

// Notify shows text in the status line and optionally rings the terminal
// bell. It never blocks; notices are dropped while the UI is behind.
func (p *Program) Notify(text string, bell bool) {
	if bell {
		_, _ = io.WriteString(p.bell, "\a")
	}
	select {
	case p.feed.notes <- text:
	default:
	}
}

// Run blocks until the user interface exits or ctx is cancelled.
func (p *Program) Run(ctx context.Context) error {
	prog := tea.NewProgram(p.model, p.opts...)
	stop := context.AfterFunc(ctx, prog.Quit)
	defer stop()

	_, err := prog.Run()
	return err
}
