package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/five82/tally/internal/dispatch"
	"github.com/five82/tally/internal/logging"
	"github.com/five82/tally/internal/metrics"
	"github.com/five82/tally/internal/mirror"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/view"
	"github.com/five82/tally/internal/votenode"
)

// Actions routed through the poll list.
const (
	actionVote  view.Action = "vote"
	actionCount view.Action = "count"
)

// Dispatcher sends commands without waiting. *dispatch.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(cmd dispatch.Command) string
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Dispatcher Dispatcher
	Health     *state.Store
	Metrics    *metrics.Metrics
	Logger     *log.Logger
	APIBind    string
	ThemeName  string
	PrefsPath  string
	LastVoters []string
	HealthTick time.Duration
}

// PollsMsg delivers one snapshot of the polls collection.
type PollsMsg []votenode.Poll

// NodeMsg delivers the node identity.
type NodeMsg string

type tickMsg time.Time

// notice is the footer status line. It is shared by pointer so the list's
// action handler can report what it dispatched.
type notice struct {
	text  string
	isErr bool
}

func (n *notice) set(format string, args ...any) {
	n.text = fmt.Sprintf(format, args...)
	n.isErr = false
}

func (n *notice) fail(format string, args ...any) {
	n.text = fmt.Sprintf(format, args...)
	n.isErr = true
}

// Model is the root application state for Bubble Tea.
type Model struct {
	dispatcher Dispatcher
	health     *state.Store
	metrics    *metrics.Metrics
	logger     *log.Logger
	apiBind    string
	prefsPath  string
	healthTick time.Duration

	keys   keyMap
	help   help.Model
	theme  Theme
	width  int
	height int
	ready  bool

	polls   mirror.Mirror[votenode.Poll]
	list    *view.List[votenode.Poll]
	nodeID  string
	streams state.Snapshot
	notice  *notice

	showHelp   bool
	showForm   bool
	form       createForm
	lastVoters []string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	healthTick := opts.HealthTick
	if healthTick <= 0 {
		healthTick = 500 * time.Millisecond
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		dispatcher: opts.Dispatcher,
		health:     opts.Health,
		metrics:    opts.Metrics,
		logger:     logger,
		apiBind:    opts.APIBind,
		prefsPath:  prefsPath,
		healthTick: healthTick,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		theme:      GetTheme(themeName),
		polls:      mirror.New(votenode.PollSchema),
		notice:     &notice{},
		lastVoters: opts.LastVoters,
	}
	m.list = view.New(renderPoll, m.handleAction)
	return m
}

// handleAction is the list's single delegated handler. It is invoked with the
// record currently bound to key, never by position.
func (m Model) handleAction(pollID string, p votenode.Poll, action view.Action, input string) {
	if m.dispatcher == nil {
		m.notice.fail("not connected to a dispatcher")
		return
	}
	switch action {
	case actionVote:
		if input == "" {
			m.notice.fail("draft a vote with y or n first")
			return
		}
		if !p.CanVote {
			m.notice.fail("poll #%s is not open for your vote", pollID)
			return
		}
		id := m.dispatcher.Dispatch(dispatch.CastVote{ID: pollID, Value: input})
		m.notice.set("sent %s vote on #%s (request %s)", voteLabel(input), pollID, shortID(id))
	case actionCount:
		if !p.CanCount {
			m.notice.fail("poll #%s cannot be counted from this node", pollID)
			return
		}
		id := m.dispatcher.Dispatch(dispatch.RequestCount{ID: pollID})
		m.notice.set("asked node to count #%s (request %s)", pollID, shortID(id))
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(m.healthTick),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.showForm {
			m.form.setWidth(msg.Width)
		}
		m.ready = true
		return m, nil

	case tickMsg:
		if m.health != nil {
			m.streams = m.health.Snapshot()
		}
		return m, tickCmd(m.healthTick)

	case PollsMsg:
		m.applySnapshot([]votenode.Poll(msg))
		return m, nil

	case NodeMsg:
		m.nodeID = string(msg)
		return m, nil
	}

	return m, nil
}

// applySnapshot reconciles a fresh snapshot against the mirror and pushes
// the resulting diff into the list. A rejected snapshot leaves both as they
// were.
func (m *Model) applySnapshot(fresh []votenode.Poll) {
	next, diff, err := m.polls.Sync(fresh)
	if err != nil {
		m.logger.Error("snapshot rejected", "err", err)
		return
	}
	m.polls = next
	if diff.Empty() {
		return
	}
	stats := m.list.Apply(diff)
	m.metrics.ObserveDiff(stats.Removed, stats.Appended, stats.Replaced)
	m.metrics.SetMirrorSize(m.polls.Len())
	m.logger.Debug("view synchronized",
		"removed", stats.Removed,
		"appended", stats.Appended,
		"replaced", stats.Replaced,
	)
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

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.showForm {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
	case key.Matches(msg, m.keys.Up):
		m.list.MoveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.list.MoveCursor(1)
	case key.Matches(msg, m.keys.Top):
		if m.list.Len() > 0 {
			m.list.SetCursor(m.list.At(0).Key())
		}
	case key.Matches(msg, m.keys.Bottom):
		if n := m.list.Len(); n > 0 {
			m.list.SetCursor(m.list.At(n - 1).Key())
		}
	case key.Matches(msg, m.keys.DraftYes):
		m.list.SetInput(m.list.Cursor(), votenode.VoteYes)
	case key.Matches(msg, m.keys.DraftNo):
		m.list.SetInput(m.list.Cursor(), votenode.VoteNo)
	case key.Matches(msg, m.keys.Vote):
		if !m.list.Dispatch(m.list.Cursor(), actionVote) {
			m.notice.fail("no poll selected")
		}
	case key.Matches(msg, m.keys.Count):
		if !m.list.Dispatch(m.list.Cursor(), actionCount) {
			m.notice.fail("no poll selected")
		}
	case key.Matches(msg, m.keys.Create):
		m.form = newCreateForm(m.lastVoters)
		m.form.setWidth(m.width)
		m.showForm = true
		return m, m.form.question.Focus()
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.showForm = false
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		return m, m.form.toggleFocus()
	case key.Matches(msg, m.keys.Submit):
		if err := m.form.validate(); err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		question, voters := m.form.values()
		if m.dispatcher == nil {
			m.form.err = "not connected to a dispatcher"
			return m, nil
		}
		id := m.dispatcher.Dispatch(dispatch.CreatePoll{Question: question, Voters: voters})
		m.notice.set("requested new poll %q (request %s)", truncate(question, 40), shortID(id))
		m.lastVoters = voters
		m.savePrefs()
		m.showForm = false
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, LastVoters: m.lastVoters}); err != nil {
		m.logger.Warn("save prefs failed", "err", err)
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	styles := m.theme.Styles()
	var b strings.Builder

	if m.width > 0 && m.width < 60 {
		b.WriteString(styles.Logo.Render("tally") + " " + styles.MutedText.Render(streamsSummary(m.streams)))
	} else {
		b.WriteString(m.renderHeader())
	}
	b.WriteString("\n\n")

	if m.showForm {
		b.WriteString(m.form.view(styles))
		return b.String()
	}

	b.WriteString(m.renderList(styles))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(styles))
	return b.String()
}

func (m Model) renderList(styles Styles) string {
	total := m.list.Len()
	if total == 0 {
		return styles.MutedText.Render("  No polls yet. Press a to create one.")
	}

	rows := m.height - 6
	start, end := visibleRange(total, m.list.CursorIndex(), rows)
	cursor := m.list.Cursor()
	contentWidth := maxInt(m.width-20, 20)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		el := m.list.At(i)
		ps := stateOf(el.Record())
		badge := styles.Badge(ps).Render(fmt.Sprintf("%-10s", ps))
		content := truncate(el.Content(), contentWidth)
		marker := "  "
		if el.Key() == cursor {
			marker = styles.AccentText.Render("> ")
			content = styles.Selected.Render(content)
		} else {
			content = styles.Text.Render(content)
		}
		line := marker + badge + " " + content
		if draft := el.Input(); draft != "" {
			line += " " + styles.WarningText.Render("[draft: "+voteLabel(draft)+"]")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter(styles Styles) string {
	var b strings.Builder
	if m.notice.text != "" {
		if m.notice.isErr {
			b.WriteString(styles.DangerText.Render(m.notice.text))
		} else {
			b.WriteString(styles.InfoText.Render(m.notice.text))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return styles.Footer.Render(b.String())
}

// visibleRange returns the window [start, end) of rows that keeps the cursor
// on screen.
func visibleRange(total, cursor, rows int) (int, int) {
	if rows <= 0 || total <= rows {
		return 0, total
	}
	if cursor < 0 {
		cursor = 0
	}
	start := cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > total {
		start = total - rows
	}
	return start, start + rows
}

func voteLabel(value string) string {
	if value == votenode.VoteYes {
		return "yes"
	}
	return "no"
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// NewProgram builds the Bubble Tea program. Callers feed it PollsMsg and
// NodeMsg with Send and block on Run.
func NewProgram(opts Options) *tea.Program {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
}
