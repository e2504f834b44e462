package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/daedaleanai/pgantt/internal/cli/formatter"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/refresh"
	"github.com/daedaleanai/pgantt/internal/view"
)

// snapshotMsg carries a refresh.Update into the bubbletea event loop.
type snapshotMsg struct {
	update refresh.Update
}

// noticeMsg carries a refresh.Notification into the event loop.
type noticeMsg struct {
	note refresh.Notification
}

type refreshDoneMsg struct {
	err error
}

type settingsSavedMsg struct {
	err error
}

// ganttActions are the side effects the view triggers. Both run outside the
// event loop.
type ganttActions struct {
	Refresh      func(ctx context.Context) error
	SaveSettings func(ctx context.Context, s domain.Settings) error
	Now          func() time.Time
}

type ganttKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Refresh  key.Binding
	Zoom     key.Binding
	Closed   key.Binding
	Unsched  key.Binding
	Outside  key.Binding
	Help     key.Binding
	Quit     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func newGanttKeyMap() ganttKeyMap {
	return ganttKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Toggle:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "fold")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Zoom:     key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zoom")),
		Closed:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "closed")),
		Unsched:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unscheduled")),
		Outside:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "outside range")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k ganttKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Refresh, k.Zoom, k.Help, k.Quit}
}

func (k ganttKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Toggle},
		{k.Refresh, k.Zoom, k.Closed, k.Unsched, k.Outside},
		{k.Help, k.Quit},
	}
}

// ganttView is the live chart of "pgantt watch". It keeps fold state, the
// cursor task and the scroll offset across refreshes; an update only drops
// state belonging to removed tasks.
type ganttView struct {
	project  domain.Project
	settings domain.Settings
	actions  ganttActions

	snapshot  domain.Snapshot
	version   uint64
	received  bool
	cached    bool
	collapsed map[string]bool
	items     []formatter.TreeItem
	cursor    int
	cursorID  string

	status      string
	statusLevel refresh.Level
	refreshing  bool

	keys     ganttKeyMap
	help     help.Model
	viewport viewport.Model
	width    int
	height   int
}

func newGanttView(project domain.Project, settings domain.Settings, actions ganttActions) *ganttView {
	if actions.Now == nil {
		actions.Now = time.Now
	}
	return &ganttView{
		project:   project,
		settings:  settings,
		actions:   actions,
		collapsed: make(map[string]bool),
		keys:      newGanttKeyMap(),
		help:      help.New(),
		viewport:  viewport.New(80, 20),
		width:     80,
		height:    24,
	}
}

func (v *ganttView) Init() tea.Cmd {
	return nil
}

func (v *ganttView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		v.help.Width = msg.Width
		v.resize()
		v.rebuild()
		return v, nil

	case snapshotMsg:
		v.ingest(msg.update)
		return v, nil

	case noticeMsg:
		v.status = msg.note.Message
		if msg.note.Err != nil {
			v.status += ": " + msg.note.Err.Error()
		}
		v.statusLevel = msg.note.Level
		return v, nil

	case refreshDoneMsg:
		v.refreshing = false
		if msg.err != nil {
			v.status, v.statusLevel = msg.err.Error(), refresh.LevelError
		}
		return v, nil

	case settingsSavedMsg:
		if msg.err != nil {
			v.status, v.statusLevel = "Unable to save settings: "+msg.err.Error(), refresh.LevelWarning
		}
		return v, nil

	case tea.KeyMsg:
		return v.updateKeys(msg)
	}
	return v, nil
}

func (v *ganttView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Up):
		v.moveCursor(-1)
	case key.Matches(msg, v.keys.Down):
		v.moveCursor(1)
	case key.Matches(msg, v.keys.PageUp):
		v.moveCursor(-v.viewport.Height)
	case key.Matches(msg, v.keys.PageDown):
		v.moveCursor(v.viewport.Height)
	case key.Matches(msg, v.keys.Toggle):
		v.toggleFold()
	case key.Matches(msg, v.keys.Refresh):
		return v, v.refresh()
	case key.Matches(msg, v.keys.Zoom):
		v.settings.Zoom = nextZoom(v.settings.Zoom)
		return v, v.settingsChanged()
	case key.Matches(msg, v.keys.Closed):
		v.settings.ShowTasksClosed = !v.settings.ShowTasksClosed
		return v, v.settingsChanged()
	case key.Matches(msg, v.keys.Unsched):
		v.settings.ShowTasksUnscheduled = !v.settings.ShowTasksUnscheduled
		return v, v.settingsChanged()
	case key.Matches(msg, v.keys.Outside):
		v.settings.ShowTasksOutsideTimescale = !v.settings.ShowTasksOutsideTimescale
		return v, v.settingsChanged()
	case key.Matches(msg, v.keys.Help):
		v.help.ShowAll = !v.help.ShowAll
		v.resize()
		v.rebuild()
	}
	return v, nil
}

// ingest applies an update: state of removed tasks is dropped, everything
// else (folds, cursor task, scroll offset) carries over.
func (v *ganttView) ingest(u refresh.Update) {
	for _, id := range u.RemovedTaskIDs {
		delete(v.collapsed, id)
	}
	v.snapshot = u.Snapshot
	v.version = u.Version
	v.received = true
	v.cached = u.Cached

	switch {
	case u.Rollback:
		v.status, v.statusLevel = "Edit rejected, showing the last known plan", refresh.LevelWarning
	case u.Cached:
		v.status, v.statusLevel = "Showing cached plan, refreshing…", refresh.LevelInfo
	default:
		v.status = ""
	}
	v.rebuild()
}

func (v *ganttView) refresh() tea.Cmd {
	if v.actions.Refresh == nil || v.refreshing {
		return nil
	}
	v.refreshing = true
	fn := v.actions.Refresh
	return func() tea.Msg {
		return refreshDoneMsg{err: fn(context.Background())}
	}
}

func (v *ganttView) settingsChanged() tea.Cmd {
	v.rebuild()
	if v.actions.SaveSettings == nil {
		return nil
	}
	s, fn := v.settings, v.actions.SaveSettings
	return func() tea.Msg {
		return settingsSavedMsg{err: fn(context.Background(), s)}
	}
}

func (v *ganttView) moveCursor(delta int) {
	if len(v.items) == 0 {
		return
	}
	v.cursor = min(max(v.cursor+delta, 0), len(v.items)-1)
	v.cursorID = v.items[v.cursor].Task.ID
	v.render()
}

func (v *ganttView) toggleFold() {
	if v.cursor >= len(v.items) || !v.items[v.cursor].HasChildren {
		return
	}
	id := v.items[v.cursor].Task.ID
	if v.collapsed[id] {
		delete(v.collapsed, id)
	} else {
		v.collapsed[id] = true
	}
	v.rebuild()
}

// rebuild recomputes the visible rows and keeps the cursor on the same task
// when it is still shown.
func (v *ganttView) rebuild() {
	visible := view.Filter(v.snapshot, v.settings)
	v.items = formatter.BuildTree(visible, v.collapsed)

	found := false
	for i, it := range v.items {
		if it.Task.ID == v.cursorID {
			v.cursor, found = i, true
			break
		}
	}
	if !found {
		v.cursor = min(v.cursor, max(len(v.items)-1, 0))
		if len(v.items) > 0 {
			v.cursorID = v.items[v.cursor].Task.ID
		} else {
			v.cursorID = ""
		}
	}
	v.render()
}

func (v *ganttView) ganttOptions() formatter.GanttOptions {
	from, to := view.Window(view.Filter(v.snapshot, v.settings), v.settings, v.actions.Now())
	return formatter.GanttOptions{
		From:       from,
		To:         to,
		Zoom:       v.settings.Zoom,
		LabelWidth: min(formatter.DefaultLabelWidth, max(v.width/3, 12)),
		Width:      v.width,
		Cursor:     v.cursor,
	}
}

// render refreshes the viewport content. SetContent keeps the scroll offset
// unless the content got shorter than it.
func (v *ganttView) render() {
	opts := v.ganttOptions()
	rows := make([]string, len(v.items))
	for i, it := range v.items {
		rows[i] = formatter.GanttRow(it, opts, i == v.cursor)
	}
	v.viewport.SetContent(strings.Join(rows, "\n"))

	switch {
	case v.cursor < v.viewport.YOffset:
		v.viewport.SetYOffset(v.cursor)
	case v.cursor >= v.viewport.YOffset+v.viewport.Height:
		v.viewport.SetYOffset(v.cursor - v.viewport.Height + 1)
	}
}

// resize fits the viewport between the title, the date scale and the
// status and help lines.
func (v *ganttView) resize() {
	chrome := 4 + lineCount(v.help.View(v.keys))
	v.viewport.Width = v.width
	v.viewport.Height = max(v.height-chrome, 1)
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

func (v *ganttView) View() string {
	var b strings.Builder

	title := formatter.StyleHeader.Render(v.project.Name)
	meta := fmt.Sprintf("  %s · %s", v.settings.Zoom, stateLabel(v))
	b.WriteString(title + formatter.Dim(meta) + "\n")

	switch {
	case !v.received:
		b.WriteString("\n  " + formatter.Dim("Loading plan...") + "\n")
	case len(v.items) == 0:
		b.WriteString("\n  " + formatter.Dim("No tasks to show with the current settings.") + "\n")
	default:
		b.WriteString(formatter.GanttHeader(v.ganttOptions()) + "\n")
		b.WriteString(v.viewport.View() + "\n")
	}

	b.WriteString(v.statusLine() + "\n")
	b.WriteString(v.help.View(v.keys))
	return b.String()
}

func stateLabel(v *ganttView) string {
	switch {
	case v.refreshing:
		return "refreshing"
	case v.cached:
		return "cached"
	case v.received:
		return fmt.Sprintf("v%d", v.version)
	default:
		return "waiting"
	}
}

func (v *ganttView) statusLine() string {
	if v.status == "" {
		return formatter.Dim(fmt.Sprintf("%d of %d tasks", len(v.items), len(v.snapshot.Tasks)))
	}
	switch v.statusLevel {
	case refresh.LevelError:
		return formatter.StyleRed.Render(v.status)
	case refresh.LevelWarning:
		return formatter.StyleYellow.Render(v.status)
	default:
		return formatter.StyleBlue.Render(v.status)
	}
}

func nextZoom(z domain.Zoom) domain.Zoom {
	for i, known := range domain.Zooms {
		if known == z {
			return domain.Zooms[(i+1)%len(domain.Zooms)]
		}
	}
	return domain.ZoomDays
}

// programBridge forwards controller callbacks into a running tea.Program.
type programBridge struct {
	send func(tea.Msg)
}

func (b programBridge) Render(_ context.Context, u refresh.Update) {
	b.send(snapshotMsg{update: u})
}

func (b programBridge) Notify(_ context.Context, n refresh.Notification) {
	b.send(noticeMsg{note: n})
}
