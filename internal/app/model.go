// Package app is the panel's shell: it owns the view registry, the
// cursor, the pane layout and the global key table. Views never render
// the frame and the shell never inspects view internals.
package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prpkit/panel/internal/view"
)

// Model is the root bubbletea model.
type Model struct {
	ctx   *view.Context
	views []view.View

	active int
	cursor int // index among Item entries of the active view
	scroll int // first visible display row

	width  int
	height int

	toast      string
	toastErr   bool
	toastGen   int
	showHelp   bool
	quitting   bool
	listWidth  int
	bodyHeight int
}

type toastExpiredMsg struct {
	gen int
}

// New wires the views to the shared context. The first view is the
// home view; esc falls back to it.
func New(ctx *view.Context, views []view.View) (*Model, error) {
	if len(views) == 0 {
		return nil, fmt.Errorf("no views registered")
	}
	for _, v := range views {
		if err := v.Init(ctx); err != nil {
			return nil, fmt.Errorf("init view %s: %w", v.ID(), err)
		}
	}
	return &Model{ctx: ctx, views: views}, nil
}

func (m *Model) activeView() view.View { return m.views[m.active] }

// Init starts the home view.
func (m *Model) Init() tea.Cmd {
	return m.activeView().Enter()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case view.ToastMsg:
		m.toast = msg.Message
		m.toastErr = msg.IsError
		m.toastGen++
		gen := m.toastGen
		d := msg.Duration
		if d <= 0 {
			d = 3 * time.Second
		}
		return m, tea.Tick(d, func(time.Time) tea.Msg {
			return toastExpiredMsg{gen: gen}
		})

	case toastExpiredMsg:
		if msg.gen == m.toastGen {
			m.toast = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Everything else (job events, view data) goes to all views so a
	// job started in one view resolves even while another is active.
	var cmds []tea.Cmd
	for i, v := range m.views {
		nv, cmd := v.Update(msg)
		m.views[i] = nv
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	active := m.activeView()
	if active.ConsumesTextInput() {
		return m.forwardKey(msg)
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "tab":
		return m, m.switchTo((m.active + 1) % len(m.views))
	case "shift+tab":
		return m, m.switchTo((m.active + len(m.views) - 1) % len(m.views))
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0]-'0') - 1
		if idx < len(m.views) {
			return m, m.switchTo(idx)
		}
		return m, nil
	case "esc":
		if active.Dismiss() {
			m.syncCursor()
			return m, nil
		}
		if m.active != 0 {
			return m, m.switchTo(0)
		}
		return m, nil
	case "j", "down":
		m.moveCursor(1)
		return m, nil
	case "k", "up":
		m.moveCursor(-1)
		return m, nil
	case "g":
		m.setCursor(0)
		return m, nil
	case "G":
		m.setCursor(m.itemCount() - 1)
		return m, nil
	case "ctrl+d", "pgdown":
		m.moveCursor(10)
		return m, nil
	case "ctrl+u", "pgup":
		m.moveCursor(-10)
		return m, nil
	}

	return m.forwardKey(msg)
}

func (m *Model) forwardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	nv, cmd := m.activeView().Update(msg)
	m.views[m.active] = nv
	m.syncCursor()
	return m, cmd
}

// switchTo activates a view: transient state of the one being left is
// reset, the cursor jumps to the first selectable row, and the entered
// view refreshes itself if it has no data yet. In-flight jobs are
// untouched; their events keep flowing regardless of the active view.
func (m *Model) switchTo(idx int) tea.Cmd {
	if idx == m.active {
		return nil
	}
	m.activeView().ResetTransient()
	m.active = idx
	m.cursor = 0
	m.scroll = 0
	m.activeView().Select(0)
	return m.activeView().Enter()
}

func (m *Model) itemCount() int {
	n := 0
	for _, e := range m.activeView().Entries(m.listContentWidth()) {
		if _, ok := e.(view.Item); ok {
			n++
		}
	}
	return n
}

func (m *Model) moveCursor(delta int) {
	m.setCursor(m.cursor + delta)
}

func (m *Model) setCursor(pos int) {
	count := m.itemCount()
	if count == 0 {
		m.cursor = 0
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= count {
		pos = count - 1
	}
	m.cursor = pos
	m.activeView().Select(pos)
}

// syncCursor clamps the cursor after a view mutated its own list.
func (m *Model) syncCursor() {
	m.setCursor(m.cursor)
}
