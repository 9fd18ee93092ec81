package views

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prpkit/panel/internal/install"
	"github.com/prpkit/panel/internal/job"
	"github.com/prpkit/panel/internal/styles"
	"github.com/prpkit/panel/internal/view"
)

// refresh the progress tail at most once per this many output lines
const installRefreshEvery = 5

// Install drives the installer script: pick components, pick a target,
// run, and watch progress.
type Install struct {
	ctx *view.Context

	editingTarget bool
	targetInput   textinput.Model

	handle    *job.Handle
	lineCount int
	tail      []string // throttled copy shown while running

	rows []installRow
	sel  int
}

type installRow struct {
	isTarget  bool
	component install.Component
}

// NewInstall creates the Install view.
func NewInstall() *Install {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "/path/to/project"
	ti.CharLimit = 256
	return &Install{targetInput: ti}
}

func (i *Install) ID() string    { return "install" }
func (i *Install) Title() string { return "Install" }

func (i *Install) Init(ctx *view.Context) error {
	i.ctx = ctx
	i.editingTarget = false
	i.handle = nil
	i.lineCount = 0
	i.tail = nil
	i.sel = 0
	if ctx.Installer.Target() == "" {
		ctx.Installer.SetTarget(ctx.Root)
	}
	return nil
}

func (i *Install) Enter() tea.Cmd { return nil }

func (i *Install) ResetTransient() {
	i.editingTarget = false
	i.targetInput.Blur()
}

func (i *Install) Update(msg tea.Msg) (view.View, tea.Cmd) {
	switch msg := msg.(type) {
	case view.JobEventMsg:
		if msg.Handle != i.handle {
			return i, nil
		}
		switch ev := msg.Event.(type) {
		case job.LineEvent:
			i.ctx.Installer.OnLine(ev.Text)
			i.lineCount++
			if i.lineCount%installRefreshEvery == 0 {
				i.tail = i.handle.Transcript()
			}
			return i, view.AwaitJob(i.handle)
		case job.DoneEvent:
			i.handle = nil
			i.tail = nil
			i.ctx.Installer.Complete(ev.Result)
			if ev.Result.State == job.StateSucceeded {
				return i, view.Toast("install finished")
			}
			return i, view.ToastError("install failed: " + ev.Result.Reason)
		}

	case tea.KeyMsg:
		if i.editingTarget {
			return i.updateTargetEdit(msg)
		}
		return i.handleKey(msg)
	}
	return i, nil
}

func (i *Install) updateTargetEdit(msg tea.KeyMsg) (view.View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		i.editingTarget = false
		i.targetInput.Blur()
		i.ctx.Installer.SetTarget(strings.TrimSpace(i.targetInput.Value()))
		return i, nil
	case "esc":
		i.editingTarget = false
		i.targetInput.Blur()
		return i, nil
	}
	var cmd tea.Cmd
	i.targetInput, cmd = i.targetInput.Update(msg)
	return i, cmd
}

func (i *Install) handleKey(msg tea.KeyMsg) (view.View, tea.Cmd) {
	switch msg.String() {
	case " ", "enter":
		row, ok := i.selectedRow()
		if !ok {
			return i, nil
		}
		if row.isTarget {
			return i.beginTargetEdit()
		}
		i.ctx.Installer.Toggle(row.component.ID)
		return i, nil
	case "t":
		return i.beginTargetEdit()
	case "i":
		return i, i.start()
	case "y":
		if err := clipboard.WriteAll(i.ctx.Installer.LogPath()); err != nil {
			return i, view.ToastError("clipboard unavailable: " + err.Error())
		}
		return i, view.Toast("copied log path")
	}
	return i, nil
}

func (i *Install) beginTargetEdit() (view.View, tea.Cmd) {
	i.editingTarget = true
	i.targetInput.SetValue(i.ctx.Installer.Target())
	i.targetInput.CursorEnd()
	return i, i.targetInput.Focus()
}

func (i *Install) start() tea.Cmd {
	if i.handle != nil {
		return view.Toast("install already running")
	}
	i.ctx.Installer.Reset()
	h, err := i.ctx.Installer.Start()
	if err != nil {
		return view.ToastError(err.Error())
	}
	i.handle = h
	i.lineCount = 0
	i.tail = nil
	return view.AwaitJob(h)
}

func (i *Install) Dismiss() bool {
	if i.ctx.Installer.Status() == install.StatusSucceeded || i.ctx.Installer.Status() == install.StatusFailed {
		i.ctx.Installer.Reset()
		return true
	}
	return false
}

func (i *Install) selectedRow() (installRow, bool) {
	if i.sel < 0 || i.sel >= len(i.rows) {
		return installRow{}, false
	}
	return i.rows[i.sel], true
}

func (i *Install) Entries(width int) []view.Entry {
	i.rows = i.rows[:0]
	inst := i.ctx.Installer

	status := inst.Status()
	entries := []view.Entry{view.Header{Text: i.statusLine(status, width)}}

	entries = append(entries, view.Header{Text: styles.Title.Render("Target")})
	i.rows = append(i.rows, installRow{isTarget: true})
	if i.editingTarget {
		entries = append(entries, view.Item{Text: "  " + i.targetInput.View()})
	} else {
		entries = append(entries, view.Item{Text: styles.Truncate("  "+inst.Target(), width)})
	}

	entries = append(entries, view.Header{Text: styles.Title.Render("Components")})
	for _, c := range install.Components() {
		i.rows = append(i.rows, installRow{component: c})
		mark := styles.Muted.Render("[ ]")
		if inst.Selected(c.ID) {
			mark = styles.StatusPass.Render("[x]")
		}
		entries = append(entries, view.Item{
			Text: styles.Truncate(fmt.Sprintf("  %s %d. %s", mark, c.ID, c.Name), width),
		})
	}

	if i.handle != nil {
		entries = append(entries, view.Header{Text: styles.Title.Render("Progress")})
		tail := i.tail
		if len(tail) > 8 {
			tail = tail[len(tail)-8:]
		}
		for _, line := range tail {
			entries = append(entries, view.Header{Text: styles.Muted.Render("  " + styles.Truncate(line, width-2))})
		}
	}
	return entries
}

func (i *Install) statusLine(status install.Status, width int) string {
	switch status {
	case install.StatusRunning, install.StatusBackingUp:
		return styles.StatusWarn.Render("● " + status.String())
	case install.StatusSucceeded:
		line := styles.StatusPass.Render("● succeeded")
		if bp := i.ctx.Installer.BackupPath(); bp != "" {
			line += styles.Muted.Render("  backup: " + bp)
		}
		return styles.Truncate(line, width)
	case install.StatusFailed:
		return styles.StatusFail.Render("● failed") +
			styles.Muted.Render("  full log: "+i.ctx.Installer.LogPath())
	default:
		return styles.Muted.Render("● idle")
	}
}

func (i *Install) Select(index int) { i.sel = index }

func (i *Install) Detail(width, height int) string {
	inst := i.ctx.Installer

	if inst.Status() == install.StatusFailed {
		var sb strings.Builder
		sb.WriteString(styles.StatusFail.Render("install failed"))
		sb.WriteString("\n\n")
		if r := inst.FailureReason(); r != "" {
			sb.WriteString(r + "\n\n")
		}
		for _, line := range inst.Tail() {
			sb.WriteString(styles.Muted.Render(styles.Truncate(line, width)) + "\n")
		}
		sb.WriteString("\n" + styles.KeyHint.Render("y: copy log path  i: retry"))
		return sb.String()
	}

	row, ok := i.selectedRow()
	if !ok {
		return styles.Muted.Render("select an entry")
	}
	if row.isTarget {
		return styles.Title.Render("Target directory") + "\n\n" +
			inst.Target() + "\n\n" +
			styles.Muted.Render("an existing .claude/ here is backed up before installing")
	}
	c := row.component
	return styles.Title.Render(fmt.Sprintf("%d. %s", c.ID, c.Name)) + "\n\n" +
		c.Description + "\n\n" +
		styles.KeyHint.Render("space: toggle  i: install selected")
}

func (i *Install) Bindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("space"), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "edit target")),
		key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "install")),
		key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yank log path")),
	}
}

func (i *Install) ConsumesTextInput() bool { return i.editingTarget }
