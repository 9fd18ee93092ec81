package views

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prpkit/panel/internal/styles"
	"github.com/prpkit/panel/internal/view"
)

const automationLogTail = 20

// Automation shows the state of the ralph autonomous fix loop: its plan
// checklist under ralph/fix_plan.md and the tail of its newest log.
type Automation struct {
	ctx *view.Context

	loaded   bool
	present  bool
	tasks    []loopTask
	logName  string
	logLines []string
	lastRun  time.Time

	rows []loopTask
	sel  int
}

type loopTask struct {
	Text string
	Done bool
}

type automationStatusMsg struct {
	present  bool
	tasks    []loopTask
	logName  string
	logLines []string
	lastRun  time.Time
}

// NewAutomation creates the Automation view.
func NewAutomation() *Automation {
	return &Automation{}
}

func (a *Automation) ID() string    { return "automation" }
func (a *Automation) Title() string { return "Loop" }

func (a *Automation) Init(ctx *view.Context) error {
	a.ctx = ctx
	a.loaded = false
	a.present = false
	a.tasks = nil
	a.logLines = nil
	a.sel = 0
	return nil
}

func (a *Automation) Enter() tea.Cmd {
	if a.loaded {
		return nil
	}
	return a.refresh()
}

func (a *Automation) ResetTransient() {}

func (a *Automation) refresh() tea.Cmd {
	dir := filepath.Join(a.ctx.Root, "ralph")
	return func() tea.Msg {
		return readLoopStatus(dir)
	}
}

func readLoopStatus(dir string) automationStatusMsg {
	if _, err := os.Stat(dir); err != nil {
		return automationStatusMsg{}
	}
	msg := automationStatusMsg{present: true}
	msg.tasks = readPlan(filepath.Join(dir, "fix_plan.md"))
	msg.logName, msg.logLines, msg.lastRun = readNewestLog(filepath.Join(dir, "logs"))
	return msg
}

// readPlan extracts the markdown checkboxes from the loop's plan file.
func readPlan(path string) []loopTask {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var tasks []loopTask
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "- [x]"), strings.HasPrefix(trimmed, "- [X]"):
			tasks = append(tasks, loopTask{Text: strings.TrimSpace(trimmed[5:]), Done: true})
		case strings.HasPrefix(trimmed, "- [ ]"):
			tasks = append(tasks, loopTask{Text: strings.TrimSpace(trimmed[5:])})
		}
	}
	return tasks
}

func readNewestLog(dir string) (string, []string, time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, time.Time{}
	}
	type logFile struct {
		name string
		mod  time.Time
	}
	var logs []logFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		logs = append(logs, logFile{name: e.Name(), mod: info.ModTime()})
	}
	if len(logs) == 0 {
		return "", nil, time.Time{}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].mod.After(logs[j].mod) })

	newest := logs[0]
	data, err := os.ReadFile(filepath.Join(dir, newest.name))
	if err != nil {
		return newest.name, nil, newest.mod
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > automationLogTail {
		lines = lines[len(lines)-automationLogTail:]
	}
	return newest.name, lines, newest.mod
}

func (a *Automation) Update(msg tea.Msg) (view.View, tea.Cmd) {
	switch msg := msg.(type) {
	case automationStatusMsg:
		a.loaded = true
		a.present = msg.present
		a.tasks = msg.tasks
		a.logName = msg.logName
		a.logLines = msg.logLines
		a.lastRun = msg.lastRun
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "r" {
			return a, a.refresh()
		}
	}
	return a, nil
}

func (a *Automation) Dismiss() bool { return false }

func (a *Automation) Entries(width int) []view.Entry {
	a.rows = a.rows[:0]

	if !a.loaded {
		return []view.Entry{view.Header{Text: styles.Muted.Render("loading…")}}
	}
	if !a.present {
		return []view.Entry{
			view.Header{Text: styles.Muted.Render("no ralph/ directory in this project")},
			view.Header{Text: styles.Muted.Render("the automation loop has not been set up")},
		}
	}

	done := 0
	for _, t := range a.tasks {
		if t.Done {
			done++
		}
	}
	summary := fmt.Sprintf("plan: %d/%d tasks done", done, len(a.tasks))
	if !a.lastRun.IsZero() {
		summary += styles.Muted.Render("  last log activity " + formatAge(a.lastRun))
	}
	entries := []view.Entry{view.Header{Text: styles.Truncate(summary, width)}}

	if len(a.tasks) > 0 {
		entries = append(entries, view.Header{Text: styles.Title.Render("Plan")})
		for _, t := range a.tasks {
			a.rows = append(a.rows, t)
			mark := styles.Muted.Render("[ ]")
			if t.Done {
				mark = styles.StatusPass.Render("[x]")
			}
			entries = append(entries, view.Item{Text: styles.Truncate("  "+mark+" "+t.Text, width)})
		}
	}

	if len(a.logLines) > 0 {
		entries = append(entries, view.Header{Text: styles.Title.Render("Log " + styles.Muted.Render(a.logName))})
		for _, line := range a.logLines {
			entries = append(entries, view.Header{Text: styles.Muted.Render("  " + styles.Truncate(line, width-2))})
		}
	}
	return entries
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func (a *Automation) Select(index int) { a.sel = index }

func (a *Automation) Detail(width, height int) string {
	if a.sel < 0 || a.sel >= len(a.rows) {
		return styles.Muted.Render("select a task")
	}
	t := a.rows[a.sel]

	status := styles.StatusWarn.Render("open")
	if t.Done {
		status = styles.StatusPass.Render("done")
	}
	return styles.Title.Render("Plan task") + "\n\n" + t.Text + "\n\n" + status
}

func (a *Automation) Bindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (a *Automation) ConsumesTextInput() bool { return false }
