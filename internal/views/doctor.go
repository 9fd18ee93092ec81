package views

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prpkit/panel/internal/doctor"
	"github.com/prpkit/panel/internal/job"
	"github.com/prpkit/panel/internal/styles"
	"github.com/prpkit/panel/internal/tty"
	"github.com/prpkit/panel/internal/view"
)

// Doctor runs the project health-check script and browses its report.
type Doctor struct {
	ctx *view.Context

	report   *doctor.Report
	runErr   string
	handle   *job.Handle
	progress *tty.Buffer

	rows []doctor.Check
	sel  int
}

// NewDoctor creates the Doctor view.
func NewDoctor() *Doctor {
	return &Doctor{progress: tty.NewBuffer(200)}
}

func (d *Doctor) ID() string    { return "doctor" }
func (d *Doctor) Title() string { return "Doctor" }

func (d *Doctor) Init(ctx *view.Context) error {
	d.ctx = ctx
	d.report = nil
	d.runErr = ""
	d.handle = nil
	d.progress.Clear()
	d.sel = 0
	return nil
}

// Enter runs the checks on first entry; they are read-only and cheap.
func (d *Doctor) Enter() tea.Cmd {
	if d.report != nil || d.handle != nil {
		return nil
	}
	return d.run()
}

func (d *Doctor) ResetTransient() {}

func (d *Doctor) run() tea.Cmd {
	script := filepath.Join(d.ctx.Root, ".claude", "scripts", "doctor-report.py")
	h, err := d.ctx.Runner.Start(job.KindDoctor, d.ctx.Root, "python3", script, "--json")
	if err != nil {
		return view.ToastError(err.Error())
	}
	d.handle = h
	d.runErr = ""
	d.progress.Clear()
	return view.AwaitJob(h)
}

func (d *Doctor) Update(msg tea.Msg) (view.View, tea.Cmd) {
	switch msg := msg.(type) {
	case view.JobEventMsg:
		if msg.Handle != d.handle {
			return d, nil
		}
		switch ev := msg.Event.(type) {
		case job.LineEvent:
			d.progress.Append(ev.Text)
			return d, view.AwaitJob(d.handle)
		case job.DoneEvent:
			return d, d.finish(ev.Result)
		}

	case tea.KeyMsg:
		if msg.String() == "r" {
			if d.handle != nil && d.handle.State() == job.StateRunning {
				return d, view.Toast("health check already running")
			}
			return d, d.run()
		}
	}
	return d, nil
}

func (d *Doctor) finish(res job.Result) tea.Cmd {
	d.handle = nil

	report, err := doctor.ParseTranscript(res.Transcript)
	if err == nil {
		d.report = report
		d.runErr = ""
		d.sel = 0
		d.ctx.Logger.Info("doctor finished", "score", report.Score.Percentage, "duration", res.Duration)
		return nil
	}

	if res.State == job.StateFailed {
		d.runErr = res.Reason
	} else {
		d.runErr = err.Error()
	}
	d.ctx.Logger.Error("doctor failed", "reason", d.runErr)
	return view.ToastError("health check failed: " + d.runErr)
}

func (d *Doctor) Dismiss() bool { return false }

func statusStyle(s doctor.Status) lipgloss.Style {
	switch s {
	case doctor.StatusPass:
		return styles.StatusPass
	case doctor.StatusWarn:
		return styles.StatusWarn
	case doctor.StatusFail:
		return styles.StatusFail
	case doctor.StatusInfo:
		return styles.StatusInfo
	default:
		return styles.StatusSkip
	}
}

func scoreStyle(pct int) lipgloss.Style {
	switch {
	case pct >= 80:
		return styles.StatusPass
	case pct >= 50:
		return styles.StatusWarn
	default:
		return styles.StatusFail
	}
}

func (d *Doctor) Entries(width int) []view.Entry {
	d.rows = d.rows[:0]

	if d.handle != nil {
		entries := []view.Entry{view.Header{Text: styles.Title.Render("Running health checks…")}}
		for _, line := range d.progress.Tail(12) {
			entries = append(entries, view.Header{Text: styles.Muted.Render(styles.Truncate(line, width))})
		}
		return entries
	}
	if d.runErr != "" {
		return []view.Entry{
			view.Header{Text: styles.StatusFail.Render("health check failed: " + styles.Truncate(d.runErr, width-21))},
			view.Header{Text: styles.Muted.Render("press r to re-run")},
		}
	}
	if d.report == nil {
		return []view.Entry{view.Header{Text: styles.Muted.Render("press r to run health checks")}}
	}

	sc := d.report.Score
	header := fmt.Sprintf("%s  %d/%d passed, %d warnings, %d failures",
		scoreStyle(sc.Percentage).Render(fmt.Sprintf("%d%%", sc.Percentage)),
		sc.Passed, sc.Total, sc.Warns, sc.Fails)
	entries := []view.Entry{view.Header{Text: styles.Truncate(header, width)}}

	for _, g := range d.report.Groups {
		entries = append(entries, view.Entry(view.Header{Text: styles.Title.Render(g.Name)}))
		for _, c := range g.Checks {
			d.rows = append(d.rows, c)
			line := fmt.Sprintf("  %s %s", statusStyle(c.Status).Render(c.Status.Icon()), c.Name)
			entries = append(entries, view.Item{Text: styles.Truncate(line, width)})
		}
	}
	return entries
}

func (d *Doctor) Select(index int) { d.sel = index }

func (d *Doctor) Detail(width, height int) string {
	if d.sel < 0 || d.sel >= len(d.rows) {
		return styles.Muted.Render("select a check")
	}
	c := d.rows[d.sel]

	var sb strings.Builder
	sb.WriteString(statusStyle(c.Status).Render(string(c.Status)))
	sb.WriteString("  " + styles.Title.Render(c.Name))
	sb.WriteString("\n\n")
	if c.Detail != "" {
		sb.WriteString(c.Detail)
		sb.WriteString("\n")
	}
	if c.Fix != "" {
		sb.WriteString("\n" + styles.StatusWarn.Render("fix: ") + c.Fix + "\n")
	}
	return sb.String()
}

func (d *Doctor) Bindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "re-run checks")),
	}
}

func (d *Doctor) ConsumesTextInput() bool { return false }
