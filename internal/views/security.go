package views

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prpkit/panel/internal/job"
	"github.com/prpkit/panel/internal/secreport"
	"github.com/prpkit/panel/internal/styles"
	"github.com/prpkit/panel/internal/tty"
	"github.com/prpkit/panel/internal/view"
)

const defaultScannerCommand = "claude-secure"

// Security runs the external security scanner and browses its findings
// grouped by severity.
type Security struct {
	ctx *view.Context

	report   *secreport.Report
	filter   *secreport.Severity // nil shows all severities
	scanErr  string
	handle   *job.Handle
	progress *tty.Buffer

	rows []secreport.Finding
	sel  int
}

// NewSecurity creates the Security view.
func NewSecurity() *Security {
	return &Security{progress: tty.NewBuffer(200)}
}

func (s *Security) ID() string    { return "security" }
func (s *Security) Title() string { return "Security" }

func (s *Security) Init(ctx *view.Context) error {
	s.ctx = ctx
	s.report = nil
	s.filter = nil
	s.scanErr = ""
	s.handle = nil
	s.progress.Clear()
	s.sel = 0
	return nil
}

// Enter does not auto-scan: running an external scanner is an explicit
// action, never a side effect of switching views.
func (s *Security) Enter() tea.Cmd { return nil }

func (s *Security) ResetTransient() {
	s.filter = nil
}

func (s *Security) scannerCommand() string {
	if cmd := s.ctx.Settings.ClaudeSecurePath; cmd != "" {
		return cmd
	}
	return defaultScannerCommand
}

func (s *Security) startScan() tea.Cmd {
	target := filepath.Join(s.ctx.Root, ".claude")
	h, err := s.ctx.Runner.Start(job.KindScan, s.ctx.Root, s.scannerCommand(), "scan", "--json", target)
	if err != nil {
		return view.ToastError(err.Error())
	}
	s.handle = h
	s.scanErr = ""
	s.progress.Clear()
	s.ctx.Logger.Info("scan started", "command", h.Command)
	return view.AwaitJob(h)
}

func (s *Security) Update(msg tea.Msg) (view.View, tea.Cmd) {
	switch msg := msg.(type) {
	case view.JobEventMsg:
		if msg.Handle != s.handle {
			return s, nil
		}
		switch ev := msg.Event.(type) {
		case job.LineEvent:
			s.progress.Append(ev.Text)
			return s, view.AwaitJob(s.handle)
		case job.DoneEvent:
			return s, s.finishScan(ev.Result)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "s":
			if s.handle != nil && s.handle.State() == job.StateRunning {
				return s, view.Toast("scan already running")
			}
			return s, s.startScan()
		case "f":
			s.cycleFilter()
			s.sel = 0
			return s, nil
		}
	}
	return s, nil
}

// finishScan parses the transcript. Scanners conventionally exit
// nonzero when findings exist, so a parseable report wins over the
// exit code; only an unparseable transcript is a failure.
func (s *Security) finishScan(res job.Result) tea.Cmd {
	handle := s.handle
	s.handle = nil

	report, err := secreport.ParseTranscript(res.Transcript)
	if err == nil {
		s.report = report
		s.scanErr = ""
		s.sel = 0
		s.ctx.Logger.Info("scan finished",
			"risk", report.RiskLevel, "findings", len(report.Findings), "duration", res.Duration)
		return view.Toast(fmt.Sprintf("scan finished: %d findings", len(report.Findings)))
	}

	if res.State == job.StateFailed {
		s.scanErr = res.Reason
	} else {
		s.scanErr = err.Error()
	}
	s.ctx.Logger.Error("scan failed", "command", handle.Command, "reason", s.scanErr)
	return view.ToastError("scan failed: " + s.scanErr)
}

func (s *Security) Dismiss() bool {
	if s.filter == nil {
		return false
	}
	s.filter = nil
	return true
}

func (s *Security) cycleFilter() {
	if s.filter == nil {
		sev := secreport.Severities[0]
		s.filter = &sev
		return
	}
	for i, sev := range secreport.Severities {
		if sev != *s.filter {
			continue
		}
		if i == len(secreport.Severities)-1 {
			s.filter = nil
		} else {
			next := secreport.Severities[i+1]
			s.filter = &next
		}
		return
	}
}

func severityStyle(sev secreport.Severity) lipgloss.Style {
	switch sev {
	case secreport.SevCritical, secreport.SevHigh:
		return styles.StatusFail
	case secreport.SevMedium:
		return styles.StatusWarn
	default:
		return styles.StatusSkip
	}
}

func riskStyle(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case "CRITICAL", "HIGH":
		return styles.StatusFail
	case "MEDIUM":
		return styles.StatusWarn
	default:
		return styles.StatusPass
	}
}

func (s *Security) Entries(width int) []view.Entry {
	s.rows = s.rows[:0]

	if s.handle != nil {
		entries := []view.Entry{view.Header{Text: styles.Title.Render("Scanning…")}}
		for _, line := range s.progress.Tail(12) {
			entries = append(entries, view.Header{Text: styles.Muted.Render(styles.Truncate(line, width))})
		}
		return entries
	}
	if s.scanErr != "" {
		return []view.Entry{
			view.Header{Text: styles.StatusFail.Render("scan failed: " + styles.Truncate(s.scanErr, width-13))},
			view.Header{Text: styles.Muted.Render("press s to re-run")},
		}
	}
	if s.report == nil {
		return []view.Entry{view.Header{Text: styles.Muted.Render("press s to run a security scan")}}
	}

	counts := s.report.CountBySeverity()
	summary := fmt.Sprintf("risk %s  score %.1f  findings %d",
		riskStyle(s.report.RiskLevel).Render(s.report.RiskLevel),
		s.report.AggregateScore, len(s.report.Findings))
	entries := []view.Entry{view.Header{Text: summary}}
	if s.filter != nil {
		entries = append(entries, view.Header{Text: styles.Muted.Render("filter: "+s.filter.String())})
	}

	findings := secreport.FilterSeverity(s.report.Findings, s.filter)
	if len(findings) == 0 {
		entries = append(entries, view.Header{Text: styles.StatusPass.Render("no findings")})
		return entries
	}

	var current secreport.Severity = -1
	for _, f := range findings {
		if f.Severity != current {
			current = f.Severity
			label := fmt.Sprintf("%s (%d)", f.Severity, counts[f.Severity])
			entries = append(entries, view.Header{Text: severityStyle(f.Severity).Render(label)})
		}
		s.rows = append(s.rows, f)
		line := fmt.Sprintf("  %s:%d  %s", f.FilePath, f.LineNumber, f.Message)
		entries = append(entries, view.Item{Text: styles.Truncate(line, width)})
	}
	return entries
}

func (s *Security) Select(index int) { s.sel = index }

func (s *Security) Detail(width, height int) string {
	if s.sel < 0 || s.sel >= len(s.rows) {
		return styles.Muted.Render("select a finding")
	}
	f := s.rows[s.sel]

	var sb strings.Builder
	sb.WriteString(severityStyle(f.Severity).Render(f.Severity.String()))
	sb.WriteString("  " + styles.Title.Render(f.Category))
	sb.WriteString("\n\n")
	sb.WriteString(f.Message)
	sb.WriteString("\n\n")
	sb.WriteString(styles.Muted.Render(fmt.Sprintf("%s:%d", f.FilePath, f.LineNumber)))
	if f.InComment {
		sb.WriteString(styles.Subtle.Render("  (in a comment)"))
	}
	if f.Snippet != "" {
		sb.WriteString("\n\n")
		sb.WriteString(secreport.HighlightSnippet(f.Snippet, f.FilePath))
	}
	return sb.String()
}

func (s *Security) Bindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scan")),
		key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter severity")),
	}
}

func (s *Security) ConsumesTextInput() bool { return false }
