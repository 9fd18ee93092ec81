package views

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prpkit/panel/internal/job"
	"github.com/prpkit/panel/internal/obsdb"
	"github.com/prpkit/panel/internal/styles"
	"github.com/prpkit/panel/internal/view"
)

const (
	obsHealthURL    = "http://localhost:4000/health"
	obsEventLimit   = 100
	obsProbeTimeout = 2 * time.Second
)

// Observability shows the hook event server's health and its recent
// event feed, read straight from the server's SQLite store.
type Observability struct {
	ctx *view.Context

	loaded  bool
	healthy bool
	events  []obsdb.Event
	loadErr string

	handle *job.Handle

	rows []obsdb.Event
	sel  int
}

type obsStatusMsg struct {
	healthy bool
	events  []obsdb.Event
	err     error
}

// NewObservability creates the Observability view.
func NewObservability() *Observability {
	return &Observability{}
}

func (o *Observability) ID() string    { return "observability" }
func (o *Observability) Title() string { return "Events" }

func (o *Observability) Init(ctx *view.Context) error {
	o.ctx = ctx
	o.loaded = false
	o.healthy = false
	o.events = nil
	o.loadErr = ""
	o.handle = nil
	o.sel = 0
	return nil
}

func (o *Observability) Enter() tea.Cmd {
	if o.loaded {
		return nil
	}
	return o.refresh()
}

func (o *Observability) ResetTransient() {}

func (o *Observability) refresh() tea.Cmd {
	dbPath := obsdb.DefaultPath(o.ctx.Root)
	return func() tea.Msg {
		msg := obsStatusMsg{healthy: probeHealth()}
		msg.events, msg.err = obsdb.RecentEvents(dbPath, obsEventLimit)
		return msg
	}
}

func probeHealth() bool {
	client := &http.Client{Timeout: obsProbeTimeout}
	resp, err := client.Get(obsHealthURL)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (o *Observability) Update(msg tea.Msg) (view.View, tea.Cmd) {
	switch msg := msg.(type) {
	case obsStatusMsg:
		o.loaded = true
		o.healthy = msg.healthy
		if msg.err != nil {
			o.loadErr = msg.err.Error()
			o.ctx.Logger.Error("event feed load failed", "error", msg.err)
		} else {
			o.loadErr = ""
			o.events = msg.events
		}
		return o, nil

	case view.JobEventMsg:
		if msg.Handle != o.handle {
			return o, nil
		}
		switch ev := msg.Event.(type) {
		case job.LineEvent:
			return o, view.AwaitJob(o.handle)
		case job.DoneEvent:
			o.handle = nil
			if ev.Result.State == job.StateFailed {
				return o, view.ToastError("server start failed: " + ev.Result.Reason)
			}
			return o, tea.Batch(view.Toast("event server started"), o.refresh())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return o, o.refresh()
		case "s":
			return o, o.startServer()
		}
	}
	return o, nil
}

func (o *Observability) Dismiss() bool { return false }

func (o *Observability) startServer() tea.Cmd {
	if o.healthy {
		return view.Toast("event server already running")
	}
	script := filepath.Join(o.ctx.Root, ".claude", "observability", "start.sh")
	h, err := o.ctx.Runner.Start(job.KindObservability, o.ctx.Root, "sh", script)
	if err != nil {
		return view.ToastError(err.Error())
	}
	o.handle = h
	return view.AwaitJob(h)
}

func (o *Observability) Entries(width int) []view.Entry {
	o.rows = o.rows[:0]

	status := styles.StatusFail.Render("● server down")
	if o.healthy {
		status = styles.StatusPass.Render("● server up")
	}
	entries := []view.Entry{view.Header{Text: status + styles.Muted.Render("  "+obsHealthURL)}}

	if !o.loaded {
		entries = append(entries, view.Header{Text: styles.Muted.Render("loading…")})
		return entries
	}
	if o.loadErr != "" {
		entries = append(entries, view.Header{Text: styles.StatusFail.Render(styles.Truncate(o.loadErr, width))})
		return entries
	}
	if len(o.events) == 0 {
		entries = append(entries, view.Header{Text: styles.Muted.Render("no events recorded")})
		if !o.healthy {
			entries = append(entries, view.Header{Text: styles.Muted.Render("press s to start the event server")})
		}
		return entries
	}

	entries = append(entries, view.Header{Text: styles.Title.Render(fmt.Sprintf("Recent events (%d)", len(o.events)))})
	for _, ev := range o.events {
		o.rows = append(o.rows, ev)
		line := fmt.Sprintf("  %s  %-14s %s",
			formatEventTime(ev.Timestamp), ev.EventType, ev.Summary)
		entries = append(entries, view.Item{Text: styles.Truncate(line, width)})
	}
	return entries
}

func formatEventTime(t time.Time) string {
	if t.IsZero() {
		return "--:--:--"
	}
	return t.Local().Format("15:04:05")
}

func (o *Observability) Select(index int) { o.sel = index }

func (o *Observability) Detail(width, height int) string {
	if o.sel < 0 || o.sel >= len(o.rows) {
		return styles.Muted.Render("select an event")
	}
	ev := o.rows[o.sel]

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(ev.EventType))
	sb.WriteString("\n\n")
	if ev.Summary != "" {
		sb.WriteString(ev.Summary)
		sb.WriteString("\n\n")
	}
	sb.WriteString(styles.Muted.Render("app:      ") + ev.SourceApp + "\n")
	sb.WriteString(styles.Muted.Render("session:  ") + ev.SessionID + "\n")
	if !ev.Timestamp.IsZero() {
		sb.WriteString(styles.Muted.Render("time:     ") + ev.Timestamp.Local().Format(time.RFC3339) + "\n")
	}
	sb.WriteString(styles.Muted.Render("event id: ") + fmt.Sprintf("%d", ev.ID))
	return sb.String()
}

func (o *Observability) Bindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start server")),
	}
}

func (o *Observability) ConsumesTextInput() bool { return false }
