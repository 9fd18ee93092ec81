// Package install drives the external installer script: component
// selection, pre-install backup, invocation, and the rolling log.
package install

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prpkit/panel/internal/job"
)

// Status is the orchestrator's lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusBackingUp
	StatusRunning
	StatusSucceeded
	StatusFailed
)

// String returns a display label for the status.
func (s Status) String() string {
	switch s {
	case StatusBackingUp:
		return "backing up"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Input validation errors, reported inline by the Install view.
var (
	ErrNoTarget     = errors.New("no target directory selected")
	ErrNoComponents = errors.New("no components selected")
)

// Component is one installable unit offered by the installer script.
type Component struct {
	ID          int
	Name        string
	Description string
}

// Components returns the installer's component catalog, in menu order.
func Components() []Component {
	return []Component{
		{ID: 1, Name: "Commands", Description: "slash command definitions"},
		{ID: 2, Name: "Agents", Description: "subagent definitions"},
		{ID: 3, Name: "Skills", Description: "skill packs"},
		{ID: 4, Name: "Hooks", Description: "lifecycle hook scripts and settings"},
		{ID: 5, Name: "Scripts", Description: "doctor, coverage and CI helpers"},
		{ID: 6, Name: "Templates", Description: "PRP and planning templates"},
		{ID: 7, Name: "Observability", Description: "event server and dashboard"},
	}
}

const diagnosticTail = 8

// Orchestrator owns the install state machine and the append-only log.
// It is mutated only from the UI loop; the mutex guards the log writer,
// which the job goroutine touches through OnLine.
type Orchestrator struct {
	runner *job.Runner
	script string
	logger *slog.Logger

	mu         sync.Mutex
	status     Status
	targetDir  string
	selected   map[int]bool
	backupPath string
	lastCmd    string
	tail       []string
	reason     string
	logPath    string
	logFile    io.WriteCloser
}

// New creates an Orchestrator around the given installer script path.
func New(runner *job.Runner, script, logPath string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runner:   runner,
		script:   script,
		logPath:  logPath,
		logger:   logger,
		selected: make(map[int]bool),
	}
}

// Status returns the current lifecycle state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Target returns the selected target directory.
func (o *Orchestrator) Target() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.targetDir
}

// SetTarget records the target directory for the next install.
func (o *Orchestrator) SetTarget(dir string) {
	o.mu.Lock()
	o.targetDir = dir
	o.mu.Unlock()
}

// Toggle flips a component's selection.
func (o *Orchestrator) Toggle(id int) {
	o.mu.Lock()
	o.selected[id] = !o.selected[id]
	o.mu.Unlock()
}

// Selected reports whether a component is selected.
func (o *Orchestrator) Selected(id int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selected[id]
}

// BackupPath returns the backup directory created by the last install,
// empty when nothing existed to back up.
func (o *Orchestrator) BackupPath() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.backupPath
}

// LastCommand returns the last installer invocation, for display.
func (o *Orchestrator) LastCommand() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastCmd
}

// FailureReason returns the last failure reason, empty otherwise.
func (o *Orchestrator) FailureReason() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reason
}

// LogPath returns the rolling install log path.
func (o *Orchestrator) LogPath() string { return o.logPath }

// Tail returns the last non-empty output lines of the most recent run.
func (o *Orchestrator) Tail() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.tail))
	copy(out, o.tail)
	return out
}

func (o *Orchestrator) componentArg() string {
	ids := make([]int, 0, len(o.selected))
	for id, on := range o.selected {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// Start validates the selection, backs up any existing configuration at
// the target, and launches the installer. A previous terminal state is
// cleared; selection and target are preserved across runs.
func (o *Orchestrator) Start() (*job.Handle, error) {
	o.mu.Lock()
	if o.targetDir == "" {
		o.mu.Unlock()
		return nil, ErrNoTarget
	}
	components := o.componentArg()
	if components == "" {
		o.mu.Unlock()
		return nil, ErrNoComponents
	}
	target := o.targetDir
	o.status = StatusBackingUp
	o.backupPath = ""
	o.tail = nil
	o.reason = ""
	o.mu.Unlock()

	backup, err := backupExisting(target)
	if err != nil {
		// Backup failure is a warning, never a blocker.
		o.logger.Warn("install backup failed", "target", target, "error", err)
	}

	args := []string{"--components", components, target}
	h, err := o.runner.Start(job.KindInstall, target, o.script, args...)
	if err != nil {
		o.mu.Lock()
		o.status = StatusIdle
		o.mu.Unlock()
		return nil, err
	}

	o.mu.Lock()
	o.status = StatusRunning
	o.backupPath = backup
	o.lastCmd = h.Command
	o.logFile = openLog(o.logPath)
	if o.logFile != nil {
		fmt.Fprintf(o.logFile, "=== %s %s\n", time.Now().Format(time.RFC3339), h.Command)
	}
	o.mu.Unlock()

	o.logger.Info("install started", "command", h.Command, "backup", backup)
	return h, nil
}

// OnLine forwards one output line to the rolling log.
func (o *Orchestrator) OnLine(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.logFile != nil {
		fmt.Fprintln(o.logFile, line)
	}
}

// Complete classifies the finished job and closes the log.
func (o *Orchestrator) Complete(res job.Result) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.logFile != nil {
		fmt.Fprintf(o.logFile, "=== done: %s\n", res.State)
		o.logFile.Close()
		o.logFile = nil
	}

	if res.State == job.StateSucceeded {
		o.status = StatusSucceeded
		return
	}
	o.status = StatusFailed
	o.reason = res.Reason
	o.tail = lastNonEmpty(res.Transcript, diagnosticTail)
}

// Reset returns a terminal state to idle display, keeping the selection
// and target for the next run.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	if o.status == StatusSucceeded || o.status == StatusFailed {
		o.status = StatusIdle
	}
	o.mu.Unlock()
}

func openLog(path string) io.WriteCloser {
	if path == "" {
		return nil
	}
	os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil
	}
	return f
}

func lastNonEmpty(lines []string, n int) []string {
	var out []string
	for i := len(lines) - 1; i >= 0 && len(out) < n; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			out = append(out, lines[i])
		}
	}
	// Collected in reverse.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// backupExisting copies an existing .claude directory at target to a
// timestamped sibling. Returns "" with nil error when there is nothing
// to back up.
func backupExisting(target string) (string, error) {
	src := filepath.Join(target, ".claude")
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", nil
	}
	dst := filepath.Join(target, ".claude.backup-"+time.Now().Format("20060102-150405"))
	if err := copyDir(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return os.WriteFile(out, data, info.Mode().Perm())
	})
}
