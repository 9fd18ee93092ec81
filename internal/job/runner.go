// Package job runs external processes asynchronously and streams their
// output back to the UI loop. At most one job of each kind may run at a
// time; a second start for a busy kind is rejected, never queued.
//
// Every handle emits an ordered event stream: zero or more Line events in
// arrival order, then exactly one Done event, then the channel closes.
// All events for one job are produced by a single goroutine, so the UI
// can consume them one tea.Cmd at a time without reordering.
package job

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/prpkit/panel/internal/tty"
)

// Kind identifies a class of job. Exclusivity is per kind: a scan and a
// doctor run may overlap, two scans may not.
type Kind string

const (
	KindScan          Kind = "scan"
	KindDoctor        Kind = "doctor"
	KindInstall       Kind = "install"
	KindObservability Kind = "observability"
)

// State is the lifecycle state of a job.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

// String returns a display label for the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrBusy is returned by Start when a job of the same kind is running.
var ErrBusy = errors.New("a job of this kind is already running")

// Event is one element of a handle's ordered event stream.
type Event interface {
	isEvent()
}

// LineEvent carries one stripped line of combined stdout/stderr output.
type LineEvent struct {
	Text string
}

// DoneEvent is the single terminal event of a job.
type DoneEvent struct {
	Result Result
}

func (LineEvent) isEvent() {}
func (DoneEvent) isEvent() {}

// Result describes how a job ended.
type Result struct {
	State      State
	ExitCode   int
	Reason     string // human-readable failure reason, empty on success
	Transcript []string
	Duration   time.Duration
}

// Handle tracks a single job invocation.
type Handle struct {
	ID      int64
	Kind    Kind
	Command string

	events chan Event

	mu         sync.Mutex
	state      State
	transcript []string
}

// Events returns the handle's ordered event stream. The channel closes
// after the Done event has been delivered.
func (h *Handle) Events() <-chan Event { return h.events }

// State returns the job's current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Transcript returns a copy of the lines captured so far.
func (h *Handle) Transcript() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.transcript))
	copy(out, h.transcript)
	return out
}

func (h *Handle) appendLine(line string) {
	h.mu.Lock()
	h.transcript = append(h.transcript, line)
	h.mu.Unlock()
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Runner launches jobs and enforces per-kind exclusivity.
type Runner struct {
	mu      sync.Mutex
	running map[Kind]*Handle
	nextID  int64
}

// New creates a Runner.
func New() *Runner {
	return &Runner{running: make(map[Kind]*Handle)}
}

// Running reports whether a job of the given kind is currently running.
func (r *Runner) Running(kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[kind] != nil
}

// Start launches name with args in dir and returns a handle for the
// invocation. ErrBusy when a job of this kind is already running. A
// process that cannot be started still yields a handle whose stream
// terminates with a Failed result, so callers have one completion path.
func (r *Runner) Start(kind Kind, dir, name string, args ...string) (*Handle, error) {
	r.mu.Lock()
	if r.running[kind] != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", kind, ErrBusy)
	}
	r.nextID++
	h := &Handle{
		ID:      r.nextID,
		Kind:    kind,
		Command: strings.Join(append([]string{name}, args...), " "),
		events:  make(chan Event, 64),
		state:   StateRunning,
	}
	r.running[kind] = h
	r.mu.Unlock()

	go r.run(h, dir, name, args)
	return h, nil
}

func (r *Runner) run(h *Handle, dir, name string, args []string) {
	started := time.Now()

	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		r.finish(h, Result{
			State:    StateFailed,
			ExitCode: -1,
			Reason:   startFailureReason(name, err),
			Duration: time.Since(started),
		})
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		br := bufio.NewReaderSize(pr, 64*1024)
		for {
			line, err := readLine(br)
			if len(line) > 0 {
				text := tty.Strip(string(line))
				h.appendLine(text)
				h.events <- LineEvent{Text: text}
			}
			if err != nil {
				return
			}
		}
	}()

	err := cmd.Wait()
	pw.Close()
	<-done
	pr.Close()

	res := Result{
		State:    StateSucceeded,
		Duration: time.Since(started),
	}
	if err != nil {
		res.State = StateFailed
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			res.Reason = fmt.Sprintf("%s exited with code %d", name, res.ExitCode)
		} else {
			res.ExitCode = -1
			res.Reason = err.Error()
		}
	}
	r.finish(h, res)
}

// finish releases the kind slot and emits the terminal event exactly once.
func (r *Runner) finish(h *Handle, res Result) {
	res.Transcript = h.Transcript()
	h.setState(res.State)

	r.mu.Lock()
	if r.running[h.Kind] == h {
		delete(r.running, h.Kind)
	}
	r.mu.Unlock()

	h.events <- DoneEvent{Result: res}
	close(h.events)
}

// readLine reads one full line of any length. Scan reports (one giant
// JSON object on a single line) routinely exceed any fixed buffer, and
// a reader that stops mid-stream would leave the child blocked on a
// full pipe with the terminal event never delivered.
func readLine(br *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		buf = append(buf, chunk...)
		if err != nil {
			return buf, err
		}
		if !isPrefix {
			return buf, nil
		}
	}
}

func startFailureReason(name string, err error) string {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Sprintf("command not found: %s", name)
	case strings.Contains(err.Error(), "permission denied"):
		return fmt.Sprintf("not executable: %s", name)
	default:
		return fmt.Sprintf("failed to start %s: %v", name, err)
	}
}
