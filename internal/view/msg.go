package view

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prpkit/panel/internal/job"
)

const toastDuration = 3 * time.Second

// ToastMsg shows a transient notification in the footer.
type ToastMsg struct {
	Message  string
	IsError  bool
	Duration time.Duration
}

// Toast returns a command that shows an informational toast.
func Toast(message string) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{Message: message, Duration: toastDuration}
	}
}

// ToastError returns a command that shows an error toast.
func ToastError(message string) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{Message: message, IsError: true, Duration: toastDuration}
	}
}

// JobEventMsg delivers one job event onto the UI loop.
type JobEventMsg struct {
	Handle *job.Handle
	Event  job.Event
}

// AwaitJob returns a command that blocks for the next event of a job.
// The owning view re-issues it after each line event; the stream ends
// with a Done event, after which the command yields nothing.
func AwaitJob(h *job.Handle) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-h.Events()
		if !ok {
			return nil
		}
		return JobEventMsg{Handle: h, Event: ev}
	}
}
