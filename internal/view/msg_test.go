package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prpkit/panel/internal/job"
)

func TestAwaitJobDeliversOrderedEvents(t *testing.T) {
	runner := job.New()
	h, err := runner.Start(job.KindScan, t.TempDir(), "sh", "-c", "echo one; echo two")
	require.NoError(t, err)

	var lines []string
	for {
		msg := AwaitJob(h)()
		if msg == nil {
			break
		}
		ev := msg.(JobEventMsg)
		assert.Same(t, h, ev.Handle)
		switch e := ev.Event.(type) {
		case job.LineEvent:
			lines = append(lines, e.Text)
		case job.DoneEvent:
			assert.Equal(t, job.StateSucceeded, e.Result.State)
		}
	}
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestToastCommands(t *testing.T) {
	msg := Toast("hello")().(ToastMsg)
	assert.Equal(t, "hello", msg.Message)
	assert.False(t, msg.IsError)
	assert.Positive(t, msg.Duration)

	errMsg := ToastError("boom")().(ToastMsg)
	assert.True(t, errMsg.IsError)
}
