package job

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain collects all events from a handle until the stream closes.
func drain(t *testing.T, h *Handle) ([]string, Result) {
	t.Helper()
	var lines []string
	var res Result
	gotDone := false
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-h.Events():
			if !ok {
				require.True(t, gotDone, "stream closed without a Done event")
				return lines, res
			}
			switch e := ev.(type) {
			case LineEvent:
				require.False(t, gotDone, "line delivered after Done")
				lines = append(lines, e.Text)
			case DoneEvent:
				require.False(t, gotDone, "Done delivered twice")
				gotDone = true
				res = e.Result
			}
		case <-timeout:
			t.Fatal("timed out waiting for job events")
		}
	}
}

func TestStart_LinesInOrderThenSingleCompletion(t *testing.T) {
	r := New()
	h, err := r.Start(KindScan, t.TempDir(), "sh", "-c", "for i in $(seq 1 12); do echo line-$i; done")
	require.NoError(t, err)

	lines, res := drain(t, h)

	require.Len(t, lines, 12)
	for i, l := range lines {
		assert.Equal(t, fmt.Sprintf("line-%d", i+1), l)
	}
	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, lines, res.Transcript)
	assert.Equal(t, StateSucceeded, h.State())
}

func TestStart_BusyKindRejected(t *testing.T) {
	r := New()
	h, err := r.Start(KindScan, t.TempDir(), "sh", "-c", "sleep 2")
	require.NoError(t, err)

	_, err = r.Start(KindScan, t.TempDir(), "sh", "-c", "echo second")
	assert.ErrorIs(t, err, ErrBusy)

	// A different kind is not blocked.
	other, err := r.Start(KindDoctor, t.TempDir(), "sh", "-c", "echo ok")
	require.NoError(t, err)
	drain(t, other)

	// Let the first finish so the test does not leak a process.
	drain(t, h)
}

func TestStart_AllowedAgainAfterCompletion(t *testing.T) {
	r := New()
	h, err := r.Start(KindScan, t.TempDir(), "sh", "-c", "echo one")
	require.NoError(t, err)
	drain(t, h)

	h2, err := r.Start(KindScan, t.TempDir(), "sh", "-c", "echo two")
	require.NoError(t, err)
	lines, res := drain(t, h2)
	assert.Equal(t, []string{"two"}, lines)
	assert.Equal(t, StateSucceeded, res.State)
}

func TestStart_NonZeroExitIsFailed(t *testing.T) {
	r := New()
	h, err := r.Start(KindDoctor, t.TempDir(), "sh", "-c", "echo boom; exit 3")
	require.NoError(t, err)

	lines, res := drain(t, h)
	assert.Equal(t, []string{"boom"}, lines)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Reason, "exited with code 3")
	assert.False(t, r.Running(KindDoctor))
}

func TestStart_MissingExecutableIsFailed(t *testing.T) {
	r := New()
	h, err := r.Start(KindInstall, t.TempDir(), "definitely-not-a-real-binary-xyz")
	require.NoError(t, err, "start failure must resolve through the event stream")

	lines, res := drain(t, h)
	assert.Empty(t, lines)
	assert.Equal(t, StateFailed, res.State)
	assert.Contains(t, res.Reason, "command not found")
	assert.False(t, r.Running(KindInstall))
}

func TestStart_OversizedLineStillCompletes(t *testing.T) {
	r := New()
	// A 2MB single-line report, the shape a JSON scan report arrives in.
	h, err := r.Start(KindScan, t.TempDir(), "sh", "-c",
		"head -c 2097152 /dev/zero | tr '\\0' 'a'; echo; echo tail-line")
	require.NoError(t, err)

	lines, res := drain(t, h)

	require.Len(t, lines, 2)
	assert.Len(t, lines[0], 2097152, "the long line must arrive whole, not truncated or split")
	assert.Equal(t, "tail-line", lines[1])
	assert.Equal(t, StateSucceeded, res.State)
	assert.False(t, r.Running(KindScan))

	// The kind must be reusable afterwards.
	h2, err := r.Start(KindScan, t.TempDir(), "sh", "-c", "echo again")
	require.NoError(t, err)
	lines, _ = drain(t, h2)
	assert.Equal(t, []string{"again"}, lines)
}

func TestStart_StripsColorCodes(t *testing.T) {
	r := New()
	h, err := r.Start(KindScan, t.TempDir(), "sh", "-c", `printf '\033[31mred\033[0m\n'`)
	require.NoError(t, err)

	lines, _ := drain(t, h)
	require.Len(t, lines, 1)
	assert.Equal(t, "red", lines[0])
}

func TestRunning(t *testing.T) {
	r := New()
	assert.False(t, r.Running(KindScan))

	h, err := r.Start(KindScan, t.TempDir(), "sh", "-c", "sleep 1")
	require.NoError(t, err)
	assert.True(t, r.Running(KindScan))

	drain(t, h)
	assert.False(t, r.Running(KindScan))
}
