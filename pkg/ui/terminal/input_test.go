//go:build !windows

package terminal

import (
	"io"
	"os"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drainNegotiation consumes the protocol enable sequences Initialize writes
// to the output device so they don't interfere with later master reads.
func drainNegotiation(t *testing.T, master *os.File) {
	t.Helper()
	want := len(enableCsiU) + len(enableMouseTracking) + len(enableSgrMouse) + len(enableBracketedPaste)
	buf := make([]byte, want)
	n, err := io.ReadFull(master, buf)
	require.NoError(t, err)
	require.Equal(t, want, n)
}

func newTestInput(t *testing.T) (*Input, *os.File) {
	t.Helper()
	master, slave := openTestPty(t)

	in := NewInputFiles(slave, slave)
	require.NoError(t, in.Initialize())
	t.Cleanup(in.Shutdown)
	drainNegotiation(t, master)
	return in, master
}

func TestInputInitializeNegotiatesProtocols(t *testing.T) {
	master, slave := openTestPty(t)

	in := NewInputFiles(slave, slave)
	require.NoError(t, in.Initialize())
	defer in.Shutdown()

	want := enableCsiU + enableMouseTracking + enableSgrMouse + enableBracketedPaste
	buf := make([]byte, len(want))
	_, err := io.ReadFull(master, buf)
	require.NoError(t, err)
	assert.Equal(t, want, string(buf))
}

func TestInputRejectsNonTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	in := NewInputFiles(r, w)
	assert.Error(t, in.Initialize())
}

func TestInputPollReadsKeys(t *testing.T) {
	in, master := newTestInput(t)

	_, err := master.WriteString("a\x1b[A")
	require.NoError(t, err)

	events := collectEvents(t, in, 2)
	assert.Equal(t, []Event{
		runeEvent('a', ModNone),
		keyEvent(KeyUp, ModNone),
	}, events)
}

func TestInputPollTimeoutResolvesEscape(t *testing.T) {
	in, master := newTestInput(t)

	_, err := master.WriteString("\x1b")
	require.NoError(t, err)

	// The first poll consumes the byte and the parser holds it as
	// ambiguous; with nothing else arriving, a later timeout resolves it.
	events := collectEvents(t, in, 1)
	require.Len(t, events, 1)
	assert.Equal(t, keyEvent(KeyEscape, ModNone), events[0])
}

func TestInputNotifyResizeWakesPoll(t *testing.T) {
	in, master := newTestInput(t)
	require.NoError(t, pty.Setsize(master, &pty.Winsize{Cols: 80, Rows: 24}))

	in.NotifyResize()

	events, err := in.Poll(1000)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ResizeEvent{Columns: 80, Rows: 24}, events[0])
}

func TestInputResizePipeFdLifecycle(t *testing.T) {
	_, slave := openTestPty(t)

	in := NewInputFiles(slave, slave)
	assert.Equal(t, -1, in.ResizePipeReadFd())

	require.NoError(t, in.Initialize())
	assert.NotEqual(t, -1, in.ResizePipeReadFd())

	in.Shutdown()
	assert.Equal(t, -1, in.ResizePipeReadFd())
}

// collectEvents polls with short timeouts until n events have arrived or
// the retry limit runs out.
func collectEvents(t *testing.T, in *Input, n int) []Event {
	t.Helper()
	var events []Event
	for attempts := 0; attempts < 20; attempts++ {
		got, err := in.Poll(50)
		require.NoError(t, err)
		events = append(events, got...)
		if len(events) >= n {
			break
		}
	}
	return events
}
