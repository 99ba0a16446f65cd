//go:build !windows

package terminal

import (
	"os"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

func openTestPty(t *testing.T) (master, slave *os.File) {
	t.Helper()
	master, slave, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() {
		master.Close()
		slave.Close()
	})
	return master, slave
}

func TestTerminalShutdownIdempotent(t *testing.T) {
	_, slave := openTestPty(t)

	term := NewTerminalFiles(slave, slave)
	require.NoError(t, term.Initialize())

	term.Shutdown()
	term.Shutdown() // second call must be a no-op
}

func TestTerminalShutdownBeforeInitialize(t *testing.T) {
	_, slave := openTestPty(t)

	term := NewTerminalFiles(slave, slave)
	term.Shutdown() // never initialized, must not panic
}

func TestTerminalInitializeTwice(t *testing.T) {
	_, slave := openTestPty(t)

	term := NewTerminalFiles(slave, slave)
	require.NoError(t, term.Initialize())
	require.NoError(t, term.Initialize())
	term.Shutdown()
}

func TestTerminalSize(t *testing.T) {
	master, slave := openTestPty(t)
	require.NoError(t, pty.Setsize(master, &pty.Winsize{Cols: 100, Rows: 30}))

	term := NewTerminalFiles(slave, slave)
	cols, rows, err := term.Size()
	require.NoError(t, err)
	require.Equal(t, 100, cols)
	require.Equal(t, 30, rows)
}
