//go:build !windows

package terminal

import (
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// Terminal is the top-level coordinator for terminal input. It owns an
// Input, bridges SIGWINCH into resize notifications, and exposes the
// current terminal size. A host that renders output can layer its own
// writer on top; Terminal itself only negotiates input state.
type Terminal struct {
	input *Input
	out   *os.File

	sigCh       chan os.Signal
	stopResize  chan struct{}
	initialized bool
}

// NewTerminal returns a Terminal bound to stdin/stdout.
func NewTerminal() *Terminal {
	return NewTerminalFiles(os.Stdin, os.Stdout)
}

// NewTerminalFiles returns a Terminal bound to the given devices.
func NewTerminalFiles(in, out *os.File) *Terminal {
	return &Terminal{
		input: NewInputFiles(in, out),
		out:   out,
	}
}

// Initialize prepares the input side and installs the resize bridge: a
// goroutine forwards SIGWINCH to the Input's self-pipe so a blocked Poll
// wakes up and reports the new size.
func (t *Terminal) Initialize() error {
	if t.initialized {
		return nil
	}
	if err := t.input.Initialize(); err != nil {
		return fmt.Errorf("initialize terminal input: %w", err)
	}

	t.sigCh = make(chan os.Signal, 1)
	t.stopResize = make(chan struct{})
	signal.Notify(t.sigCh, unix.SIGWINCH)
	go func(sigCh chan os.Signal, stop chan struct{}) {
		for {
			select {
			case <-stop:
				return
			case <-sigCh:
				t.input.NotifyResize()
			}
		}
	}(t.sigCh, t.stopResize)

	t.initialized = true
	return nil
}

// Shutdown removes the resize bridge and restores the terminal. It is
// idempotent.
func (t *Terminal) Shutdown() {
	if !t.initialized {
		return
	}
	signal.Stop(t.sigCh)
	close(t.stopResize)
	t.input.Shutdown()
	t.initialized = false
}

// Poll forwards to the Input. See Input.Poll for timeout semantics.
func (t *Terminal) Poll(timeoutMs int) ([]Event, error) {
	return t.input.Poll(timeoutMs)
}

// Input returns the underlying Input for hosts that need direct access,
// such as integrating the resize pipe into their own event loop.
func (t *Terminal) Input() *Input {
	return t.input
}

// Size reports the current terminal dimensions in character cells.
func (t *Terminal) Size() (columns, rows int, err error) {
	ws, err := unix.IoctlGetWinsize(int(t.out.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, fmt.Errorf("query terminal size: %w", err)
	}
	return int(ws.Col), int(ws.Row), nil
}
