//go:build !windows

package terminal

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal protocol escape sequences.
//
// Kitty keyboard protocol flags (CSI > flags u):
//
//	1 = disambiguate escape codes
//	8 = report all keys as escape codes
//
// Flags 1|8=9 so modifiers are reported for every key including Enter;
// some terminals only report Shift+Enter under flag 8.
const (
	enableCsiU            = "\x1b[>9u"
	disableCsiU           = "\x1b[<u"
	enableMouseTracking   = "\x1b[?1000h"
	disableMouseTracking  = "\x1b[?1000l"
	enableSgrMouse        = "\x1b[?1006h"
	disableSgrMouse       = "\x1b[?1006l"
	enableBracketedPaste  = "\x1b[?2004h"
	disableBracketedPaste = "\x1b[?2004l"
)

// readChunkSize bounds a single read from the input device per poll.
const readChunkSize = 512

// Input owns the terminal input side: it switches the input device to raw
// mode, negotiates the input protocols the parser understands, and
// multiplexes the device with a self-pipe used for resize notification.
//
// The self-pipe exists so a signal handler can wake a blocked Poll without
// doing anything unsafe in signal context: NotifyResize writes one byte,
// Poll sees the pipe readable, drains it, and queries the real size.
type Input struct {
	in  *os.File
	out *os.File

	parser      *Parser
	origTermios unix.Termios
	rawMode     bool
	resizePipe  [2]int
}

// NewInput returns an Input bound to stdin/stdout. Nothing touches the
// terminal until Initialize.
func NewInput() *Input {
	return NewInputFiles(os.Stdin, os.Stdout)
}

// NewInputFiles returns an Input bound to the given input and output
// devices. The output side is used only for protocol negotiation writes
// and size queries.
func NewInputFiles(in, out *os.File) *Input {
	return &Input{
		in:         in,
		out:        out,
		parser:     NewParser(),
		resizePipe: [2]int{-1, -1},
	}
}

// Initialize switches the input device to raw mode, enables the Kitty
// keyboard protocol, SGR mouse reporting, and bracketed paste, and creates
// the resize self-pipe. Call Shutdown to undo all of it.
func (i *Input) Initialize() error {
	fd := int(i.in.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("input fd %d is not a terminal", fd)
	}

	var pipeFds [2]int
	if err := unix.Pipe(pipeFds[:]); err != nil {
		return fmt.Errorf("open resize pipe: %w", err)
	}
	if err := unix.SetNonblock(pipeFds[0], true); err != nil {
		unix.Close(pipeFds[0])
		unix.Close(pipeFds[1])
		return fmt.Errorf("set resize pipe nonblocking: %w", err)
	}
	i.resizePipe = pipeFds

	if err := i.enableRawMode(fd); err != nil {
		i.closeResizePipe()
		return fmt.Errorf("set raw mode: %w", err)
	}
	i.enableProtocols()
	return nil
}

// Shutdown restores the terminal mode and protocol state and closes the
// resize pipe. It is idempotent; calling it on an uninitialized Input is
// a no-op.
func (i *Input) Shutdown() {
	if i.rawMode {
		i.disableProtocols()
		i.disableRawMode()
	}
	i.closeResizePipe()
}

// Poll waits up to timeoutMs milliseconds for input. A negative timeout
// blocks until something arrives, zero returns immediately with whatever
// is pending, and a positive value waits at most that long. A timeout with
// a pending ambiguous sequence resolves it (a lone ESC becomes an Escape
// key press). The returned slice may be empty.
func (i *Input) Poll(timeoutMs int) ([]Event, error) {
	fds := []unix.PollFd{
		{Fd: int32(i.in.Fd()), Events: unix.POLLIN},
	}
	if i.resizePipe[0] != -1 {
		fds = append(fds, unix.PollFd{Fd: int32(i.resizePipe[0]), Events: unix.POLLIN})
	}

	n, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		// A signal interrupting the wait is not an error; the self-pipe
		// carries anything that needs attention to the next call.
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("poll input: %w", err)
	}
	if n == 0 {
		return i.parser.Timeout(), nil
	}

	var events []Event

	if len(fds) >= 2 && fds[1].Revents&unix.POLLIN != 0 {
		i.drainResizePipe()
		if ws, err := unix.IoctlGetWinsize(int(i.out.Fd()), unix.TIOCGWINSZ); err == nil {
			events = append(events, ResizeEvent{Columns: int(ws.Col), Rows: int(ws.Row)})
		}
	}

	if fds[0].Revents&unix.POLLIN != 0 {
		buf := make([]byte, readChunkSize)
		rn, rerr := unix.Read(int(i.in.Fd()), buf)
		if rn > 0 {
			events = append(events, i.parser.Feed(buf[:rn])...)
		} else if rerr != nil && rerr != unix.EAGAIN && rerr != unix.EINTR {
			return events, fmt.Errorf("read input: %w", rerr)
		}
	}

	return events, nil
}

// NotifyResize wakes a blocked Poll so it reports the current terminal
// size. Safe to call from a goroutine servicing SIGWINCH.
func (i *Input) NotifyResize() {
	if i.resizePipe[1] != -1 {
		unix.Write(i.resizePipe[1], []byte{1})
	}
}

// ResizePipeReadFd exposes the read end of the resize pipe so hosts that
// run their own poll loop can multiplex it alongside other descriptors.
// Returns -1 before Initialize or after Shutdown.
func (i *Input) ResizePipeReadFd() int {
	return i.resizePipe[0]
}

func (i *Input) enableRawMode(fd int) error {
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return err
	}
	i.origTermios = *termios

	raw := *termios
	raw.Lflag &^= unix.ICANON | unix.ECHO | unix.ISIG
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return err
	}
	i.rawMode = true
	return nil
}

func (i *Input) disableRawMode() {
	if i.rawMode {
		unix.IoctlSetTermios(int(i.in.Fd()), ioctlSetTermios, &i.origTermios)
		i.rawMode = false
	}
}

func (i *Input) enableProtocols() {
	i.out.WriteString(enableCsiU)
	i.out.WriteString(enableMouseTracking)
	i.out.WriteString(enableSgrMouse)
	i.out.WriteString(enableBracketedPaste)
}

// disableProtocols undoes enableProtocols in reverse order.
func (i *Input) disableProtocols() {
	i.out.WriteString(disableBracketedPaste)
	i.out.WriteString(disableSgrMouse)
	i.out.WriteString(disableMouseTracking)
	i.out.WriteString(disableCsiU)
}

func (i *Input) drainResizePipe() {
	buf := make([]byte, 16)
	for {
		n, err := unix.Read(i.resizePipe[0], buf)
		if n <= 0 || err != nil {
			return
		}
	}
}

func (i *Input) closeResizePipe() {
	if i.resizePipe[0] != -1 {
		unix.Close(i.resizePipe[0])
		unix.Close(i.resizePipe[1])
		i.resizePipe = [2]int{-1, -1}
	}
}
