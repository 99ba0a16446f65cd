// Package terminal provides the terminal input engine: the event model, the
// incremental escape-sequence parser, and the raw-mode poll coordinator that
// bridges a live terminal device to the parser.
package terminal

import "fmt"

// specialKeyBase is the first key code above the printable range. Printable
// keys use their Unicode codepoint directly, so any Key below this threshold
// (and at or above space) is a character; anything at or above it is a
// special key.
const specialKeyBase = 0x10000

// Key identifies a keyboard key. Printable characters use their Unicode
// codepoint as the Key value; special keys occupy a disjoint range above
// the Basic Multilingual Plane so the two never collide.
type Key uint32

const (
	KeyEnter Key = specialKeyBase + iota
	KeyTab
	KeyBackspace
	KeyDelete
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// KeyFromRune returns the Key for a printable Unicode codepoint.
func KeyFromRune(r rune) Key {
	return Key(r)
}

// IsPrintable returns true if the key represents a printable character.
func (k Key) IsPrintable() bool {
	return k >= ' ' && k < specialKeyBase
}

// Rune returns the Unicode codepoint for a printable key, or 0 for
// special keys.
func (k Key) Rune() rune {
	if !k.IsPrintable() {
		return 0
	}
	return rune(k)
}

// String returns a human-readable name for the key.
func (k Key) String() string {
	if k.IsPrintable() {
		return string(rune(k))
	}
	switch k {
	case KeyEnter:
		return "Enter"
	case KeyTab:
		return "Tab"
	case KeyBackspace:
		return "Backspace"
	case KeyDelete:
		return "Delete"
	case KeyEscape:
		return "Escape"
	case KeyUp:
		return "Up"
	case KeyDown:
		return "Down"
	case KeyLeft:
		return "Left"
	case KeyRight:
		return "Right"
	case KeyHome:
		return "Home"
	case KeyEnd:
		return "End"
	case KeyPageUp:
		return "PageUp"
	case KeyPageDown:
		return "PageDown"
	case KeyInsert:
		return "Insert"
	case KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12:
		return fmt.Sprintf("F%d", k-KeyF1+1)
	default:
		return fmt.Sprintf("Key(%d)", uint32(k))
	}
}

// Event represents a terminal input event.
type Event interface {
	eventMarker()
}

// KeyEvent represents a key press. For printable characters Rune holds the
// Unicode codepoint and Key equals KeyFromRune(Rune); for special keys Rune
// is zero.
type KeyEvent struct {
	Key  Key
	Mods Modifier
	Rune rune
}

func (KeyEvent) eventMarker() {}

// MouseAction identifies what happened with the mouse.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMove
	MouseScrollUp
	MouseScrollDown
)

// MouseEvent represents a mouse input event. Coordinates are 1-based
// terminal cells, as reported by SGR mouse mode.
type MouseEvent struct {
	Action MouseAction
	Button int // 0=left, 1=middle, 2=right
	X, Y   int
	Mods   Modifier
}

func (MouseEvent) eventMarker() {}

// ResizeEvent indicates the terminal size changed.
type ResizeEvent struct {
	Columns int
	Rows    int
}

func (ResizeEvent) eventMarker() {}

// PasteEvent represents bracketed paste content, delivered as one string.
type PasteEvent struct {
	Text string
}

func (PasteEvent) eventMarker() {}

// keyEvent builds a KeyEvent for a special key.
func keyEvent(k Key, mods Modifier) KeyEvent {
	return KeyEvent{Key: k, Mods: mods}
}

// runeEvent builds a KeyEvent for a printable codepoint.
func runeEvent(r rune, mods Modifier) KeyEvent {
	return KeyEvent{Key: KeyFromRune(r), Mods: mods, Rune: r}
}
