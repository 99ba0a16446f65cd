// Package widgets contains the text-editing buffer model that turns
// terminal input events into edited text.
package widgets

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/tmkelly/keyline/pkg/ui/terminal"
)

// Action is the outcome of feeding one event to an InputField.
type Action int

const (
	// ActionNone means the event was not consumed or changed nothing.
	ActionNone Action = iota
	// ActionChanged means the buffer or cursor changed.
	ActionChanged
	// ActionSubmit means the user pressed Enter to submit the text.
	ActionSubmit
	// ActionAbort means the user pressed Ctrl+C.
	ActionAbort
	// ActionEOF means the user pressed Ctrl+D on an empty buffer.
	ActionEOF
)

// maxKillRing bounds the kill ring; the oldest entry is evicted first.
const maxKillRing = 16

// defaultMaxHistory bounds the history list unless SetMaxHistory overrides.
const defaultMaxHistory = 100

// InputField is an emacs-style line editor over a single UTF-8 string. The
// cursor is a byte offset that always lands on a grapheme-cluster boundary,
// so editing never splits a codepoint or a combining sequence. It holds a
// bounded kill ring with consecutive-kill merging, a deduplicated history
// with a saved-line slot for in-progress text, and an optional multiline
// mode where lines are projections over the one underlying string.
//
// InputField is a pure model: it performs no I/O and does no rendering.
type InputField struct {
	buffer string
	cursor int
	prompt string

	multiline bool
	maxLines  int // 0 means unlimited

	history      []string
	historyIndex int // len(history) means "on the live line"
	savedLine    string
	maxHistory   int

	killRing      []string
	killRingIndex int
	lastWasKill   bool
}

// NewInputField returns an empty single-line field.
func NewInputField() *InputField {
	return &InputField{maxHistory: defaultMaxHistory}
}

// ProcessEvent feeds one event to the field and reports what happened.
// Only key and paste events are consumed; everything else yields
// ActionNone.
func (f *InputField) ProcessEvent(ev terminal.Event) Action {
	switch e := ev.(type) {
	case terminal.KeyEvent:
		return f.handleKey(e)
	case terminal.PasteEvent:
		f.insertText(e.Text)
		f.lastWasKill = false
		return ActionChanged
	}
	return ActionNone
}

// Text returns the current buffer contents.
func (f *InputField) Text() string {
	return f.buffer
}

// Cursor returns the cursor position as a byte offset into Text.
func (f *InputField) Cursor() int {
	return f.cursor
}

// SetText replaces the buffer and puts the cursor at the end.
func (f *InputField) SetText(text string) {
	f.buffer = text
	f.cursor = len(text)
}

// Clear empties the buffer.
func (f *InputField) Clear() {
	f.buffer = ""
	f.cursor = 0
}

// SetPrompt sets the display prompt. The prompt is never edited.
func (f *InputField) SetPrompt(prompt string) {
	f.prompt = prompt
}

// Prompt returns the display prompt.
func (f *InputField) Prompt() string {
	return f.prompt
}

// SetMultiline toggles multiline mode.
func (f *InputField) SetMultiline(on bool) {
	f.multiline = on
}

// SetMaxLines caps how many lines the buffer may hold in multiline mode;
// zero means unlimited.
func (f *InputField) SetMaxLines(n int) {
	f.maxLines = n
}

// AddHistory appends a submitted entry. Empty entries and entries equal to
// the immediately preceding one are dropped; the list is capped with the
// oldest entry evicted first.
func (f *InputField) AddHistory(entry string) {
	if entry == "" {
		return
	}
	if len(f.history) > 0 && f.history[len(f.history)-1] == entry {
		return
	}
	f.history = append(f.history, entry)
	if len(f.history) > f.maxHistory {
		f.history = f.history[1:]
	}
	f.historyIndex = len(f.history)
}

// SetMaxHistory changes the history cap, evicting oldest entries if the
// list is already over the new cap.
func (f *InputField) SetMaxHistory(n int) {
	f.maxHistory = n
	for len(f.history) > f.maxHistory {
		f.history = f.history[1:]
	}
	if f.historyIndex > len(f.history) {
		f.historyIndex = len(f.history)
	}
}

// LineCount returns the number of lines in the buffer; an empty buffer
// has one line.
func (f *InputField) LineCount() int {
	return strings.Count(f.buffer, "\n") + 1
}

// CursorLine returns the 0-based line the cursor is on.
func (f *InputField) CursorLine() int {
	return strings.Count(f.buffer[:f.cursor], "\n")
}

// CursorCol returns the 0-based grapheme-cluster column of the cursor
// within its line.
func (f *InputField) CursorCol() int {
	return uniseg.GraphemeClusterCount(f.buffer[f.lineStart(f.cursor):f.cursor])
}

// CursorDisplayCol returns the display-cell column of the cursor within
// its line, accounting for wide characters. Renderers use it to place the
// terminal's visible cursor.
func (f *InputField) CursorDisplayCol() int {
	return runewidth.StringWidth(f.buffer[f.lineStart(f.cursor):f.cursor])
}

// Line returns the text of the i-th line, or "" when i is out of range.
func (f *InputField) Line(i int) string {
	if i < 0 {
		return ""
	}
	rest := f.buffer
	for ; i > 0; i-- {
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return ""
		}
		rest = rest[nl+1:]
	}
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		return rest[:nl]
	}
	return rest
}

func (f *InputField) handleKey(key terminal.KeyEvent) Action {
	ctrl := key.Mods.HasCtrl()
	alt := key.Mods.HasAlt()
	shift := key.Mods.HasShift()

	switch key.Key {
	case terminal.KeyEnter:
		if f.multiline && (shift || alt) {
			if !f.insertNewline() {
				return ActionNone
			}
			f.lastWasKill = false
			return ActionChanged
		}
		f.lastWasKill = false
		return ActionSubmit
	case terminal.KeyTab, terminal.KeyEscape:
		f.lastWasKill = false
		return ActionNone
	case terminal.KeyBackspace:
		if ctrl || alt {
			f.killWordBackward()
			return ActionChanged
		}
		f.deleteCharBackward()
		f.lastWasKill = false
		return ActionChanged
	case terminal.KeyDelete:
		f.deleteChar()
		f.lastWasKill = false
		return ActionChanged
	case terminal.KeyUp:
		if f.multiline && f.CursorLine() > 0 {
			f.moveUpLine()
		} else {
			f.historyPrev()
		}
		f.lastWasKill = false
		return ActionChanged
	case terminal.KeyDown:
		if f.multiline && f.CursorLine() < f.LineCount()-1 {
			f.moveDownLine()
		} else {
			f.historyNext()
		}
		f.lastWasKill = false
		return ActionChanged
	case terminal.KeyLeft:
		if ctrl {
			f.moveBackwardWord()
		} else {
			f.moveBackwardChar()
		}
		f.lastWasKill = false
		return ActionChanged
	case terminal.KeyRight:
		if ctrl {
			f.moveForwardWord()
		} else {
			f.moveForwardChar()
		}
		f.lastWasKill = false
		return ActionChanged
	case terminal.KeyHome:
		if ctrl {
			f.cursor = 0
		} else {
			f.moveToLineStart()
		}
		f.lastWasKill = false
		return ActionChanged
	case terminal.KeyEnd:
		if ctrl {
			f.cursor = len(f.buffer)
		} else {
			f.moveToLineEnd()
		}
		f.lastWasKill = false
		return ActionChanged
	}

	if ctrl && key.Rune != 0 {
		switch key.Rune {
		case 'a':
			f.moveToLineStart()
			f.lastWasKill = false
			return ActionChanged
		case 'e':
			f.moveToLineEnd()
			f.lastWasKill = false
			return ActionChanged
		case 'f':
			f.moveForwardChar()
			f.lastWasKill = false
			return ActionChanged
		case 'b':
			f.moveBackwardChar()
			f.lastWasKill = false
			return ActionChanged
		case 'p':
			f.historyPrev()
			f.lastWasKill = false
			return ActionChanged
		case 'n':
			f.historyNext()
			f.lastWasKill = false
			return ActionChanged
		case 'k':
			f.killToLineEnd()
			return ActionChanged
		case 'u':
			f.killToLineStart()
			return ActionChanged
		case 'w':
			f.killWordBackward()
			return ActionChanged
		case 'y':
			f.yank()
			f.lastWasKill = false
			return ActionChanged
		case 't':
			f.transpose()
			f.lastWasKill = false
			return ActionChanged
		case 'd':
			if f.buffer == "" {
				return ActionEOF
			}
			f.deleteChar()
			f.lastWasKill = false
			return ActionChanged
		case 'c':
			return ActionAbort
		}
	}

	if alt && key.Rune != 0 {
		switch key.Rune {
		case 'f':
			f.moveForwardWord()
			f.lastWasKill = false
			return ActionChanged
		case 'b':
			f.moveBackwardWord()
			f.lastWasKill = false
			return ActionChanged
		case 'd':
			f.killWordForward()
			return ActionChanged
		case 'y':
			f.yankPop()
			f.lastWasKill = false
			return ActionChanged
		}
	}

	if key.Rune != 0 && key.Rune >= ' ' && !ctrl && !alt {
		f.insertText(string(key.Rune))
		f.lastWasKill = false
		return ActionChanged
	}

	return ActionNone
}

// insertNewline inserts a line break at the cursor, refusing if it would
// push the buffer past the configured line cap.
func (f *InputField) insertNewline() bool {
	if f.maxLines > 0 && f.LineCount() >= f.maxLines {
		return false
	}
	f.insertText("\n")
	return true
}

func (f *InputField) insertText(text string) {
	f.buffer = f.buffer[:f.cursor] + text + f.buffer[f.cursor:]
	f.cursor += len(text)
}

func (f *InputField) deleteChar() {
	if f.cursor >= len(f.buffer) {
		return
	}
	next := f.nextGrapheme(f.cursor)
	f.buffer = f.buffer[:f.cursor] + f.buffer[next:]
}

func (f *InputField) deleteCharBackward() {
	if f.cursor == 0 {
		return
	}
	prev := f.prevGrapheme(f.cursor)
	f.buffer = f.buffer[:prev] + f.buffer[f.cursor:]
	f.cursor = prev
}

func (f *InputField) moveForwardChar() {
	f.cursor = f.nextGrapheme(f.cursor)
}

func (f *InputField) moveBackwardChar() {
	f.cursor = f.prevGrapheme(f.cursor)
}

// moveForwardWord skips a run of non-word bytes, then a run of word bytes.
// A word byte is anything that is not whitespace.
func (f *InputField) moveForwardWord() {
	for f.cursor < len(f.buffer) && !isWordByte(f.buffer[f.cursor]) {
		f.cursor = nextRuneStart(f.buffer, f.cursor)
	}
	for f.cursor < len(f.buffer) && isWordByte(f.buffer[f.cursor]) {
		f.cursor = nextRuneStart(f.buffer, f.cursor)
	}
}

func (f *InputField) moveBackwardWord() {
	for f.cursor > 0 && !isWordByte(f.buffer[prevRuneStart(f.buffer, f.cursor)]) {
		f.cursor = prevRuneStart(f.buffer, f.cursor)
	}
	for f.cursor > 0 && isWordByte(f.buffer[prevRuneStart(f.buffer, f.cursor)]) {
		f.cursor = prevRuneStart(f.buffer, f.cursor)
	}
}

func (f *InputField) moveToLineStart() {
	if f.multiline {
		f.cursor = f.lineStart(f.cursor)
	} else {
		f.cursor = 0
	}
}

func (f *InputField) moveToLineEnd() {
	if f.multiline {
		f.cursor = f.lineEnd(f.cursor)
	} else {
		f.cursor = len(f.buffer)
	}
}

// moveUpLine moves the cursor to the previous line, preserving the
// grapheme column where the line is long enough.
func (f *InputField) moveUpLine() {
	col := f.CursorCol()
	start := f.lineStart(f.cursor)
	if start == 0 {
		return
	}
	prevStart := f.lineStart(start - 1)
	f.cursor = f.advanceColumns(prevStart, start-1, col)
}

func (f *InputField) moveDownLine() {
	col := f.CursorCol()
	end := f.lineEnd(f.cursor)
	if end >= len(f.buffer) {
		return
	}
	nextStart := end + 1
	f.cursor = f.advanceColumns(nextStart, f.lineEnd(nextStart), col)
}

// advanceColumns steps forward from start by up to col grapheme clusters,
// never passing limit.
func (f *InputField) advanceColumns(start, limit, col int) int {
	pos := start
	for i := 0; i < col && pos < limit; i++ {
		pos = f.nextGrapheme(pos)
	}
	if pos > limit {
		pos = limit
	}
	return pos
}

func (f *InputField) killToLineEnd() {
	end := f.lineEnd(f.cursor)
	if !f.multiline {
		end = len(f.buffer)
	}
	if f.cursor < end {
		killed := f.buffer[f.cursor:end]
		f.buffer = f.buffer[:f.cursor] + f.buffer[end:]
		f.pushKillRing(killed)
	}
	f.lastWasKill = true
}

func (f *InputField) killToLineStart() {
	start := f.lineStart(f.cursor)
	if !f.multiline {
		start = 0
	}
	if f.cursor > start {
		killed := f.buffer[start:f.cursor]
		f.buffer = f.buffer[:start] + f.buffer[f.cursor:]
		f.cursor = start
		f.pushKillRing(killed)
	}
	f.lastWasKill = true
}

func (f *InputField) killWordForward() {
	start := f.cursor
	f.moveForwardWord()
	if f.cursor > start {
		killed := f.buffer[start:f.cursor]
		f.buffer = f.buffer[:start] + f.buffer[f.cursor:]
		f.cursor = start
		f.pushKillRing(killed)
	}
	f.lastWasKill = true
}

func (f *InputField) killWordBackward() {
	end := f.cursor
	f.moveBackwardWord()
	if f.cursor < end {
		killed := f.buffer[f.cursor:end]
		f.buffer = f.buffer[:f.cursor] + f.buffer[end:]
		f.pushKillRing(killed)
	}
	f.lastWasKill = true
}

// pushKillRing records killed text. A kill immediately following another
// kill extends the newest entry instead of adding one, so a run of
// Ctrl+W presses yanks back as a single block.
func (f *InputField) pushKillRing(text string) {
	if text == "" {
		return
	}
	if f.lastWasKill && len(f.killRing) > 0 {
		f.killRing[len(f.killRing)-1] += text
		return
	}
	f.killRing = append(f.killRing, text)
	if len(f.killRing) > maxKillRing {
		f.killRing = f.killRing[1:]
	}
}

func (f *InputField) yank() {
	if len(f.killRing) == 0 {
		return
	}
	f.killRingIndex = len(f.killRing) - 1
	f.insertText(f.killRing[f.killRingIndex])
}

// yankPop replaces the text produced by the previous yank with the next
// older ring entry, cycling back to the newest after the oldest. The
// previous yank's text is removed only if it is still sitting immediately
// before the cursor.
func (f *InputField) yankPop() {
	if len(f.killRing) == 0 {
		return
	}
	if f.killRingIndex < len(f.killRing) {
		prev := f.killRing[f.killRingIndex]
		if strings.HasSuffix(f.buffer[:f.cursor], prev) {
			f.buffer = f.buffer[:f.cursor-len(prev)] + f.buffer[f.cursor:]
			f.cursor -= len(prev)
		}
	}
	if f.killRingIndex == 0 {
		f.killRingIndex = len(f.killRing) - 1
	} else {
		f.killRingIndex--
	}
	f.insertText(f.killRing[f.killRingIndex])
}

func (f *InputField) historyPrev() {
	if len(f.history) == 0 {
		return
	}
	if f.historyIndex == len(f.history) {
		f.savedLine = f.buffer
	}
	if f.historyIndex > 0 {
		f.historyIndex--
		f.SetText(f.history[f.historyIndex])
	}
}

func (f *InputField) historyNext() {
	if f.historyIndex >= len(f.history) {
		return
	}
	f.historyIndex++
	if f.historyIndex == len(f.history) {
		f.SetText(f.savedLine)
		f.savedLine = ""
	} else {
		f.SetText(f.history[f.historyIndex])
	}
}

// transpose swaps the two grapheme clusters around the cursor; at the
// buffer end it swaps the last two instead.
func (f *InputField) transpose() {
	if f.cursor == 0 || len(f.buffer) < 2 {
		return
	}
	pos := f.cursor
	if pos == len(f.buffer) {
		pos = f.prevGrapheme(pos)
	}
	prevPos := f.prevGrapheme(pos)
	nextPos := f.nextGrapheme(pos)

	first := f.buffer[prevPos:pos]
	second := f.buffer[pos:nextPos]
	f.buffer = f.buffer[:prevPos] + second + first + f.buffer[nextPos:]
	f.cursor = nextPos
}

// lineStart returns the byte offset of the start of the line containing
// pos.
func (f *InputField) lineStart(pos int) int {
	return strings.LastIndexByte(f.buffer[:pos], '\n') + 1
}

// lineEnd returns the byte offset of the end of the line containing pos,
// which is either the next newline or the buffer end.
func (f *InputField) lineEnd(pos int) int {
	if nl := strings.IndexByte(f.buffer[pos:], '\n'); nl >= 0 {
		return pos + nl
	}
	return len(f.buffer)
}

// nextGrapheme returns the byte offset just past the grapheme cluster
// starting at pos.
func (f *InputField) nextGrapheme(pos int) int {
	if pos >= len(f.buffer) {
		return pos
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(f.buffer[pos:], -1)
	return pos + len(cluster)
}

// prevGrapheme returns the byte offset of the grapheme cluster ending at
// pos.
func (f *InputField) prevGrapheme(pos int) int {
	if pos == 0 {
		return 0
	}
	last := 0
	rest := f.buffer[:pos]
	offset := 0
	state := -1
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		last = offset
		offset += len(cluster)
	}
	return last
}

// isWordByte reports whether b belongs to a word: any byte that is not
// whitespace counts, independent of script or punctuation class.
func isWordByte(b byte) bool {
	return b != ' ' && b != '\t' && b != '\n' && b != '\r'
}

func nextRuneStart(s string, pos int) int {
	_, size := utf8.DecodeRuneInString(s[pos:])
	return pos + size
}

func prevRuneStart(s string, pos int) int {
	_, size := utf8.DecodeLastRuneInString(s[:pos])
	return pos - size
}
