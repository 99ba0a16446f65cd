package terminal

import (
	"bytes"
	"strconv"
	"strings"
)

// parserState enumerates the decoder states. Exactly one scratch buffer is
// in use at a time: paramBuf while in csiEntry/csiParam, utf8Buf while in
// utf8Sequence, pasteBuf while in pasteBody.
type parserState uint8

const (
	stateGround parserState = iota
	stateEscape
	stateCsiEntry
	stateCsiParam
	stateSs3
	statePasteBody
	stateUtf8Sequence
)

const pasteEnd = "\x1b[201~"

// Parser is a feed-based incremental decoder for VT input sequences. Raw
// bytes go in via Feed and structured events come out; sequences may arrive
// split across any number of Feed calls. A bare ESC that could open a longer
// sequence is held until either more bytes arrive or the host calls Timeout.
//
// Parser is a pure state machine with no I/O and is safe to run one per
// input stream. It is not safe for concurrent use.
type Parser struct {
	state         parserState
	paramBuf      []byte
	utf8Buf       []byte
	utf8Remaining int
	pasteBuf      []byte
}

// NewParser returns a Parser in the ground state.
func NewParser() *Parser {
	return &Parser{}
}

// Feed consumes a chunk of raw bytes and returns the events fully resolved
// by that chunk. Bytes are processed strictly in order; a trailing partial
// sequence is retained for the next call.
func (p *Parser) Feed(data []byte) []Event {
	var events []Event
	for _, b := range data {
		events = p.step(b, events)
	}
	return events
}

// Timeout resolves sequences that are ambiguous only because they are a
// prefix of a longer one. Call it when no further bytes have arrived within
// a short window (tens of milliseconds): a pending bare ESC becomes an
// Escape key press. Other partial states keep waiting for more bytes.
func (p *Parser) Timeout() []Event {
	if p.state != stateEscape {
		return nil
	}
	p.state = stateGround
	return []Event{keyEvent(KeyEscape, ModNone)}
}

func (p *Parser) step(b byte, events []Event) []Event {
	switch p.state {
	case stateGround:
		return p.ground(b, events)
	case stateEscape:
		return p.escape(b, events)
	case stateCsiEntry, stateCsiParam:
		return p.csi(b, events)
	case stateSs3:
		return p.ss3(b, events)
	case statePasteBody:
		return p.paste(b, events)
	case stateUtf8Sequence:
		return p.utf8(b, events)
	}
	return events
}

func (p *Parser) ground(b byte, events []Event) []Event {
	if b == 0x1b {
		p.state = stateEscape
		return events
	}

	if b < 0x20 {
		switch b {
		case '\r', '\n':
			return append(events, keyEvent(KeyEnter, ModNone))
		case '\t':
			return append(events, keyEvent(KeyTab, ModNone))
		case 0x08:
			return append(events, keyEvent(KeyBackspace, ModNone))
		default:
			// Legacy Ctrl encoding: the terminal sends letter-0x60, so
			// reconstruct the letter from the control byte.
			return append(events, runeEvent(rune(b)+'a'-1, ModCtrl))
		}
	}

	if b == 0x7f {
		return append(events, keyEvent(KeyBackspace, ModNone))
	}

	// UTF-8 lead byte: derive the continuation count from the bit pattern.
	if b&0x80 != 0 {
		p.utf8Buf = p.utf8Buf[:0]
		p.utf8Buf = append(p.utf8Buf, b)
		switch {
		case b&0xe0 == 0xc0:
			p.utf8Remaining = 1
		case b&0xf0 == 0xe0:
			p.utf8Remaining = 2
		case b&0xf8 == 0xf0:
			p.utf8Remaining = 3
		default:
			// Invalid lead byte, drop it.
			p.utf8Buf = p.utf8Buf[:0]
			return events
		}
		p.state = stateUtf8Sequence
		return events
	}

	return append(events, runeEvent(rune(b), ModNone))
}

func (p *Parser) escape(b byte, events []Event) []Event {
	switch {
	case b == '[':
		p.paramBuf = p.paramBuf[:0]
		p.state = stateCsiEntry
		return events
	case b == 'O':
		p.state = stateSs3
		return events
	case b == '\r' || b == '\n':
		p.state = stateGround
		return append(events, keyEvent(KeyEnter, ModAlt))
	case b >= 0x20 && b < 0x7f:
		p.state = stateGround
		return append(events, runeEvent(rune(b), ModAlt))
	}

	// ESC ESC, or ESC followed by a control byte: emit the bare Escape and
	// re-dispatch the byte as fresh input.
	p.state = stateGround
	events = append(events, keyEvent(KeyEscape, ModNone))
	return p.step(b, events)
}

func (p *Parser) csi(b byte, events []Event) []Event {
	// Parameter bytes: digits, semicolons, private markers.
	if (b >= '0' && b <= '9') || b == ';' || b == '<' || b == '>' || b == '?' {
		p.paramBuf = append(p.paramBuf, b)
		p.state = stateCsiParam
		return events
	}

	// Final byte ends the sequence.
	if b >= 0x40 && b <= 0x7e {
		events = p.dispatchCsi(b, events)
		// dispatchCsi may have moved to pasteBody; only reset if it didn't.
		if p.state == stateCsiEntry || p.state == stateCsiParam {
			p.state = stateGround
		}
		return events
	}

	// Intermediate bytes accumulate.
	if b >= 0x20 && b <= 0x2f {
		p.paramBuf = append(p.paramBuf, b)
		return events
	}

	// Anything else aborts the sequence.
	p.state = stateGround
	return events
}

func (p *Parser) ss3(b byte, events []Event) []Event {
	p.state = stateGround
	switch b {
	case 'A':
		return append(events, keyEvent(KeyUp, ModNone))
	case 'B':
		return append(events, keyEvent(KeyDown, ModNone))
	case 'C':
		return append(events, keyEvent(KeyRight, ModNone))
	case 'D':
		return append(events, keyEvent(KeyLeft, ModNone))
	case 'H':
		return append(events, keyEvent(KeyHome, ModNone))
	case 'F':
		return append(events, keyEvent(KeyEnd, ModNone))
	case 'P':
		return append(events, keyEvent(KeyF1, ModNone))
	case 'Q':
		return append(events, keyEvent(KeyF2, ModNone))
	case 'R':
		return append(events, keyEvent(KeyF3, ModNone))
	case 'S':
		return append(events, keyEvent(KeyF4, ModNone))
	}
	return events
}

func (p *Parser) paste(b byte, events []Event) []Event {
	p.pasteBuf = append(p.pasteBuf, b)
	if len(p.pasteBuf) >= len(pasteEnd) && bytes.HasSuffix(p.pasteBuf, []byte(pasteEnd)) {
		text := string(p.pasteBuf[:len(p.pasteBuf)-len(pasteEnd)])
		p.pasteBuf = nil
		p.state = stateGround
		return append(events, PasteEvent{Text: text})
	}
	return events
}

func (p *Parser) utf8(b byte, events []Event) []Event {
	if b&0xc0 != 0x80 {
		// Not a continuation byte: discard the partial sequence and
		// re-dispatch this byte as fresh input.
		p.utf8Buf = p.utf8Buf[:0]
		p.state = stateGround
		return p.step(b, events)
	}

	p.utf8Buf = append(p.utf8Buf, b)
	p.utf8Remaining--
	if p.utf8Remaining > 0 {
		return events
	}

	cp := decodeUtf8(p.utf8Buf)
	p.utf8Buf = p.utf8Buf[:0]
	p.state = stateGround
	if cp != 0 {
		events = append(events, runeEvent(cp, ModNone))
	}
	return events
}

// dispatchCsi interprets a completed CSI sequence from the accumulated
// parameter string and the final byte.
func (p *Parser) dispatchCsi(final byte, events []Event) []Event {
	// SGR mouse: CSI < button;x;y M (press/move/scroll) or m (release).
	if len(p.paramBuf) > 0 && p.paramBuf[0] == '<' && (final == 'M' || final == 'm') {
		params := parseCsiParams(string(p.paramBuf[1:]))
		if len(params) >= 3 {
			events = append(events, decodeSgrMouse(params[0], params[1], params[2], final == 'm'))
		}
		return events
	}

	// Bracketed paste start: CSI 200 ~.
	if final == '~' && string(p.paramBuf) == "200" {
		p.pasteBuf = p.pasteBuf[:0]
		p.state = statePasteBody
		return events
	}

	// Kitty keyboard protocol: CSI keycode;modifiers u.
	if final == 'u' {
		params := parseCsiParams(string(p.paramBuf))
		keycode := 0
		if len(params) > 0 {
			keycode = params[0]
		}
		mods := ModNone
		if len(params) >= 2 {
			mods = decodeModifiers(params[1])
		}
		switch keycode {
		case 13:
			return append(events, keyEvent(KeyEnter, mods))
		case 9:
			return append(events, keyEvent(KeyTab, mods))
		case 127:
			return append(events, keyEvent(KeyBackspace, mods))
		case 27:
			return append(events, keyEvent(KeyEscape, mods))
		}
		if keycode >= 32 && keycode < specialKeyBase {
			return append(events, runeEvent(rune(keycode), mods))
		}
		return events
	}

	// Private-marker sequences (other than SGR mouse) are terminal
	// capability responses; drop them.
	if len(p.paramBuf) > 0 && (p.paramBuf[0] == '>' || p.paramBuf[0] == '?') {
		return events
	}

	params := parseCsiParams(string(p.paramBuf))
	if ev, ok := mapCsiKey(final, params); ok {
		events = append(events, ev)
	}
	return events
}

// decodeSgrMouse interprets the SGR mouse button field: bits 0-1 are the
// button index, bit 5 flags motion, bits 2-4 carry modifiers, and the
// literal values 64/65 are scroll up/down.
func decodeSgrMouse(rawButton, x, y int, release bool) MouseEvent {
	var mods Modifier
	if rawButton&4 != 0 {
		mods = mods.With(ModShift)
	}
	if rawButton&8 != 0 {
		mods = mods.With(ModAlt)
	}
	if rawButton&16 != 0 {
		mods = mods.With(ModCtrl)
	}

	buttonBits := rawButton & 0x43

	ev := MouseEvent{X: x, Y: y, Mods: mods}
	switch {
	case buttonBits == 64:
		ev.Action = MouseScrollUp
	case buttonBits == 65:
		ev.Action = MouseScrollDown
	case rawButton&32 != 0:
		ev.Action = MouseMove
		ev.Button = buttonBits & 3
	case release:
		ev.Action = MouseRelease
		ev.Button = buttonBits & 3
	default:
		ev.Action = MousePress
		ev.Button = buttonBits & 3
	}
	return ev
}

// mapCsiKey maps standard CSI final bytes to cursor and function keys. A
// second numeric parameter, when present, is the modifier field.
func mapCsiKey(final byte, params []int) (KeyEvent, bool) {
	mods := ModNone
	if len(params) >= 2 {
		mods = decodeModifiers(params[1])
	}

	switch final {
	case 'A':
		return keyEvent(KeyUp, mods), true
	case 'B':
		return keyEvent(KeyDown, mods), true
	case 'C':
		return keyEvent(KeyRight, mods), true
	case 'D':
		return keyEvent(KeyLeft, mods), true
	case 'H':
		return keyEvent(KeyHome, mods), true
	case 'F':
		return keyEvent(KeyEnd, mods), true
	case '~':
		if len(params) == 0 {
			return KeyEvent{}, false
		}
		if k, ok := tildeKeys[params[0]]; ok {
			return keyEvent(k, mods), true
		}
	}
	return KeyEvent{}, false
}

// tildeKeys maps the first CSI parameter of a `~`-final sequence to a key.
// Function keys have gaps at 16 and 22 per the VT sequence assignment.
var tildeKeys = map[int]Key{
	1:  KeyHome,
	2:  KeyInsert,
	3:  KeyDelete,
	4:  KeyEnd,
	5:  KeyPageUp,
	6:  KeyPageDown,
	11: KeyF1,
	12: KeyF2,
	13: KeyF3,
	14: KeyF4,
	15: KeyF5,
	17: KeyF6,
	18: KeyF7,
	19: KeyF8,
	20: KeyF9,
	21: KeyF10,
	23: KeyF11,
	24: KeyF12,
}

// parseCsiParams splits a semicolon-separated CSI parameter string into
// integers; unparseable fields become 0.
func parseCsiParams(buf string) []int {
	if buf == "" {
		return nil
	}
	parts := strings.Split(buf, ";")
	params := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			n = 0
		}
		params[i] = n
	}
	return params
}

// decodeUtf8 decodes a complete 2-4 byte UTF-8 sequence to a codepoint.
func decodeUtf8(b []byte) rune {
	switch len(b) {
	case 2:
		return rune(b[0]&0x1f)<<6 | rune(b[1]&0x3f)
	case 3:
		return rune(b[0]&0x0f)<<12 | rune(b[1]&0x3f)<<6 | rune(b[2]&0x3f)
	case 4:
		return rune(b[0]&0x07)<<18 | rune(b[1]&0x3f)<<12 | rune(b[2]&0x3f)<<6 | rune(b[3]&0x3f)
	}
	return 0
}
