package keyboard

// decode.go implements a scancode-set-1 decoder (US QWERTY layout). No
// library in the example pack models this protocol, so the table and
// state machine here are hand-rolled — see DESIGN.md's keyboard entry.

type keyCode int

const (
	codeNone keyCode = iota
	codeChar
	codeEnter
	codeBackspace
	codeDelete
	codeTab
	codeUp
	codeDown
	codeLeft
	codeRight
	codeLCtrl
	codeRCtrl
	codeLShift
	codeRShift
	codeLAlt
	codeLWin
	codeRWin
)

type decodedKey struct {
	code keyCode
	down bool
	ch   rune
}

// decoder holds the cross-byte state scancode set 1 needs: whether the
// previous byte was the 0xE0 extended-sequence prefix, and whether a
// shift key is held (to pick the shifted rune).
type decoder struct {
	extended bool
	shift    bool
}

const extendedPrefix = 0xE0

// set1Base maps a make-code (bits 0-6 of the first byte, no 0xE0
// prefix) to its unshifted and shifted rune, for the printable keys.
// Zero entries are non-printable/unmapped.
var set1Base = map[byte][2]rune{
	0x02: {'1', '!'}, 0x03: {'2', '@'}, 0x04: {'3', '#'}, 0x05: {'4', '$'},
	0x06: {'5', '%'}, 0x07: {'6', '^'}, 0x08: {'7', '&'}, 0x09: {'8', '*'},
	0x0A: {'9', '('}, 0x0B: {'0', ')'}, 0x0C: {'-', '_'}, 0x0D: {'=', '+'},
	0x10: {'q', 'Q'}, 0x11: {'w', 'W'}, 0x12: {'e', 'E'}, 0x13: {'r', 'R'},
	0x14: {'t', 'T'}, 0x15: {'y', 'Y'}, 0x16: {'u', 'U'}, 0x17: {'i', 'I'},
	0x18: {'o', 'O'}, 0x19: {'p', 'P'}, 0x1A: {'[', '{'}, 0x1B: {']', '}'},
	0x1E: {'a', 'A'}, 0x1F: {'s', 'S'}, 0x20: {'d', 'D'}, 0x21: {'f', 'F'},
	0x22: {'g', 'G'}, 0x23: {'h', 'H'}, 0x24: {'j', 'J'}, 0x25: {'k', 'K'},
	0x26: {'l', 'L'}, 0x27: {';', ':'}, 0x28: {'\'', '"'}, 0x29: {'`', '~'},
	0x2B: {'\\', '|'},
	0x2C: {'z', 'Z'}, 0x2D: {'x', 'X'}, 0x2E: {'c', 'C'}, 0x2F: {'v', 'V'},
	0x30: {'b', 'B'}, 0x31: {'n', 'N'}, 0x32: {'m', 'M'}, 0x33: {',', '<'},
	0x34: {'.', '>'}, 0x35: {'/', '?'},
	0x39: {' ', ' '},
}

const (
	scLCtrl      byte = 0x1D
	scLShift     byte = 0x2A
	scRShift     byte = 0x36
	scLAlt       byte = 0x38
	scTab        byte = 0x0F
	scEnter      byte = 0x1C
	scBackspace  byte = 0x0E
	breakBit     byte = 0x80
	scUp         byte = 0x48
	scDown       byte = 0x50
	scLeft       byte = 0x4B
	scRight      byte = 0x4D
	scDelete     byte = 0x53
	scRCtrlExt   byte = 0x1D
	scLWinExt    byte = 0x5B
	scRWinExt    byte = 0x5C
)

// feed consumes one scancode byte, returning a decoded key event if the
// byte completes one (extended-prefix bytes never do, by themselves).
func (d *decoder) feed(b byte) (decodedKey, bool) {
	if b == extendedPrefix {
		d.extended = true
		return decodedKey{}, false
	}
	extended := d.extended
	d.extended = false

	down := b&breakBit == 0
	base := b &^ breakBit

	if extended {
		switch base {
		case scUp:
			return decodedKey{code: codeUp, down: down}, true
		case scDown:
			return decodedKey{code: codeDown, down: down}, true
		case scLeft:
			return decodedKey{code: codeLeft, down: down}, true
		case scRight:
			return decodedKey{code: codeRight, down: down}, true
		case scDelete:
			return decodedKey{code: codeDelete, down: down}, true
		case scRCtrlExt:
			return decodedKey{code: codeRCtrl, down: down}, true
		case scLWinExt:
			return decodedKey{code: codeLWin, down: down}, true
		case scRWinExt:
			return decodedKey{code: codeRWin, down: down}, true
		default:
			return decodedKey{}, false
		}
	}

	switch base {
	case scLCtrl:
		return decodedKey{code: codeLCtrl, down: down}, true
	case scLShift:
		d.shift = down
		return decodedKey{code: codeLShift, down: down}, true
	case scRShift:
		d.shift = down
		return decodedKey{code: codeRShift, down: down}, true
	case scLAlt:
		return decodedKey{code: codeLAlt, down: down}, true
	case scTab:
		return decodedKey{code: codeTab, down: down}, true
	case scEnter:
		return decodedKey{code: codeEnter, down: down}, true
	case scBackspace:
		return decodedKey{code: codeBackspace, down: down}, true
	}

	if pair, ok := set1Base[base]; ok {
		ch := pair[0]
		if d.shift {
			ch = pair[1]
		}
		return decodedKey{code: codeChar, down: down, ch: ch}, true
	}

	return decodedKey{}, false
}
