package hardware

// keymap.go translates bytes arriving from a real raw-mode terminal
// into scancode-set-1 byte sequences, the inverse of
// keyboard/decode.go's set1Base table. A raw terminal gives us no
// press/release timing, so every translated key is synthesized as an
// immediate make followed by a break (make | 0x80), exactly as if the
// key had been tapped.

const (
	scLCtrl     byte = 0x1D
	scLShift    byte = 0x2A
	scLAlt      byte = 0x38
	scTab       byte = 0x0F
	scEnter     byte = 0x1C
	scBackspace byte = 0x0E
	scDelete    byte = 0x53
	scUp        byte = 0x48
	scDown      byte = 0x50
	scLeft      byte = 0x4B
	scRight     byte = 0x4D
	breakBit    byte = 0x80
	extPrefix   byte = 0xE0
)

// runeToScancode is the inverse of keyboard.set1Base: unshifted rune ->
// make code. Shifted runes (the table's second column) reuse the same
// make code with an LShift bracket around it.
var runeToScancode = map[rune]byte{
	'1': 0x02, '2': 0x03, '3': 0x04, '4': 0x05, '5': 0x06,
	'6': 0x07, '7': 0x08, '8': 0x09, '9': 0x0A, '0': 0x0B,
	'-': 0x0C, '=': 0x0D,
	'q': 0x10, 'w': 0x11, 'e': 0x12, 'r': 0x13, 't': 0x14,
	'y': 0x15, 'u': 0x16, 'i': 0x17, 'o': 0x18, 'p': 0x19,
	'[': 0x1A, ']': 0x1B,
	'a': 0x1E, 's': 0x1F, 'd': 0x20, 'f': 0x21, 'g': 0x22,
	'h': 0x23, 'j': 0x24, 'k': 0x25, 'l': 0x26, ';': 0x27,
	'\'': 0x28, '`': 0x29, '\\': 0x2B,
	'z': 0x2C, 'x': 0x2D, 'c': 0x2E, 'v': 0x2F, 'b': 0x30,
	'n': 0x31, 'm': 0x32, ',': 0x33, '.': 0x34, '/': 0x35,
	' ': 0x39,
}

// shiftedRuneToScancode covers the table's shifted column (typed
// directly by a terminal sending the shifted glyph, e.g. '!' for
// Shift+1) plus uppercase letters.
var shiftedRuneToScancode = map[rune]byte{
	'!': 0x02, '@': 0x03, '#': 0x04, '$': 0x05, '%': 0x06,
	'^': 0x07, '&': 0x08, '*': 0x09, '(': 0x0A, ')': 0x0B,
	'_': 0x0C, '+': 0x0D,
	'{': 0x1A, '}': 0x1B, ':': 0x27, '"': 0x28, '~': 0x29, '|': 0x2B,
	'<': 0x33, '>': 0x34, '?': 0x35,
}

func init() {
	for r := 'A'; r <= 'Z'; r++ {
		shiftedRuneToScancode[r] = runeToScancode[r-'A'+'a']
	}
}

// appendMakeBreak appends a plain (non-extended) make/break pair.
func appendMakeBreak(out []byte, code byte) []byte {
	return append(out, code, code|breakBit)
}

// appendExtMakeBreak appends an 0xE0-prefixed make/break pair, used for
// the arrow/navigation cluster.
func appendExtMakeBreak(out []byte, code byte) []byte {
	return append(out, extPrefix, code, extPrefix, code|breakBit)
}

// appendShiftedMakeBreak brackets a make/break pair with LShift's own
// make/break, for runes that only exist in the shifted column.
func appendShiftedMakeBreak(out []byte, code byte) []byte {
	out = append(out, scLShift)
	out = appendMakeBreak(out, code)
	return append(out, scLShift|breakBit)
}

// appendCtrlMakeBreak brackets a make/break pair with LCtrl's own
// make/break, for raw control bytes (Ctrl+A through Ctrl+Z).
func appendCtrlMakeBreak(out []byte, code byte) []byte {
	out = append(out, scLCtrl)
	out = appendMakeBreak(out, code)
	return append(out, scLCtrl|breakBit)
}

// runeScancodes translates one decoded rune (from the UTF-8 input
// stream) to its set-1 make/break sequence, appending to out. Runes
// with no PS/2 equivalent are dropped.
func runeScancodes(out []byte, r rune) []byte {
	if code, ok := runeToScancode[r]; ok {
		return appendMakeBreak(out, code)
	}
	if code, ok := shiftedRuneToScancode[r]; ok {
		return appendShiftedMakeBreak(out, code)
	}
	return out
}

// controlByteScancodes translates a raw control byte (0x01-0x1A, as
// delivered by a terminal in raw/non-canonical mode for Ctrl+<letter>)
// into an LCtrl-bracketed letter make/break sequence.
func controlByteScancodes(out []byte, b byte) ([]byte, bool) {
	if b < 0x01 || b > 0x1A {
		return out, false
	}
	letter := rune('a' + b - 1)
	code, ok := runeToScancode[letter]
	if !ok {
		return out, false
	}
	return appendCtrlMakeBreak(out, code), true
}
