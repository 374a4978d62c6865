package hardware

import (
	"bufio"
	"io"
	"log/slog"
)

// scancodeSink is the IRQ-context entry point a real interrupt handler
// would call once per byte. *keyboard.Driver satisfies it.
type scancodeSink interface {
	PushScancode(byte)
}

// auxSink is the demuxed-aux-byte entry point. *mouse.Driver satisfies
// it via the same PushByte method keyboard uses to hand off aux bytes.
type auxSink interface {
	PushByte(byte) bool
}

// InputFeed reads raw bytes from a terminal placed in raw mode and
// plays the role the original's keyboard-IRQ handler and mouse
// interrupt path play together: it never blocks the foreground, it
// never allocates per press in the hot path beyond what bufio already
// buffers, and on any translation it cannot make sense of it silently
// drops the byte — there is no user-facing error path for unparseable
// input, matching spec.md §7's "interrupt context never surfaces
// errors" policy.
type InputFeed struct {
	r        *bufio.Reader
	keyboard scancodeSink
	mouse    auxSink
	log      *slog.Logger

	lastX, lastY int
}

// NewInputFeed wraps r (typically os.Stdin after term.MakeRaw)
// and will push decoded scancodes/mouse packets into kb/ms. log should
// be the non-blocking klog logger: this method runs on its own
// goroutine and must never contend with foreground logging.
func NewInputFeed(r io.Reader, kb scancodeSink, ms auxSink, log *slog.Logger) *InputFeed {
	return &InputFeed{r: bufio.NewReader(r), keyboard: kb, mouse: ms, log: log}
}

// Run blocks reading bytes until the reader returns an error (EOF on
// session end, or the raw fd being closed during shutdown). It never
// returns an error itself: a read failure just ends the feed.
func (f *InputFeed) Run() {
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return
		}
		f.dispatch(b)
	}
}

func (f *InputFeed) dispatch(b byte) {
	switch {
	case b == 0x1B:
		f.handleEscape()
	case b == '\r' || b == '\n':
		for _, sc := range appendMakeBreak(nil, scEnter) {
			f.keyboard.PushScancode(sc)
		}
	case b == 0x7F || b == 0x08:
		for _, sc := range appendMakeBreak(nil, scBackspace) {
			f.keyboard.PushScancode(sc)
		}
	case b == '\t':
		for _, sc := range appendMakeBreak(nil, scTab) {
			f.keyboard.PushScancode(sc)
		}
	case b >= 0x01 && b <= 0x1A:
		if out, ok := controlByteScancodes(nil, b); ok {
			for _, sc := range out {
				f.keyboard.PushScancode(sc)
			}
		}
	case b >= 0x20 && b < 0x7F:
		for _, sc := range runeScancodes(nil, rune(b)) {
			f.keyboard.PushScancode(sc)
		}
	default:
		if f.log != nil {
			f.log.Debug("input: dropped unrecognized byte", "byte", b)
		}
	}
}

// handleEscape consumes an ESC sequence: either an SGR mouse report
// (ESC [ < ... M/m) or an arrow/navigation CSI sequence (ESC [ A-D,
// ESC [ 3 ~ for Delete). A bare ESC with nothing buffered behind it is
// dropped, since the original has no "escape key" concept of its own.
func (f *InputFeed) handleEscape() {
	b1, err := f.r.ReadByte()
	if err != nil || b1 != '[' {
		return
	}
	b2, err := f.r.ReadByte()
	if err != nil {
		return
	}
	if b2 == '<' {
		f.handleSGRMouse()
		return
	}
	switch b2 {
	case 'A':
		for _, sc := range appendExtMakeBreak(nil, scUp) {
			f.keyboard.PushScancode(sc)
		}
	case 'B':
		for _, sc := range appendExtMakeBreak(nil, scDown) {
			f.keyboard.PushScancode(sc)
		}
	case 'C':
		for _, sc := range appendExtMakeBreak(nil, scRight) {
			f.keyboard.PushScancode(sc)
		}
	case 'D':
		for _, sc := range appendExtMakeBreak(nil, scLeft) {
			f.keyboard.PushScancode(sc)
		}
	case '3':
		if tilde, err := f.r.ReadByte(); err == nil && tilde == '~' {
			for _, sc := range appendExtMakeBreak(nil, scDelete) {
				f.keyboard.PushScancode(sc)
			}
		}
	}
}

// handleSGRMouse parses the body of an SGR mouse report (already past
// "ESC [ <") of the form "Cb;Cx;Cy(M|m)" and synthesizes the
// corresponding 3-byte PS/2-style packet, fed to the mouse driver
// exactly as the keyboard demux would hand off an aux-sourced byte.
// xterm reports absolute 1-based coordinates; PS/2 packets are
// relative deltas, so handleSGRMouse tracks the last reported position
// itself to compute dx/dy.
func (f *InputFeed) handleSGRMouse() {
	cb, ok1 := f.readSGRInt()
	if !ok1 {
		return
	}
	cx, ok2 := f.readSGRInt()
	if !ok2 {
		return
	}
	cy, term, ok3 := f.readSGRIntFinal()
	if !ok3 {
		return
	}

	// SGR encodes the button as a 2-bit index (0=left, 1=middle,
	// 2=right, 3=none-pressed/motion-only) rather than vight's PS/2
	// bitmask (bit0=left, bit1=right, bit2=middle); bit 5 (0x20) marks
	// a drag/motion report, which carries whatever button started the
	// drag rather than a fresh press.
	var buttons byte
	if term == 'M' {
		switch cb & 0x03 {
		case 0:
			buttons = 0x01
		case 1:
			buttons = 0x04
		case 2:
			buttons = 0x02
		}
	}

	dx := cx - f.lastX
	dy := cy - f.lastY
	f.lastX, f.lastY = cx, cy

	header := byte(0x08) | buttons
	if dx < 0 {
		header |= 0x10
	}
	if dy > 0 { // Y sign bit follows the negated dy sent in byte 2
		header |= 0x20
	}
	f.mouse.PushByte(header)
	f.mouse.PushByte(clampDelta(dx))
	f.mouse.PushByte(clampDelta(-dy)) // PS/2 dy is inverted relative to screen-down-positive SGR y
}

// readSGRInt reads ASCII digits up to and including a ';' separator.
func (f *InputFeed) readSGRInt() (int, bool) {
	n := 0
	any := false
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return 0, false
		}
		if b == ';' {
			return n, any
		}
		if b < '0' || b > '9' {
			return 0, false
		}
		n = n*10 + int(b-'0')
		any = true
	}
}

// readSGRIntFinal reads the last numeric field, terminated by 'M'
// (press/motion) or 'm' (release); it returns the terminator byte so
// the caller can distinguish the two.
func (f *InputFeed) readSGRIntFinal() (n int, term byte, ok bool) {
	any := false
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return 0, 0, false
		}
		if b == 'M' || b == 'm' {
			return n, b, any
		}
		if b < '0' || b > '9' {
			return 0, 0, false
		}
		n = n*10 + int(b-'0')
		any = true
	}
}

func clampDelta(v int) byte {
	if v > 127 {
		v = 127
	}
	if v < -128 {
		v = -128
	}
	return byte(int8(v))
}
