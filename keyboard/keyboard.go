// Package keyboard decodes PS/2 scancode-set-1 bytes into key events. A
// bounded ring buffer (ScancodeQueue) connects the simulated-interrupt
// producer to the foreground's PollEvent consumer, exactly as spec.md's
// ScancodeQueue invariant requires.
package keyboard

import (
	"sync"

	"github.com/axiomata/vight/ps2"
)

// Key is the decoded key-event kind. The zero value is never produced.
type Key int

const (
	_ Key = iota
	KeyChar
	KeyBackspace
	KeyCtrlBackspace
	KeyDelete
	KeyEnter
	KeyTab
	KeyAltTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyShiftLeft
	KeyShiftRight
	KeyCtrlLeft
	KeyCtrlRight
	KeyCtrlShiftLeft
	KeyCtrlShiftRight
	KeyCtrlA
	KeyCtrlC
	KeyCtrlV
	KeyCtrlX
	KeyStart
)

// Event is a single decoded key event.
type Event struct {
	Key  Key
	Rune rune // valid when Key == KeyChar
}

const queueCap = 128

// scancodeQueue is the bounded ring described by spec.md's ScancodeQueue:
// a fixed-capacity FIFO plus a sticky "dropped" flag, accessed only
// under its own lock.
type scancodeQueue struct {
	mu      sync.Mutex
	buf     [queueCap]byte
	head    int
	tail    int
	len     int
	dropped bool
}

func (q *scancodeQueue) push(b byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.len == queueCap {
		q.dropped = true
		return
	}
	q.buf[q.tail] = b
	q.tail = (q.tail + 1) % queueCap
	q.len++
}

func (q *scancodeQueue) pop() (byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.len == 0 {
		return 0, false
	}
	b := q.buf[q.head]
	q.head = (q.head + 1) % queueCap
	q.len--
	return b, true
}

func (q *scancodeQueue) dirty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// AuxSink receives bytes demultiplexed off the shared PS/2 data port
// that were tagged aux-sourced (mouse). It is satisfied by
// *mouse.Driver; the returned bool (whether the byte completed a
// packet that changed state) is ignored by the demux, which only
// cares about routing.
type AuxSink interface {
	PushByte(byte) bool
}

// Driver is the KeyboardDriver. Ports is consulted only by PollEvent's
// direct-read path, when the IRQ queue is empty; it is never touched
// from PushScancode, which is the IRQ-context entry point and must
// remain allocation-free and non-blocking.
type Driver struct {
	ctrl  *ps2.Controller
	ports ps2.Ports
	aux   AuxSink
	queue scancodeQueue

	mu        sync.Mutex
	ctrlDown  bool
	shiftDown bool
	altDown   bool
	decoder   decoder
}

// New builds a keyboard Driver. aux may be nil if no mouse is present;
// aux-sourced bytes are then silently dropped by the demux.
func New(ctrl *ps2.Controller, ports ps2.Ports, aux AuxSink) *Driver {
	return &Driver{ctrl: ctrl, ports: ports, aux: aux}
}

const (
	cmdSetDefaults      byte = 0xF6
	cmdSetScancode      byte = 0xF0
	scancodeSet2        byte = 0x02
	cmdEnableScanning   byte = 0xF4
	ackByte             byte = 0xFA
	resendByte          byte = 0xFE
)

// Init flushes stale output, then sends set-defaults, select-scancode-
// set-2, and enable-scanning, each requiring an ack. It returns the
// conjunction of all three acks.
func (d *Driver) Init() bool {
	d.ctrl.FlushOutput()
	okDefaults := ackOf(d.ctrl.SendKeyboardCommand(cmdSetDefaults))
	okSet := ackOf(d.ctrl.SendKeyboardCommand(cmdSetScancode)) &&
		ackOf(d.ctrl.SendKeyboardCommand(scancodeSet2))
	okEnable := ackOf(d.ctrl.SendKeyboardCommand(cmdEnableScanning))
	d.ctrl.FlushOutput()
	return okDefaults && okSet && okEnable
}

func ackOf(b byte, ok bool) bool {
	return ok && b == ackByte
}

// PushScancode is the IRQ-context entry point: it discards ack/resend
// bytes and enqueues everything else, never blocking and never
// allocating.
func (d *Driver) PushScancode(sc byte) {
	if sc == ackByte || sc == resendByte {
		return
	}
	d.queue.push(sc)
}

// Dropped reports whether the scancode queue has ever overflowed since
// the driver was created.
func (d *Driver) Dropped() bool {
	return d.queue.dirty()
}

// readScancode drains the IRQ queue first; if empty, it consults the
// controller port directly, demultiplexing aux-sourced bytes to the
// mouse driver and ack/resend bytes to nothing.
func (d *Driver) readScancode() (byte, bool) {
	if sc, ok := d.queue.pop(); ok {
		return sc, true
	}
	status := d.ports.ReadStatus()
	if status&ps2.StatusOutputFull == 0 {
		return 0, false
	}
	if status&ps2.StatusAuxData != 0 {
		b := d.ports.ReadData()
		if d.aux != nil {
			d.aux.PushByte(b)
		}
		return 0, false
	}
	sc := d.ports.ReadData()
	if sc == ackByte || sc == resendByte {
		return 0, false
	}
	return sc, true
}

// PollEvent drains at most one byte and returns the decoded key event,
// if any.
func (d *Driver) PollEvent() (Event, bool) {
	sc, ok := d.readScancode()
	if !ok {
		return Event{}, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	dk, ok := d.decoder.feed(sc)
	if !ok {
		return Event{}, false
	}
	d.updateModifiers(dk)
	return d.translate(dk)
}

func (d *Driver) updateModifiers(dk decodedKey) {
	switch dk.code {
	case codeLCtrl, codeRCtrl:
		d.ctrlDown = dk.down
	case codeLShift, codeRShift:
		d.shiftDown = dk.down
	case codeLAlt:
		d.altDown = dk.down
	}
}

func (d *Driver) translate(dk decodedKey) (Event, bool) {
	if !dk.down {
		// Key releases only matter for modifier tracking above; no
		// event is surfaced to the application on key-up, matching
		// the original's make-code-only KeyEvent stream.
		return Event{}, false
	}

	switch dk.code {
	case codeEnter:
		return Event{Key: KeyEnter}, true
	case codeBackspace:
		if d.ctrlDown {
			return Event{Key: KeyCtrlBackspace}, true
		}
		return Event{Key: KeyBackspace}, true
	case codeDelete:
		return Event{Key: KeyDelete}, true
	case codeTab:
		if d.altDown {
			return Event{Key: KeyAltTab}, true
		}
		return Event{Key: KeyTab}, true
	case codeLWin, codeRWin:
		return Event{Key: KeyStart}, true
	case codeUp:
		return Event{Key: KeyUp}, true
	case codeDown:
		return Event{Key: KeyDown}, true
	case codeLeft:
		switch {
		case d.ctrlDown && d.shiftDown:
			return Event{Key: KeyCtrlShiftLeft}, true
		case d.ctrlDown:
			return Event{Key: KeyCtrlLeft}, true
		case d.shiftDown:
			return Event{Key: KeyShiftLeft}, true
		default:
			return Event{Key: KeyLeft}, true
		}
	case codeRight:
		switch {
		case d.ctrlDown && d.shiftDown:
			return Event{Key: KeyCtrlShiftRight}, true
		case d.ctrlDown:
			return Event{Key: KeyCtrlRight}, true
		case d.shiftDown:
			return Event{Key: KeyShiftRight}, true
		default:
			return Event{Key: KeyRight}, true
		}
	case codeChar:
		return d.translateChar(dk.ch)
	default:
		return Event{}, false
	}
}

func (d *Driver) translateChar(c rune) (Event, bool) {
	if d.ctrlDown {
		switch c {
		case 'a', 'A', 0x01:
			return Event{Key: KeyCtrlA}, true
		case 'c', 'C', 0x03:
			return Event{Key: KeyCtrlC}, true
		case 'v', 'V', 0x16:
			return Event{Key: KeyCtrlV}, true
		case 'x', 'X', 0x18:
			return Event{Key: KeyCtrlX}, true
		}
	}
	return Event{Key: KeyChar, Rune: c}, true
}
