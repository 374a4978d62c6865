// Package mouse reassembles PS/2 mouse packets (3- or 4-byte, IntelliMouse
// wheel variant) and tracks clamped position, button state, and an
// accumulated wheel delta.
package mouse

import (
	"sync"

	"github.com/axiomata/vight/ps2"
)

// ButtonMask bits, bit 0 left / bit 1 right / bit 2 middle, matching
// spec.md's MouseState.
type ButtonMask byte

const (
	ButtonLeft   ButtonMask = 1 << 0
	ButtonRight  ButtonMask = 1 << 1
	ButtonMiddle ButtonMask = 1 << 2
)

const (
	cmdSetDefaults   byte = 0xF6
	cmdEnableData    byte = 0xF4
	cmdSetSampleRate byte = 0xF3
	cmdGetDeviceID   byte = 0xF2
	ackByte          byte = 0xFA

	statusOutFull = ps2.StatusOutputFull
	statusAuxData = ps2.StatusAuxData

	headerBit byte = 0x08
	overflowBits byte = 0xC0
	buttonBits   byte = 0x07
)

// Driver is the MouseDriver.
type Driver struct {
	ctrl  *ps2.Controller
	ports ps2.Ports

	mu         sync.Mutex
	x, y       int
	maxX, maxY int
	packet     [4]byte
	packetIdx  int
	packetLen  int
	buttons    ButtonMask
	wheel      int
	enabled    bool
}

// New builds a mouse Driver with the default 3-byte packet length.
func New(ctrl *ps2.Controller, ports ps2.Ports) *Driver {
	return &Driver{ctrl: ctrl, ports: ports, packetLen: 3}
}

func ack(b byte, ok bool) bool { return ok && b == ackByte }

func (d *Driver) setSampleRate(rate byte) bool {
	return ack(d.ctrl.SendMouseCommand(cmdSetSampleRate)) && ack(d.ctrl.SendMouseCommand(rate))
}

func (d *Driver) enableWheel() bool {
	return d.setSampleRate(200) && d.setSampleRate(100) && d.setSampleRate(80)
}

func (d *Driver) readDeviceID() (byte, bool) {
	if !ack(d.ctrl.SendMouseCommand(cmdGetDeviceID)) {
		return 0, false
	}
	for i := 0; i < ps2.PollBound; i++ {
		if b, ok := d.ctrl.ReadOutputByte(); ok {
			return b, true
		}
	}
	return 0, false
}

// Init performs set-defaults, the IntelliMouse sample-rate knock
// sequence (200/100/80), a device-id probe, and enable-data-reporting.
// If the probed id is 3 or 4, four-byte wheel packets are enabled. The
// id is re-probed once after enabling data reporting if the first probe
// came back empty or zero, matching original_source's retry sequencing
// (SPEC_FULL.md Supplemented Features).
func (d *Driver) Init() bool {
	d.ctrl.FlushOutput()
	okDefaults := ack(d.ctrl.SendMouseCommand(cmdSetDefaults))
	wheelOK := d.enableWheel()

	var id byte
	var idOK bool
	if wheelOK {
		id, idOK = d.readDeviceID()
	}
	okEnable := ack(d.ctrl.SendMouseCommand(cmdEnableData))
	if wheelOK && okEnable && (!idOK || id == 0x00) {
		id, idOK = d.readDeviceID()
	}

	packetLen := 3
	if idOK && (id == 0x03 || id == 0x04) {
		packetLen = 4
	}

	ok := okDefaults && okEnable
	d.mu.Lock()
	d.enabled = ok
	d.packetIdx = 0
	d.packetLen = packetLen
	d.wheel = 0
	d.mu.Unlock()

	d.ctrl.FlushOutput()
	return ok
}

// SetBounds sets the clamp rectangle [0,maxX] x [0,maxY], re-clamping
// the current position if it now falls outside.
func (d *Driver) SetBounds(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.maxX = maxInt(width-1, 0)
	d.maxY = maxInt(height-1, 0)
	if d.x > d.maxX {
		d.x = d.maxX
	}
	if d.y > d.maxY {
		d.y = d.maxY
	}
}

// SetPosition clamps (x, y) into the current bounds. See SPEC_FULL.md
// Open Question 3 for why this takes signed ints.
func (d *Driver) SetPosition(x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.x = clamp(x, 0, d.maxX)
	d.y = clamp(y, 0, d.maxY)
}

// Position returns the current clamped mouse position.
func (d *Driver) Position() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.x, d.y
}

// Buttons returns the current button bitmask.
func (d *Driver) Buttons() ButtonMask {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buttons
}

// TakeWheelDelta returns and clears the accumulated wheel delta.
func (d *Driver) TakeWheelDelta() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	delta := d.wheel
	d.wheel = 0
	return delta
}

// PushByte is the unified packet-assembly entry point, used both by
// direct polling and by the keyboard driver's demux of aux-sourced
// bytes. It returns true if the byte completed a packet that changed
// position, buttons, or wheel.
func (d *Driver) PushByte(b byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pushByteLocked(b)
}

func (d *Driver) pushByteLocked(b byte) bool {
	if !d.enabled {
		return false
	}
	if d.packetIdx == 0 && b&headerBit == 0 {
		return false
	}
	d.packet[d.packetIdx] = b
	d.packetIdx++
	if d.packetIdx < d.packetLen {
		return false
	}
	d.packetIdx = 0
	return d.applyPacketLocked()
}

func (d *Driver) applyPacketLocked() bool {
	header := d.packet[0]
	newButtons := ButtonMask(header & buttonBits)
	overflow := header&overflowBits != 0
	oldButtons := d.buttons
	d.buttons = newButtons
	if overflow {
		return newButtons != oldButtons
	}

	dx := int(int8(d.packet[1]))
	dy := int(int8(d.packet[2]))
	newX := clamp(d.x+dx, 0, d.maxX)
	newY := clamp(d.y-dy, 0, d.maxY)
	changed := newX != d.x || newY != d.y || newButtons != oldButtons
	d.x, d.y = newX, newY

	if d.packetLen >= 4 {
		dz := int8(d.packet[3] & 0x0F)
		if dz&0x08 != 0 {
			dz |= ^int8(0x0F)
		}
		if dz != 0 {
			d.wheel += int(dz)
			changed = true
		}
	}
	return changed
}

// Poll drains every available aux-sourced byte directly from the shared
// port pair, returning true if any packet changed state. It is intended
// for a standalone poller that isn't going through the keyboard demux.
func (d *Driver) Poll() bool {
	any := false
	for {
		b, ok := d.readAuxByte()
		if !ok {
			break
		}
		if d.PushByte(b) {
			any = true
		}
	}
	return any
}

func (d *Driver) readAuxByte() (byte, bool) {
	status := d.ports.ReadStatus()
	if status&statusOutFull == 0 || status&statusAuxData == 0 {
		return 0, false
	}
	return d.ports.ReadData(), true
}

func clamp(v, min, max int) int {
	if max < min {
		max = min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
