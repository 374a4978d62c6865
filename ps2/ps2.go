// Package ps2 talks to a two-port 8042-style controller: a status port
// (output-full / input-full / aux-source bits) and a data port shared by
// the keyboard and the mouse. All waits are bounded polls; nothing here
// blocks indefinitely.
package ps2

import "sync"

// Status bits, matching the real 8042 layout.
const (
	StatusOutputFull byte = 1 << 0
	StatusInputFull  byte = 1 << 1
	StatusAuxData    byte = 1 << 5
)

// Controller commands.
const (
	cmdReadConfig    byte = 0x20
	cmdWriteConfig   byte = 0x60
	cmdDisablePort1  byte = 0xAD
	cmdDisablePort2  byte = 0xA7
	cmdEnablePort1   byte = 0xAE
	cmdEnablePort2   byte = 0xA8
	cmdWriteNextAux  byte = 0xD4
	cfgIRQ1          byte = 0x01
	cfgIRQ12         byte = 0x02
	cfgTranslateOff  byte = 0x40
	cfgClocksDisable byte = 0x30
)

// PollBound is the number of status reads a bounded wait will perform
// before giving up. 100,000 matches the original's busy-poll budget.
const PollBound = 100_000

// Ports is the hardware collaborator: a status/data port pair. A real
// backing implementation is provided by a caller (e.g. a simulated or
// terminal-driven device); ps2 never assumes a specific transport.
type Ports interface {
	ReadStatus() byte
	ReadData() byte
	WriteStatus(byte)
	WriteData(byte)
}

// Controller is the foreground-owned PS2Controller. It serializes access
// to the shared port pair with a mutex, mirroring the source idiom of
// "lock, then poll with a bound" for any operation that touches shared
// hardware state.
type Controller struct {
	mu    sync.Mutex
	ports Ports
}

// New wraps the given port pair.
func New(ports Ports) *Controller {
	return &Controller{ports: ports}
}

func (c *Controller) waitInputClear() bool {
	for i := 0; i < PollBound; i++ {
		if c.ports.ReadStatus()&StatusInputFull == 0 {
			return true
		}
	}
	return false
}

func (c *Controller) waitOutputFull() bool {
	for i := 0; i < PollBound; i++ {
		if c.ports.ReadStatus()&StatusOutputFull != 0 {
			return true
		}
	}
	return false
}

func (c *Controller) writeCommand(cmd byte) {
	c.waitInputClear()
	c.ports.WriteStatus(cmd)
}

func (c *Controller) writeData(data byte) {
	c.waitInputClear()
	c.ports.WriteData(data)
}

// FlushOutput drains the data port while output is marked full.
func (c *Controller) FlushOutput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushOutputLocked()
}

func (c *Controller) flushOutputLocked() {
	for c.ports.ReadStatus()&StatusOutputFull != 0 {
		c.ports.ReadData()
	}
}

// ReadOutputByte is a non-blocking read: it returns ok=false immediately
// when the output buffer is empty, never polling.
func (c *Controller) ReadOutputByte() (b byte, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ports.ReadStatus()&StatusOutputFull == 0 {
		return 0, false
	}
	return c.ports.ReadData(), true
}

// SendKeyboardCommand writes cmd to the data port and waits for one ack
// byte. ok is false on timeout; the caller must treat that as "no ack".
func (c *Controller) SendKeyboardCommand(cmd byte) (ack byte, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeData(cmd)
	if !c.waitOutputFull() {
		return 0, false
	}
	return c.ports.ReadData(), true
}

// SendMouseCommand routes cmd to the aux device via the "next byte is
// for aux" controller command, then waits for one ack byte exactly like
// SendKeyboardCommand.
func (c *Controller) SendMouseCommand(cmd byte) (ack byte, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeCommand(cmdWriteNextAux)
	c.writeData(cmd)
	if !c.waitOutputFull() {
		return 0, false
	}
	return c.ports.ReadData(), true
}

// InitController disables both device ports, drains stale output, masks
// in the configuration bits the spec requires (IRQ1, IRQ12,
// translation-off, device clocks enabled), and re-enables both ports.
// It returns false if the configuration-byte read times out; the
// bounded input-buffer waits before each command and data write do not
// report a timeout. On false the caller must treat the controller as
// running in degraded mode but may continue.
func (c *Controller) InitController() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeCommand(cmdDisablePort1)
	c.writeCommand(cmdDisablePort2)
	c.flushOutputLocked()

	c.writeCommand(cmdReadConfig)
	if !c.waitOutputFull() {
		return false
	}
	cfg := c.ports.ReadData()
	cfg |= cfgIRQ1 | cfgIRQ12 | cfgTranslateOff
	cfg &^= cfgClocksDisable

	c.writeCommand(cmdWriteConfig)
	c.writeData(cfg)

	c.writeCommand(cmdEnablePort1)
	c.writeCommand(cmdEnablePort2)
	c.flushOutputLocked()
	return true
}
