// Package hardware provides the real collaborator implementations the
// simulated desktop runs on: a virtual PS/2 controller that always acks
// (there is always a virtual device behind it, unlike the bounded-poll
// uncertainty of real silicon), a raw-terminal-driven scancode/packet
// feed standing in for the IRQ producer, and a truecolor ANSI renderer
// for the compositor's pixel framebuffer.
package hardware

import (
	"log/slog"
	"sync"

	"github.com/axiomata/vight/ps2"
)

// Controller commands recognized on the status port. These mirror the
// unexported constants in package ps2 (ps2.go); VirtualPorts has to
// know the wire protocol to decide when to synthesize a reply, so the
// values are restated here rather than imported.
const (
	cmdReadConfig   byte = 0x20
	cmdWriteConfig  byte = 0x60
	cmdWriteNextAux byte = 0xD4
	ackByte         byte = 0xFA
)

// VirtualPorts is a ps2.Ports implementation backed by an always-present
// virtual device: every command written to the data port is acked, and
// CMD_READ_CTRL returns whatever configuration byte was last written.
// This is the "hardware" side of PS2Controller in the hosted simulator
// — deterministic where real 8042 silicon would be merely probable,
// since the point of this binary is to exercise the protocol layers
// above it, not to model flaky hardware.
type VirtualPorts struct {
	mu      sync.Mutex
	status  byte
	data    []byte
	auxNext bool
	cfgNext bool
	config  byte
	log     *slog.Logger
}

// NewVirtualPorts returns a VirtualPorts that logs unexpected protocol
// sequences through log (which should be the non-blocking klog logger,
// since ReadStatus/ReadData/WriteStatus/WriteData run from whatever
// goroutine is driving ps2.Controller, including foreground command
// paths that already hold ps2.Controller's own mutex).
func NewVirtualPorts(log *slog.Logger) *VirtualPorts {
	return &VirtualPorts{log: log}
}

func (p *VirtualPorts) ReadStatus() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *VirtualPorts) ReadData() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.data) == 0 {
		return 0
	}
	b := p.data[0]
	p.data = p.data[1:]
	if len(p.data) == 0 {
		p.status &^= ps2.StatusOutputFull
	}
	return b
}

func (p *VirtualPorts) WriteStatus(cmd byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch cmd {
	case cmdReadConfig:
		p.enqueueLocked(p.config)
	case cmdWriteConfig:
		p.cfgNext = true
	case cmdWriteNextAux:
		p.auxNext = true
	default:
		// Disable/enable port commands: no reply byte.
	}
}

func (p *VirtualPorts) WriteData(b byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.cfgNext:
		p.config = b
		p.cfgNext = false
	case p.auxNext:
		p.auxNext = false
		p.enqueueLocked(ackByte)
	default:
		p.enqueueLocked(ackByte)
	}
}

func (p *VirtualPorts) enqueueLocked(b byte) {
	p.data = append(p.data, b)
	p.status |= ps2.StatusOutputFull
}
