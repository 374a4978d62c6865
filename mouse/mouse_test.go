package mouse

import (
	"testing"

	"github.com/axiomata/vight/ps2"
)

func newEnabledDriver(t *testing.T, packetLen int) *Driver {
	t.Helper()
	sim := ps2.NewSimPorts()
	d := New(ps2.New(sim), sim)
	d.enabled = true
	d.packetLen = packetLen
	d.SetBounds(800, 600)
	return d
}

func TestHeaderResync(t *testing.T) {
	d := newEnabledDriver(t, 3)
	// S2: {0x04, 0x10, 0x10, 0x08, 0x00, 0x00} — first byte rejected
	// (bit 3 clear), then {0x08, 0x00, 0x00} accepted with no position
	// change.
	bytes := []byte{0x04, 0x10, 0x10, 0x08, 0x00, 0x00}
	for i, b := range bytes {
		changed := d.PushByte(b)
		if i < 3 {
			if changed {
				t.Fatalf("byte %d: unexpected packet completion during resync", i)
			}
		}
	}
	x, y := d.Position()
	if x != 0 || y != 0 {
		t.Fatalf("Position() = (%d, %d), want (0, 0)", x, y)
	}
}

func TestPositionAlwaysWithinBounds(t *testing.T) {
	d := newEnabledDriver(t, 3)
	d.SetBounds(10, 10)
	var neg100 int8 = -100
	d.PushByte(0x08)
	d.PushByte(byte(neg100))
	d.PushByte(100) // PS/2 dy is up-positive: y - 100 clamps to 0
	x, y := d.Position()
	if x != 0 || y != 0 {
		t.Fatalf("Position() = (%d, %d), want clamp to (0, 0)", x, y)
	}

	d.PushByte(0x08)
	d.PushByte(100)
	d.PushByte(byte(neg100))
	x, y = d.Position()
	if x != 9 || y != 9 {
		t.Fatalf("Position() = (%d, %d), want clamp to (9, 9)", x, y)
	}
}

func TestOverflowSkipsPositionButReportsButtonChange(t *testing.T) {
	d := newEnabledDriver(t, 3)
	d.PushByte(0x08 | 0xC0 | 0x01) // header + overflow + left button
	d.PushByte(50)
	changed := d.PushByte(50)
	if !changed {
		t.Fatalf("expected overflow packet with button change to report changed")
	}
	x, y := d.Position()
	if x != 0 || y != 0 {
		t.Fatalf("Position() = (%d, %d), want unchanged (0, 0) on overflow", x, y)
	}
	if d.Buttons()&ButtonLeft == 0 {
		t.Fatalf("Buttons() missing left button after overflow packet")
	}
}

func TestWheelNibbleSignExtends(t *testing.T) {
	d := newEnabledDriver(t, 4)
	d.PushByte(0x08)
	d.PushByte(0)
	d.PushByte(0)
	d.PushByte(0x0F) // -1 in 4-bit signed
	if got := d.TakeWheelDelta(); got != -1 {
		t.Fatalf("TakeWheelDelta() = %d, want -1", got)
	}
	if got := d.TakeWheelDelta(); got != 0 {
		t.Fatalf("TakeWheelDelta() not cleared after take, got %d", got)
	}
}

func TestDisabledDriverIgnoresBytes(t *testing.T) {
	sim := ps2.NewSimPorts()
	d := New(ps2.New(sim), sim)
	if d.PushByte(0x08) {
		t.Fatalf("disabled driver reported a change")
	}
}

func TestInitSwitchesToFourBytePacketsForWheelMice(t *testing.T) {
	sim := ps2.NewSimPorts()
	sim.SetResponder(func(cmd byte) []byte {
		if cmd == cmdGetDeviceID {
			return []byte{0xFA, 0x03} // ack, then IntelliMouse-with-wheel id
		}
		return []byte{0xFA}
	})
	d := New(ps2.New(sim), sim)
	if !d.Init() {
		t.Fatalf("Init() = false, want true")
	}
	if d.packetLen != 4 {
		t.Fatalf("packetLen = %d, want 4 for IntelliMouse", d.packetLen)
	}
}

func TestInitFailsWithoutDefaultsAck(t *testing.T) {
	sim := ps2.NewSimPorts()
	d := New(ps2.New(sim), sim)
	if d.Init() {
		t.Fatalf("Init() = true, want false with no device replies")
	}
}
