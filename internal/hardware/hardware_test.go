package hardware

import (
	"strings"
	"testing"

	"github.com/axiomata/vight/keyboard"
	"github.com/axiomata/vight/mouse"
	"github.com/axiomata/vight/ps2"
)

func TestVirtualPortsAcksInitController(t *testing.T) {
	vp := NewVirtualPorts(nil)
	ctrl := ps2.New(vp)
	if !ctrl.InitController() {
		t.Fatalf("InitController() = false, want true against VirtualPorts")
	}
}

func TestVirtualPortsAcksKeyboardAndMouseInit(t *testing.T) {
	vp := NewVirtualPorts(nil)
	ctrl := ps2.New(vp)
	kb := keyboard.New(ctrl, vp, nil)
	if !kb.Init() {
		t.Fatalf("keyboard Init() = false, want true against VirtualPorts")
	}

	ms := mouse.New(ctrl, vp)
	if !ms.Init() {
		t.Fatalf("mouse Init() = false, want true against VirtualPorts")
	}
}

type recordingSink struct {
	scancodes []byte
}

func (r *recordingSink) PushScancode(b byte) { r.scancodes = append(r.scancodes, b) }

type recordingAux struct {
	bytes []byte
}

func (r *recordingAux) PushByte(b byte) bool {
	r.bytes = append(r.bytes, b)
	return false
}

func TestInputFeedTranslatesLowercaseLetterToMakeBreak(t *testing.T) {
	sink := &recordingSink{}
	feed := NewInputFeed(strings.NewReader("a"), sink, &recordingAux{}, nil)
	feed.Run()

	want := []byte{0x1E, 0x1E | 0x80}
	if len(sink.scancodes) != len(want) || sink.scancodes[0] != want[0] || sink.scancodes[1] != want[1] {
		t.Fatalf("scancodes = %v, want %v", sink.scancodes, want)
	}
}

func TestInputFeedTranslatesEnterAndBackspace(t *testing.T) {
	sink := &recordingSink{}
	feed := NewInputFeed(strings.NewReader("\r\x7f"), sink, &recordingAux{}, nil)
	feed.Run()

	want := []byte{scEnter, scEnter | breakBit, scBackspace, scBackspace | breakBit}
	if len(sink.scancodes) != len(want) {
		t.Fatalf("len(scancodes) = %d, want %d (%v)", len(sink.scancodes), len(want), sink.scancodes)
	}
	for i := range want {
		if sink.scancodes[i] != want[i] {
			t.Fatalf("scancodes[%d] = %#x, want %#x", i, sink.scancodes[i], want[i])
		}
	}
}

func TestInputFeedTranslatesArrowKeys(t *testing.T) {
	sink := &recordingSink{}
	feed := NewInputFeed(strings.NewReader("\x1b[A"), sink, &recordingAux{}, nil)
	feed.Run()

	want := []byte{extPrefix, scUp, extPrefix, scUp | breakBit}
	if len(sink.scancodes) != len(want) {
		t.Fatalf("len(scancodes) = %d, want %d (%v)", len(sink.scancodes), len(want), sink.scancodes)
	}
	for i := range want {
		if sink.scancodes[i] != want[i] {
			t.Fatalf("scancodes[%d] = %#x, want %#x", i, sink.scancodes[i], want[i])
		}
	}
}

func TestInputFeedTranslatesCtrlLetter(t *testing.T) {
	sink := &recordingSink{}
	feed := NewInputFeed(strings.NewReader("\x03"), sink, &recordingAux{}, nil) // Ctrl+C
	feed.Run()

	cCode := runeToScancode['c']
	want := []byte{scLCtrl, cCode, cCode | breakBit, scLCtrl | breakBit}
	if len(sink.scancodes) != len(want) {
		t.Fatalf("len(scancodes) = %d, want %d (%v)", len(sink.scancodes), len(want), sink.scancodes)
	}
	for i := range want {
		if sink.scancodes[i] != want[i] {
			t.Fatalf("scancodes[%d] = %#x, want %#x", i, sink.scancodes[i], want[i])
		}
	}
}

func TestInputFeedParsesSGRMousePressAndMotion(t *testing.T) {
	aux := &recordingAux{}
	// Press left button at (10, 5), then drag to (12, 5).
	feed := NewInputFeed(strings.NewReader("\x1b[<0;10;5M\x1b[<0;12;5M"), &recordingSink{}, aux, nil)
	feed.Run()

	if len(aux.bytes) != 6 {
		t.Fatalf("len(aux.bytes) = %d, want 6 (two 3-byte packets), got %v", len(aux.bytes), aux.bytes)
	}
	// First packet: dx=10-0=10, dy=5-0=5 (screen-down positive, so PS/2
	// dy is negated to -5) -> header has the Y sign bit only,
	// buttons=left (bit0).
	if aux.bytes[0]&0x07 != 0x01 {
		t.Fatalf("first packet header buttons = %#x, want left pressed", aux.bytes[0])
	}
	// Second packet: dx=12-10=2, dy=5-5=0, no sign bits expected.
	if aux.bytes[3]&0x10 != 0 || aux.bytes[3]&0x20 != 0 {
		t.Fatalf("second packet header = %#x, want no sign bits for dx=2,dy=0", aux.bytes[3])
	}
}

func TestInputFeedDropsUnrecognizedByteWithoutPanicking(t *testing.T) {
	sink := &recordingSink{}
	feed := NewInputFeed(strings.NewReader(string([]byte{0x00})), sink, &recordingAux{}, nil)
	feed.Run()
	if len(sink.scancodes) != 0 {
		t.Fatalf("scancodes = %v, want none for a NUL byte", sink.scancodes)
	}
}
