package keyboard

import (
	"testing"

	"github.com/axiomata/vight/ps2"
)

func TestPushScancodeDiscardsAckAndResend(t *testing.T) {
	sim := ps2.NewSimPorts()
	d := New(ps2.New(sim), sim, nil)
	d.PushScancode(0xFA)
	d.PushScancode(0xFE)
	d.PushScancode(0x1E) // 'a' make code
	ev, ok := d.PollEvent()
	if !ok || ev.Key != KeyChar || ev.Rune != 'a' {
		t.Fatalf("PollEvent() = (%+v, %v), want ('a', true)", ev, ok)
	}
}

func TestScancodeOverflowSetsDroppedAndPreservesOrder(t *testing.T) {
	sim := ps2.NewSimPorts()
	d := New(ps2.New(sim), sim, nil)

	// S1: enqueue 129 make-code bytes without draining.
	for i := 0; i < 129; i++ {
		// alternate between two known-good make codes so we can assert
		// FIFO order precisely: 'a' (0x1E) then 'b' (0x30).
		if i%2 == 0 {
			d.PushScancode(0x1E)
		} else {
			d.PushScancode(0x30)
		}
	}
	if !d.Dropped() {
		t.Fatalf("Dropped() = false, want true after 129 pushes into a 128 queue")
	}

	got := 0
	for {
		ev, ok := d.PollEvent()
		if !ok {
			break
		}
		want := 'a'
		if got%2 == 1 {
			want = 'b'
		}
		if ev.Rune != want {
			t.Fatalf("event %d rune = %q, want %q (FIFO order)", got, ev.Rune, want)
		}
		got++
	}
	if got != queueCap {
		t.Fatalf("decoded %d events, want %d (queue capacity)", got, queueCap)
	}
}

func TestCtrlLetterProducesCanonicalEvent(t *testing.T) {
	sim := ps2.NewSimPorts()
	d := New(ps2.New(sim), sim, nil)
	d.PushScancode(scLCtrl)
	d.PushScancode(0x2E) // 'c'
	d.PollEvent()        // consume ctrl-down transition
	ev, ok := d.PollEvent()
	if !ok || ev.Key != KeyCtrlC {
		t.Fatalf("PollEvent() = (%+v, %v), want (CtrlC, true)", ev, ok)
	}
}

func TestCtrlDigitStillProducesChar(t *testing.T) {
	sim := ps2.NewSimPorts()
	d := New(ps2.New(sim), sim, nil)
	d.PushScancode(scLCtrl)
	d.PushScancode(0x03) // '2'
	d.PollEvent()
	ev, ok := d.PollEvent()
	if !ok || ev.Key != KeyChar || ev.Rune != '2' {
		t.Fatalf("PollEvent() = (%+v, %v), want ('2', true)", ev, ok)
	}
}

func TestShiftUppercases(t *testing.T) {
	sim := ps2.NewSimPorts()
	d := New(ps2.New(sim), sim, nil)
	d.PushScancode(scLShift)
	d.PushScancode(0x1E) // 'a'
	d.PollEvent()
	ev, ok := d.PollEvent()
	if !ok || ev.Rune != 'A' {
		t.Fatalf("PollEvent() = (%+v, %v), want ('A', true)", ev, ok)
	}
}

func TestAuxByteDemuxedToMouse(t *testing.T) {
	sim := ps2.NewSimPorts()
	recorder := &fakeAux{}
	d := New(ps2.New(sim), sim, recorder)
	sim.EnqueueAux(0x08, 0x00, 0x00)
	if ev, ok := d.PollEvent(); ok {
		t.Fatalf("PollEvent() = (%+v, true), want no keyboard event for aux byte", ev)
	}
	if len(recorder.got) != 1 || recorder.got[0] != 0x08 {
		t.Fatalf("aux sink got %v, want [0x08]", recorder.got)
	}
}

func TestInitRequiresAllThreeAcks(t *testing.T) {
	sim := ps2.NewSimPorts()
	sim.SetResponder(func(byte) []byte { return []byte{0xFA} })
	d := New(ps2.New(sim), sim, nil)
	if !d.Init() {
		t.Fatalf("Init() = false, want true when all acks present")
	}
}

func TestInitFailsWithoutAck(t *testing.T) {
	sim := ps2.NewSimPorts()
	d := New(ps2.New(sim), sim, nil)
	if d.Init() {
		t.Fatalf("Init() = true, want false with no acks queued")
	}
}

type fakeAux struct {
	got []byte
}

func (f *fakeAux) PushByte(b byte) bool {
	f.got = append(f.got, b)
	return false
}
