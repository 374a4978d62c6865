package demo

import (
	"testing"

	"github.com/axiomata/vight/compositor"
	"github.com/axiomata/vight/memory"
)

func newHarness(t *testing.T) (*Driver, *compositor.Compositor) {
	t.Helper()
	reg := memory.NewRegistry(1 << 24)
	comp := compositor.NewCompositor(reg, 800, 600)
	return New(comp, reg), comp
}

func TestToggleStartsAndStopsDemo(t *testing.T) {
	d, comp := newHarness(t)
	active, err := d.Toggle(10, 0)
	if err != nil {
		t.Fatalf("Toggle() err = %v", err)
	}
	if !active || !d.Active() {
		t.Fatalf("Toggle() active = %v, want true", active)
	}
	if comp.CompositorMode() != compositor.ModeLayered {
		t.Fatalf("CompositorMode() = %v, want ModeLayered after starting", comp.CompositorMode())
	}

	active, err = d.Toggle(10, 0)
	if err != nil {
		t.Fatalf("Toggle() (stop) err = %v", err)
	}
	if active || d.Active() {
		t.Fatalf("Toggle() active = %v, want false after stopping", active)
	}
}

func TestSetupFailsOnTinyDisplay(t *testing.T) {
	reg := memory.NewRegistry(1 << 24)
	comp := compositor.NewCompositor(reg, 20, 20)
	d := New(comp, reg)
	if err := d.Setup(1, 0); err != ErrDisplayTooSmall {
		t.Fatalf("Setup() err = %v, want ErrDisplayTooSmall", err)
	}
}

func TestSetupShrinksUntilQuotaFits(t *testing.T) {
	reg := memory.NewRegistry(60000) // small enough to force at least one shrink, large enough to still fit
	comp := compositor.NewCompositor(reg, 800, 600)
	d := New(comp, reg)
	if err := d.Setup(1, 0); err != nil {
		t.Fatalf("Setup() err = %v, want nil after shrinking to fit", err)
	}
	if !d.Active() {
		t.Fatalf("Active() = false after successful Setup")
	}
}

func TestTickAdvancesOnlyAtScheduledTime(t *testing.T) {
	d, _ := newHarness(t)
	d.Setup(5, 0)
	before := d.step
	d.Tick(1) // too early
	if d.step != before {
		t.Fatalf("step advanced early: %d -> %d", before, d.step)
	}
	d.Tick(5) // scheduled
	if d.step == before {
		t.Fatalf("step did not advance at scheduled tick")
	}
}

func TestShutdownRestoresPreviousMode(t *testing.T) {
	reg := memory.NewRegistry(1 << 24)
	comp := compositor.NewCompositor(reg, 800, 600)
	comp.SetCompositorMode(compositor.ModeDirect)
	d := New(comp, reg)
	d.Setup(1, 0)
	if comp.CompositorMode() != compositor.ModeLayered {
		t.Fatalf("CompositorMode() = %v during demo, want ModeLayered", comp.CompositorMode())
	}
	d.Shutdown()
	if comp.CompositorMode() != compositor.ModeDirect {
		t.Fatalf("CompositorMode() = %v after Shutdown, want restored ModeDirect", comp.CompositorMode())
	}
}
