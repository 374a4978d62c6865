package memory

import (
	"errors"
	"testing"
)

func TestRegisterAppRejectsOvercommitAndDuplicate(t *testing.T) {
	r := NewRegistry(8192)
	if !r.RegisterApp(0x01, 4096) {
		t.Fatalf("RegisterApp() = false, want true within capacity")
	}
	if r.RegisterApp(0x01, 1) {
		t.Fatalf("RegisterApp() = true, want false for duplicate id")
	}
	if r.RegisterApp(0x02, 8192) {
		t.Fatalf("RegisterApp() = true, want false exceeding free capacity")
	}
	if got := r.FreeCapacity(); got != 4096 {
		t.Fatalf("FreeCapacity() = %d, want 4096", got)
	}
}

// S3: register_app(0xAA, 4096) then request a 5000-byte allocation —
// expect failure and arena usage remaining 0.
func TestAllocateInRejectsOvercommitLeavingUsageUnchanged(t *testing.T) {
	r := NewRegistry(1 << 20)
	if !r.RegisterApp(0xAA, 4096) {
		t.Fatalf("RegisterApp() = false, want true")
	}
	if _, err := r.AllocateIn(0xAA, 5000); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("AllocateIn() err = %v, want ErrQuotaExceeded", err)
	}
	used, quota, ok := r.Usage(0xAA)
	if !ok || used != 0 || quota != 4096 {
		t.Fatalf("Usage() = (%d, %d, %v), want (0, 4096, true)", used, quota, ok)
	}
}

func TestAllocateInSucceedsUpToQuotaThenFails(t *testing.T) {
	r := NewRegistry(1 << 20)
	r.RegisterApp(0xBB, 100)
	if _, err := r.AllocateIn(0xBB, 60); err != nil {
		t.Fatalf("AllocateIn(60) err = %v, want nil", err)
	}
	if _, err := r.AllocateIn(0xBB, 41); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("AllocateIn(41) err = %v, want ErrQuotaExceeded", err)
	}
	if _, err := r.AllocateIn(0xBB, 40); err != nil {
		t.Fatalf("AllocateIn(40) err = %v, want nil (fits exactly)", err)
	}
	used, _, _ := r.Usage(0xBB)
	if used != 100 {
		t.Fatalf("used = %d, want 100", used)
	}
}

func TestAllocateInUnknownApp(t *testing.T) {
	r := NewRegistry(1024)
	if _, err := r.AllocateIn(0xFF, 1); !errors.Is(err, ErrUnknownApp) {
		t.Fatalf("AllocateIn() err = %v, want ErrUnknownApp", err)
	}
}

func TestUnregisterAppFailsClosedWithLiveLayers(t *testing.T) {
	r := NewRegistry(4096)
	r.RegisterApp(0xCC, 1024)
	r.AddLayerRef(0xCC)

	if err := r.UnregisterApp(0xCC); !errors.Is(err, ErrAppHasLayers) {
		t.Fatalf("UnregisterApp() err = %v, want ErrAppHasLayers", err)
	}
	if _, _, ok := r.Usage(0xCC); !ok {
		t.Fatalf("arena was torn down despite ErrAppHasLayers")
	}
	if got := r.FreeCapacity(); got != 4096-1024 {
		t.Fatalf("FreeCapacity() = %d, want unchanged %d", got, 4096-1024)
	}

	r.ReleaseLayerRef(0xCC)
	if err := r.UnregisterApp(0xCC); err != nil {
		t.Fatalf("UnregisterApp() err = %v, want nil once layers are released", err)
	}
	if got := r.FreeCapacity(); got != 4096 {
		t.Fatalf("FreeCapacity() = %d, want restored to 4096", got)
	}
}

func TestUnregisterAppUnknown(t *testing.T) {
	r := NewRegistry(1024)
	if err := r.UnregisterApp(0xAB); !errors.Is(err, ErrUnknownApp) {
		t.Fatalf("UnregisterApp() err = %v, want ErrUnknownApp", err)
	}
}

func TestFreeInClampsAtZero(t *testing.T) {
	r := NewRegistry(1024)
	r.RegisterApp(0x10, 100)
	r.AllocateIn(0x10, 30)
	r.FreeIn(0x10, 100) // over-free
	used, _, _ := r.Usage(0x10)
	if used != 0 {
		t.Fatalf("used = %d, want clamped to 0", used)
	}
}

func TestReRegisterAfterUnregisterReusesCapacity(t *testing.T) {
	// Mirrors cdmo_setup's unregister-before-retry-register shrink loop.
	r := NewRegistry(1000)
	r.RegisterApp(0x43444d4f, 900)
	r.UnregisterApp(0x43444d4f)
	if !r.RegisterApp(0x43444d4f, 500) {
		t.Fatalf("RegisterApp() = false after unregister freed capacity")
	}
	if got := r.FreeCapacity(); got != 500 {
		t.Fatalf("FreeCapacity() = %d, want 500", got)
	}
}
