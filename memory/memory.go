// Package memory implements the ArenaRegistry: per-application memory
// quotas carved out of one fixed system capacity, with strict
// accounting so no arena's usage can ever exceed its quota and no
// arena's quota can ever push total usage past capacity.
package memory

import (
	"errors"
	"sync"
)

// AppId is the caller-assigned 32-bit tag identifying an arena owner,
// matching spec.md's AppId (e.g. a four-char code packed into a
// uint32).
type AppId uint32

// ErrAppHasLayers is returned by UnregisterApp when the compositor
// still owns layers in the app's arena; see DESIGN.md / SPEC_FULL.md
// Open Question 1 for why this is fail-closed rather than
// destroy-then-unregister.
var ErrAppHasLayers = errors.New("memory: app still has live layers")

// ErrAlreadyRegistered names the duplicate-id failure. RegisterApp
// reports that failure as false and does not return this value.
var ErrAlreadyRegistered = errors.New("memory: app already registered")

// ErrQuotaExceeded is returned by AllocateIn when an allocation would
// push an arena's usage past its quota.
var ErrQuotaExceeded = errors.New("memory: allocation exceeds quota")

// ErrUnknownApp is returned by AllocateIn/UnregisterApp for an id with
// no registered arena.
var ErrUnknownApp = errors.New("memory: app not registered")

type arena struct {
	quota int
	used  int
	// layers is a live-layer reference count maintained by the
	// compositor via AddLayerRef/ReleaseLayerRef, so UnregisterApp can
	// refuse to tear down an arena still backing layers without the
	// compositor and memory packages needing to know about each
	// other's types.
	layers int
}

// Registry is the ArenaRegistry: a fixed total capacity shared across
// every registered app's arena.
type Registry struct {
	mu       sync.Mutex
	capacity int
	free     int
	arenas   map[AppId]*arena
}

// NewRegistry builds a Registry with the given total byte capacity,
// the same role `display_buffer_stats`-derived sizing plays for
// `cdmo_setup`'s quota math in original_source/kernel/src/cdmo.rs.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity: capacity,
		free:     capacity,
		arenas:   make(map[AppId]*arena),
	}
}

// RegisterApp reserves bytes for id. It returns false if bytes exceeds
// remaining free capacity or id is already registered — spec.md §4.4
// states both failure modes return false rather than an error, so
// RegisterApp keeps that boolean contract; callers that need to
// distinguish the two reasons use errors.Is against the results of
// AllocateIn/UnregisterApp instead.
func (r *Registry) RegisterApp(id AppId, bytes int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.arenas[id]; exists {
		return false
	}
	if bytes < 0 || bytes > r.free {
		return false
	}
	r.arenas[id] = &arena{quota: bytes}
	r.free -= bytes
	return true
}

// UnregisterApp releases id's arena, returning its quota to the free
// pool. It fails closed with ErrAppHasLayers, leaving all state
// unchanged, if the compositor has not yet destroyed every layer the
// arena backs.
func (r *Registry) UnregisterApp(id AppId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.arenas[id]
	if !ok {
		return ErrUnknownApp
	}
	if a.layers > 0 {
		return ErrAppHasLayers
	}
	r.free += a.quota
	delete(r.arenas, id)
	return nil
}

// AllocateIn returns a zeroed buffer of nbytes owned by app's arena,
// updating usage accounting strictly: the first allocation that would
// exceed the arena's quota fails with ErrQuotaExceeded and leaves
// usage unchanged (spec.md S3, invariant 4).
func (r *Registry) AllocateIn(app AppId, nbytes int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.arenas[app]
	if !ok {
		return nil, ErrUnknownApp
	}
	if nbytes < 0 || a.used+nbytes > a.quota {
		return nil, ErrQuotaExceeded
	}
	a.used += nbytes
	return make([]byte, nbytes), nil
}

// FreeIn returns nbytes to app's arena, undoing a prior AllocateIn.
// Callers must not free more than they allocated; FreeIn clamps at
// zero rather than going negative so a double-free can't corrupt
// another app's accounting.
func (r *Registry) FreeIn(app AppId, nbytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.arenas[app]
	if !ok {
		return
	}
	a.used -= nbytes
	if a.used < 0 {
		a.used = 0
	}
}

// AddLayerRef and ReleaseLayerRef track how many layers the compositor
// currently has alive against app's arena, so UnregisterApp can refuse
// to run while any exist. Unknown apps are a no-op — the compositor is
// the only caller and only calls these around CreateLayer/DestroyLayer
// on arenas it already holds a valid AppId for.
func (r *Registry) AddLayerRef(app AppId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.arenas[app]; ok {
		a.layers++
	}
}

func (r *Registry) ReleaseLayerRef(app AppId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.arenas[app]; ok && a.layers > 0 {
		a.layers--
	}
}

// Usage returns an app's arena quota and current usage, for
// diagnostics and tests. ok is false for an unregistered id.
func (r *Registry) Usage(app AppId) (used, quota int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, exists := r.arenas[app]
	if !exists {
		return 0, 0, false
	}
	return a.used, a.quota, true
}

// FreeCapacity returns the system-wide bytes not yet reserved by any
// arena's quota.
func (r *Registry) FreeCapacity() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.free
}
