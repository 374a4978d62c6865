// Package demo implements the DemoDriver: the compositor exemplar
// (cdmo) that allocates three layers — a moving translucent blue
// rectangle sliding back and forth behind/above an opaque orange panel
// with a green overlay — translated near 1:1 from
// original_source/kernel/src/cdmo.rs.
package demo

import (
	"errors"

	"github.com/axiomata/vight/compositor"
	"github.com/axiomata/vight/memory"
)

// AppID is CDMO_APP_ID: the four ASCII bytes "CDMO" packed into a
// uint32, matching the original's magic constant.
const AppID memory.AppId = 0x43444d4f

const (
	appOverhead = 8 * 1024
	frames      = 90

	blueColor   = compositor.Color(0x3355FF)
	greenColor  = compositor.Color(0x33CC66)
	opaqueColor = compositor.Color(0xFF6633)
	blueAlpha   = 128
	greenAlpha  = 180

	minOpaqueW = 48
	minOpaqueH = 48
	minBlueW   = 24
	minBlueH   = 24
)

// Sentinel errors mirroring cdmo_setup's distinct failure strings.
var (
	ErrDisplayUnsupported    = errors.New("demo: display format unsupported")
	ErrDisplayTooSmall       = errors.New("demo: display too small for demo")
	ErrLayeredUnavailable    = errors.New("demo: layered compositor unavailable")
	ErrInsufficientArena     = errors.New("demo: insufficient arena memory")
	ErrLayerAllocationFailed = errors.New("demo: failed to allocate demo layers")
)

type geometry struct {
	blueW, blueH     int
	opaqueW, opaqueH int
	opaqueX, opaqueY int
	blueY            int
	blueLeft         int
	blueRight        int
}

// Driver is the DemoDriver. The zero value from New is inactive;
// Toggle or Setup starts it.
type Driver struct {
	comp *compositor.Compositor
	reg  *memory.Registry

	prevMode compositor.CompositorMode
	blueID   compositor.LayerId
	opaqueID compositor.LayerId
	greenID  compositor.LayerId
	geom     geometry

	step       int
	delayTicks uint64
	nextTick   uint64
	active     bool
}

// New builds a Driver over the given compositor and its backing arena
// registry.
func New(comp *compositor.Compositor, reg *memory.Registry) *Driver {
	return &Driver{comp: comp, reg: reg}
}

// Active reports whether the demo is currently running.
func (d *Driver) Active() bool { return d.active }

// computeGeometry lays out the demo panel and blue rectangle for the
// given screen size and opaque-panel dimensions, and the arena quota
// those three layers would require at that size.
func computeGeometry(width, height, bpp, opaqueW, opaqueH int) (geometry, int, error) {
	demoW := clampDim(width/3, 120, subOrZero(width, 16))
	demoH := clampDim(height/3, 80, subOrZero(height, 16))
	if demoW < 48 || demoH < 48 {
		return geometry{}, 0, ErrDisplayTooSmall
	}
	originX := subOrZero(width, demoW+8)
	originY := minInt(8, subOrZero(height, demoH))

	blueW := clampDim(opaqueW*2/3, 48, subOrZero(opaqueW, 8))
	blueH := clampDim(opaqueH*2/3, 32, subOrZero(opaqueH, 8))
	if opaqueW < minOpaqueW || opaqueH < minOpaqueH || blueW < minBlueW || blueH < minBlueH {
		return geometry{}, 0, ErrDisplayTooSmall
	}
	bytesPerLayer := opaqueW * opaqueH * bpp
	bytesBlue := blueW * blueH * bpp
	quota := bytesPerLayer*2 + bytesBlue + appOverhead

	opaqueX := originX + (demoW-opaqueW)/2
	opaqueY := originY + (demoH-opaqueH)/2
	blueY := opaqueY + (opaqueH-blueH)/2
	blueLeft := originX
	blueRight := originX + (demoW - blueW)

	return geometry{
		blueW: blueW, blueH: blueH,
		opaqueW: opaqueW, opaqueH: opaqueH,
		opaqueX: opaqueX, opaqueY: opaqueY,
		blueY: blueY, blueLeft: blueLeft, blueRight: blueRight,
	}, quota, nil
}

// Setup computes demo geometry against the compositor's current
// display, shrinking the opaque/blue panel size and retrying
// registration against the arena registry until it fits — mirroring
// cdmo_setup's unregister-then-register shrink loop — then allocates
// and fills the three layers. delayTicksPerFrame and startTick drive
// the tick-based step schedule (the original's timer::frequency() and
// timer::ticks() equivalents, passed in since this package has no
// timer collaborator of its own).
func (d *Driver) Setup(delayTicksPerFrame uint64, startTick uint64) error {
	width, height, bpp, ok := d.comp.DisplayBufferStats()
	if !ok {
		return ErrDisplayUnsupported
	}

	prevMode := d.comp.CompositorMode()
	if prevMode != compositor.ModeLayered {
		d.comp.SetCompositorMode(compositor.ModeLayered)
	}
	if d.comp.CompositorMode() != compositor.ModeLayered {
		return ErrLayeredUnavailable
	}

	opaqueW := minInt(width/3, 160)
	opaqueH := minInt(height/3, 120)

	var geom geometry
	for {
		g, quota, err := computeGeometry(width, height, bpp, opaqueW, opaqueH)
		if err != nil {
			d.restoreMode(prevMode)
			return err
		}
		d.reg.UnregisterApp(AppID)
		if d.reg.RegisterApp(AppID, quota) {
			geom = g
			break
		}
		if opaqueW <= minOpaqueW || opaqueH <= minOpaqueH {
			d.restoreMode(prevMode)
			return ErrInsufficientArena
		}
		opaqueW = maxInt(opaqueW-16, minOpaqueW)
		opaqueH = maxInt(opaqueH-12, minOpaqueH)
	}

	blueID, okBlue := d.comp.CreateLayerInAppHeap(geom.blueW, geom.blueH, geom.blueLeft, geom.blueY, 0, blueAlpha, AppID)
	opaqueID, okOpaque := d.comp.CreateLayerInAppHeap(geom.opaqueW, geom.opaqueH, geom.opaqueX, geom.opaqueY, 10, 255, AppID)
	greenID, okGreen := d.comp.CreateLayerInAppHeap(geom.opaqueW, geom.opaqueH, geom.opaqueX, geom.opaqueY, 20, greenAlpha, AppID)
	if !okBlue || !okOpaque || !okGreen {
		if okBlue {
			d.comp.DestroyLayer(blueID)
		}
		if okOpaque {
			d.comp.DestroyLayer(opaqueID)
		}
		if okGreen {
			d.comp.DestroyLayer(greenID)
		}
		d.reg.UnregisterApp(AppID)
		d.restoreMode(prevMode)
		return ErrLayerAllocationFailed
	}

	d.comp.LayerFillRect(blueID, 0, 0, geom.blueW, geom.blueH, blueColor)
	d.comp.LayerFillRect(opaqueID, 0, 0, geom.opaqueW, geom.opaqueH, opaqueColor)
	d.comp.LayerFillRect(greenID, 0, 0, geom.opaqueW, geom.opaqueH, opaqueColor)
	d.comp.Present()

	d.prevMode = prevMode
	d.blueID, d.opaqueID, d.greenID = blueID, opaqueID, greenID
	d.geom = geom
	d.step = 0
	d.delayTicks = delayTicksPerFrame
	if d.delayTicks == 0 {
		d.delayTicks = 1
	}
	d.nextTick = startTick + d.delayTicks
	d.active = true
	return nil
}

func (d *Driver) restoreMode(prevMode compositor.CompositorMode) {
	if prevMode != compositor.ModeLayered {
		d.comp.SetCompositorMode(prevMode)
	}
}

// Shutdown destroys the demo's three layers, unregisters its arena,
// and restores whatever compositor mode was active before Setup.
func (d *Driver) Shutdown() {
	if !d.active {
		return
	}
	d.comp.DestroyLayer(d.blueID)
	d.comp.DestroyLayer(d.opaqueID)
	d.comp.DestroyLayer(d.greenID)
	d.comp.Present()
	d.reg.UnregisterApp(AppID)
	d.restoreMode(d.prevMode)
	d.active = false
}

// Toggle starts the demo if it is not running, or shuts it down if it
// is; returns the new active state.
func (d *Driver) Toggle(delayTicksPerFrame, startTick uint64) (bool, error) {
	if d.active {
		d.Shutdown()
		return false, nil
	}
	if err := d.Setup(delayTicksPerFrame, startTick); err != nil {
		return false, err
	}
	return true, nil
}

// Tick advances the demo one frame if now has reached the next
// scheduled tick, matching cdmo_tick's rate limiting.
func (d *Driver) Tick(now uint64) {
	if !d.active || now < d.nextTick {
		return
	}
	d.nextTick = now + d.delayTicks
	d.step1()
}

func (d *Driver) step1() {
	step := d.step
	d.renderFrame(step)
	d.comp.Present()
	if step >= frames {
		d.step = 0
	} else {
		d.step++
	}
}

func (d *Driver) renderFrame(step int) {
	g := d.geom
	half := maxInt(frames/2, 1)
	phase := step
	if step > frames/2 {
		phase = frames - step
	}
	span := subOrZero(g.blueRight, g.blueLeft)
	blueX := g.blueLeft + (span*phase)/half

	d.comp.LayerSetPos(d.blueID, blueX, g.blueY)
	d.comp.LayerFillRect(d.greenID, 0, 0, g.opaqueW, g.opaqueH, opaqueColor)

	overlapX0 := maxInt(blueX, g.opaqueX)
	overlapY0 := maxInt(g.blueY, g.opaqueY)
	overlapX1 := minInt(blueX+g.blueW, g.opaqueX+g.opaqueW)
	overlapY1 := minInt(g.blueY+g.blueH, g.opaqueY+g.opaqueH)
	if overlapX1 > overlapX0 && overlapY1 > overlapY0 {
		localX := overlapX0 - g.opaqueX
		localY := overlapY0 - g.opaqueY
		d.comp.LayerFillRect(d.greenID, localX, localY, overlapX1-overlapX0, overlapY1-overlapY0, greenColor)
	}
}

func clampDim(v, min, max int) int {
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}

func subOrZero(a, b int) int {
	if a < b {
		return 0
	}
	return a - b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
