// Package compositor implements the LayerCompositor: an ordered,
// alpha-blended z-list of rectangular pixel layers, each backed by its
// owning app's memory arena.
package compositor

import (
	"sort"
	"sync"

	"github.com/axiomata/vight/memory"
)

// BytesPerPixel is the compositor's fixed pixel format: 24-bit RGB, no
// per-pixel alpha (alpha is a whole-layer property per spec.md §3's
// Layer definition).
const BytesPerPixel = 3

// Color is 24-bit RGB packed into the low 24 bits, 0xRRGGBB, matching
// spec.md §3.
type Color uint32

// RGB unpacks a Color into its three 8-bit channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// RGBColor packs three 8-bit channels into a Color.
func RGBColor(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Rect is an axis-aligned pixel rectangle in screen or layer-local
// space, signed so it can describe out-of-bounds positions before
// clipping, per spec.md §3's Layer invariant.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) empty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) union(o Rect) Rect {
	if r.empty() {
		return o
	}
	if o.empty() {
		return r
	}
	x0, y0 := minInt(r.X, o.X), minInt(r.Y, o.Y)
	x1, y1 := maxInt(r.X+r.W, o.X+o.W), maxInt(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (r Rect) intersect(o Rect) Rect {
	x0, y0 := maxInt(r.X, o.X), maxInt(r.Y, o.Y)
	x1, y1 := minInt(r.X+r.W, o.X+o.W), minInt(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// LayerId uniquely identifies a layer until DestroyLayer. Ids come
// from an increasing counter and are not reused after destruction.
type LayerId int

// CompositorMode selects between pass-through writes and the layered
// back-buffer pipeline.
type CompositorMode int

const (
	ModeDirect CompositorMode = iota
	ModeLayered
)

type layer struct {
	id    LayerId
	app   memory.AppId
	buf   []byte
	w, h  int
	x, y  int
	z     int
	seq   int
	alpha uint8
}

func (l *layer) bounds() Rect { return Rect{X: l.x, Y: l.y, W: l.w, H: l.h} }

// Compositor is the LayerCompositor.
type Compositor struct {
	mu       sync.Mutex
	registry *memory.Registry
	layers   map[LayerId]*layer
	nextID   LayerId
	nextSeq  int
	mode     CompositorMode

	width, height int
	framebuffer   []byte // width*height*BytesPerPixel, the blit target

	dirty Rect
}

// NewCompositor builds a Compositor over the given arena registry with
// a width x height screen, starting in Direct mode.
func NewCompositor(registry *memory.Registry, width, height int) *Compositor {
	return &Compositor{
		registry:    registry,
		layers:      make(map[LayerId]*layer),
		width:       width,
		height:      height,
		framebuffer: make([]byte, width*height*BytesPerPixel),
	}
}

func (c *Compositor) markDirty(r Rect) {
	screen := Rect{X: 0, Y: 0, W: c.width, H: c.height}
	r = r.intersect(screen)
	if r.empty() {
		return
	}
	c.dirty = c.dirty.union(r)
}

// CreateLayerInAppHeap allocates a w*h*BytesPerPixel pixel buffer from
// app's arena and inserts a new layer into the z-ordered list. ok is
// false when the arena cannot satisfy the allocation.
func (c *Compositor) CreateLayerInAppHeap(w, h, x, y, z int, alpha uint8, app memory.AppId) (id LayerId, ok bool) {
	if w <= 0 || h <= 0 {
		return 0, false
	}
	buf, err := c.registry.AllocateIn(app, w*h*BytesPerPixel)
	if err != nil {
		return 0, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.nextSeq++
	l := &layer{id: c.nextID, app: app, buf: buf, w: w, h: h, x: x, y: y, z: z, seq: c.nextSeq, alpha: alpha}
	c.layers[l.id] = l
	c.registry.AddLayerRef(app)
	c.markDirty(l.bounds())
	return l.id, true
}

// DestroyLayer removes the layer and returns its pixel buffer to its
// owning arena. Unknown ids are a no-op, per spec.md §4.5.
func (c *Compositor) DestroyLayer(id LayerId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.layers[id]
	if !ok {
		return
	}
	delete(c.layers, id)
	c.registry.FreeIn(l.app, len(l.buf))
	c.registry.ReleaseLayerRef(l.app)
	c.markDirty(l.bounds())
}

// LayerSetPos moves a layer, marking the union of its old and new
// bounding boxes dirty.
func (c *Compositor) LayerSetPos(id LayerId, x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.layers[id]
	if !ok {
		return
	}
	old := l.bounds()
	l.x, l.y = x, y
	c.markDirty(old.union(l.bounds()))
}

// LayerFillRect fills a sub-rectangle of a layer's buffer, clipped to
// the layer.
func (c *Compositor) LayerFillRect(id LayerId, x, y, w, h int, color Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.layers[id]
	if !ok {
		return
	}
	clip := Rect{X: x, Y: y, W: w, H: h}.intersect(Rect{W: l.w, H: l.h})
	if clip.empty() {
		return
	}
	r, g, b := color.RGB()
	for py := clip.Y; py < clip.Y+clip.H; py++ {
		row := py * l.w * BytesPerPixel
		for px := clip.X; px < clip.X+clip.W; px++ {
			off := row + px*BytesPerPixel
			l.buf[off], l.buf[off+1], l.buf[off+2] = r, g, b
		}
	}
	c.markDirty(Rect{X: l.x + clip.X, Y: l.y + clip.Y, W: clip.W, H: clip.H})
}

// LayerClear fills the whole layer with color.
func (c *Compositor) LayerClear(id LayerId, color Color) {
	c.mu.Lock()
	w, h, ok := 0, 0, false
	if l, present := c.layers[id]; present {
		w, h, ok = l.w, l.h, true
	}
	c.mu.Unlock()
	if ok {
		c.LayerFillRect(id, 0, 0, w, h, color)
	}
}

// SetCompositorMode switches modes; layer state is preserved either
// way, but the back buffer (framebuffer) is discarded on switch since
// it no longer reflects anything meaningful.
func (c *Compositor) SetCompositorMode(mode CompositorMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == mode {
		return
	}
	c.mode = mode
	for i := range c.framebuffer {
		c.framebuffer[i] = 0
	}
	c.dirty = Rect{}
}

// CompositorMode returns the current mode.
func (c *Compositor) CompositorMode() CompositorMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// DisplayBufferStats reports the fixed screen geometry; ok is always
// true once a Compositor exists, since the hosted simulator always has
// a framebuffer (unlike the original's "framebuffer not yet
// discovered" boot phase).
func (c *Compositor) DisplayBufferStats() (widthPx, heightPx, bytesPerPixel int, ok bool) {
	return c.width, c.height, BytesPerPixel, true
}

// sortedLayers returns every live layer ordered by ascending z, ties
// broken by creation order — spec.md §3's "z-order is total".
func (c *Compositor) sortedLayers() []*layer {
	out := make([]*layer, 0, len(c.layers))
	for _, l := range c.layers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].z != out[j].z {
			return out[i].z < out[j].z
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Present composites every dirty pixel from the current z-list into
// the framebuffer (Layered mode) or is a no-op (Direct mode, where
// writes already go straight to the framebuffer per spec.md §4.5).
func (c *Compositor) Present() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeLayered || c.dirty.empty() {
		c.dirty = Rect{}
		return
	}
	region := c.dirty.intersect(Rect{W: c.width, H: c.height})
	layers := c.sortedLayers()

	for py := region.Y; py < region.Y+region.H; py++ {
		for px := region.X; px < region.X+region.W; px++ {
			accum := Color(0)
			for _, l := range layers {
				if px < l.x || px >= l.x+l.w || py < l.y || py >= l.y+l.h {
					continue
				}
				lx, ly := px-l.x, py-l.y
				off := (ly*l.w + lx) * BytesPerPixel
				src := RGBColor(l.buf[off], l.buf[off+1], l.buf[off+2])
				accum = blendExact(src, accum, l.alpha)
			}
			fbOff := (py*c.width + px) * BytesPerPixel
			r, g, b := accum.RGB()
			c.framebuffer[fbOff], c.framebuffer[fbOff+1], c.framebuffer[fbOff+2] = r, g, b
		}
	}
	c.dirty = Rect{}
}

// Framebuffer returns the current blit target, valid until the next
// Present call. Callers that need a stable copy must clone it.
func (c *Compositor) Framebuffer() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.framebuffer
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
