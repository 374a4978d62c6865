package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// charFace is the fixed-cell glyph font every layer's text drawing
// uses, matching spec.md §4.5's "fixed-cell font" requirement.
var charFace = basicfont.Face7x13

// CharWidth and CharHeight are the fixed glyph cell dimensions text is
// laid out on, in pixels.
const (
	CharWidth  = 7
	CharHeight = 13
)

// LayerDrawTextAtChar renders text onto a layer using the fixed-cell
// font, starting at character cell (col, row). Wide runes (as judged
// by go-runewidth, the same accounting tcell's Cell.PutChars uses)
// occupy two cells so following glyphs don't overlap them.
func (c *Compositor) LayerDrawTextAtChar(id LayerId, col, row int, text string, fg, bg Color) {
	c.mu.Lock()
	l, ok := c.layers[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	w, h := l.w, l.h
	c.mu.Unlock()
	if w <= 0 || h <= 0 {
		return
	}

	cells := 0
	for _, r := range text {
		cells += maxInt(1, runewidth.RuneWidth(r))
	}
	if cells == 0 {
		return
	}
	imgW, imgH := cells*CharWidth, CharHeight
	img := image.NewRGBA(image.Rect(0, 0, imgW, imgH))
	bgR, bgG, bgB := bg.RGB()
	draw.Draw(img, img.Bounds(), &image.Uniform{C: rgbaOpaque(bgR, bgG, bgB)}, image.Point{}, draw.Src)

	fgR, fgG, fgB := fg.RGB()
	ascent := charFace.Metrics().Ascent.Ceil()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: rgbaOpaque(fgR, fgG, fgB)},
		Face: charFace,
	}
	x := 0
	for _, r := range text {
		drawer.Dot = fixed.P(x, ascent)
		drawer.DrawString(string(r))
		x += maxInt(1, runewidth.RuneWidth(r)) * CharWidth
	}

	x0, y0 := col*CharWidth, row*CharHeight
	c.blitImage(id, x0, y0, img)
}

func (c *Compositor) blitImage(id LayerId, x0, y0 int, img *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.layers[id]
	if !ok {
		return
	}
	bounds := img.Bounds()
	clip := Rect{X: x0, Y: y0, W: bounds.Dx(), H: bounds.Dy()}.intersect(Rect{W: l.w, H: l.h})
	if clip.empty() {
		return
	}
	for py := clip.Y; py < clip.Y+clip.H; py++ {
		row := py * l.w * BytesPerPixel
		for px := clip.X; px < clip.X+clip.W; px++ {
			sr, sg, sb, _ := img.At(px-x0, py-y0).RGBA()
			off := row + px*BytesPerPixel
			l.buf[off], l.buf[off+1], l.buf[off+2] = uint8(sr>>8), uint8(sg>>8), uint8(sb>>8)
		}
	}
	c.markDirty(Rect{X: l.x + clip.X, Y: l.y + clip.Y, W: clip.W, H: clip.H})
}

func rgbaOpaque(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
