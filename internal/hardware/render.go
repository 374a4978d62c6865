package hardware

import (
	"fmt"
	"io"
)

// RenderFramebuffer writes the compositor's RGB framebuffer to w as
// truecolor ANSI, two pixel rows per terminal row via the upper
// half-block character — a standard terminal pixel-art technique, not
// something any example repo's dependency graph supplies, so it is
// built on fmt/io alone (see DESIGN.md).
func RenderFramebuffer(w io.Writer, fb []byte, width, height, bpp int) {
	fmt.Fprint(w, "\x1b[H")
	for y := 0; y+1 < height; y += 2 {
		for x := 0; x < width; x++ {
			tr, tg, tb := pixelAt(fb, width, bpp, x, y)
			br, bg, bb := pixelAt(fb, width, bpp, x, y+1)
			fmt.Fprintf(w, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀", tr, tg, tb, br, bg, bb)
		}
		fmt.Fprint(w, "\x1b[0m\r\n")
	}
	if height%2 != 0 {
		y := height - 1
		for x := 0; x < width; x++ {
			r, g, b := pixelAt(fb, width, bpp, x, y)
			fmt.Fprintf(w, "\x1b[38;2;%d;%d;%dm▀", r, g, b)
		}
		fmt.Fprint(w, "\x1b[0m\r\n")
	}
}

func pixelAt(fb []byte, width, bpp, x, y int) (r, g, b byte) {
	off := (y*width + x) * bpp
	if off+2 >= len(fb) {
		return 0, 0, 0
	}
	return fb[off], fb[off+1], fb[off+2]
}
