// Package terminal implements the Terminal: an append-only scrollback
// buffer with visual-line wrapping, colored output, and a pinned-to-
// bottom autoscroll policy, translated near 1:1 from
// original_source/kernel/src/terminal.rs.
package terminal

import (
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

// MaxLines is the scrollback capacity; the oldest line is evicted past
// this, per spec.md §4.6.
const MaxLines = 256

// MaxCols is the per-line character cap.
const MaxCols = 128

// Color is an optional 24-bit RGB override, matching compositor.Color's
// packing but kept a separate type so terminal has no import-time
// dependency on the compositor package.
type Color struct {
	Value uint32
	Set   bool
}

// NoColor is the unset Color value — append_to_last's "preserve the
// current line's colors" path.
var NoColor = Color{}

// SomeColor wraps a concrete 24-bit color.
func SomeColor(v uint32) Color { return Color{Value: v, Set: true} }

// Line is one stored scrollback line with optional color overrides.
type Line struct {
	Text string
	Fg   Color
	Bg   Color
}

// Terminal is the process-wide scrollback singleton.
type Terminal struct {
	mu       sync.Mutex
	lines    []Line
	scroll   int
	viewRows int
	viewCols int
	pinned   bool
}

// New returns an empty Terminal, pinned to the bottom by default.
func New() *Terminal {
	return &Terminal{pinned: true}
}

func (t *Terminal) ensureLine() {
	if len(t.lines) == 0 {
		t.lines = append(t.lines, Line{})
	}
}

func (t *Terminal) newLine(fg, bg Color) {
	if len(t.lines) >= MaxLines {
		t.lines = t.lines[1:]
		if t.scroll > 0 {
			t.scroll--
		}
	}
	t.lines = append(t.lines, Line{Fg: fg, Bg: bg})
}

func (t *Terminal) appendToLast(text string, fg, bg Color) {
	t.ensureLine()
	last := &t.lines[len(t.lines)-1]
	if last.Text == "" {
		if fg.Set {
			last.Fg = fg
		}
		if bg.Set {
			last.Bg = bg
		}
	}
	runes := []rune(last.Text)
	for _, ch := range text {
		if len(runes) >= MaxCols {
			break
		}
		runes = append(runes, ch)
	}
	last.Text = string(runes)
}

// PushOutput appends text to the scrollback, matching
// terminal.rs::push_output_with_color. If the last line is non-empty
// and a color override is given, a new colored line is started first;
// embedded newlines split into further lines. If newline is set, an
// empty new line follows. Pinned views snap their scroll to the new
// bottom.
func (t *Terminal) PushOutput(text string, newline bool, fg, bg Color) {
	t.mu.Lock()
	defer t.mu.Unlock()

	wasPinned := t.pinned || t.scroll >= t.maxScrollLocked()
	t.ensureLine()
	if (fg.Set || bg.Set) && t.lines[len(t.lines)-1].Text != "" {
		t.newLine(fg, bg)
	}

	parts := strings.Split(text, "\n")
	t.appendToLast(parts[0], fg, bg)
	for _, part := range parts[1:] {
		t.newLine(fg, bg)
		t.appendToLast(part, fg, bg)
	}
	if newline {
		t.newLine(NoColor, NoColor)
	}
	if wasPinned {
		t.scroll = t.maxScrollLocked()
	}
	t.pinned = t.scroll >= t.maxScrollLocked()
}

// ClearOutput resets the scrollback to one empty line, pinned.
func (t *Terminal) ClearOutput() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = []Line{{}}
	t.scroll = 0
	t.pinned = true
}

func visualSegments(text string, cols int) int {
	if cols == 0 {
		return 0
	}
	n := runewidth.StringWidth(text)
	if n == 0 {
		return 1
	}
	return (n + cols - 1) / cols
}

// VisualLineCountFor reports the total wrapped-line count of the
// current scrollback at the given view width, without mutating the
// terminal's own configured view.
func (t *Terminal) VisualLineCountFor(cols int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visualLineCountLocked(cols)
}

func (t *Terminal) visualLineCountLocked(cols int) int {
	total := 0
	for _, l := range t.lines {
		total += visualSegments(l.Text, cols)
	}
	return total
}

func (t *Terminal) maxScrollLocked() int {
	if t.viewRows == 0 || t.viewCols == 0 {
		return 0
	}
	ms := t.visualLineCountLocked(t.viewCols) - t.viewRows
	if ms < 0 {
		ms = 0
	}
	return ms
}

// MaxScroll returns the maximum valid scroll offset for the current
// view dimensions.
func (t *Terminal) MaxScroll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxScrollLocked()
}

func (t *Terminal) clampScrollLocked() {
	if ms := t.maxScrollLocked(); t.scroll > ms {
		t.scroll = ms
	}
}

// SetView configures the view geometry in characters; a pinned
// terminal snaps to the new bottom.
func (t *Terminal) SetView(rows, cols int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewRows, t.viewCols = rows, cols
	t.clampScrollLocked()
	if t.pinned {
		t.scroll = t.maxScrollLocked()
	}
	t.pinned = t.scroll >= t.maxScrollLocked()
}

// ScrollBy adjusts scroll by delta, clamped to [0, max_scroll];
// returns whether scroll actually changed.
func (t *Terminal) ScrollBy(delta int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.viewRows == 0 {
		return false
	}
	ms := t.maxScrollLocked()
	next := t.scroll + delta
	if next < 0 {
		next = 0
	}
	if next > ms {
		next = ms
	}
	if next == t.scroll {
		return false
	}
	t.scroll = next
	t.pinned = t.scroll >= t.maxScrollLocked()
	return true
}

// SetScroll clamps scroll to [0, max_scroll]; returns whether it
// actually changed.
func (t *Terminal) SetScroll(scroll int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	ms := t.maxScrollLocked()
	if scroll > ms {
		scroll = ms
	}
	if scroll < 0 {
		scroll = 0
	}
	if scroll == t.scroll {
		return false
	}
	t.scroll = scroll
	t.pinned = t.scroll >= t.maxScrollLocked()
	return true
}

// Scroll returns the current scroll offset.
func (t *Terminal) Scroll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scroll
}

// Pinned reports whether the view is currently pinned to the bottom.
func (t *Terminal) Pinned() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pinned
}

// Lines returns a copy of the current scrollback, for rendering.
func (t *Terminal) Lines() []Line {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Line, len(t.lines))
	copy(out, t.lines)
	return out
}
