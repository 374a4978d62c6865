package terminal

import "testing"

// S5: fill past the view, scroll up by 5 (not pinned), push 10 lines
// (scroll unchanged), then scroll_by(+1000) pins to the bottom, and a
// further pushed line keeps scroll == the new max_scroll.
func TestPinningScenario(t *testing.T) {
	tm := New()
	tm.SetView(5, 20)

	for i := 0; i < 20; i++ {
		tm.PushOutput("line", true, NoColor, NoColor)
	}
	if tm.ScrollBy(-5) != true {
		t.Fatalf("ScrollBy(-5) = false, want true")
	}
	if tm.Pinned() {
		t.Fatalf("Pinned() = true after scrolling away from bottom")
	}
	scrollAfterUp := tm.Scroll()

	for i := 0; i < 10; i++ {
		tm.PushOutput("more", true, NoColor, NoColor)
	}
	if tm.Scroll() != scrollAfterUp {
		t.Fatalf("Scroll() = %d, want unchanged %d (not pinned)", tm.Scroll(), scrollAfterUp)
	}

	tm.ScrollBy(1000)
	if !tm.Pinned() {
		t.Fatalf("Pinned() = false after ScrollBy(+1000) clamps to max_scroll")
	}
	maxBefore := tm.MaxScroll()
	if tm.Scroll() != maxBefore {
		t.Fatalf("Scroll() = %d, want max_scroll %d", tm.Scroll(), maxBefore)
	}

	tm.PushOutput("tail", true, NoColor, NoColor)
	if tm.Scroll() != tm.MaxScroll() {
		t.Fatalf("Scroll() = %d, want new max_scroll %d once pinned", tm.Scroll(), tm.MaxScroll())
	}
}

func TestEvictionDecrementsScrollToKeepViewportStable(t *testing.T) {
	tm := New()
	tm.SetView(3, 10)
	for i := 0; i < MaxLines+5; i++ {
		tm.PushOutput("x", true, NoColor, NoColor)
	}
	if len(tm.Lines()) != MaxLines {
		t.Fatalf("len(Lines()) = %d, want capped at %d", len(tm.Lines()), MaxLines)
	}

	if !tm.ScrollBy(-10) {
		t.Fatalf("ScrollBy(-10) = false, want true")
	}
	before := tm.Scroll()
	tm.PushOutput("y", true, NoColor, NoColor) // evicts exactly one line
	if got := tm.Scroll(); got != before-1 {
		t.Fatalf("Scroll() = %d after evicting one line, want %d", got, before-1)
	}
}

func TestColorInheritanceOnEmptyLine(t *testing.T) {
	tm := New()
	tm.PushOutput("hello", false, SomeColor(0xFF0000), NoColor)
	tm.PushOutput(" world", false, NoColor, NoColor)
	lines := tm.Lines()
	last := lines[len(lines)-1]
	if last.Text != "hello world" {
		t.Fatalf("Text = %q, want %q", last.Text, "hello world")
	}
	if !last.Fg.Set || last.Fg.Value != 0xFF0000 {
		t.Fatalf("Fg = %+v, want inherited 0xFF0000", last.Fg)
	}
}

func TestNewColorStartsFreshLineWhenLastNonEmpty(t *testing.T) {
	tm := New()
	tm.PushOutput("first", false, NoColor, NoColor)
	tm.PushOutput("second", false, SomeColor(0x00FF00), NoColor)
	lines := tm.Lines()
	if len(lines) != 2 {
		t.Fatalf("len(Lines()) = %d, want 2", len(lines))
	}
	if lines[0].Text != "first" || lines[1].Text != "second" {
		t.Fatalf("lines = %+v, want [first, second]", lines)
	}
	if !lines[1].Fg.Set || lines[1].Fg.Value != 0x00FF00 {
		t.Fatalf("lines[1].Fg = %+v, want 0x00FF00", lines[1].Fg)
	}
}

func TestEmbeddedNewlineSplitsLines(t *testing.T) {
	tm := New()
	tm.PushOutput("a\nb\nc", false, NoColor, NoColor)
	lines := tm.Lines()
	if len(lines) != 3 {
		t.Fatalf("len(Lines()) = %d, want 3", len(lines))
	}
	for i, want := range []string{"a", "b", "c"} {
		if lines[i].Text != want {
			t.Fatalf("lines[%d].Text = %q, want %q", i, lines[i].Text, want)
		}
	}
}

func TestVisualLineCountWrapsOnWidth(t *testing.T) {
	tm := New()
	tm.PushOutput("0123456789", false, NoColor, NoColor) // 10 chars
	if got := tm.VisualLineCountFor(4); got != 3 {
		t.Fatalf("VisualLineCountFor(4) = %d, want 3 (ceil(10/4))", got)
	}
}

func TestSetScrollClampsToMaxScroll(t *testing.T) {
	tm := New()
	tm.SetView(2, 10)
	for i := 0; i < 10; i++ {
		tm.PushOutput("x", true, NoColor, NoColor)
	}
	tm.SetScroll(1_000_000)
	if tm.Scroll() != tm.MaxScroll() {
		t.Fatalf("Scroll() = %d, want clamped to MaxScroll() %d", tm.Scroll(), tm.MaxScroll())
	}
}
