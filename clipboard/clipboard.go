// Package clipboard implements the process-wide cut/copy/paste text
// slot, translated from original_source/kernel/src/clipboard.rs.
package clipboard

import "sync"

// Clipboard is a mutex-guarded single text slot shared by every
// terminal/editor surface in the process.
type Clipboard struct {
	mu   sync.Mutex
	text string
}

// New returns an empty Clipboard.
func New() *Clipboard {
	return &Clipboard{}
}

// SetText replaces the clipboard contents.
func (c *Clipboard) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

// Text returns the current clipboard contents.
func (c *Clipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// PasteEvent is text arriving from outside the normal keystroke path —
// the same role gdamore-tcell's EventPaste plays for bracketed-paste
// sequences — shaped so a terminal/editor consumer can treat a
// clipboard paste as one atomic insertion rather than a sequence of
// individual key events. The keyboard driver does not produce it: the
// desktop loop in cmd/vight handles Ctrl+V by appending Text() directly.
type PasteEvent struct {
	Text string
}
