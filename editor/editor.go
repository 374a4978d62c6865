// Package editor implements the Editor: a line-oriented text editor
// over a Filesystem collaborator, with a colon-command mini-language,
// translated near 1:1 from original_source/kernel/src/editor.rs.
package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrAlreadyOpen is returned by Open when a session is already active.
var ErrAlreadyOpen = errors.New("editor: a session is already open")

// ErrDirty names the unsaved-changes refusal. Commands that refuse to
// discard unsaved changes (:q, :reload) report it as a message line in
// Result.Lines and do not return this value.
var ErrDirty = errors.New("editor: unsaved changes")

const (
	findMaxShown = 40
	printMaxLine = 200
)

// Filesystem is the editor's out-of-scope collaborator, matching
// spec.md §6: ensure_file, canonical_name, read_file, write_file.
type Filesystem interface {
	EnsureFile(name string) (canonical string, err error)
	CanonicalName(name string) (string, error)
	ReadFile(canonical string) (contents string, ok bool)
	WriteFile(name, contents string) error
}

// Session is the EditorSession.
type Session struct {
	filename string
	buffer   []string
	dirty    bool
}

// Editor owns at most one Session at a time, matching spec.md §3's "at
// most one session exists" invariant.
type Editor struct {
	fs      Filesystem
	session *Session
}

// New builds an Editor over the given filesystem collaborator.
func New(fs Filesystem) *Editor {
	return &Editor{fs: fs}
}

// Active reports whether a session is currently open.
func (e *Editor) Active() bool { return e.session != nil }

// Open starts a session on filename, loading its existing contents if
// any. Lines are the file split on '\n'.
func (e *Editor) Open(filename string) ([]string, error) {
	if e.Active() {
		return nil, ErrAlreadyOpen
	}
	canonical, err := e.fs.EnsureFile(filename)
	if err != nil {
		return nil, err
	}
	var buffer []string
	if body, ok := e.fs.ReadFile(canonical); ok && body != "" {
		buffer = strings.Split(body, "\n")
	}
	e.session = &Session{filename: canonical, buffer: buffer}
	return append([]string(nil), buffer...), nil
}

// Result is the console-facing echo of a HandleInput call: zero or
// more lines to print, plus whether the session closed.
type Result struct {
	Lines  []string
	Closed bool
}

func lineResult(closed bool, lines ...string) (Result, error) {
	return Result{Lines: lines, Closed: closed}, nil
}

// HandleInput processes one line of input against the active session:
// plain text is appended as a new buffer line; text starting with ':'
// is dispatched as a colon command. Returns an error only if no
// session is open.
func (e *Editor) HandleInput(input string) (Result, error) {
	s := e.session
	if s == nil {
		return Result{}, errors.New("editor: no active session")
	}
	trimmed := strings.TrimLeft(input, " \t")
	if strings.HasPrefix(trimmed, ":") {
		res, err := e.handleCommandLine(s, strings.TrimPrefix(trimmed, ":"))
		if res.Closed {
			e.session = nil
		}
		return res, err
	}
	s.buffer = append(s.buffer, input)
	s.dirty = true
	return lineResult(false, fmt.Sprintf("%d | %s", len(s.buffer), input))
}

func splitCommand(line string) (cmd, rest string) {
	parts := strings.SplitN(line, " ", 2)
	cmd = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		rest = strings.TrimSpace(parts[1])
	}
	return cmd, rest
}

func (e *Editor) handleCommandLine(s *Session, line string) (Result, error) {
	cmd, rest := splitCommand(line)
	switch cmd {
	case "wq":
		lines, ok := e.save(s, rest, true)
		if ok {
			return lineResult(true, append(lines, "Saved and closed editor.")...)
		}
		return lineResult(false, lines...)
	case "w", "write":
		lines, _ := e.save(s, rest, false)
		return lineResult(false, lines...)
	case "q", "quit":
		if s.dirty {
			return lineResult(false, "Unsaved changes. Use :w to save or :q! to quit anyway.")
		}
		return lineResult(true, "Closed editor.")
	case "q!", "quit!":
		return lineResult(true, "Closed editor (unsaved changes discarded).")
	case "p", "print":
		return lineResult(false, e.showBuffer(s)...)
	case "set":
		return lineResult(false, e.setLine(s, rest)...)
	case "i", "insert":
		return lineResult(false, e.insertLine(s, rest)...)
	case "d", "del", "delete":
		return lineResult(false, e.deleteLine(s, rest)...)
	case "clear":
		s.buffer = nil
		s.dirty = true
		return lineResult(false, "Buffer cleared.", statusLine(s))
	case "find", "search":
		return lineResult(false, e.findInBuffer(s, rest)...)
	case "status", "info":
		return lineResult(false, statusLine(s))
	case "reload":
		return lineResult(false, e.reload(s, false)...)
	case "reload!":
		return lineResult(false, e.reload(s, true)...)
	case "help":
		return lineResult(false, helpLines()...)
	case "":
		return lineResult(false)
	default:
		return lineResult(false, "Unknown editor command. Use :help for a list.")
	}
}

func (e *Editor) save(s *Session, target string, quiet bool) ([]string, bool) {
	nextName := strings.TrimSpace(target)
	if nextName == "" {
		nextName = s.filename
	}
	canonical, err := e.fs.CanonicalName(nextName)
	if err != nil {
		return []string{err.Error()}, false
	}
	body := strings.Join(s.buffer, "\n")
	if err := e.fs.WriteFile(nextName, body); err != nil {
		return []string{err.Error()}, false
	}
	s.filename = canonical
	s.dirty = false
	if quiet {
		return nil, true
	}
	return []string{fmt.Sprintf("Saved %s", s.filename), statusLine(s)}, true
}

func splitLineArg(args string) (idx int, ok bool, text string) {
	parts := strings.SplitN(args, " ", 2)
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false, ""
	}
	if len(parts) > 1 {
		text = parts[1]
	}
	return n, true, text
}

func (e *Editor) setLine(s *Session, args string) []string {
	idx, ok, text := splitLineArg(args)
	if !ok {
		return []string{"Usage: :set <line-number> <text>"}
	}
	if idx == 0 || idx > len(s.buffer) {
		return []string{"Line number out of range."}
	}
	s.buffer[idx-1] = text
	s.dirty = true
	return []string{fmt.Sprintf("Updated line %d", idx), statusLine(s)}
}

func (e *Editor) insertLine(s *Session, args string) []string {
	idx, ok, text := splitLineArg(args)
	if !ok {
		return []string{"Usage: :insert <line-number> <text>"}
	}
	pos := idx - 1
	if pos < 0 {
		pos = 0
	}
	if pos > len(s.buffer) {
		return []string{"Line number out of range."}
	}
	s.buffer = append(s.buffer, "")
	copy(s.buffer[pos+1:], s.buffer[pos:])
	s.buffer[pos] = text
	s.dirty = true
	return []string{fmt.Sprintf("Inserted at line %d", idx), statusLine(s)}
}

func (e *Editor) deleteLine(s *Session, args string) []string {
	field := strings.Fields(args)
	if len(field) == 0 {
		return []string{"Usage: :delete <line-number>"}
	}
	idx, err := strconv.Atoi(field[0])
	if err != nil || idx == 0 || idx > len(s.buffer) {
		if err == nil {
			return []string{"Line number out of range."}
		}
		return []string{"Usage: :delete <line-number>"}
	}
	s.buffer = append(s.buffer[:idx-1], s.buffer[idx:]...)
	s.dirty = true
	return []string{fmt.Sprintf("Deleted line %d", idx), statusLine(s)}
}

func (e *Editor) showBuffer(s *Session) []string {
	if len(s.buffer) == 0 {
		return []string{"(empty buffer)"}
	}
	var out []string
	for i, line := range s.buffer {
		out = append(out, fmt.Sprintf("%4d: %s", i+1, line))
		if i > printMaxLine {
			out = append(out, "... (output truncated)")
			break
		}
	}
	return out
}

func (e *Editor) reload(s *Session, force bool) []string {
	if s.dirty && !force {
		return []string{"Unsaved changes would be lost. Use :reload! to discard them."}
	}
	body, ok := e.fs.ReadFile(s.filename)
	if !ok {
		return []string{"File missing; nothing reloaded."}
	}
	s.buffer = nil
	if body != "" {
		s.buffer = strings.Split(body, "\n")
	}
	s.dirty = false
	return []string{fmt.Sprintf("Reloaded %s", s.filename), statusLine(s)}
}

func (e *Editor) findInBuffer(s *Session, needle string) []string {
	if strings.TrimSpace(needle) == "" {
		return []string{"Usage: :find <text>"}
	}
	query := strings.ToLower(needle)
	var out []string
	hits, shown := 0, 0
	for i, line := range s.buffer {
		if strings.Contains(strings.ToLower(line), query) {
			hits++
			if shown < findMaxShown {
				out = append(out, fmt.Sprintf("%4d: %s", i+1, line))
				shown++
			}
		}
	}
	if hits == 0 {
		return []string{"No matches found."}
	}
	if hits > shown {
		out = append(out, fmt.Sprintf("... %d more match(es) not shown", hits-shown))
	}
	out = append(out, fmt.Sprintf("%d match(es).", hits))
	return out
}

func statusLine(s *Session) string {
	state := "saved"
	if s.dirty {
		state = "unsaved"
	}
	return fmt.Sprintf("%s | %d line(s) | %s", s.filename, len(s.buffer), state)
}

func helpLines() []string {
	return []string{
		"Vight commands:",
		"  :w [name]   - save (optionally save-as)",
		"  :wq         - save and quit",
		"  :q          - quit (warns if unsaved)",
		"  :p          - print buffer with line numbers",
		"  :set N X    - replace line N with text X",
		"  :insert N X - insert text X before line N",
		"  :delete N   - delete line N",
		"  :clear      - empty the buffer",
		"  :find X     - search buffer for X",
		"  :status     - show filename, line count, dirty state",
		"  :reload     - reload from disk (warns if unsaved)",
	}
}
