// Package klog wraps log/slog with a fan-out handler, following
// majorcontext-moat's internal/log package. It adds one twist that
// moat has no need for: a non-blocking handler variant for use from
// the simulated-interrupt goroutine (hardware.InputFeed's reader), modeled
// on original_source/kernel/src/serial.rs's write vs. write_try split
// — write_try drops the message rather than block if the serial port
// mutex is already held, and the non-blocking handler here does the
// same for its sinks.
package klog

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Options configures the logger returned by New.
type Options struct {
	// Writer receives JSON-formatted records. It has no default: the
	// caller supplies it (typically os.Stderr); klog never opens files
	// itself.
	Writer io.Writer
	// Level is the minimum level that reaches Writer.
	Level slog.Level
}

// New builds a blocking *slog.Logger: every call to Handle acquires
// the fan-out's lock and waits for it, matching serial::write.
func New(opts Options) *slog.Logger {
	h := &fanOutHandler{sinks: []sink{{w: opts.Writer, opts: &slog.HandlerOptions{Level: opts.Level}}}}
	return slog.New(h)
}

// NewMulti builds a blocking *slog.Logger that fans out to every
// writer in opts, each with its own level floor — the general form of
// majorcontext-moat's multiHandler (stderr handler plus an optional
// debug-file handler).
func NewMulti(opts ...Options) *slog.Logger {
	h := &fanOutHandler{}
	for _, o := range opts {
		h.sinks = append(h.sinks, sink{w: o.Writer, opts: &slog.HandlerOptions{Level: o.Level}})
	}
	return slog.New(h)
}

// NewNonBlocking builds a *slog.Logger whose Handle calls never block:
// if the underlying fan-out's lock is already held by a concurrent
// Handle, the record is dropped instead of waited on. This is the
// handler the scancode reader goroutine logs through, mirroring
// write_try's try-lock-and-drop contract — logging must never become
// a second source of interrupt-context latency.
func NewNonBlocking(opts ...Options) *slog.Logger {
	inner := &fanOutHandler{}
	for _, o := range opts {
		inner.sinks = append(inner.sinks, sink{w: o.Writer, opts: &slog.HandlerOptions{Level: o.Level}})
	}
	return slog.New(&tryLockHandler{inner: inner})
}

type sink struct {
	w    io.Writer
	opts *slog.HandlerOptions
}

// fanOutHandler dispatches one record to every configured sink's own
// slog.NewJSONHandler, matching moat's multiHandler.
type fanOutHandler struct {
	mu    sync.Mutex
	sinks []sink
}

func (f *fanOutHandler) handlers() []slog.Handler {
	hs := make([]slog.Handler, len(f.sinks))
	for i, s := range f.sinks {
		hs[i] = slog.NewJSONHandler(s.w, s.opts)
	}
	return hs
}

func (f *fanOutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers() {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanOutHandler) Handle(ctx context.Context, r slog.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.handlers() {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *fanOutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &attrHandler{base: f, attrs: attrs}
}

func (f *fanOutHandler) WithGroup(name string) slog.Handler {
	return &attrHandler{base: f, group: name}
}

// attrHandler carries WithAttrs state applied on top of a
// fanOutHandler or tryLockHandler before each Handle call, since the
// fan-out builds its per-sink slog.Handler lazily from sinks rather
// than holding a fixed handler slice. The WithGroup name is stored but
// not applied: records and attrs are emitted without group nesting.
type attrHandler struct {
	base  slog.Handler
	attrs []slog.Attr
	group string
}

func (a *attrHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return a.base.Enabled(ctx, level)
}

func (a *attrHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(a.attrs) > 0 {
		r.AddAttrs(a.attrs...)
	}
	return a.base.Handle(ctx, r)
}

func (a *attrHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, a.attrs...), attrs...)
	return &attrHandler{base: a.base, attrs: merged, group: a.group}
}

func (a *attrHandler) WithGroup(name string) slog.Handler {
	return &attrHandler{base: a.base, attrs: a.attrs, group: name}
}

// tryLockHandler wraps a fanOutHandler so Handle never blocks: it
// attempts the fan-out's lock with TryLock and silently drops the
// record on contention, the slog-handler equivalent of
// serial::write_try's Mutex::try_lock.
type tryLockHandler struct {
	inner *fanOutHandler
}

func (t *tryLockHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return t.inner.Enabled(ctx, level)
}

func (t *tryLockHandler) Handle(ctx context.Context, r slog.Record) error {
	if !t.inner.mu.TryLock() {
		return nil
	}
	defer t.inner.mu.Unlock()
	for _, h := range t.inner.handlers() {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *tryLockHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &attrHandler{base: t, attrs: attrs}
}

func (t *tryLockHandler) WithGroup(name string) slog.Handler {
	return &attrHandler{base: t, group: name}
}
