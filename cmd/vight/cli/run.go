package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/axiomata/vight/clipboard"
	"github.com/axiomata/vight/compositor"
	"github.com/axiomata/vight/demo"
	"github.com/axiomata/vight/editor"
	"github.com/axiomata/vight/internal/config"
	"github.com/axiomata/vight/internal/hardware"
	"github.com/axiomata/vight/internal/klog"
	"github.com/axiomata/vight/keyboard"
	"github.com/axiomata/vight/memory"
	"github.com/axiomata/vight/mouse"
	"github.com/axiomata/vight/ps2"
	"github.com/axiomata/vight/terminal"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive desktop loop against the current terminal",
	RunE:  runDesktop,
}

// tickInterval is the idle loop's poll period: the hosted stand-in for
// the original's hlt-until-next-interrupt idle wait (spec.md's
// Suspension/blocking note).
const tickInterval = 16 * time.Millisecond

func runDesktop(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("run: stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("run: entering raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	nonBlocking := klog.NewNonBlocking(klog.Options{Writer: os.Stderr, Level: slog.LevelDebug})

	vports := hardware.NewVirtualPorts(nonBlocking)
	ctrl := ps2.New(vports)
	if !ctrl.InitController() {
		logger.Warn("ps2: controller init degraded, continuing without acked config bits")
	}

	mouseDrv := mouse.New(ctrl, vports)
	kbDrv := keyboard.New(ctrl, vports, mouseDrv)
	if !kbDrv.Init() {
		logger.Warn("keyboard: init degraded")
	}
	if !mouseDrv.Init() {
		logger.Warn("mouse: init degraded")
	}
	mouseDrv.SetBounds(cfg.Screen.Width, cfg.Screen.Height)

	registry := memory.NewRegistry(1 << 24)
	comp := compositor.NewCompositor(registry, cfg.Screen.Width, cfg.Screen.Height)
	demoDrv := demo.New(comp, registry)

	view := terminal.New()
	view.SetView(cfg.View.Rows, cfg.View.Cols)
	view.PushOutput("vight desktop simulator ready. Ctrl+C to quit, Start to toggle the demo.", true, terminal.NoColor, terminal.NoColor)

	clip := clipboard.New()
	fs := newOSFilesystem(bootDir)
	ed := editor.New(fs)

	feed := hardware.NewInputFeed(os.Stdin, kbDrv, mouseDrv, nonBlocking)
	go feed.Run()

	loop := &desktopLoop{
		cfg:      cfg,
		keyboard: kbDrv,
		mouse:    mouseDrv,
		comp:     comp,
		demo:     demoDrv,
		term:     view,
		clip:     clip,
		editor:   ed,
		out:      os.Stdout,
	}
	loop.run()
	return nil
}

// desktopLoop is the foreground idle loop: drain decoded key events,
// apply mouse wheel deltas to the terminal scrollback, tick the demo,
// present the compositor, and render whichever surface currently has
// focus — the terminal/editor text view, or the compositor framebuffer
// while the demo is toggled on.
type desktopLoop struct {
	cfg      *config.Config
	keyboard *keyboard.Driver
	mouse    *mouse.Driver
	comp     *compositor.Compositor
	demo     *demo.Driver
	term     *terminal.Terminal
	clip     *clipboard.Clipboard
	editor   *editor.Editor
	out      *os.File

	line []rune
	tick uint64
	quit bool
}

func (l *desktopLoop) run() {
	for !l.quit {
		l.drainKeyboard()
		if delta := l.mouse.TakeWheelDelta(); delta != 0 {
			l.term.ScrollBy(-delta)
		}
		l.demo.Tick(l.tick)
		l.comp.Present()
		l.render()
		l.tick++
		time.Sleep(tickInterval)
	}
	fmt.Fprint(l.out, "\x1b[2J\x1b[H")
}

func (l *desktopLoop) drainKeyboard() {
	for {
		ev, ok := l.keyboard.PollEvent()
		if !ok {
			return
		}
		l.handleEvent(ev)
	}
}

func (l *desktopLoop) handleEvent(ev keyboard.Event) {
	switch ev.Key {
	case keyboard.KeyChar:
		l.line = append(l.line, ev.Rune)
	case keyboard.KeyBackspace, keyboard.KeyCtrlBackspace:
		if len(l.line) > 0 {
			l.line = l.line[:len(l.line)-1]
		}
	case keyboard.KeyEnter:
		l.submitLine()
	case keyboard.KeyCtrlV:
		l.line = append(l.line, []rune(l.clip.Text())...)
	case keyboard.KeyCtrlC:
		if !l.editor.Active() {
			l.quit = true
		}
	case keyboard.KeyStart:
		if _, err := l.demo.Toggle(2, l.tick); err != nil {
			l.term.PushOutput("demo: "+err.Error(), true, terminal.NoColor, terminal.NoColor)
		}
	}
}

func (l *desktopLoop) submitLine() {
	text := string(l.line)
	l.line = l.line[:0]

	if l.editor.Active() {
		res, err := l.editor.HandleInput(text)
		if err != nil {
			l.term.PushOutput("edit: "+err.Error(), true, terminal.NoColor, terminal.NoColor)
			return
		}
		for _, line := range res.Lines {
			l.term.PushOutput(line, true, terminal.NoColor, terminal.NoColor)
		}
		return
	}

	l.term.PushOutput("$ "+text, true, terminal.NoColor, terminal.NoColor)
	switch {
	case text == "exit" || text == "quit":
		l.quit = true
	case strings.HasPrefix(text, "edit "):
		filename := strings.TrimSpace(strings.TrimPrefix(text, "edit "))
		buffer, err := l.editor.Open(filename)
		if err != nil {
			l.term.PushOutput("edit: "+err.Error(), true, terminal.NoColor, terminal.NoColor)
			return
		}
		for _, line := range buffer {
			l.term.PushOutput(line, true, terminal.NoColor, terminal.NoColor)
		}
	case strings.HasPrefix(text, "copy "):
		l.clip.SetText(strings.TrimPrefix(text, "copy "))
	default:
		if text != "" {
			l.term.PushOutput("unrecognized command: "+text, true, terminal.NoColor, terminal.NoColor)
		}
	}
}

func (l *desktopLoop) render() {
	if l.demo.Active() {
		width, height, bpp, ok := l.comp.DisplayBufferStats()
		if ok {
			hardware.RenderFramebuffer(l.out, l.comp.Framebuffer(), width, height, bpp)
		}
		return
	}

	fmt.Fprint(l.out, "\x1b[H\x1b[2J")
	lines := l.term.Lines()
	start := 0
	if len(lines) > l.cfg.View.Rows {
		start = len(lines) - l.cfg.View.Rows
	}
	for _, ln := range lines[start:] {
		fmt.Fprintf(l.out, "%s\r\n", ln.Text)
	}
	fmt.Fprintf(l.out, "> %s", string(l.line))
}
