// Package config loads vight.yaml, the boot manifest: screen
// dimensions, terminal view size, PS/2 polling budget and default
// arena quota. It follows majorcontext-moat's internal/config.Load
// shape: read the file if present, unmarshal with yaml.v3, fill in
// defaults, validate. A missing file is not an error — Vight boots
// with built-in defaults the way a kernel falls back to a default
// framebuffer mode when no boot parameters were passed.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the parsed vight.yaml manifest.
type Config struct {
	// Screen is the simulated framebuffer size in pixels.
	Screen ScreenConfig `yaml:"screen,omitempty"`
	// View is the terminal's character grid.
	View ViewConfig `yaml:"view,omitempty"`
	// PollBound is the number of status reads a bounded PS/2 wait
	// performs before giving up. Informational at boot time: the
	// live ps2.PollBound busy-poll budget is a compile-time constant
	// (spec.md fixes it at exactly 100,000), so this field documents
	// the value new deployments were tuned against rather than
	// overriding ps2's behavior.
	PollBound int `yaml:"poll_bound,omitempty"`
	// ArenaQuota is a default per-app byte quota for RegisterApp
	// callers that do not compute a bespoke quota for an app. cmd/vight
	// does not read it; the demo computes its own quota.
	ArenaQuota int `yaml:"arena_quota,omitempty"`
	// DemoDelayTicks is the tick interval between DemoDriver frames.
	DemoDelayTicks uint64 `yaml:"demo_delay_ticks,omitempty"`
}

// ScreenConfig is the simulated framebuffer's pixel dimensions.
type ScreenConfig struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

// ViewConfig is the terminal's character grid.
type ViewConfig struct {
	Rows int `yaml:"rows,omitempty"`
	Cols int `yaml:"cols,omitempty"`
}

// Default values used whenever a boot manifest is absent or leaves a
// field unset.
const (
	DefaultScreenWidth   = 800
	DefaultScreenHeight  = 600
	DefaultViewRows      = 40
	DefaultViewCols      = 100
	DefaultPollBound     = 100_000
	DefaultArenaQuota    = 1 << 20
	DefaultDemoDelayTick = 2
)

// Default returns a Config populated entirely with built-in defaults.
func Default() *Config {
	return &Config{
		Screen:         ScreenConfig{Width: DefaultScreenWidth, Height: DefaultScreenHeight},
		View:           ViewConfig{Rows: DefaultViewRows, Cols: DefaultViewCols},
		PollBound:      DefaultPollBound,
		ArenaQuota:     DefaultArenaQuota,
		DemoDelayTicks: DefaultDemoDelayTick,
	}
}

// Load reads vight.yaml from dir. If the file does not exist, Load
// returns Default() with no error — absence of a manifest is the
// normal "boot with defaults" path, not a failure.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "vight.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading vight.yaml: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing vight.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("config: screen dimensions must be positive, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if c.View.Rows <= 0 || c.View.Cols <= 0 {
		return fmt.Errorf("config: view rows/cols must be positive, got %dx%d", c.View.Rows, c.View.Cols)
	}
	if c.PollBound <= 0 {
		return fmt.Errorf("config: poll_bound must be positive, got %d", c.PollBound)
	}
	if c.ArenaQuota <= 0 {
		return fmt.Errorf("config: arena_quota must be positive, got %d", c.ArenaQuota)
	}
	return nil
}
