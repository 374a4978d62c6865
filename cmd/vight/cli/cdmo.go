package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/axiomata/vight/compositor"
	"github.com/axiomata/vight/demo"
	"github.com/axiomata/vight/internal/hardware"
	"github.com/axiomata/vight/memory"
	"github.com/spf13/cobra"
)

var cdmoDuration time.Duration

var cdmoCmd = &cobra.Command{
	Use:   "cdmo",
	Short: "Run the DemoDriver compositor exemplar standalone and render it to the terminal",
	RunE:  runCdmo,
}

func init() {
	cdmoCmd.Flags().DurationVar(&cdmoDuration, "duration", 5*time.Second, "how long to animate before exiting")
}

func runCdmo(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	registry := memory.NewRegistry(1 << 24)
	comp := compositor.NewCompositor(registry, cfg.Screen.Width, cfg.Screen.Height)
	driver := demo.New(comp, registry)

	if err := driver.Setup(cfg.DemoDelayTicks, 0); err != nil {
		return fmt.Errorf("cdmo: %w", err)
	}
	defer driver.Shutdown()

	deadline := time.Now().Add(cdmoDuration)
	var tick uint64
	for time.Now().Before(deadline) {
		driver.Tick(tick)
		comp.Present()

		width, height, bpp, ok := comp.DisplayBufferStats()
		if ok {
			hardware.RenderFramebuffer(os.Stdout, comp.Framebuffer(), width, height, bpp)
		}

		tick++
		time.Sleep(tickInterval)
	}
	return nil
}
