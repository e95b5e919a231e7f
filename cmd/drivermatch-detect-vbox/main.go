// Command drivermatch-detect-vbox is a detect plugin for VirtualBox guests.
// drivermatch runs it from its detect directory with DRIVERMATCH_CATALOG and
// DRIVERMATCH_ARCH set, and reads a JSON array of package names from stdout.
//
// Install it into /usr/share/drivermatch/detect when the in-process
// VirtualBox detector is disabled, or use it as a template for new plugins.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blackwell-systems/drivermatch/internal/catalog"
	"github.com/blackwell-systems/drivermatch/internal/plugin"
	"github.com/blackwell-systems/drivermatch/internal/sysfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "drivermatch-detect-vbox: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	path := os.Getenv(plugin.EnvCatalog)
	if path == "" {
		path = catalog.Path()
	}

	cat, err := catalog.New(path)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer cat.Close()

	snapshot, err := cat.Load(os.Getenv(plugin.EnvArch))
	if err != nil {
		return err
	}

	return plugin.Serve(ctx, &plugin.VirtualBoxDetector{SysfsRoot: sysfs.Root()}, snapshot, os.Stdout)
}
