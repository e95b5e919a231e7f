package app

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/drivermatch/internal/modprobe"
	"github.com/blackwell-systems/drivermatch/internal/plugin"
	"github.com/blackwell-systems/drivermatch/internal/policy"
	"github.com/blackwell-systems/drivermatch/internal/sysfs"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues with the detection environment",
	Long: `Runs diagnostic checks on everything driver detection depends on.

Checks:
  • Config file parses
  • Catalog exists and holds packages
  • sysfs exposes devices with modaliases
  • Hardware ID database is present
  • X server video ABI can be determined
  • Detect plugins that will run
  • Kernel module probe in use`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Running drivermatch diagnostics...")
	fmt.Fprintln(out)

	// Critical issues make the command fail; warnings only degrade results.
	criticalIssues := 0
	warningIssues := 0

	// Check 1: config
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(out, "✗ Config error:", err)
		return errors.New("diagnostics failed")
	}
	if cfg.Path != "" {
		fmt.Fprintln(out, "✓ Config loaded:", cfg.Path)
	} else {
		fmt.Fprintln(out, "✓ No config file, using defaults")
	}

	// Check 2: catalog
	logger := newLogger(cmd.ErrOrStderr())
	cat, err := openCatalog(cfg.Catalog)
	if err != nil {
		fmt.Fprintln(out, "✗ Catalog unavailable:", err)
		fmt.Fprintln(out, "  Action: Run 'drivermatch catalog import <manifest.yaml>'")
		criticalIssues++
	} else {
		defer cat.Close()
		snapshot, err := cat.Load("")
		switch {
		case err != nil:
			fmt.Fprintln(out, "✗ Cannot read catalog:", err)
			criticalIssues++
		case snapshot.Len() == 0:
			fmt.Fprintln(out, "⚠ Catalog is empty:", cfg.Catalog)
			warningIssues++
		default:
			fmt.Fprintf(out, "✓ Catalog: %d packages for %s (%s)\n", snapshot.Len(), snapshot.Arch(), cfg.Catalog)

			// Check 5: X server ABI, needs the catalog
			abi := &policy.ABIChecker{Query: snapshot, XorgLog: cfg.XorgLog, Logger: logger}
			token, found := abi.CurrentABI()
			switch {
			case !found:
				fmt.Fprintf(out, "⚠ %s not in catalog, graphics driver ABI is not checked\n", policy.XServerPackage)
				warningIssues++
			case token == "":
				fmt.Fprintf(out, "⚠ %s provides no video ABI, graphics drivers requiring one are hidden\n", policy.XServerPackage)
				warningIssues++
			default:
				fmt.Fprintln(out, "✓ X server video ABI:", token)
			}
		}
	}

	// Check 3: sysfs
	devices := sysfs.Devices(cfg.SysfsRoot, logger)
	if len(devices) == 0 {
		fmt.Fprintln(out, "⚠ No devices with a modalias under", cfg.SysfsRoot)
		warningIssues++
	} else {
		fmt.Fprintf(out, "✓ %d devices with modaliases under %s\n", len(devices), cfg.SysfsRoot)
	}

	// Check 4: hardware id database
	pciIDs := filepath.Join(cfg.HwdataDir, "pci.ids")
	if _, err := os.Stat(pciIDs); err != nil {
		fmt.Fprintln(out, "⚠ No PCI ID database at", pciIDs)
		fmt.Fprintln(out, "  Vendor and model names will not be shown")
		warningIssues++
	} else {
		fmt.Fprintln(out, "✓ Hardware ID database:", cfg.HwdataDir)
	}

	// Check 6: plugins
	loader := &plugin.Loader{Dir: cfg.DetectDir, Logger: logger}
	execPlugins := loader.Detectors()
	if _, err := os.Stat(cfg.DetectDir); err != nil {
		fmt.Fprintln(out, "✓ No detect plugin directory at", cfg.DetectDir)
	} else {
		fmt.Fprintf(out, "✓ %d detect plugins in %s\n", len(execPlugins), cfg.DetectDir)
		for _, d := range execPlugins {
			fmt.Fprintln(out, "  -", d.Name())
		}
	}

	// Check 7: module probe
	if path, err := exec.LookPath("modinfo"); err == nil {
		fmt.Fprintln(out, "✓ Module probe: modinfo", path)
	} else if release, err := modprobe.KernelRelease(); err == nil {
		fmt.Fprintf(out, "⚠ modinfo not found, reading /lib/modules/%s/modules.dep\n", release)
		warningIssues++
	} else {
		fmt.Fprintln(out, "⚠ No module probe available, manual installs are not detected:", err)
		warningIssues++
	}

	fmt.Fprintln(out)
	switch {
	case criticalIssues > 0:
		fmt.Fprintf(out, "Found %d critical issue(s) and %d warning(s).\n", criticalIssues, warningIssues)
		return errors.New("diagnostics failed")
	case warningIssues > 0:
		fmt.Fprintf(out, "Found %d warning(s). Detection works with reduced results.\n", warningIssues)
	default:
		fmt.Fprintln(out, "All checks passed!")
	}
	return nil
}
