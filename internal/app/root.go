package app

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	catalogFlag string
	verbose     bool

	// RootCmd is the root command for drivermatch
	RootCmd = &cobra.Command{
		Use:   "drivermatch",
		Short: "Find the driver packages this system's hardware needs",
		Long: `drivermatch matches the hardware found in sysfs against the modalias
declarations of the packages in a repository catalog, and reports which
proprietary or third-party driver packages each device can use.

For families of mutually exclusive drivers, such as the NVIDIA kmod
variants, exactly one package is marked as recommended. Free drivers shipped
with the OS are listed as builtin alternatives.

Quick Start:
  1. drivermatch catalog import repo-manifest.yaml
  2. drivermatch devices
  3. drivermatch autoinstall

Examples:
  # Show drivers per device
  drivermatch devices

  # Machine-readable output
  drivermatch devices --json

  # Packages an installer may install unattended
  drivermatch autoinstall

  # Check the environment
  drivermatch doctor`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/drivermatch/config.yaml or /etc/drivermatch/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&catalogFlag, "catalog", "", "repository catalog path (overrides config and $DRIVERMATCH_CATALOG)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(devicesCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(autoinstallCmd)
	RootCmd.AddCommand(modaliasesCmd)
	RootCmd.AddCommand(catalogCmd)
	RootCmd.AddCommand(doctorCmd)
}

// Execute runs the root command. Cancelling ctx stops running detect
// plugins.
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}
