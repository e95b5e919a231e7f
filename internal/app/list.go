package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/drivermatch/internal/detect"
	"github.com/blackwell-systems/drivermatch/internal/output"
)

var (
	listJSON     bool
	listFreeOnly bool

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List available driver packages",
		Long: `List the driver packages available for this system, one row per
package, with license and origin flags and the device or plugin that
requires it.`,
		Example: `  drivermatch list
  drivermatch list --free-only
  drivermatch list --json`,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON")
	listCmd.Flags().BoolVar(&listFreeOnly, "free-only", false, "only show free drivers")
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	packages := s.detector.DriverPackages(cmd.Context(), s.snapshot)
	if listFreeOnly {
		packages = freeOnly(packages)
	}

	if listJSON {
		return output.WriteJSON(cmd.OutOrStdout(), packages)
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderPackageTable(packages))
	return nil
}

func freeOnly(packages map[string]*detect.DriverInfo) map[string]*detect.DriverInfo {
	free := make(map[string]*detect.DriverInfo)
	for name, info := range packages {
		if info.Free {
			free[name] = info
		}
	}
	return free
}
