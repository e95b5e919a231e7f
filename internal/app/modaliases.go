package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/drivermatch/internal/output"
	"github.com/blackwell-systems/drivermatch/internal/sysfs"
)

var modaliasesCmd = &cobra.Command{
	Use:   "modaliases",
	Short: "Show the system's modaliases and the packages declaring them",
	Long: `List every device modalias found in sysfs together with the catalog
packages whose modalias patterns match it, before any policy filtering.
Useful to debug why a driver is or is not offered.`,
	Args: cobra.NoArgs,
	RunE: runModaliases,
}

func runModaliases(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ix := s.index.Get(s.snapshot)
	var rows []output.ModaliasRow
	for _, dev := range sysfs.Devices(s.cfg.SysfsRoot, s.logger) {
		rows = append(rows, output.ModaliasRow{
			Path:     dev.Path,
			Modalias: dev.Modalias,
			Packages: ix.Candidates(dev.Modalias),
		})
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderModaliasTable(rows))
	return nil
}
