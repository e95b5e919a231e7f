package app

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/drivermatch/internal/detect"
)

var autoinstallCmd = &cobra.Command{
	Use:   "autoinstall",
	Short: "Print driver packages suitable for unattended installation",
	Long: `Print, one per line, the available driver packages that an installer may
install without asking: drivers for hardware that has no usable free
alternative. Of a family of alternatives only the recommended one is printed.`,
	Example: `  dnf install $(drivermatch autoinstall)`,
	Args:    cobra.NoArgs,
	RunE:    runAutoinstall,
}

func runAutoinstall(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	packages := detect.AutoInstallFilter(s.detector.DriverPackages(cmd.Context(), s.snapshot))

	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
