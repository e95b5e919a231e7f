package app

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/drivermatch/internal/output"
)

var (
	devicesJSON bool

	devicesCmd = &cobra.Command{
		Use:   "devices",
		Short: "Show available driver packages per device",
		Long: `List every device that has driver packages available, together with
its modalias, vendor and model names, and the candidate drivers.

Devices are keyed by sysfs path; packages found by detect plugins are listed
under the plugin name. A device is flagged as manually installed when none of
its drivers are installed as packages but each one's kernel module is present.`,
		Example: `  # Human-readable listing
  drivermatch devices

  # JSON for scripts
  drivermatch devices --json`,
		RunE: runDevices,
	}
)

func init() {
	devicesCmd.Flags().BoolVar(&devicesJSON, "json", false, "output JSON")
}

func runDevices(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var spinner *output.Spinner
	if !devicesJSON && isatty.IsTerminal(os.Stderr.Fd()) {
		spinner = output.NewSpinner(cmd.ErrOrStderr(), "Detecting drivers")
		spinner.Start()
	}

	devices := s.detector.DeviceDrivers(cmd.Context(), s.snapshot)

	if spinner != nil {
		spinner.StopWithMessage(fmt.Sprintf("Found drivers for %d devices", len(devices)))
	}

	if devicesJSON {
		return output.WriteJSON(cmd.OutOrStdout(), devices)
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderDeviceTable(devices))
	return nil
}
