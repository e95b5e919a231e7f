// Package output renders detection results for the terminal.
//
// This package includes:
//   - Table rendering for per-device and per-package driver results
//   - JSON encoding of the same results for scripting
//   - A progress bar and a spinner for long-running steps
//
// Tables use plain ASCII columns; color is only emitted when stdout is a
// terminal and NO_COLOR is unset.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/drivermatch/internal/detect"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderDeviceTable renders one block per device listing its drivers.
// Devices are ordered by key, drivers by name.
func RenderDeviceTable(devices map[string]*detect.Device) string {
	if len(devices) == 0 {
		return "No devices need additional drivers.\n"
	}

	keys := make([]string, 0, len(devices))
	for key := range devices {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, key := range keys {
		dev := devices[key]
		if i > 0 {
			sb.WriteString("\n")
		}

		sb.WriteString(fmt.Sprintf("== %s ==\n", key))
		if dev.Modalias != "" {
			sb.WriteString(fmt.Sprintf("modalias : %s\n", dev.Modalias))
		}
		if dev.Vendor != nil {
			sb.WriteString(fmt.Sprintf("vendor   : %s\n", *dev.Vendor))
		}
		if dev.Model != nil {
			sb.WriteString(fmt.Sprintf("model    : %s\n", *dev.Model))
		}
		if dev.ManualInstall {
			sb.WriteString(fmt.Sprintf("manual   : %s\n", colorize(colorYellow, "driver installed outside the package manager")))
		}

		names := make([]string, 0, len(dev.Drivers))
		for name := range dev.Drivers {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			sb.WriteString(fmt.Sprintf("driver   : %-32s %s\n", name, driverFlags(dev.Drivers[name])))
		}
	}
	return sb.String()
}

func driverFlags(d *detect.Driver) string {
	var flags []string
	if d.Free {
		flags = append(flags, "free")
	} else {
		flags = append(flags, "non-free")
	}
	if !d.FromDistro {
		flags = append(flags, "third-party")
	}
	if d.Builtin {
		flags = append(flags, colorize(colorGray, "builtin"))
	}
	if d.Recommended != nil && *d.Recommended {
		flags = append(flags, colorize(colorGreen, "recommended"))
	}
	return strings.Join(flags, " ")
}

// RenderPackageTable renders one row per driver package.
func RenderPackageTable(packages map[string]*detect.DriverInfo) string {
	if len(packages) == 0 {
		return "No driver packages found.\n"
	}

	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-32s %-5s %-6s %-11s %s\n",
		"Package", "Free", "Distro", "Recommended", "Source"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, name := range names {
		info := packages[name]
		sb.WriteString(fmt.Sprintf("%-32s %-5s %-6s %-11s %s\n",
			truncate(name, 32),
			yesNo(info.Free),
			yesNo(info.FromDistro),
			formatRecommended(info.Recommended),
			formatSource(info)))
	}
	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatRecommended(r *bool) string {
	if r == nil {
		return "—"
	}
	return yesNo(*r)
}

func formatSource(info *detect.DriverInfo) string {
	if info.Plugin != "" {
		return "plugin " + info.Plugin
	}
	source := info.Modalias
	if info.Vendor != nil && info.Model != nil {
		source = fmt.Sprintf("%s %s", *info.Vendor, *info.Model)
	}
	return source
}

// ModaliasRow is one hardware modalias with the packages declaring it.
type ModaliasRow struct {
	Path     string
	Modalias string
	Packages []string
}

// RenderModaliasTable renders the system modaliases and their matches.
func RenderModaliasTable(rows []ModaliasRow) string {
	if len(rows) == 0 {
		return "No modaliases found.\n"
	}

	var sb strings.Builder
	for _, row := range rows {
		packages := colorize(colorGray, "-")
		if len(row.Packages) > 0 {
			packages = strings.Join(row.Packages, ", ")
		}
		sb.WriteString(fmt.Sprintf("%s\n  %s\n  -> %s\n", row.Path, row.Modalias, packages))
	}
	return sb.String()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
