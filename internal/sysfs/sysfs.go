// Package sysfs enumerates hardware devices from the Linux sysfs tree and
// reads the per-device attribute files that driver detection needs.
//
// Nothing here spawns processes. Unreadable attribute files are logged and
// the device skipped; enumeration itself never fails.
package sysfs

import (
	"bufio"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultRoot is the sysfs mount point used when SYSFS_PATH is unset.
const DefaultRoot = "/sys"

// Device is one device node carrying a modalias.
type Device struct {
	Modalias string
	Path     string // sysfs directory of the device
}

// Root returns the sysfs root, honouring $SYSFS_PATH (libudev compatible).
func Root() string {
	if root := os.Getenv("SYSFS_PATH"); root != "" {
		return root
	}
	return DefaultRoot
}

// Enumerate walks <root>/devices and returns a device path -> modalias map.
//
// Devices whose driver is statically built into the kernel (a "driver"
// symlink without a "driver/module" symlink) are left out: their driver
// cannot be replaced by a package.
func Enumerate(root string, logger *slog.Logger) map[string]string {
	if logger == nil {
		logger = slog.Default()
	}

	devices := make(map[string]string)
	base := filepath.Join(root, "devices")

	walkErr := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("cannot read sysfs directory", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		modalias, ok := readModalias(path, logger)
		if !ok || modalias == "" {
			return nil
		}

		if isBuiltinDriver(path) {
			return nil
		}

		devices[path] = modalias
		return nil
	})
	if walkErr != nil {
		logger.Warn("sysfs walk incomplete", "root", base, "error", walkErr)
	}

	return devices
}

// Devices returns the result of Enumerate as a slice sorted by path, which
// gives callers a deterministic iteration order.
func Devices(root string, logger *slog.Logger) []Device {
	m := Enumerate(root, logger)

	devices := make([]Device, 0, len(m))
	for path, modalias := range m {
		devices = append(devices, Device{Modalias: modalias, Path: path})
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Path < devices[j].Path
	})
	return devices
}

// readModalias returns the modalias of the device directory, if it has one.
func readModalias(dir string, logger *slog.Logger) (string, bool) {
	modaliasFile := filepath.Join(dir, "modalias")
	if _, err := os.Stat(modaliasFile); err == nil {
		data, err := os.ReadFile(modaliasFile)
		if err != nil {
			logger.Warn("cannot read modalias", "path", dir, "error", err)
			return "", false
		}
		return strings.TrimSpace(string(data)), true
	}

	// Devices on the SSB bus only mention their modalias in uevent.
	if strings.Contains(dir, "ssb") {
		ueventFile := filepath.Join(dir, "uevent")
		if _, err := os.Stat(ueventFile); err != nil {
			return "", false
		}
		modalias, err := parseUeventModalias(ueventFile)
		if err != nil {
			logger.Warn("cannot read uevent", "path", dir, "error", err)
			return "", false
		}
		return modalias, modalias != ""
	}

	return "", false
}

// parseUeventModalias returns the value of the first MODALIAS= line.
func parseUeventModalias(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if value, ok := strings.CutPrefix(line, "MODALIAS="); ok {
			return strings.TrimSpace(value), nil
		}
	}
	return "", scanner.Err()
}

// isBuiltinDriver reports whether the device is bound to a driver that has
// no loadable module behind it.
func isBuiltinDriver(dir string) bool {
	driverLink := filepath.Join(dir, "driver")
	if !isSymlink(driverLink) {
		return false
	}
	return !isSymlink(filepath.Join(driverLink, "module"))
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

// ReadHexAttr returns the four hex digits following the "0x" prefix of a
// sysfs id attribute such as "vendor" ("0x10de\n" -> "10de").
func ReadHexAttr(devicePath, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(devicePath, name))
	if err != nil {
		return "", err
	}
	if len(data) < 6 {
		return "", fmt.Errorf("attribute %s/%s too short: %q", devicePath, name, data)
	}
	return string(data[2:6]), nil
}
