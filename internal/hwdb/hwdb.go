// Package hwdb resolves human readable vendor and model names for devices
// from the hwdata identifier databases (pci.ids, usb.ids, ...).
package hwdb

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/drivermatch/internal/modalias"
	"github.com/blackwell-systems/drivermatch/internal/sysfs"
)

// DefaultDir holds the <bus>.ids databases.
const DefaultDir = "/usr/share/hwdata"

// Unknown is reported for names that the database does not list.
const Unknown = "Unknown"

// DB looks up names in the identifier databases under Dir.
type DB struct {
	Dir    string
	Logger *slog.Logger
}

// New creates a DB reading from dir; empty dir means DefaultDir.
func New(dir string, logger *slog.Logger) *DB {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{Dir: dir, Logger: logger}
}

// Path returns the database file for the bus of a modalias.
func (db *DB) Path(alias string) string {
	return filepath.Join(db.Dir, modalias.Bus(alias)+".ids")
}

// Lookup returns the vendor and model names for the device at devicePath.
//
// ok is false when there is no database for the bus at all. Otherwise names
// the database does not list are reported as Unknown.
func (db *DB) Lookup(alias, devicePath string) (vendor, model string, ok bool) {
	path := db.Path(alias)
	f, err := os.Open(path)
	if err != nil {
		db.Logger.Debug("identifier database unavailable", "path", path, "error", err)
		return "", "", false
	}
	defer f.Close()

	// Missing attributes leave the codes blank; the lookup still runs.
	// Only vendor and device select the database entry.
	ids := readIDs(devicePath)
	vendorID, deviceID := ids.vendor, ids.device

	vendor, model = Unknown, Unknown
	if vendorID == "" {
		return vendor, model, true
	}

	foundVendor := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !foundVendor {
			if strings.HasPrefix(line, vendorID) {
				foundVendor = true
				vendor = strings.TrimSpace(line[len(vendorID):])
			}
			continue
		}

		// Past the vendor's block.
		if line[0] != '\t' {
			break
		}

		line = line[1:]
		if deviceID != "" && strings.HasPrefix(line, deviceID) {
			model = strings.TrimSpace(line[len(deviceID):])
			break
		}
	}
	if err := scanner.Err(); err != nil {
		db.Logger.Warn("error reading identifier database", "path", path, "error", err)
	}

	db.Logger.Debug("resolved device names",
		"device", devicePath, "modalias", alias, "vendor", vendor, "model", model,
		"subsystem_vendor", ids.subsystemVendor, "subsystem_device", ids.subsystemDevice)
	return vendor, model, true
}

// deviceIDs are the identifier attributes of a device, lower-case hex
// without the 0x prefix. Unreadable attributes are empty.
type deviceIDs struct {
	vendor          string
	device          string
	subsystemVendor string
	subsystemDevice string
}

func readIDs(devicePath string) deviceIDs {
	var ids deviceIDs
	ids.vendor, _ = sysfs.ReadHexAttr(devicePath, "vendor")
	ids.device, _ = sysfs.ReadHexAttr(devicePath, "device")
	ids.subsystemVendor, _ = sysfs.ReadHexAttr(devicePath, "subsystem_vendor")
	ids.subsystemDevice, _ = sysfs.ReadHexAttr(devicePath, "subsystem_device")
	return ids
}
