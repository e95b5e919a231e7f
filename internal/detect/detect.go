// Package detect ties hardware enumeration, repository matching and policy
// together to answer which driver packages this system needs.
package detect

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/blackwell-systems/drivermatch/internal/alternatives"
	"github.com/blackwell-systems/drivermatch/internal/hwdb"
	"github.com/blackwell-systems/drivermatch/internal/modalias"
	"github.com/blackwell-systems/drivermatch/internal/modprobe"
	"github.com/blackwell-systems/drivermatch/internal/plugin"
	"github.com/blackwell-systems/drivermatch/internal/policy"
	"github.com/blackwell-systems/drivermatch/internal/repo"
	"github.com/blackwell-systems/drivermatch/internal/sysfs"
)

// AutoInstallPatterns select packages suitable for unattended installation:
// drivers without a usable free alternative.
var AutoInstallPatterns = []string{"bcmwl*", "pvr-omap*", "virtualbox-guest*", "nvidia-*"}

// builtin is a free driver shipped by default that covers the hardware of a
// proprietary driver family.
type builtin struct {
	suffix      string
	pkg         string
	recommended bool
}

// nouveau is not good enough to be recommended over the proprietary
// driver; radeon is.
var builtins = []builtin{
	{suffix: "kmod-nvidia", pkg: "xorg-x11-drv-nouveau", recommended: false},
	{suffix: "kmod-catalyst", pkg: "xorg-x11-drv-ati", recommended: true},
}

// Detector runs driver detection. All collaborators are injected; a
// Detector holds no per-run state and may be reused.
type Detector struct {
	SysfsRoot   string
	Index       *modalias.Cache
	HWDB        *hwdb.DB
	XorgLog     string
	DistroRepos []string           // nil means policy.DefaultDistroRepos
	Plugins     *plugin.Loader     // nil disables detect plugins
	Modules     *modprobe.Detector // nil disables manual install detection
	Logger      *slog.Logger
}

// DriverPackages returns the driver packages available for the system,
// keyed by package name.
//
// When several devices match the same package, the device with the
// greatest sysfs path wins. Plugin results override modalias matches.
func (d *Detector) DriverPackages(ctx context.Context, q repo.Query) map[string]*DriverInfo {
	logger := d.logger()
	abi := &policy.ABIChecker{Query: q, XorgLog: d.XorgLog, Logger: logger}

	packages := make(map[string]*DriverInfo)
	for _, dev := range sysfs.Devices(d.SysfsRoot, logger) {
		candidates := d.Index.PackagesFor(q, dev.Modalias)
		if len(candidates) == 0 {
			continue
		}

		var vendor, model *string
		if d.HWDB != nil {
			if v, m, ok := d.HWDB.Lookup(dev.Modalias, dev.Path); ok {
				vendor, model = stringPtr(v), stringPtr(m)
			}
		}

		for _, pkg := range candidates {
			if !abi.Compatible(pkg) {
				continue
			}
			packages[pkg.Name] = &DriverInfo{
				Modalias:   dev.Modalias,
				SysPath:    dev.Path,
				Free:       policy.IsFree(pkg),
				FromDistro: policy.IsFromDistro(pkg, d.DistroRepos),
				Vendor:     vendor,
				Model:      model,
			}
		}
	}

	if d.Plugins != nil {
		results := d.Plugins.Run(ctx, q)
		plugins := make([]string, 0, len(results))
		for name := range results {
			plugins = append(plugins, name)
		}
		sort.Strings(plugins)

		for _, name := range plugins {
			for _, pkgName := range results[name] {
				pkg, ok := q.Lookup(pkgName)
				if !ok {
					continue
				}
				packages[pkgName] = &DriverInfo{
					Plugin:     name,
					Free:       policy.IsFree(pkg),
					FromDistro: policy.IsFromDistro(pkg, d.DistroRepos),
				}
			}
		}
	}

	// Families are ranked last so plugin results take part.
	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	for _, family := range alternatives.Families {
		for name, recommended := range alternatives.Recommend(family.Members(names)) {
			packages[name].Recommended = boolPtr(recommended)
		}
	}

	return packages
}

// DeviceDrivers returns the driver packages grouped per device. Devices are
// keyed by sysfs path, or by plugin name for plugin results.
func (d *Detector) DeviceDrivers(ctx context.Context, q repo.Query) map[string]*Device {
	packages := d.DriverPackages(ctx, q)

	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)

	devices := make(map[string]*Device)
	for _, name := range names {
		info := packages[name]
		key := info.SysPath
		if key == "" {
			key = info.Plugin
		}

		dev, ok := devices[key]
		if !ok {
			dev = &Device{Drivers: make(map[string]*Driver)}
			devices[key] = dev
		}
		if info.Modalias != "" {
			dev.Modalias = info.Modalias
		}
		if info.Vendor != nil {
			dev.Vendor = info.Vendor
		}
		if info.Model != nil {
			dev.Model = info.Model
		}

		driver := &Driver{Free: info.Free, FromDistro: info.FromDistro}
		if info.Recommended != nil {
			driver.Recommended = boolPtr(*info.Recommended)
		}
		dev.Drivers[name] = driver
	}

	for key, dev := range devices {
		dev.ManualInstall = d.allManual(ctx, q, dev)
		if dev.ManualInstall {
			d.logger().Debug("all drivers of device are manually installed", "device", key)
		}
	}

	addBuiltins(devices)
	return devices
}

// allManual reports whether every driver of dev is a manual install.
func (d *Detector) allManual(ctx context.Context, q repo.Query, dev *Device) bool {
	if d.Modules == nil || len(dev.Drivers) == 0 {
		return false
	}
	for _, name := range sortedDrivers(dev) {
		pkg, ok := q.Lookup(name)
		if !ok || !d.Modules.IsManual(ctx, pkg) {
			return false
		}
	}
	return true
}

// addBuiltins adds the default free driver to every device that has a
// driver of a proprietary family, and takes the recommendation away from the
// device's other drivers.
func addBuiltins(devices map[string]*Device) {
	for _, dev := range devices {
		b, ok := builtinFor(dev)
		if !ok {
			continue
		}
		for _, driver := range dev.Drivers {
			driver.Recommended = boolPtr(false)
		}
		dev.Drivers[b.pkg] = &Driver{
			Free:        true,
			FromDistro:  true,
			Recommended: boolPtr(b.recommended),
			Builtin:     true,
		}
	}
}

func builtinFor(dev *Device) (builtin, bool) {
	for _, name := range sortedDrivers(dev) {
		for _, b := range builtins {
			if strings.HasSuffix(name, b.suffix) {
				return b, true
			}
		}
	}
	return builtin{}, false
}

func sortedDrivers(dev *Device) []string {
	names := make([]string, 0, len(dev.Drivers))
	for name := range dev.Drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AutoInstallFilter returns the packages that may be installed without
// asking: those matching AutoInstallPatterns that are recommended or not
// part of a family.
func AutoInstallFilter(packages map[string]*DriverInfo) map[string]*DriverInfo {
	result := make(map[string]*DriverInfo)
	for name, info := range packages {
		if !autoInstallable(name) {
			continue
		}
		if info.Recommended == nil || *info.Recommended {
			result[name] = info
		}
	}
	return result
}

func autoInstallable(name string) bool {
	for _, pattern := range AutoInstallPatterns {
		if g, err := glob.Compile(pattern); err == nil && g.Match(name) {
			return true
		}
	}
	return false
}

func (d *Detector) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
