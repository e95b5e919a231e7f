// Package modprobe detects driver packages whose kernel module is present on
// the system although the package itself is not installed, which usually
// means the driver was installed from upstream by hand.
package modprobe

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/blackwell-systems/drivermatch/internal/modalias"
	"github.com/blackwell-systems/drivermatch/internal/repo"
)

// Prober reports whether a kernel module is available on the system.
type Prober interface {
	Available(ctx context.Context, module string) bool
}

// ModinfoProber asks modinfo(8) about a module.
type ModinfoProber struct {
	// Command defaults to "modinfo".
	Command string
}

// Available reports whether modinfo exits successfully for module.
func (p *ModinfoProber) Available(ctx context.Context, module string) bool {
	command := p.Command
	if command == "" {
		command = "modinfo"
	}
	cmd := exec.CommandContext(ctx, command, module)
	return cmd.Run() == nil
}

// ModulesDepProber looks a module up in the kernel's modules.dep and
// modules.builtin indexes, for systems without modinfo.
type ModulesDepProber struct {
	// Dir is the module directory; empty means /lib/modules/<release>.
	Dir string
}

// Available reports whether <module>.ko appears in the module indexes.
// Module names treat '-' and '_' as equivalent, as the kernel does.
func (p *ModulesDepProber) Available(ctx context.Context, module string) bool {
	dir := p.Dir
	if dir == "" {
		release, err := KernelRelease()
		if err != nil {
			return false
		}
		dir = filepath.Join("/lib/modules", release)
	}

	want := normalizeModule(module)
	for _, index := range []string{"modules.dep", "modules.builtin"} {
		found, err := indexContains(filepath.Join(dir, index), want)
		if err == nil && found {
			return true
		}
	}
	return false
}

func indexContains(path, module string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		// modules.dep: "kernel/drivers/video/nvidia.ko.xz: dep.ko"
		entry, _, _ := strings.Cut(scanner.Text(), ":")
		base := filepath.Base(strings.TrimSpace(entry))
		name, _, _ := strings.Cut(base, ".ko")
		if normalizeModule(name) == module {
			return true, nil
		}
	}
	return false, scanner.Err()
}

func normalizeModule(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// KernelRelease returns the running kernel release, as uname -r prints it.
func KernelRelease() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("uname failed: %w", err)
	}
	return unix.ByteSliceToString(uts.Release[:]), nil
}

// DefaultProber prefers modinfo and falls back to reading modules.dep when
// modinfo is not installed.
func DefaultProber() Prober {
	if _, err := exec.LookPath("modinfo"); err == nil {
		return &ModinfoProber{}
	}
	return &ModulesDepProber{}
}

// Detector decides whether a driver package is manually installed.
type Detector struct {
	Prober Prober
	Logger *slog.Logger
}

// Module returns the kernel module pkg would provide, or "" when it cannot
// be determined.
func (d *Detector) Module(pkg *repo.Package) string {
	// Packaged kmods carry a version suffix in the module file name, so
	// these are special-cased.
	switch {
	case strings.HasSuffix(pkg.Name, "nvidia"):
		return "nvidia"
	case strings.HasSuffix(pkg.Name, "fglrx"):
		return "fglrx"
	}

	version := pkg.Candidate
	if version == nil {
		version = pkg.Installed
	}
	if version == nil || version.Modaliases == "" {
		d.logger().Debug("package has no modalias header, cannot determine module", "package", pkg.Name)
		return ""
	}

	decls, err := modalias.ParseDeclarations(version.Modaliases)
	if err != nil {
		d.logger().Warn("cannot parse modalias header", "package", pkg.Name, "error", err)
		return ""
	}

	modules := modalias.Modules(decls)
	if len(modules) != 1 {
		if len(modules) > 1 {
			d.logger().Warn("package declares multiple modules, cannot determine module",
				"package", pkg.Name, "modules", modules)
		}
		return ""
	}
	return modules[0]
}

// IsManual reports whether pkg is not installed but its kernel module is
// available anyway.
func (d *Detector) IsManual(ctx context.Context, pkg *repo.Package) bool {
	if pkg.IsInstalled() {
		return false
	}

	module := d.Module(pkg)
	if module == "" {
		return false
	}

	if d.Prober.Available(ctx, module) {
		d.logger().Debug("package builds module which is available, manual install",
			"package", pkg.Name, "module", module)
		return true
	}

	d.logger().Debug("package builds module which is not available, no manual install",
		"package", pkg.Name, "module", module)
	return false
}

func (d *Detector) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
