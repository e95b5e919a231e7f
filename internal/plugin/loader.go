package plugin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/blackwell-systems/drivermatch/internal/policy"
	"github.com/blackwell-systems/drivermatch/internal/repo"
)

const (
	// DefaultDir holds executable detect plugins.
	DefaultDir = "/usr/share/drivermatch/detect"

	// DefaultTimeout bounds a single detector run.
	DefaultTimeout = 30 * time.Second
)

// Dir returns the detect plugin directory, honouring
// $DRIVERMATCH_DETECT_DIR.
func Dir() string {
	if dir := os.Getenv("DRIVERMATCH_DETECT_DIR"); dir != "" {
		return dir
	}
	return DefaultDir
}

// Loader runs every in-process and executable detector and filters their
// results against the repository.
type Loader struct {
	Dir      string    // executable plugin directory; empty disables discovery
	Registry *Registry // may be nil
	Catalog  string    // passed to executable plugins
	XorgLog  string    // X server log for the ABI check; empty means default
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Detectors returns the registered detectors followed by the executables
// found in Dir.
func (l *Loader) Detectors() []Detector {
	var detectors []Detector
	if l.Registry != nil {
		detectors = append(detectors, l.Registry.Detectors()...)
	}

	if l.Dir == "" {
		return detectors
	}
	found, err := discoverExecutables(l.Dir, l.Catalog)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger().Debug("custom detection plugin directory does not exist", "dir", l.Dir)
		} else {
			l.logger().Warn("cannot read custom detection plugin directory", "dir", l.Dir, "error", err)
		}
		return detectors
	}

	// Registered detectors win over executables of the same name.
	seen := make(map[string]bool, len(detectors))
	for _, d := range detectors {
		seen[d.Name()] = true
	}
	for _, d := range found {
		if seen[d.Name()] {
			l.logger().Warn("skipping plugin executable shadowed by a registered detector",
				"plugin", d.Name(), "dir", l.Dir)
			continue
		}
		seen[d.Name()] = true
		detectors = append(detectors, d)
	}
	return detectors
}

// Run executes all detectors and returns plugin name -> package names.
//
// A package is kept only if it exists in q, has an installation candidate
// and passes the video ABI check. Plugins that yield no packages are left
// out of the result.
func (l *Loader) Run(ctx context.Context, q repo.Query) map[string][]string {
	logger := l.logger()
	abi := &policy.ABIChecker{Query: q, XorgLog: l.XorgLog, Logger: logger}

	results := make(map[string][]string)
	for _, d := range l.Detectors() {
		if ctx.Err() != nil {
			break
		}

		names, err := l.runOne(ctx, d, q)
		if err != nil {
			logger.Error("plugin failed", "plugin", d.Name(), "error", err)
			continue
		}
		if names == nil {
			continue
		}

		logger.Debug("plugin returned packages", "plugin", d.Name(), "packages", names)

		seen := make(map[string]bool)
		var kept []string
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true

			pkg, ok := q.Lookup(name)
			if !ok {
				logger.Debug("plugin returned package which does not exist", "plugin", d.Name(), "package", name)
				continue
			}
			if pkg.Candidate == nil {
				logger.Debug("plugin returned package which has no candidate", "plugin", d.Name(), "package", name)
				continue
			}
			if !abi.Compatible(pkg) {
				continue
			}
			kept = append(kept, name)
		}

		if len(kept) > 0 {
			sort.Strings(kept)
			results[d.Name()] = kept
		}
	}
	return results
}

// runOne runs d under the loader timeout and converts a panic into an
// error.
func (l *Loader) runOne(ctx context.Context, d Detector, q repo.Query) (names []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			names = nil
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return d.Detect(ctx, q)
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
