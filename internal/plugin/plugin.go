// Package plugin runs custom driver detectors for hardware that cannot be
// matched through modaliases.
//
// A detector is either registered in-process in a Registry, or is an
// executable file in the detect directory speaking the exec protocol:
//
//   - the executable is run without arguments;
//   - DRIVERMATCH_CATALOG names the repository catalog and DRIVERMATCH_ARCH the
//     native architecture;
//   - it prints a JSON array of package names, or null for none, to stdout.
//
// A failing or panicking detector only loses its own results.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/blackwell-systems/drivermatch/internal/repo"
)

var (
	// ErrBadType is returned when a detector's output is not a list of
	// package names.
	ErrBadType = errors.New("plugin returned a bad type (must be list of package names or null)")

	// ErrPanic wraps a panic recovered from an in-process detector.
	ErrPanic = errors.New("plugin panicked")
)

// Detector finds driver packages for one kind of hardware.
type Detector interface {
	// Name identifies the detector; it is used as the device name for the
	// packages it returns.
	Name() string

	// Detect returns the names of packages the system needs, or nil.
	Detect(ctx context.Context, q repo.Query) ([]string, error)
}

// Registry holds in-process detectors.
type Registry struct {
	mu        sync.RWMutex
	detectors map[string]Detector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{detectors: make(map[string]Detector)}
}

// Register adds d. Names must be unique.
func (r *Registry) Register(d Detector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.detectors[d.Name()]; exists {
		return fmt.Errorf("detector %s already registered", d.Name())
	}
	r.detectors[d.Name()] = d
	return nil
}

// Detectors returns the registered detectors sorted by name.
func (r *Registry) Detectors() []Detector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	detectors := make([]Detector, 0, len(r.detectors))
	for _, d := range r.detectors {
		detectors = append(detectors, d)
	}
	sort.Slice(detectors, func(i, j int) bool {
		return detectors[i].Name() < detectors[j].Name()
	})
	return detectors
}
