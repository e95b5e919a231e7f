package repo

import (
	"runtime"
	"sort"

	"github.com/google/uuid"
)

// NoArch marks architecture-independent packages.
const NoArch = "noarch"

// Snapshot is an immutable, in-memory Query implementation. Callers must not
// modify the packages passed to NewSnapshot afterwards.
type Snapshot struct {
	token    Token
	arch     string
	packages map[string]*Package
	sorted   []*Package
}

// NewSnapshot creates a snapshot with a fresh token. An empty arch means the
// host's native architecture.
func NewSnapshot(arch string, packages []*Package) *Snapshot {
	if arch == "" {
		arch = NativeArch()
	}

	s := &Snapshot{
		token:    Token(uuid.NewString()),
		arch:     arch,
		packages: make(map[string]*Package, len(packages)),
	}
	for _, pkg := range packages {
		s.packages[pkg.Name] = pkg
	}

	s.sorted = make([]*Package, 0, len(s.packages))
	for _, pkg := range s.packages {
		s.sorted = append(s.sorted, pkg)
	}
	sort.Slice(s.sorted, func(i, j int) bool {
		return s.sorted[i].Name < s.sorted[j].Name
	})

	return s
}

// Token returns the snapshot identity.
func (s *Snapshot) Token() Token { return s.token }

// Arch returns the native architecture the snapshot was created for.
func (s *Snapshot) Arch() string { return s.arch }

// Packages returns all packages sorted by name.
func (s *Snapshot) Packages() []*Package { return s.sorted }

// Lookup returns the named package.
func (s *Snapshot) Lookup(name string) (*Package, bool) {
	pkg, ok := s.packages[name]
	return pkg, ok
}

// Len returns the number of packages.
func (s *Snapshot) Len() int { return len(s.packages) }

// NativeArch maps the Go runtime architecture to the RPM base architecture.
func NativeArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "i386"
	case "arm64":
		return "aarch64"
	case "arm":
		return "armhfp"
	case "ppc64le":
		return "ppc64le"
	case "s390x":
		return "s390x"
	default:
		return runtime.GOARCH
	}
}
