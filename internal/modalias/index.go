package modalias

import (
	"log/slog"
	"sort"

	"github.com/blackwell-systems/drivermatch/internal/policy"
	"github.com/blackwell-systems/drivermatch/internal/repo"
)

// Index maps bus -> modalias pattern -> names of the packages declaring it.
// It is never modified after Build returns.
type Index struct {
	buses  map[string]map[string]map[string]struct{}
	logger *slog.Logger
}

// Build indexes the modalias declarations of every package in q whose
// candidate is installable on the native architecture.
//
// Packages with malformed declarations are logged and skipped.
func Build(q repo.Query, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}

	ix := &Index{
		buses:  make(map[string]map[string]map[string]struct{}),
		logger: logger,
	}

	native := q.Arch()
	for _, pkg := range q.Packages() {
		// Foreign architectures are of no use for this host.
		if pkg.Candidate == nil || !policy.ArchMatches(pkg.Candidate.Arch, native) {
			continue
		}
		if pkg.Candidate.Modaliases == "" {
			continue
		}

		decls, err := ParseDeclarations(pkg.Candidate.Modaliases)
		if err != nil {
			logger.Error("package has invalid modalias header",
				"package", pkg.Name, "header", pkg.Candidate.Modaliases, "error", err)
			continue
		}

		for _, d := range decls {
			bus := Bus(d.Alias)
			patterns, ok := ix.buses[bus]
			if !ok {
				patterns = make(map[string]map[string]struct{})
				ix.buses[bus] = patterns
			}
			owners, ok := patterns[d.Alias]
			if !ok {
				owners = make(map[string]struct{})
				patterns[d.Alias] = owners
			}
			owners[pkg.Name] = struct{}{}
		}
	}

	return ix
}

// Candidates returns the sorted names of packages with a pattern matching
// the concrete modalias. Unknown buses yield nil.
func (ix *Index) Candidates(concrete string) []string {
	patterns := ix.buses[Bus(concrete)]
	if len(patterns) == 0 {
		return nil
	}

	found := make(map[string]struct{})
	for pattern, owners := range patterns {
		ok, err := Match(pattern, concrete)
		if err != nil {
			ix.logger.Warn("skipping unmatchable modalias pattern",
				"pattern", pattern, "modalias", concrete, "error", err)
			continue
		}
		if !ok {
			continue
		}
		for name := range owners {
			found[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Buses returns the indexed bus prefixes, sorted.
func (ix *Index) Buses() []string {
	buses := make([]string, 0, len(ix.buses))
	for bus := range ix.buses {
		buses = append(buses, bus)
	}
	sort.Strings(buses)
	return buses
}

// Patterns returns the number of distinct patterns registered under bus.
func (ix *Index) Patterns(bus string) int {
	return len(ix.buses[bus])
}
