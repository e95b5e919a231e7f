// Package policy holds the predicates that decide how a driver package is
// presented: whether it is free software, whether it ships with the
// distribution, and whether it can work with the running display server.
//
// Unknown licenses fail closed (non-free). Undeterminable display server
// state fails open (compatible).
package policy

import (
	"strings"

	"github.com/blackwell-systems/drivermatch/internal/repo"
)

// freeLicenses are the license strings treated as free software.
var freeLicenses = map[string]bool{
	"GPL":                       true,
	"GPL v2":                    true,
	"GPL and additional rights": true,
	"Dual BSD/GPL":              true,
	"Dual MIT/GPL":              true,
	"Dual MPL/GPL":              true,
	"BSD":                       true,
	"GPLv2":                     true,
	"GPLv2+":                    true,
	"GPLv3":                     true,
	"GPLv3+":                    true,
}

// DefaultDistroRepos are the repository id prefixes of first-party repos.
var DefaultDistroRepos = []string{"fedora", "updates", "updates-testing", "korora"}

// IsFree reports whether any component of the package license is a known
// free license. The installed version's license is preferred over the
// candidate's. Missing license metadata yields false.
func IsFree(pkg *repo.Package) bool {
	if pkg == nil {
		return false
	}

	version := pkg.Installed
	if version == nil || version.License == "" {
		version = pkg.Candidate
	}
	if version == nil || version.License == "" {
		return false
	}

	for _, part := range strings.Split(version.License, "and") {
		if freeLicenses[strings.TrimSpace(part)] {
			return true
		}
	}
	return false
}

// IsFromDistro reports whether the package candidate comes from a
// repository whose id starts with one of prefixes (case-insensitive).
// A nil prefixes slice means DefaultDistroRepos.
func IsFromDistro(pkg *repo.Package, prefixes []string) bool {
	if pkg == nil || pkg.Candidate == nil {
		return false
	}
	if prefixes == nil {
		prefixes = DefaultDistroRepos
	}

	repoID := strings.ToLower(pkg.Candidate.RepoID)
	for _, prefix := range prefixes {
		if strings.HasPrefix(repoID, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

// ArchMatches reports whether a package built for arch installs on native.
func ArchMatches(arch, native string) bool {
	return arch == repo.NoArch || arch == native
}
