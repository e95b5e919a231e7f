// Package alternatives ranks mutually exclusive driver packages, such as the
// release channels of one proprietary graphics driver, so that exactly one of
// them can be recommended.
package alternatives

import (
	"sort"
	"strings"
)

// Family is a set of driver packages that cannot be installed side by side,
// identified by a common package name suffix.
type Family struct {
	Name   string
	Suffix string
}

// Families are the known mutually exclusive driver families.
var Families = []Family{
	{Name: "nvidia", Suffix: "kmod-nvidia"},
	{Name: "catalyst", Suffix: "kmod-catalyst"},
}

// Members returns the names in names that belong to the family, sorted by
// preference.
func (f Family) Members(names []string) []string {
	var members []string
	for _, name := range names {
		if strings.HasSuffix(name, f.Suffix) {
			members = append(members, name)
		}
	}
	Sort(members)
	return members
}

// Compare orders two driver package names by preference. It returns a
// negative number when a is preferred over b.
//
// An "-updates" variant is preferred over one that is not. Otherwise
// experimental variants come last. Remaining ties fall back to the name so
// the order is total.
func Compare(a, b string) int {
	aUpdates, bUpdates := isUpdates(a), isUpdates(b)
	if aUpdates != bUpdates {
		if aUpdates {
			return -1
		}
		return 1
	}

	aExp, bExp := isExperimental(a), isExperimental(b)
	if aExp != bExp {
		if aExp {
			return 1
		}
		return -1
	}

	return strings.Compare(a, b)
}

// Sort orders names from most to least preferred, in place.
func Sort(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return Compare(names[i], names[j]) < 0
	})
}

// Recommend maps every name to whether it is the preferred one. Exactly one
// entry is true for a non-empty input.
func Recommend(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}

	sorted := append([]string(nil), names...)
	Sort(sorted)

	flags := make(map[string]bool, len(sorted))
	for _, name := range sorted {
		flags[name] = false
	}
	flags[sorted[0]] = true
	return flags
}

func isUpdates(name string) bool {
	return strings.HasSuffix(name, "-updates")
}

func isExperimental(name string) bool {
	return strings.Contains(name, "experiment")
}
