package repo

// Version is one concrete version of a package, either the installed one or
// the install candidate offered by the repository.
type Version struct {
	Version string
	Arch    string // e.g. "x86_64" or "noarch"
	License string // RPM-style license expression, e.g. "GPLv2 and BSD"
	RepoID  string // originating repository, e.g. "updates"

	// Modaliases is the raw driver declaration header:
	//	nvidia(pci:v000010DEd*sv*sd*bc03sc*i*, pci:v000012D2d*), nvidia_uvm(...)
	Modaliases string

	Depends  []string
	Provides []string
}

// Package is a named package together with its installed version (nil if not
// installed) and install candidate (nil if the repository offers none).
type Package struct {
	Name      string
	Installed *Version
	Candidate *Version
}

// IsInstalled reports whether any version of the package is installed.
func (p *Package) IsInstalled() bool {
	return p.Installed != nil
}

// Token is the opaque identity of one repository snapshot. Two snapshots
// never share a token, even when their contents are equal.
type Token string

// Query is the read-only view of the package repository that detection runs
// against.
type Query interface {
	// Token identifies the snapshot; caches are keyed by it.
	Token() Token

	// Arch is the host's native package architecture.
	Arch() string

	// Packages returns every package in the snapshot, sorted by name.
	Packages() []*Package

	// Lookup finds a package by name.
	Lookup(name string) (*Package, bool)
}
