package repo

import "testing"

func TestNewSnapshot(t *testing.T) {
	pkgs := []*Package{
		{Name: "zlib", Candidate: &Version{Arch: "x86_64"}},
		{Name: "akmod-nvidia", Candidate: &Version{Arch: "x86_64"}},
		{Name: "bcmwl", Installed: &Version{Arch: "x86_64"}},
	}

	s := NewSnapshot("x86_64", pkgs)

	if s.Arch() != "x86_64" {
		t.Errorf("Arch() = %q, want x86_64", s.Arch())
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}

	want := []string{"akmod-nvidia", "bcmwl", "zlib"}
	for i, pkg := range s.Packages() {
		if pkg.Name != want[i] {
			t.Errorf("Packages()[%d] = %s, want %s", i, pkg.Name, want[i])
		}
	}

	pkg, ok := s.Lookup("bcmwl")
	if !ok {
		t.Fatal("Lookup(bcmwl) not found")
	}
	if !pkg.IsInstalled() {
		t.Error("bcmwl should be installed")
	}

	if _, ok := s.Lookup("missing"); ok {
		t.Error("Lookup(missing) should not be found")
	}
}

func TestSnapshotTokensAreUnique(t *testing.T) {
	a := NewSnapshot("x86_64", nil)
	b := NewSnapshot("x86_64", nil)

	if a.Token() == "" {
		t.Fatal("token should not be empty")
	}
	if a.Token() == b.Token() {
		t.Errorf("two snapshots share token %q", a.Token())
	}
}

func TestNewSnapshotDefaultsToNativeArch(t *testing.T) {
	s := NewSnapshot("", nil)
	if s.Arch() != NativeArch() {
		t.Errorf("Arch() = %q, want %q", s.Arch(), NativeArch())
	}
}
