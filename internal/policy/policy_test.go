package policy

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/drivermatch/internal/repo"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIsFree(t *testing.T) {
	tests := []struct {
		name string
		pkg  *repo.Package
		want bool
	}{
		{
			name: "gpl candidate",
			pkg:  &repo.Package{Name: "a", Candidate: &repo.Version{License: "GPLv2"}},
			want: true,
		},
		{
			name: "compound license with one free part",
			pkg:  &repo.Package{Name: "b", Candidate: &repo.Version{License: "Redistributable, no modification permitted and BSD"}},
			want: true,
		},
		{
			name: "proprietary",
			pkg:  &repo.Package{Name: "c", Candidate: &repo.Version{License: "Redistributable, no modification permitted"}},
			want: false,
		},
		{
			name: "installed license wins",
			pkg: &repo.Package{
				Name:      "d",
				Installed: &repo.Version{License: "Proprietary"},
				Candidate: &repo.Version{License: "GPLv2"},
			},
			want: false,
		},
		{
			name: "missing license fails closed",
			pkg:  &repo.Package{Name: "e", Candidate: &repo.Version{}},
			want: false,
		},
		{
			name: "no versions",
			pkg:  &repo.Package{Name: "f"},
			want: false,
		},
		{
			name: "nil package",
			pkg:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFree(tt.pkg); got != tt.want {
				t.Errorf("IsFree() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFromDistro(t *testing.T) {
	tests := []struct {
		name     string
		repoID   string
		prefixes []string
		want     bool
	}{
		{"fedora", "fedora", nil, true},
		{"updates testing", "updates-testing", nil, true},
		{"case insensitive", "Korora-Extras", nil, true},
		{"third party", "rpmfusion-nonfree", nil, false},
		{"custom prefixes", "rpmfusion-nonfree", []string{"rpmfusion"}, true},
		{"custom prefixes exclude default", "fedora", []string{"rpmfusion"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := &repo.Package{Name: "x", Candidate: &repo.Version{RepoID: tt.repoID}}
			if got := IsFromDistro(pkg, tt.prefixes); got != tt.want {
				t.Errorf("IsFromDistro(%q) = %v, want %v", tt.repoID, got, tt.want)
			}
		})
	}

	if IsFromDistro(&repo.Package{Name: "nocand"}, nil) {
		t.Error("package without candidate should not be from distro")
	}
}

func TestArchMatches(t *testing.T) {
	if !ArchMatches("noarch", "x86_64") {
		t.Error("noarch should match any host")
	}
	if !ArchMatches("x86_64", "x86_64") {
		t.Error("native arch should match")
	}
	if ArchMatches("i686", "x86_64") {
		t.Error("foreign arch should not match")
	}
}

func writeXorgLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Xorg.0.log")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func xserver(provides ...string) *repo.Package {
	return &repo.Package{
		Name:      XServerPackage,
		Candidate: &repo.Version{Arch: "x86_64", Provides: provides},
	}
}

func TestABICheckerCompatible(t *testing.T) {
	cleanLog := writeXorgLog(t, "[    12.345] (II) Loading /usr/lib64/xorg/modules/drivers/modesetting_drv.so\n")
	hybridLog := writeXorgLog(t, "[    12.345] (II) Loading /usr/lib64/xorg/modules/drivers/intel_drv.so\n")
	missingLog := filepath.Join(t.TempDir(), "missing.log")

	tests := []struct {
		name    string
		pkgs    []*repo.Package
		xorgLog string
		check   string
		want    bool
	}{
		{
			name:    "no x server fails open",
			pkgs:    []*repo.Package{{Name: "kmod-nvidia", Candidate: &repo.Version{Depends: []string{"xorg-video-abi-20"}}}},
			xorgLog: cleanLog,
			check:   "kmod-nvidia",
			want:    true,
		},
		{
			name:    "x server without abi token",
			pkgs:    []*repo.Package{xserver("xserver-common"), {Name: "drv", Candidate: &repo.Version{}}},
			xorgLog: cleanLog,
			check:   "drv",
			want:    false,
		},
		{
			name: "matching abi",
			pkgs: []*repo.Package{
				xserver("xorg-video-abi-24"),
				{Name: "xorg-x11-drv-catalyst", Candidate: &repo.Version{Depends: []string{"xorg-video-abi-23 | xorg-video-abi-24"}}},
			},
			xorgLog: cleanLog,
			check:   "xorg-x11-drv-catalyst",
			want:    true,
		},
		{
			name: "stale abi",
			pkgs: []*repo.Package{
				xserver("xorg-video-abi-24"),
				{Name: "xorg-x11-drv-catalyst", Candidate: &repo.Version{Depends: []string{"xorg-video-abi-20"}}},
			},
			xorgLog: cleanLog,
			check:   "xorg-x11-drv-catalyst",
			want:    false,
		},
		{
			name: "no abi dependency",
			pkgs: []*repo.Package{
				xserver("xorg-video-abi-24"),
				{Name: "broadcom-wl", Candidate: &repo.Version{Depends: []string{"kernel >= 6.1"}}},
			},
			xorgLog: hybridLog,
			check:   "broadcom-wl",
			want:    true,
		},
		{
			name: "nvidia on hybrid system",
			pkgs: []*repo.Package{
				xserver("xorg-video-abi-24"),
				{Name: "akmod-nvidia", Candidate: &repo.Version{Depends: []string{"xorg-video-abi-24"}}},
			},
			xorgLog: hybridLog,
			check:   "akmod-nvidia",
			want:    false,
		},
		{
			name: "nvidia with unreadable log fails open",
			pkgs: []*repo.Package{
				xserver("xorg-video-abi-24"),
				{Name: "akmod-nvidia", Candidate: &repo.Version{Depends: []string{"xorg-video-abi-24"}}},
			},
			xorgLog: missingLog,
			check:   "akmod-nvidia",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := repo.NewSnapshot("x86_64", tt.pkgs)
			checker := &ABIChecker{Query: snap, XorgLog: tt.xorgLog, Logger: discardLogger()}

			pkg, ok := snap.Lookup(tt.check)
			if !ok {
				t.Fatalf("package %s missing from snapshot", tt.check)
			}
			if got := checker.Compatible(pkg); got != tt.want {
				t.Errorf("Compatible(%s) = %v, want %v", tt.check, got, tt.want)
			}
		})
	}
}

func TestXorgLogPath(t *testing.T) {
	t.Setenv("DRIVERMATCH_XORG_LOG", "")
	if got := XorgLogPath(); got != DefaultXorgLog {
		t.Errorf("XorgLogPath() = %q, want %q", got, DefaultXorgLog)
	}

	t.Setenv("DRIVERMATCH_XORG_LOG", "/tmp/Xorg.1.log")
	if got := XorgLogPath(); got != "/tmp/Xorg.1.log" {
		t.Errorf("XorgLogPath() = %q, want /tmp/Xorg.1.log", got)
	}
}
