package modprobe

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/drivermatch/internal/repo"
)

// fakeProber reports the modules in available as present and records the
// modules it was asked about.
type fakeProber struct {
	available map[string]bool
	asked     []string
}

func (p *fakeProber) Available(ctx context.Context, module string) bool {
	p.asked = append(p.asked, module)
	return p.available[module]
}

func newTestDetector(available ...string) (*Detector, *fakeProber) {
	prober := &fakeProber{available: make(map[string]bool)}
	for _, m := range available {
		prober.available[m] = true
	}
	return &Detector{
		Prober: prober,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, prober
}

func TestModule(t *testing.T) {
	d, _ := newTestDetector()

	tests := []struct {
		name string
		pkg  *repo.Package
		want string
	}{
		{
			name: "nvidia special case",
			pkg:  &repo.Package{Name: "akmod-nvidia", Candidate: &repo.Version{Modaliases: "nvidia_drm(pci:v000010DEd*)"}},
			want: "nvidia",
		},
		{
			name: "fglrx special case",
			pkg:  &repo.Package{Name: "kmod-fglrx"},
			want: "fglrx",
		},
		{
			name: "single module",
			pkg:  &repo.Package{Name: "broadcom-wl", Candidate: &repo.Version{Modaliases: "wl(pci:v000014E4d00004353sv*, pci:v000014E4d00004357sv*)"}},
			want: "wl",
		},
		{
			name: "multiple modules are ambiguous",
			pkg:  &repo.Package{Name: "multi", Candidate: &repo.Version{Modaliases: "a(pci:v1*), b(pci:v2*)"}},
			want: "",
		},
		{
			name: "no header",
			pkg:  &repo.Package{Name: "bare", Candidate: &repo.Version{}},
			want: "",
		},
		{
			name: "malformed header",
			pkg:  &repo.Package{Name: "broken", Candidate: &repo.Version{Modaliases: "wl(pci:v1*"}},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Module(tt.pkg); got != tt.want {
				t.Errorf("Module() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsManual(t *testing.T) {
	wl := "wl(pci:v000014E4d00004353sv*)"

	t.Run("installed package is never manual", func(t *testing.T) {
		d, prober := newTestDetector("wl")
		pkg := &repo.Package{Name: "broadcom-wl", Installed: &repo.Version{}, Candidate: &repo.Version{Modaliases: wl}}
		if d.IsManual(context.Background(), pkg) {
			t.Error("IsManual() = true for installed package")
		}
		if len(prober.asked) != 0 {
			t.Errorf("prober consulted for installed package: %v", prober.asked)
		}
	})

	t.Run("module available", func(t *testing.T) {
		d, _ := newTestDetector("wl")
		pkg := &repo.Package{Name: "broadcom-wl", Candidate: &repo.Version{Modaliases: wl}}
		if !d.IsManual(context.Background(), pkg) {
			t.Error("IsManual() = false, want true")
		}
	})

	t.Run("module not available", func(t *testing.T) {
		d, _ := newTestDetector()
		pkg := &repo.Package{Name: "broadcom-wl", Candidate: &repo.Version{Modaliases: wl}}
		if d.IsManual(context.Background(), pkg) {
			t.Error("IsManual() = true, want false")
		}
	})

	t.Run("unknown module is not probed", func(t *testing.T) {
		d, prober := newTestDetector("a", "b")
		pkg := &repo.Package{Name: "multi", Candidate: &repo.Version{Modaliases: "a(pci:v1*), b(pci:v2*)"}}
		if d.IsManual(context.Background(), pkg) {
			t.Error("IsManual() = true for ambiguous module")
		}
		if len(prober.asked) != 0 {
			t.Errorf("prober consulted for ambiguous module: %v", prober.asked)
		}
	})
}

func TestModulesDepProber(t *testing.T) {
	dir := t.TempDir()
	dep := "kernel/drivers/net/wireless/wl.ko.xz:\n" +
		"extra/nvidia-drm.ko: extra/nvidia-modeset.ko\n"
	builtin := "kernel/drivers/video/fbdev/core/fb.ko\n"
	if err := os.WriteFile(filepath.Join(dir, "modules.dep"), []byte(dep), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "modules.builtin"), []byte(builtin), 0644); err != nil {
		t.Fatal(err)
	}

	p := &ModulesDepProber{Dir: dir}
	ctx := context.Background()

	tests := []struct {
		module string
		want   bool
	}{
		{"wl", true},
		{"nvidia_drm", true},
		{"nvidia-drm", true},
		{"fb", true},
		{"nvidia_modeset", false},
		{"fglrx", false},
	}

	for _, tt := range tests {
		if got := p.Available(ctx, tt.module); got != tt.want {
			t.Errorf("Available(%q) = %v, want %v", tt.module, got, tt.want)
		}
	}
}

func TestModinfoProberMissingCommand(t *testing.T) {
	p := &ModinfoProber{Command: filepath.Join(t.TempDir(), "no-modinfo")}
	if p.Available(context.Background(), "wl") {
		t.Error("Available() = true with missing modinfo binary")
	}
}
