package app

import (
	"path/filepath"
	"strings"
	"testing"
)

// TestRunDoctor_MissingCatalogFails verifies that a missing catalog is a
// critical issue and makes doctor return an error.
func TestRunDoctor_MissingCatalogFails(t *testing.T) {
	setupEnv(t)

	out, err := captureOutput(t, func() error { return runDoctor(doctorCmd, nil) })
	if err == nil {
		t.Fatal("expected doctor to fail without a catalog")
	}
	if !strings.Contains(out, "✗ Catalog unavailable") {
		t.Errorf("expected catalog failure line, got:\n%s", out)
	}
	if !strings.Contains(out, "drivermatch catalog import") {
		t.Errorf("expected import hint, got:\n%s", out)
	}
	if !strings.Contains(out, "critical issue(s)") {
		t.Errorf("expected critical summary, got:\n%s", out)
	}
}

// TestRunDoctor_WarningOnlyExitsCode0 verifies that warnings alone (here:
// no X server in the catalog) do not fail the command.
func TestRunDoctor_WarningOnlyExitsCode0(t *testing.T) {
	setupEnv(t)
	importTestCatalog(t)

	out, err := captureOutput(t, func() error { return runDoctor(doctorCmd, nil) })
	if err != nil {
		t.Fatalf("expected nil error for warnings only, got %v\n%s", err, out)
	}

	for _, want := range []string{
		"✓ Catalog: 3 packages for x86_64",
		"✓ 2 devices with modaliases",
		"✓ Hardware ID database",
		"⚠ xserver-xorg-core not in catalog",
		"✓ 0 detect plugins",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("doctor output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "✗") {
		t.Errorf("unexpected critical failure:\n%s", out)
	}
}

func TestRunDoctor_MissingHardwareDatabase(t *testing.T) {
	setupEnv(t)
	importTestCatalog(t)
	t.Setenv("DRIVERMATCH_HWDATA_DIR", filepath.Join(t.TempDir(), "nowhere"))

	out, err := captureOutput(t, func() error { return runDoctor(doctorCmd, nil) })
	if err != nil {
		t.Fatalf("missing pci.ids should only warn, got %v", err)
	}
	if !strings.Contains(out, "⚠ No PCI ID database") {
		t.Errorf("expected hwdata warning, got:\n%s", out)
	}
}

func TestRunDoctor_BadConfigFails(t *testing.T) {
	setupEnv(t)
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")

	out, err := captureOutput(t, func() error { return runDoctor(doctorCmd, nil) })
	if err == nil {
		t.Fatal("expected doctor to fail with an unreadable config")
	}
	if !strings.Contains(out, "✗ Config error") {
		t.Errorf("expected config failure line, got:\n%s", out)
	}
}
