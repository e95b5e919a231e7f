package plugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/drivermatch/internal/repo"
)

// VirtualBoxPackagePrefix selects the guest additions packages.
const VirtualBoxPackagePrefix = "virtualbox-guest"

// VirtualBoxDetector recognises a VirtualBox guest from its DMI data and
// proposes the guest additions packages available in the repository.
type VirtualBoxDetector struct {
	SysfsRoot string
}

func (v *VirtualBoxDetector) Name() string { return "virtualbox" }

// Detect returns nil when not running inside VirtualBox.
func (v *VirtualBoxDetector) Detect(ctx context.Context, q repo.Query) ([]string, error) {
	if !v.isGuest() {
		return nil, nil
	}

	var names []string
	for _, pkg := range q.Packages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(pkg.Name, VirtualBoxPackagePrefix) && pkg.Candidate != nil {
			names = append(names, pkg.Name)
		}
	}
	return names, nil
}

func (v *VirtualBoxDetector) isGuest() bool {
	dmi := filepath.Join(v.SysfsRoot, "class", "dmi", "id")
	for _, attr := range []struct{ file, value string }{
		{"product_name", "VirtualBox"},
		{"sys_vendor", "innotek GmbH"},
	} {
		data, err := os.ReadFile(filepath.Join(dmi, attr.file))
		if err == nil && strings.TrimSpace(string(data)) == attr.value {
			return true
		}
	}
	return false
}
