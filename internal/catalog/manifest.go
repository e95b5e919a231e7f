package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/drivermatch/internal/repo"
)

// Manifest is the YAML form of a catalog, as written by repository export
// tooling or by hand for tests:
//
//	arch: x86_64
//	packages:
//	  - name: broadcom-wl
//	    candidate:
//	      version: 6.30.223.271
//	      arch: x86_64
//	      license: Redistributable, no modification permitted
//	      repo: rpmfusion-nonfree
//	      modaliases: wl(pci:v000014E4d00004353sv*sd*bc02sc80i*)
type Manifest struct {
	Arch     string            `yaml:"arch"`
	Packages []ManifestPackage `yaml:"packages"`
}

// ManifestPackage is one package entry of a Manifest.
type ManifestPackage struct {
	Name      string           `yaml:"name"`
	Installed *ManifestVersion `yaml:"installed,omitempty"`
	Candidate *ManifestVersion `yaml:"candidate,omitempty"`
}

// ManifestVersion is one version of a ManifestPackage.
type ManifestVersion struct {
	Version    string   `yaml:"version"`
	Arch       string   `yaml:"arch"`
	License    string   `yaml:"license,omitempty"`
	Repo       string   `yaml:"repo,omitempty"`
	Modaliases string   `yaml:"modaliases,omitempty"`
	Depends    []string `yaml:"depends,omitempty"`
	Provides   []string `yaml:"provides,omitempty"`
}

// ReadManifest decodes a YAML manifest.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return &m, nil
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	seen := make(map[string]bool)
	for i, p := range m.Packages {
		if p.Name == "" {
			return nil, fmt.Errorf("manifest package #%d has no name", i+1)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("manifest lists package %s twice", p.Name)
		}
		seen[p.Name] = true
	}
	return &m, nil
}

// ReadManifestFile decodes the YAML manifest at path.
func ReadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()
	return ReadManifest(f)
}

// ToPackages converts the manifest entries to repository packages.
func (m *Manifest) ToPackages() []*repo.Package {
	pkgs := make([]*repo.Package, 0, len(m.Packages))
	for _, p := range m.Packages {
		pkgs = append(pkgs, &repo.Package{
			Name:      p.Name,
			Installed: p.Installed.toVersion(),
			Candidate: p.Candidate.toVersion(),
		})
	}
	return pkgs
}

func (v *ManifestVersion) toVersion() *repo.Version {
	if v == nil {
		return nil
	}
	return &repo.Version{
		Version:    v.Version,
		Arch:       v.Arch,
		License:    v.License,
		RepoID:     v.Repo,
		Modaliases: v.Modaliases,
		Depends:    v.Depends,
		Provides:   v.Provides,
	}
}

// Import creates the schema if needed and stores every manifest package,
// returning the number of packages written. onPackage, if not nil, is
// called after each package is stored.
func (c *Catalog) Import(m *Manifest, onPackage func(name string)) (int, error) {
	if err := c.CreateSchema(); err != nil {
		return 0, err
	}
	if m.Arch != "" {
		if err := c.SetArch(m.Arch); err != nil {
			return 0, err
		}
	}

	pkgs := m.ToPackages()
	for _, pkg := range pkgs {
		if err := c.InsertPackage(pkg); err != nil {
			return 0, err
		}
		if onPackage != nil {
			onPackage(pkg.Name)
		}
	}
	return len(pkgs), nil
}
