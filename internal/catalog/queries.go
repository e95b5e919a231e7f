package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/blackwell-systems/drivermatch/internal/repo"
)

const (
	stateInstalled = "installed"
	stateCandidate = "candidate"
)

// Metadata

// SetArch records the native architecture the catalog was generated for.
func (c *Catalog) SetArch(arch string) error {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES ('arch', ?)`, arch)
	if err != nil {
		return fmt.Errorf("failed to set arch: %w", wrapNoTable(err))
	}
	return nil
}

// Arch returns the recorded architecture, or "" if none was recorded.
func (c *Catalog) Arch() (string, error) {
	var arch string
	err := c.db.QueryRow(`SELECT value FROM metadata WHERE key = 'arch'`).Scan(&arch)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get arch: %w", wrapNoTable(err))
	}
	return arch, nil
}

// Package operations

// InsertPackage inserts or replaces a package with both of its versions.
func (c *Catalog) InsertPackage(pkg *repo.Package) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM versions WHERE package = ?`, pkg.Name); err != nil {
		return fmt.Errorf("failed to replace package %s: %w", pkg.Name, wrapNoTable(err))
	}

	for state, v := range map[string]*repo.Version{
		stateInstalled: pkg.Installed,
		stateCandidate: pkg.Candidate,
	} {
		if v == nil {
			continue
		}
		if err := insertVersion(tx, pkg.Name, state, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit package %s: %w", pkg.Name, err)
	}
	return nil
}

func insertVersion(tx *sql.Tx, name, state string, v *repo.Version) error {
	query := `
		INSERT INTO versions (package, state, version, arch, license, repo_id, modaliases)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(query, name, state, v.Version, v.Arch, v.License, v.RepoID, v.Modaliases); err != nil {
		return fmt.Errorf("failed to insert %s version of %s: %w", state, name, wrapNoTable(err))
	}

	for i, dep := range v.Depends {
		if _, err := tx.Exec(`INSERT INTO depends (package, state, capability, position) VALUES (?, ?, ?, ?)`,
			name, state, dep, i); err != nil {
			return fmt.Errorf("failed to insert dependency %s of %s: %w", dep, name, err)
		}
	}
	for i, prov := range v.Provides {
		if _, err := tx.Exec(`INSERT INTO provides (package, state, capability, position) VALUES (?, ?, ?, ?)`,
			name, state, prov, i); err != nil {
			return fmt.Errorf("failed to insert provide %s of %s: %w", prov, name, err)
		}
	}
	return nil
}

// GetPackage retrieves a package by name.
func (c *Catalog) GetPackage(name string) (*repo.Package, error) {
	pkgs, err := c.queryPackages(`WHERE package = ?`, name)
	if err != nil {
		return nil, err
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("package %s not found", name)
	}
	return pkgs[0], nil
}

// ListPackages returns all packages sorted by name.
func (c *Catalog) ListPackages() ([]*repo.Package, error) {
	return c.queryPackages("")
}

// DeletePackage removes a package and its versions.
func (c *Catalog) DeletePackage(name string) error {
	result, err := c.db.Exec(`DELETE FROM versions WHERE package = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete package %s: %w", name, wrapNoTable(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion of %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("package %s not found", name)
	}
	return nil
}

// CountPackages returns the number of packages in the catalog.
func (c *Catalog) CountPackages() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(DISTINCT package) FROM versions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count packages: %w", wrapNoTable(err))
	}
	return n, nil
}

func (c *Catalog) queryPackages(where string, args ...any) ([]*repo.Package, error) {
	query := `
		SELECT package, state, version, arch, license, repo_id, modaliases
		FROM versions ` + where + `
		ORDER BY package, state
	`
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", wrapNoTable(err))
	}
	defer rows.Close()

	type key struct{ name, state string }
	versions := make(map[key]*repo.Version)

	var packages []*repo.Package
	var current *repo.Package
	for rows.Next() {
		var name, state string
		var license, repoID, modaliases sql.NullString
		v := &repo.Version{}

		if err := rows.Scan(&name, &state, &v.Version, &v.Arch, &license, &repoID, &modaliases); err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		v.License = license.String
		v.RepoID = repoID.String
		v.Modaliases = modaliases.String

		if current == nil || current.Name != name {
			current = &repo.Package{Name: name}
			packages = append(packages, current)
		}
		switch state {
		case stateInstalled:
			current.Installed = v
		case stateCandidate:
			current.Candidate = v
		}
		versions[key{name, state}] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package rows: %w", err)
	}
	rows.Close()

	for _, table := range []string{"depends", "provides"} {
		if err := c.loadCapabilities(table, where, args, func(name, state, capability string) {
			v, ok := versions[key{name, state}]
			if !ok {
				return
			}
			if table == "depends" {
				v.Depends = append(v.Depends, capability)
			} else {
				v.Provides = append(v.Provides, capability)
			}
		}); err != nil {
			return nil, err
		}
	}

	return packages, nil
}

func (c *Catalog) loadCapabilities(table, where string, args []any, add func(name, state, capability string)) error {
	query := `SELECT package, state, capability FROM ` + table + ` ` + where + ` ORDER BY package, state, position`
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, wrapNoTable(err))
	}
	defer rows.Close()

	for rows.Next() {
		var name, state, capability string
		if err := rows.Scan(&name, &state, &capability); err != nil {
			return fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		add(name, state, capability)
	}
	return rows.Err()
}

// Load reads the whole catalog into a snapshot. An empty arch falls back to
// the recorded architecture, then to the host's.
func (c *Catalog) Load(arch string) (*repo.Snapshot, error) {
	if arch == "" {
		recorded, err := c.Arch()
		if err != nil {
			return nil, err
		}
		arch = recorded
	}

	pkgs, err := c.ListPackages()
	if err != nil {
		return nil, err
	}
	return repo.NewSnapshot(arch, pkgs), nil
}
