package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/drivermatch/internal/catalog"
	"github.com/blackwell-systems/drivermatch/internal/modalias"
	"github.com/blackwell-systems/drivermatch/internal/output"
	"github.com/blackwell-systems/drivermatch/internal/repo"
)

var (
	importQuiet bool

	catalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "Manage the repository catalog",
		Long: `The repository catalog is a SQLite database holding the metadata of the
packages available to this system: versions, licenses, origin repositories,
modalias declarations, dependencies and provided capabilities.`,
	}

	catalogImportCmd = &cobra.Command{
		Use:   "import <manifest.yaml>",
		Short: "Import a YAML package manifest into the catalog",
		Long: `Create or update the catalog from a YAML manifest. Packages already in
the catalog are replaced by their manifest entry; others are kept.`,
		Example: `  drivermatch catalog import repo-manifest.yaml
  drivermatch --catalog /tmp/test.db catalog import testdata/manifest.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runCatalogImport,
	}

	catalogInfoCmd = &cobra.Command{
		Use:   "info",
		Short: "Show catalog location, size and indexed modalias buses",
		Args:  cobra.NoArgs,
		RunE:  runCatalogInfo,
	}

	catalogShowCmd = &cobra.Command{
		Use:   "show <package>",
		Short: "Show the catalog entry of a package",
		Args:  cobra.ExactArgs(1),
		RunE:  runCatalogShow,
	}

	catalogRemoveCmd = &cobra.Command{
		Use:   "remove <package>...",
		Short: "Remove packages from the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCatalogRemove,
	}
)

func init() {
	catalogImportCmd.Flags().BoolVar(&importQuiet, "quiet", false, "suppress progress output")

	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogInfoCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogRemoveCmd)
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := catalog.ReadManifestFile(args[0])
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.Catalog); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	cat, err := catalog.New(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer cat.Close()

	var progress *output.ProgressBar
	var onPackage func(string)
	if !importQuiet {
		progress = output.NewProgress(cmd.ErrOrStderr(), len(m.Packages), "Importing packages")
		onPackage = func(string) { progress.Increment() }
	}

	n, err := cat.Import(m, onPackage)
	if err != nil {
		return err
	}
	if progress != nil {
		progress.Finish()
	}

	if !importQuiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d packages into %s\n", n, cat.FilePath())
	}
	return nil
}

func runCatalogInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cat, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	defer cat.Close()

	count, err := cat.CountPackages()
	if err != nil {
		return err
	}
	arch, err := cat.Arch()
	if err != nil {
		return err
	}
	if arch == "" {
		arch = "(host)"
	}
	snapshot, err := cat.Load("")
	if err != nil {
		return err
	}
	ix := modalias.Build(snapshot, newLogger(cmd.ErrOrStderr()))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Catalog:  %s\n", cat.FilePath())
	fmt.Fprintf(out, "Arch:     %s\n", arch)
	fmt.Fprintf(out, "Packages: %d\n", count)

	buses := ix.Buses()
	if len(buses) == 0 {
		fmt.Fprintln(out, "Buses:    none")
		return nil
	}
	fmt.Fprintln(out, "Buses:")
	for _, bus := range buses {
		fmt.Fprintf(out, "  %-8s %d patterns\n", bus, ix.Patterns(bus))
	}
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cat, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	defer cat.Close()

	pkg, err := cat.GetPackage(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Package: %s\n", pkg.Name)
	writeVersion(out, "Installed", pkg.Installed)
	writeVersion(out, "Candidate", pkg.Candidate)
	return nil
}

func writeVersion(out io.Writer, label string, v *repo.Version) {
	if v == nil {
		fmt.Fprintf(out, "%s: (none)\n", label)
		return
	}
	fmt.Fprintf(out, "%s: %s %s from %s\n", label, v.Version, v.Arch, v.RepoID)
	if v.License != "" {
		fmt.Fprintf(out, "  license:    %s\n", v.License)
	}
	if v.Modaliases != "" {
		fmt.Fprintf(out, "  modaliases: %s\n", v.Modaliases)
	}
	if len(v.Depends) > 0 {
		fmt.Fprintf(out, "  depends:    %s\n", strings.Join(v.Depends, ", "))
	}
	if len(v.Provides) > 0 {
		fmt.Fprintf(out, "  provides:   %s\n", strings.Join(v.Provides, ", "))
	}
}

func runCatalogRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cat, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	defer cat.Close()

	for _, name := range args {
		if err := cat.DeletePackage(name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
	}
	return nil
}
