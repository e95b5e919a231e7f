package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/blackwell-systems/drivermatch/internal/catalog"
	"github.com/blackwell-systems/drivermatch/internal/config"
	"github.com/blackwell-systems/drivermatch/internal/detect"
	"github.com/blackwell-systems/drivermatch/internal/hwdb"
	"github.com/blackwell-systems/drivermatch/internal/modalias"
	"github.com/blackwell-systems/drivermatch/internal/modprobe"
	"github.com/blackwell-systems/drivermatch/internal/plugin"
	"github.com/blackwell-systems/drivermatch/internal/repo"
)

// newLogger returns the CLI logger: warnings and errors only, unless
// --verbose asks for debug output.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the config and applies the --catalog flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if catalogFlag != "" {
		cfg.Catalog = catalogFlag
	}
	return cfg, nil
}

// openCatalog opens an existing catalog. A missing file is reported as
// ErrNotInitialized rather than silently creating an empty database.
func openCatalog(path string) (*catalog.Catalog, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no catalog at %s: %w", path, catalog.ErrNotInitialized)
	}
	cat, err := catalog.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return cat, nil
}

// session is everything one detection command needs.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	snapshot *repo.Snapshot
	index    *modalias.Cache
	detector *detect.Detector
}

// newSession loads the config and catalog and wires up a detector.
func newSession(stderr io.Writer) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(stderr)

	cat, err := openCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	defer cat.Close()

	snapshot, err := cat.Load("")
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Debug("catalog loaded", "path", cfg.Catalog, "packages", snapshot.Len(), "arch", snapshot.Arch())

	registry := plugin.NewRegistry()
	if err := registry.Register(&plugin.VirtualBoxDetector{SysfsRoot: cfg.SysfsRoot}); err != nil {
		return nil, err
	}

	index := modalias.NewCache(cfg.IndexCacheSize, logger)
	return &session{
		cfg:      cfg,
		logger:   logger,
		snapshot: snapshot,
		index:    index,
		detector: &detect.Detector{
			SysfsRoot:   cfg.SysfsRoot,
			Index:       index,
			HWDB:        hwdb.New(cfg.HwdataDir, logger),
			XorgLog:     cfg.XorgLog,
			DistroRepos: cfg.DistroRepos,
			Plugins: &plugin.Loader{
				Dir:      cfg.DetectDir,
				Registry: registry,
				Catalog:  cfg.Catalog,
				XorgLog:  cfg.XorgLog,
				Timeout:  cfg.PluginTimeout,
				Logger:   logger,
			},
			Modules: &modprobe.Detector{Prober: modprobe.DefaultProber(), Logger: logger},
			Logger:  logger,
		},
	}, nil
}
