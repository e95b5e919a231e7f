package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackwell-systems/drivermatch/internal/repo"
)

// Environment variables of the exec protocol.
const (
	EnvCatalog = "DRIVERMATCH_CATALOG"
	EnvArch    = "DRIVERMATCH_ARCH"
)

// ExecDetector runs an executable plugin.
type ExecDetector struct {
	Path    string
	Catalog string // catalog path handed to the plugin
}

// Name returns the plugin file name.
func (e *ExecDetector) Name() string {
	return filepath.Base(e.Path)
}

// Detect runs the plugin and decodes its output.
func (e *ExecDetector) Detect(ctx context.Context, q repo.Query) ([]string, error) {
	cmd := exec.CommandContext(ctx, e.Path)
	cmd.Env = append(os.Environ(),
		EnvCatalog+"="+e.Catalog,
		EnvArch+"="+q.Arch(),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Stop waiting on output pipes held open by orphaned children.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("plugin %s failed: %w (stderr: %s)",
			e.Name(), err, strings.TrimSpace(stderr.String()))
	}

	return DecodeOutput(stdout.Bytes())
}

// DecodeOutput parses plugin output: a JSON array of strings, or null.
// Empty output counts as null.
func DecodeOutput(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var names []string
	if err := json.Unmarshal(trimmed, &names); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadType, err)
	}
	return names, nil
}

// Serve runs d and writes its result in the exec protocol format. Plugin
// executables call it from main.
func Serve(ctx context.Context, d Detector, q repo.Query, w io.Writer) error {
	names, err := d.Detect(ctx, q)
	if err != nil {
		return fmt.Errorf("detector %s failed: %w", d.Name(), err)
	}

	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// discoverExecutables returns ExecDetectors for the executable regular
// files in dir, sorted by name. A missing dir yields none.
func discoverExecutables(dir, catalog string) ([]Detector, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var detectors []Detector
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0111 == 0 {
			continue
		}

		detectors = append(detectors, &ExecDetector{
			Path:    filepath.Join(dir, name),
			Catalog: catalog,
		})
	}
	return detectors, nil
}
