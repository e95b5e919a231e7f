package policy

import (
	"bytes"
	"log/slog"
	"os"
	"strings"

	"github.com/blackwell-systems/drivermatch/internal/repo"
)

const (
	// XServerPackage provides the video driver ABI capability.
	XServerPackage = "xserver-xorg-core"

	// VideoABIPrefix prefixes the video driver ABI capability token.
	VideoABIPrefix = "xorg-video-abi-"

	// DefaultXorgLog is read to detect hybrid graphics setups.
	DefaultXorgLog = "/var/log/Xorg.0.log"

	// hybridMarker in the X log means the Intel driver is loaded, which
	// the proprietary NVIDIA driver cannot coexist with.
	hybridMarker = "drivers/intel_drv.so"

	proprietaryMarker = "nvidia"
)

// ABIChecker decides whether a graphics driver package can work with the
// running X server.
type ABIChecker struct {
	Query   repo.Query
	XorgLog string // empty means $DRIVERMATCH_XORG_LOG or DefaultXorgLog
	Logger  *slog.Logger
}

// XorgLogPath returns the X server log path, honouring
// $DRIVERMATCH_XORG_LOG.
func XorgLogPath() string {
	if path := os.Getenv("DRIVERMATCH_XORG_LOG"); path != "" {
		return path
	}
	return DefaultXorgLog
}

// CurrentABI returns the video driver ABI token the X server candidate
// provides. found is false when the X server package or its candidate is
// unavailable; token is empty when the server provides no ABI token.
func (c *ABIChecker) CurrentABI() (token string, found bool) {
	server, ok := c.Query.Lookup(XServerPackage)
	if !ok || server.Candidate == nil {
		return "", false
	}
	for _, p := range server.Candidate.Provides {
		if strings.HasPrefix(p, VideoABIPrefix) {
			return p, true
		}
	}
	return "", true
}

// Compatible reports whether pkg's candidate can be used with the running
// display stack.
func (c *ABIChecker) Compatible(pkg *repo.Package) bool {
	logger := c.logger()

	abi, found := c.CurrentABI()
	if !found {
		logger.Debug("X server not available, cannot check ABI", "package", pkg.Name)
		return true
	}
	if abi == "" {
		return false
	}

	if pkg.Candidate != nil {
		deps := dependencyNames(pkg.Candidate.Depends)
		needsABI := false
		hasCurrent := false
		for _, dep := range deps {
			if strings.Contains(dep, VideoABIPrefix) {
				needsABI = true
			}
			if dep == abi {
				hasCurrent = true
			}
		}
		if needsABI && !hasCurrent {
			logger.Debug("driver package is incompatible with current X.org server ABI",
				"package", pkg.Name, "abi", abi)
			return false
		}
	}

	// The proprietary NVIDIA driver does not work on hybrid Intel/NVIDIA
	// systems.
	if strings.Contains(pkg.Name, proprietaryMarker) {
		logPath := c.XorgLog
		if logPath == "" {
			logPath = XorgLogPath()
		}
		data, err := os.ReadFile(logPath)
		if err != nil {
			logger.Debug("cannot open X.org log, cannot determine hybrid state",
				"path", logPath, "error", err)
			return true
		}
		if bytes.Contains(data, []byte(hybridMarker)) {
			logger.Debug("X.org log reports loaded intel driver, disabling driver for hybrid system",
				"package", pkg.Name)
			return false
		}
	}

	return true
}

func (c *ABIChecker) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// dependencyNames flattens dependency entries such as
// "xorg-video-abi-24 | xorg-video-abi-23" or "kernel >= 6.1" into the bare
// capability names.
func dependencyNames(depends []string) []string {
	var names []string
	for _, entry := range depends {
		for _, alt := range strings.Split(entry, "|") {
			fields := strings.Fields(alt)
			if len(fields) > 0 {
				names = append(names, fields[0])
			}
		}
	}
	return names
}
