package bus

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

// DevicePath describes one candidate wmbus dongle node found by a
// HotplugScanner sweep of /dev: a tty or SDR device that matches one
// of the known naming patterns, not yet known to be a working dongle
// of any particular family.
type DevicePath struct {
	// Path is the full device node path, e.g. "/dev/ttyUSB0".
	Path string
	// Family is a best guess from the path alone ("serial" or "rtlsdr");
	// DetectAndConfigure still needs to probe it to learn the real
	// protocol family.
	Family string
	// DiscoveredAt is when the scan observed this node.
	DiscoveredAt time.Time
}

// String returns a human-readable description of the candidate.
func (d DevicePath) String() string {
	return fmt.Sprintf("%s (%s)", d.Path, d.Family)
}

var (
	serialNodePattern = regexp.MustCompile(`^tty(USB|ACM)\d+$`)
	rtlsdrNodePattern = regexp.MustCompile(`^rtlsdr\d*$`)
)

// HotplugScanner periodically lists /dev for serial and SDR device
// nodes that could host a wmbus dongle, the adapted form of an mDNS
// scanner for a USB/tty hot-plug world: instead of browsing a network
// service type, ScanOnce reads a directory.
type HotplugScanner struct {
	// DevDir is the directory to scan, normally "/dev". Overridable for
	// testing against a fake sysroot.
	DevDir string
}

// NewHotplugScanner returns a HotplugScanner rooted at "/dev".
func NewHotplugScanner() *HotplugScanner {
	return &HotplugScanner{DevDir: "/dev"}
}

// ScanOnce lists DevDir and returns every entry that looks like a
// wmbus-capable device node, sorted by path for stable ordering.
func (s *HotplugScanner) ScanOnce() ([]DevicePath, error) {
	entries, err := os.ReadDir(s.DevDir)
	if err != nil {
		return nil, fmt.Errorf("bus: scanning %s: %w", s.DevDir, err)
	}

	now := scanTime()
	var found []DevicePath
	for _, e := range entries {
		name := e.Name()
		switch {
		case serialNodePattern.MatchString(name):
			found = append(found, DevicePath{Path: filepath.Join(s.DevDir, name), Family: "serial", DiscoveredAt: now})
		case rtlsdrNodePattern.MatchString(name):
			found = append(found, DevicePath{Path: filepath.Join(s.DevDir, name), Family: "rtlsdr", DiscoveredAt: now})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

// Diff compares a fresh ScanOnce result against previously known
// paths and returns the newly appeared device paths, letting a caller
// drive DetectAndConfigure only for genuinely new hardware instead of
// re-probing everything on every tick.
func (s *HotplugScanner) Diff(known map[string]bool, fresh []DevicePath) []DevicePath {
	var added []DevicePath
	for _, d := range fresh {
		if !known[d.Path] {
			added = append(added, d)
		}
	}
	return added
}

// scanTime is a seam so tests can avoid depending on wall-clock time;
// production code always uses time.Now.
var scanTime = time.Now
