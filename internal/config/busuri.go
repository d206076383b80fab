package config

import (
	"fmt"
	"strings"
)

// BusURI is a parsed device line, the Go form of
// config.cc's SpecifiedDevice: a device or shell command to open, an
// optional explicit dongle type, and an optional SDR frequency
// override.
type BusURI struct {
	Raw    string
	Device string // tty path, "stdin", "file:<path>", "sim:<path>", or a shell command
	Type   string // known dongle id, or "" to auto-detect
	FQ     string // optional radio frequency override for SDR backends
}

// knownDongleTypes lists the device type tokens ParseBusURI accepts as
// an explicit ":<type>" component, one per internal/bus family package
// plus "auto" for detection.
var knownDongleTypes = map[string]bool{
	"im871a": true, "amb3665": true, "rc1180": true, "cul": true,
	"rtlwmbus": true, "rtl433": true, "auto": true,
}

// ParseBusURI parses "<device_or_command>[:<type>[:<fq>]]" per spec's
// bus URI grammar. A device prefix of "/dev/rtlsdr" is canonicalised
// to the rtlwmbus command, mirroring handleDeviceOrHex's override
// rewrite ("use rtlwmbus instead of raw device").
func ParseBusURI(s string) (BusURI, error) {
	if s == "" {
		return BusURI{}, fmt.Errorf("config: empty bus URI")
	}
	prefix := ""
	for _, p := range []string{"file:", "sim:"} {
		if strings.HasPrefix(s, p) {
			prefix = p
			break
		}
	}
	parts := strings.Split(strings.TrimPrefix(s, prefix), ":")
	device := prefix + parts[0]
	if strings.HasPrefix(device, "/dev/rtlsdr") {
		device = "rtlwmbus"
	}

	u := BusURI{Raw: s, Device: device}
	switch len(parts) {
	case 1:
	case 2:
		u.Type = parts[1]
	case 3:
		u.Type = parts[1]
		u.FQ = parts[2]
	default:
		return BusURI{}, fmt.Errorf("config: malformed bus URI %q", s)
	}

	if u.Type != "" && !knownDongleTypes[u.Type] {
		return BusURI{}, fmt.Errorf("config: unknown dongle type %q in bus URI %q", u.Type, s)
	}
	return u, nil
}

// IsShellCommand reports whether Device names a child process to spawn
// (rtlwmbus/rtl433/auto) rather than a tty path or special source.
func (u BusURI) IsShellCommand() bool {
	switch {
	case strings.HasPrefix(u.Device, "rtlwmbus"):
		return true
	case strings.HasPrefix(u.Device, "rtl433"):
		return true
	case strings.HasPrefix(u.Device, "auto"):
		return true
	default:
		return false
	}
}

// IsSpecialSource reports whether Device is stdin, a file replay, or a
// simulation file rather than a live serial dongle.
func (u BusURI) IsSpecialSource() bool {
	return u.Device == "stdin" || strings.HasPrefix(u.Device, "file:") || strings.HasPrefix(u.Device, "sim:")
}
