package main

import (
	"fmt"
	"strings"

	"github.com/wmbusd/wmbusd/internal/bus"
	"github.com/wmbusd/wmbusd/internal/bus/amb3665"
	"github.com/wmbusd/wmbusd/internal/bus/cul"
	"github.com/wmbusd/wmbusd/internal/bus/im871a"
	"github.com/wmbusd/wmbusd/internal/bus/rc1180"
	"github.com/wmbusd/wmbusd/internal/bus/rtlwmbus"
	"github.com/wmbusd/wmbusd/internal/config"
)

// newDeviceFromURI builds the bus.Device a parsed bus URI names. An
// explicit Type picks the family directly; no type and a serial-looking
// Device path fall back to im871a, the most common USB dongle, leaving
// real auto-detection to Manager.DetectAndConfigure.
func newDeviceFromURI(u config.BusURI) (bus.Device, error) {
	if u.IsShellCommand() {
		args := []string{}
		if u.FQ != "" {
			args = append(args, "-f", u.FQ)
		}
		return rtlwmbus.New(u.Device, args, bus.LinkModeSet{}), nil
	}

	switch u.Type {
	case "im871a", "":
		return im871a.New(u.Device), nil
	case "amb3665":
		return amb3665.New(u.Device), nil
	case "rc1180":
		return rc1180.New(u.Device), nil
	case "cul":
		return cul.New(u.Device), nil
	case "rtlwmbus", "rtl433":
		args := []string{}
		if u.FQ != "" {
			args = append(args, "-f", u.FQ)
		}
		return rtlwmbus.New(u.Device, args, bus.LinkModeSet{}), nil
	case "auto":
		return nil, fmt.Errorf("devicefactory: %q requires probing via DetectAndConfigure, not a direct open", u.Raw)
	default:
		return nil, fmt.Errorf("devicefactory: unknown dongle type %q in bus URI %q", u.Type, u.Raw)
	}
}

// candidateDevices returns one Device per known serial family, used by
// DetectAndConfigure to probe an "auto" bus URI against every family in
// turn.
func candidateDevices(portName string) map[string]bus.Device {
	return map[string]bus.Device{
		"im871a":  im871a.New(portName),
		"amb3665": amb3665.New(portName),
		"rc1180":  rc1180.New(portName),
		"cul":     cul.New(portName),
	}
}

// busNameFor derives a stable bus identifier from a URI for log fields
// and METER_DEVICE, collapsing a shell command's arguments down to its
// program name.
func busNameFor(u config.BusURI) string {
	if u.IsShellCommand() {
		name := u.Device
		if f := strings.Fields(name); len(f) > 0 {
			name = f[0]
		}
		return strings.TrimSuffix(name, ".exe")
	}
	return u.Device
}
