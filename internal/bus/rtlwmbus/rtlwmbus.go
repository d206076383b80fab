// Package rtlwmbus wraps the rtl_wmbus child process: an RTL-SDR based
// software radio that prints one semicolon-separated line per telegram
// on stdout, in the form
//
//	MODE;CRC_OK;3OUTOF6OK;TIMESTAMP;PACKET_RSSI;CURRENT_RSSI;ID;0x<hex>
//
// with any number of additional trailing ";0x<hex>" segments, each a
// separate telegram sharing the rest of the line's metadata. A line
// matching "rtl_wmbus: exiting" means the child died and must be
// restarted.
package rtlwmbus

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wmbusd/wmbusd/internal/bus"
	"github.com/wmbusd/wmbusd/internal/logging"
)

// ExitMarker is the line rtl_wmbus prints right before its process
// dies, signalling the device manager that it must relaunch the child.
const ExitMarker = "rtl_wmbus: exiting"

// ParsedLine is one rtl_wmbus output line, already split into its
// shared metadata and one or more telegram payloads.
type ParsedLine struct {
	Mode      string
	CRCOK     bool
	RSSIDbm   int
	HasRSSI   bool
	Telegrams [][]byte
}

// ParseLine decodes one line of rtl_wmbus output. A line equal to
// ExitMarker, or one that doesn't look like telegram output at all, is
// reported via ok=false rather than as an error: rtl_wmbus prints a
// fair amount of diagnostic chatter that simply isn't a telegram line.
func ParseLine(line string) (parsed ParsedLine, ok bool, err error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || line == ExitMarker {
		return ParsedLine{}, false, nil
	}
	fields := strings.Split(line, ";")
	if len(fields) < 8 {
		return ParsedLine{}, false, nil
	}

	parsed.Mode = fields[0]
	parsed.CRCOK = fields[1] == "1"
	if rssi, err := strconv.Atoi(strings.TrimSpace(fields[4])); err == nil {
		parsed.RSSIDbm = rssi
		parsed.HasRSSI = true
	}

	for _, f := range fields[7:] {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		hexPart := strings.TrimPrefix(f, "0x")
		if len(hexPart)%2 == 1 {
			return ParsedLine{}, true, fmt.Errorf("rtlwmbus: odd-length hex telegram %q", f)
		}
		raw, err := hex.DecodeString(hexPart)
		if err != nil {
			return ParsedLine{}, true, fmt.Errorf("rtlwmbus: malformed telegram hex %q: %w", f, err)
		}
		parsed.Telegrams = append(parsed.Telegrams, raw)
	}
	if len(parsed.Telegrams) == 0 {
		return ParsedLine{}, false, nil
	}
	return parsed, true, nil
}

// Device runs rtl_wmbus as a child process and streams its telegrams.
// Link mode is fixed by the command-line arguments the child was
// launched with.
type Device struct {
	command   string
	args      []string
	cmd       *exec.Cmd
	telegrams chan bus.RawTelegram
	mu        sync.Mutex
	fixedMode bus.LinkModeSet
}

// New returns a Device that launches command with args once Open is
// called. fixedMode records the link mode the caller configured the
// command line for, surfaced by SetLinkModes's error.
func New(command string, args []string, fixedMode bus.LinkModeSet) *Device {
	return &Device{command: command, args: args, telegrams: make(chan bus.RawTelegram, 16), fixedMode: fixedMode}
}

func (d *Device) Family() string { return "rtlwmbus" }

func (d *Device) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cmd := exec.CommandContext(ctx, d.command, d.args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("rtlwmbus: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("rtlwmbus: starting %s: %w", d.command, err)
	}
	d.cmd = cmd
	logging.Info("rtlwmbus child started", zap.String("command", d.command))

	go func() {
		defer close(d.telegrams)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			parsed, ok, err := ParseLine(scanner.Text())
			if err != nil {
				logging.WarnOnce("rtlwmbus-parse-error", "failed to parse rtl_wmbus line", zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			for _, telegram := range parsed.Telegrams {
				d.telegrams <- bus.RawTelegram{Bus: d.command, Bytes: telegram, RSSIDbm: parsed.RSSIDbm, HasRSSI: parsed.HasRSSI}
			}
		}
	}()
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cmd == nil || d.cmd.Process == nil {
		return nil
	}
	return d.cmd.Process.Kill()
}

func (d *Device) Telegrams() <-chan bus.RawTelegram { return d.telegrams }

func (d *Device) SetLinkModes(modes bus.LinkModeSet) error {
	return &bus.ErrLinkModeFixed{Family: "rtlwmbus", Fixed: d.fixedMode}
}
