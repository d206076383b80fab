// Package cul implements the CUL family of wmbus USB dongles' text-line
// protocol: each telegram is one line starting with 'b' ('bY' for a
// Frame-Format-B C1 telegram, plain 'b' for a Frame-Format-A T1
// telegram), hex-encoded, CRLF-terminated, with a 2-byte LQI/RSSI
// trailer hex-encoded just before the CRLF.
package cul

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
	"go.uber.org/zap"

	"github.com/wmbusd/wmbusd/internal/bus"
	"github.com/wmbusd/wmbusd/internal/bus/framing"
	"github.com/wmbusd/wmbusd/internal/logging"
)

// Line is one decoded CUL telegram line.
type Line struct {
	FrameFormatB bool
	Payload      []byte
	RSSIDbm      int
}

// CheckLine looks for one complete CRLF- or LF-terminated line in buf.
// consumed is 0 until a full line is available. A line not starting
// with 'b' is plain firmware text, reported via isText so the caller
// can log and discard it without treating it as a malformed telegram.
func CheckLine(buf []byte) (line Line, consumed int, isText bool, err error) {
	eolp := -1
	for i, b := range buf {
		if b == '\n' {
			eolp = i
			break
		}
	}
	if eolp == -1 {
		return Line{}, 0, false, nil
	}
	eolp++ // one past the \n

	eofLen := 1
	if eolp >= 2 && buf[eolp-2] == '\r' {
		eofLen = 2
	}

	if buf[0] != 'b' {
		return Line{}, eolp, true, nil
	}
	if eolp-eofLen-4 < 0 {
		return Line{}, eolp, false, fmt.Errorf("cul: line too short to carry an RSSI/LQI trailer")
	}

	trailer := buf[eolp-eofLen-4 : eolp-eofLen]
	lqiRSSI := make([]byte, 2)
	if _, err := hex.Decode(lqiRSSI, trailer); err != nil {
		return Line{}, eolp, false, fmt.Errorf("cul: malformed LQI/RSSI hex trailer: %w", err)
	}
	rssiDbm := int(int8(lqiRSSI[1]))/2 - 74

	isFormatB := len(buf) > 1 && buf[1] == 'Y'
	hexStart := 1
	if isFormatB {
		hexStart = 2
	}
	hexBody := buf[hexStart : eolp-eofLen-4]
	if len(hexBody)%2 == 1 {
		return Line{}, eolp, false, fmt.Errorf("cul: odd-length hex body (firmware truncation bug)")
	}
	payload := make([]byte, len(hexBody)/2)
	if _, err := hex.Decode(payload, hexBody); err != nil {
		return Line{}, eolp, false, fmt.Errorf("cul: malformed telegram hex: %w", err)
	}

	var stripped []byte
	if isFormatB {
		stripped, err = framing.StripBlockCRCsFormatB(payload)
	} else {
		stripped, err = framing.StripBlockCRCsFormatA(payload)
	}
	if err != nil {
		return Line{}, eolp, false, err
	}

	return Line{FrameFormatB: isFormatB, Payload: stripped, RSSIDbm: rssiDbm}, eolp, false, nil
}

// Device drives one CUL dongle over a serial port.
type Device struct {
	port      *serial.Port
	buf       []byte
	telegrams chan bus.RawTelegram
	mu        sync.Mutex
	closed    bool
	portName  string
}

// New returns a Device that will open portName once Open is called.
func New(portName string) *Device {
	return &Device{portName: portName, telegrams: make(chan bus.RawTelegram, 16)}
}

func (d *Device) Family() string { return "cul" }

func (d *Device) Open(ctx context.Context) error {
	cfg := &serial.Config{Name: d.portName, Baud: 9600, ReadTimeout: 200 * time.Millisecond}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return fmt.Errorf("cul: opening %s: %w", d.portName, err)
	}
	d.port = port
	logging.Info("cul device opened", zap.String("port", d.portName))
	go d.readLoop(ctx)
	return nil
}

func (d *Device) readLoop(ctx context.Context) {
	defer close(d.telegrams)
	chunk := make([]byte, 512)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := d.port.Read(chunk)
		if err != nil {
			continue
		}
		if n == 0 {
			continue
		}
		d.buf = append(d.buf, chunk[:n]...)
		d.drain()
	}
}

func (d *Device) drain() {
	for len(d.buf) > 0 {
		line, consumed, isText, err := CheckLine(d.buf)
		if consumed == 0 {
			return
		}
		d.buf = d.buf[consumed:]
		if isText || err != nil {
			continue
		}
		d.telegrams <- bus.RawTelegram{Bus: d.portName, Bytes: line.Payload, RSSIDbm: line.RSSIDbm, HasRSSI: true}
	}
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.port == nil {
		return nil
	}
	d.closed = true
	return d.port.Close()
}

func (d *Device) Telegrams() <-chan bus.RawTelegram { return d.telegrams }

// SetLinkModes is not implemented: CUL link mode selection happens via
// the 'b' command sent once at startup, which this package does not
// yet speak.
func (d *Device) SetLinkModes(modes bus.LinkModeSet) error {
	return fmt.Errorf("cul: link mode configuration is not implemented")
}
