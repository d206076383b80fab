// Package rc1180 implements the Radiocrafts RC1180 dongle's wire
// protocol. In receive mode the dongle streams raw wmbus telegrams
// framed the same way amb3665 does outside of command mode: a length
// byte followed by that many bytes, the first of which must be a
// valid wmbus C-field, with everything before the first plausible
// start byte-by-byte resynced away.
package rc1180

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
	"go.uber.org/zap"

	"github.com/wmbusd/wmbusd/internal/bus"
	"github.com/wmbusd/wmbusd/internal/logging"
)

func validWMBusCField(c byte) bool {
	switch c {
	case 0x44, 0x46, 0x48, 0x7a, 0x18, 0x1a:
		return true
	default:
		return false
	}
}

// CheckFrame looks for a length-prefixed wmbus telegram in buf,
// skipping leading bytes that can't be the start of one. consumed is
// 0 when no complete frame is present yet; clearExceptLast is true
// when no plausible telegram start exists anywhere in buf and the
// caller should drop everything but the final byte (it might be the
// first byte of a telegram whose length byte hasn't arrived yet).
func CheckFrame(buf []byte) (payload []byte, consumed int, clearExceptLast bool, err error) {
	offset := 0
	for {
		if offset+1 >= len(buf) {
			return nil, 0, false, nil
		}
		length := int(buf[offset])
		if length >= 10 && validWMBusCField(buf[offset+1]) {
			break
		}
		offset++
		if offset+2 >= len(buf) {
			return nil, 0, true, nil
		}
	}
	length := int(buf[offset])
	frameLen := offset + 1 + length
	if len(buf) < frameLen {
		return nil, 0, false, nil
	}
	return append([]byte{}, buf[offset+1:frameLen]...), frameLen, false, nil
}

// Device drives one RC1180 dongle over a serial port.
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

func (d *Device) Family() string { return "rc1180" }

func (d *Device) Open(ctx context.Context) error {
	cfg := &serial.Config{Name: d.portName, Baud: 19200, ReadTimeout: 200 * time.Millisecond}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return fmt.Errorf("rc1180: opening %s: %w", d.portName, err)
	}
	d.port = port
	logging.Info("rc1180 device opened", zap.String("port", d.portName))
	go d.readLoop(ctx)
	return nil
}

func (d *Device) readLoop(ctx context.Context) {
	defer close(d.telegrams)
	chunk := make([]byte, 256)
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
		payload, consumed, clearExceptLast, err := CheckFrame(d.buf)
		if err != nil {
			d.buf = d.buf[1:]
			continue
		}
		if clearExceptLast {
			last := d.buf[len(d.buf)-1]
			d.buf = []byte{last}
			return
		}
		if consumed == 0 {
			return
		}
		d.telegrams <- bus.RawTelegram{Bus: d.portName, Bytes: payload}
		d.buf = d.buf[consumed:]
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

// SetLinkModes is not implemented: RC1180 link mode is set through its
// non-volatile configuration memory block, which this package does not
// yet write.
func (d *Device) SetLinkModes(modes bus.LinkModeSet) error {
	return fmt.Errorf("rc1180: link mode configuration is not implemented")
}
