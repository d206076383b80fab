// Package amb3665 implements the Amber Wireless AMB3665 dongle's wire
// protocol: command responses framed with a leading 0xFF and an XOR
// checksum, and raw wmbus telegrams framed simply as a length byte
// followed by that many bytes starting with a valid C-field.
package amb3665

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

const cmdSOF = 0xff

// CMDDataInd is the asynchronous "received a telegram" indication;
// its 0x80-OR'd response carries an RSSI trailer byte when the dongle
// was configured to report it.
const CMDDataInd = 0x04

func xorChecksum(data []byte, from, to int) byte {
	var cs byte
	for i := from; i < to; i++ {
		cs ^= data[i]
	}
	return cs
}

func validWMBusCField(c byte) bool {
	switch c {
	case 0x44, 0x46, 0x48, 0x7a, 0x18, 0x1a:
		return true
	default:
		return false
	}
}

// CheckFrame inspects buf for one complete frame. Command-response
// frames (leading 0xFF) and raw wmbus telegrams (leading length byte)
// are both recognised; consumed == 0 means buf does not yet hold a
// complete frame, and clearExceptLast == true tells the caller it
// should drop everything except the last byte of buf, matching the
// firmware's own resync-by-flushing behaviour when no sensible
// telegram start can be found.
func CheckFrame(buf []byte, rssiExpected bool) (payload []byte, rssiDbm int, hasRSSI bool, consumed int, clearExceptLast bool, err error) {
	if len(buf) < 2 {
		return nil, 0, false, 0, false, nil
	}
	if buf[0] == cmdSOF {
		if len(buf) < 3 {
			return nil, 0, false, 0, false, nil
		}
		rssiLen := 0
		if rssiExpected && buf[1] == 0x80|CMDDataInd {
			rssiLen = 1
		}
		payloadLen := int(buf[2])
		frameLen := 4 + payloadLen + rssiLen
		if len(buf) < frameLen {
			return nil, 0, false, 0, false, nil
		}
		cs := xorChecksum(buf, 0, frameLen-1)
		if buf[frameLen-1] != cs {
			return nil, 0, false, frameLen, false, fmt.Errorf("amb3665: command checksum mismatch")
		}
		if rssiLen == 1 {
			raw := int(buf[frameLen-2])
			if raw >= 128 {
				rssiDbm = (raw-256)/2 - 74
			} else {
				rssiDbm = raw/2 - 74
			}
			hasRSSI = true
		}
		return append([]byte{}, buf[3:3+payloadLen]...), rssiDbm, hasRSSI, frameLen, false, nil
	}

	offset := 0
	for {
		if offset+1 >= len(buf) {
			return nil, 0, false, 0, false, nil
		}
		payloadLen := int(buf[offset])
		if payloadLen >= 10 && validWMBusCField(buf[offset+1]) {
			break
		}
		offset++
		if offset+2 >= len(buf) {
			return nil, 0, false, 0, true, nil
		}
	}
	frameLen := payloadLen(buf, offset) + offset + 1
	if len(buf) < frameLen {
		return nil, 0, false, 0, false, nil
	}
	return append([]byte{}, buf[offset+1:frameLen]...), 0, false, frameLen, false, nil
}

func payloadLen(buf []byte, offset int) int { return int(buf[offset]) }

// Device drives one AMB3665 dongle over a serial port, in raw wmbus
// telegram mode (the 0xFF-framed command path is only used for the
// initial link-mode configuration handshake, which this package does
// not yet implement).
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

func (d *Device) Family() string { return "amb3665" }

func (d *Device) Open(ctx context.Context) error {
	cfg := &serial.Config{Name: d.portName, Baud: 9600, ReadTimeout: 200 * time.Millisecond}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return fmt.Errorf("amb3665: opening %s: %w", d.portName, err)
	}
	d.port = port
	logging.Info("amb3665 device opened", zap.String("port", d.portName))
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
		payload, rssi, hasRSSI, consumed, clearExceptLast, err := CheckFrame(d.buf, true)
		if err != nil {
			if consumed > 0 {
				d.buf = d.buf[consumed:]
				continue
			}
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
		if payload != nil {
			d.telegrams <- bus.RawTelegram{Bus: d.portName, Bytes: payload, RSSIDbm: rssi, HasRSSI: hasRSSI}
		}
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

// SetLinkModes is not implemented: changing the AMB3665's link mode
// requires the 0xFF-framed SET_CONFIG command handshake, which this
// package does not yet speak.
func (d *Device) SetLinkModes(modes bus.LinkModeSet) error {
	return fmt.Errorf("amb3665: link mode configuration is not implemented")
}
