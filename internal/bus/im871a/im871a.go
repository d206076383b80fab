// Package im871a implements the HCI-like wire protocol shared by the
// IM871A/IU880B/IU891A family of wmbus USB dongles: a 1-byte SOF
// (0xA5), a control nibble selecting optional trailer fields, an
// endpoint id, a message id, a 1-byte length, the payload, and any
// trailer fields the control nibble turned on.
package im871a

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

const serialSOF = 0xa5

// Endpoint ids, per the DevMgmt/RadioLink/RadioLinkTest/HWTest split
// the dongle firmware exposes.
const (
	EndpointDevMgmt       = 0x01
	EndpointRadioLink     = 0x02
	EndpointRadioLinkTest = 0x03
	EndpointHWTest        = 0x05
)

// Frame is one parsed HCI frame, trailer fields included.
type Frame struct {
	Endpoint  int
	MsgID     int
	Payload   []byte
	HasRSSI   bool
	RSSIDbm   int
	Timestamp int64
}

// controlBits decodes the control nibble's optional-trailer bits.
type controlBits struct {
	hasTimestamp bool
	hasRSSI      bool
	hasCRC16     bool
}

func decodeControl(b byte) controlBits {
	return controlBits{
		hasTimestamp: b&0x02 != 0,
		hasRSSI:      b&0x04 != 0,
		hasCRC16:     b&0x08 != 0,
	}
}

// CheckFrame inspects buf for one complete HCI frame starting at
// offset 0. It returns the frame and how many bytes of buf it
// consumed, or consumed == 0 if buf does not yet hold a complete
// frame. A malformed SOF byte or endpoint is reported as an error so
// the caller can resync byte-by-byte rather than getting stuck.
func CheckFrame(buf []byte) (frame Frame, consumed int, err error) {
	if len(buf) == 0 {
		return Frame{}, 0, nil
	}
	if buf[0] != serialSOF {
		return Frame{}, 0, fmt.Errorf("im871a: expected SOF 0x%02x, got 0x%02x", serialSOF, buf[0])
	}
	if len(buf) < 4 {
		return Frame{}, 0, nil
	}
	ctrl := decodeControl(buf[1] >> 4)
	endpoint := int(buf[1] & 0x0f)
	switch endpoint {
	case EndpointDevMgmt, EndpointRadioLink, EndpointRadioLinkTest, EndpointHWTest:
	default:
		return Frame{}, 0, fmt.Errorf("im871a: unknown endpoint id 0x%02x", endpoint)
	}
	msgID := int(buf[2])
	payloadLen := int(buf[3])

	total := 4 + payloadLen
	if ctrl.hasTimestamp {
		total += 4
	}
	if ctrl.hasRSSI {
		total += 1
	}
	if ctrl.hasCRC16 {
		total += 2
	}
	if len(buf) < total {
		return Frame{}, 0, nil
	}

	f := Frame{
		Endpoint: endpoint,
		MsgID:    msgID,
		Payload:  append([]byte{}, buf[4:4+payloadLen]...),
	}
	off := 4 + payloadLen
	if ctrl.hasTimestamp {
		ts := uint32(buf[off])<<24 | uint32(buf[off+1])<<16 | uint32(buf[off+2])<<8 | uint32(buf[off+3])
		f.Timestamp = int64(ts)
		off += 4
	}
	if ctrl.hasRSSI {
		f.HasRSSI = true
		f.RSSIDbm = int(int8(buf[off])) / 2
		off += 1
	}
	return f, total, nil
}

// Device drives one IM871A/IU880B/IU891A dongle over a serial port.
type Device struct {
	port      *serial.Port
	buf       []byte
	telegrams chan bus.RawTelegram
	mu        sync.Mutex
	closed    bool
	portName  string
	linkModes bus.LinkModeSet
}

// New returns a Device that will open portName at the dongle's fixed
// 57600 8N1 baud rate once Open is called.
func New(portName string) *Device {
	return &Device{portName: portName, telegrams: make(chan bus.RawTelegram, 16)}
}

func (d *Device) Family() string { return "im871a" }

func (d *Device) Open(ctx context.Context) error {
	cfg := &serial.Config{Name: d.portName, Baud: 57600, ReadTimeout: 200 * time.Millisecond}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return fmt.Errorf("im871a: opening %s: %w", d.portName, err)
	}
	d.port = port
	logging.Info("im871a device opened", zap.String("port", d.portName))
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
			// Every read error (timeouts included) is retried; the loop
			// ends only when ctx is cancelled.
			continue
		}
		if n == 0 {
			continue
		}
		d.buf = append(d.buf, chunk[:n]...)
		d.drainFrames()
	}
}

func (d *Device) drainFrames() {
	for len(d.buf) > 0 {
		frame, consumed, err := CheckFrame(d.buf)
		if err != nil {
			// Resync byte-by-byte past the bad SOF/endpoint.
			d.buf = d.buf[1:]
			continue
		}
		if consumed == 0 {
			return
		}
		d.buf = d.buf[consumed:]
		if frame.Endpoint == EndpointRadioLink {
			d.telegrams <- bus.RawTelegram{
				Bus:       d.portName,
				Bytes:     frame.Payload,
				RSSIDbm:   frame.RSSIDbm,
				HasRSSI:   frame.HasRSSI,
				Timestamp: frame.Timestamp,
			}
		}
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

// SetLinkModes is not yet wired to an actual DevMgmt SET_CONFIG command;
// im871a link mode configuration uses a multi-step handshake this
// package does not implement.
func (d *Device) SetLinkModes(modes bus.LinkModeSet) error {
	d.linkModes = modes
	return nil
}
