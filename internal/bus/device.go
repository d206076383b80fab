// Package bus defines the common Device interface every dongle family
// implements, plus the Manager that owns a set of open devices, detects
// which family is attached to a given serial port, and fans decoded
// telegrams out to internal/wmbus/meter.
package bus

import (
	"context"
	"fmt"
)

// LinkMode is one of the wmbus PHY/MAC configurations a dongle can be
// told to listen on (S1, T1, C1, ...), following EN 13757-4's naming.
type LinkMode string

const (
	LinkModeS1  LinkMode = "s1"
	LinkModeS1m LinkMode = "s1m"
	LinkModeS2  LinkMode = "s2"
	LinkModeT1  LinkMode = "t1"
	LinkModeT2  LinkMode = "t2"
	LinkModeC1  LinkMode = "c1"
	LinkModeC2  LinkMode = "c2"
	LinkModeN1  LinkMode = "n1"
)

// LinkModeSet is an unordered collection of link modes a bus should
// listen on simultaneously, where the dongle supports it.
type LinkModeSet map[LinkMode]struct{}

// NewLinkModeSet builds a LinkModeSet from the given modes.
func NewLinkModeSet(modes ...LinkMode) LinkModeSet {
	s := make(LinkModeSet, len(modes))
	for _, m := range modes {
		s[m] = struct{}{}
	}
	return s
}

// Has reports whether m is a member of the set.
func (s LinkModeSet) Has(m LinkMode) bool {
	_, ok := s[m]
	return ok
}

// String renders the set as a space joined list in the fixed order
// c1 c2 t1 t2 s1 s1m s2 n1, e.g. "c1 t1".
func (s LinkModeSet) String() string {
	order := []LinkMode{LinkModeC1, LinkModeC2, LinkModeT1, LinkModeT2, LinkModeS1, LinkModeS1m, LinkModeS2, LinkModeN1}
	out := ""
	for _, m := range order {
		if s.Has(m) {
			if out != "" {
				out += " "
			}
			out += string(m)
		}
	}
	return out
}

// RawTelegram is one link-layer frame handed up from a Device, with any
// block CRCs already stripped, ready for telegram.Parse.
type RawTelegram struct {
	Bus       string
	Bytes     []byte
	RSSIDbm   int
	HasRSSI   bool
	Timestamp int64 // unix seconds; 0 when the dongle didn't supply one
}

// Device is the behaviour every dongle family (im871a, amb3665, rc1180,
// cul, rtlwmbus) implements. Open and Close bracket the underlying
// serial port or child process; Telegrams delivers decoded frames as
// they arrive until the context passed to Open is cancelled, at which
// point the channel is closed.
type Device interface {
	// Family is a short identifier like "im871a" used in log fields and
	// bus URIs.
	Family() string

	// Open opens the underlying transport and starts the reader that
	// feeds Telegrams. It returns once the reader is started, not once
	// it closes.
	Open(ctx context.Context) error

	// Close releases the underlying transport. Safe to call more than
	// once.
	Close() error

	// Telegrams returns the channel raw, CRC-stripped frames arrive on.
	// Valid only after a successful Open.
	Telegrams() <-chan RawTelegram

	// SetLinkModes requests the dongle listen on the given link modes.
	// Devices that cannot change mode at runtime (e.g. rtlwmbus, which
	// is configured via the child process's own command line) return
	// an error naming the fixed mode instead.
	SetLinkModes(modes LinkModeSet) error
}

// ErrLinkModeFixed is returned by SetLinkModes on a Device whose link
// mode is fixed for the life of the process.
type ErrLinkModeFixed struct {
	Family string
	Fixed  LinkModeSet
}

func (e *ErrLinkModeFixed) Error() string {
	return fmt.Sprintf("bus: %s link mode is fixed at %q and cannot be changed at runtime", e.Family, e.Fixed.String())
}
