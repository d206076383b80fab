// Package framing implements the wire-level framing shared by the
// serial wmbus dongle families: CRC16-CCITT as used by the iu89xx/iu880b
// command protocol, SLIP byte-stuffing for the same dongles, and the
// wmbus Frame-Format-A/B block CRC convention carried over the radio
// link itself.
//
// None of this is specific to a single dongle; each bus implementation
// in internal/bus/<family> calls into here rather than reimplementing
// CRC or SLIP locally.
package framing
