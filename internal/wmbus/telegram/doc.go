// Package telegram parses a raw wmbus/mbus frame payload into its
// data-link, transport and application layers, applies AES decryption
// when the transport layer's security configuration calls for it, and
// walks the resulting application-layer payload into DV-entries via
// package dif.
//
// A malformed or undecryptable telegram is never a panic: Parse returns
// a Telegram with Understood=false and a non-nil Problem describing why,
// so the caller can log it once per signature and move on.
package telegram
