// Package driver is the in-process registry of built-in meter drivers.
// Each driver registers itself from an init() function via Register,
// naming its detection triples (manufacturer, version, media) and its
// ordered list of field.Info declarations.
//
// Unlike the teacher's on-disk, lazily-loaded device registry, this
// registry is read-only and fully populated by the time main() runs:
// there is nothing to persist, so the only concurrency concern is
// concurrent reads, which a plain map safely supports once all init()
// functions have completed.
package driver
