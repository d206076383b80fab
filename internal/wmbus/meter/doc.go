// Package meter owns the running set of configured Meter instances and
// the field values each one has accumulated from decoded telegrams.
//
// A Meter holds a reference into the driver registry rather than owning
// a copy of its field declarations, so registering a new driver can
// never leave an already-constructed Meter holding a stale definition.
// Manager takes its write lock only for AddMeter and RemoveAll; telegram
// dispatch and reads (snapshotting current field values for output) take
// a read lock, and each Meter serializes updates to its own values with
// its own mutex.
package meter
