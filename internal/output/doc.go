// Package output renders a meter's accumulated field values for
// consumption outside the process: as JSON, as a delimited field line,
// or as a METER_-prefixed environment for a shell hook, plus two
// optional sinks (a bbolt-backed history store and an MQTT publisher)
// that consume the same snapshot.
//
// Grounded on original_source/src/main.cc's print/list_shell_envs
// paths and config.cc's format/separator/meterfiles keys.
package output
