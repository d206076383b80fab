// Package config provides the configuration model for wmbusd: the
// global process settings and the set of meters to listen for, in two
// interchangeable shapes.
//
// The classic shape is a directory of key=value files, the Go form of
// wmbusmeters' on-disk layout: /etc/wmbusd.conf holds the global keys,
// and one file per meter lives under /etc/wmbusd.d/. LoadConfigDirectory
// reads that whole layout; ParseGlobalConfigFile and
// ParseMeterConfigBlock parse one file each.
//
// The consolidated shape is a single YAML document (GlobalConfig with
// its embedded Meters slice), stored under the OS-appropriate config
// directory (see GetConfigDir) and loaded with LoadGlobalConfig.
//
// # Bus URIs
//
// A meter's Bus field and the global Devices list both use the
// "<device_or_command>[:<type>[:<fq>]]" grammar parsed by ParseBusURI:
// a serial device path, a shell command to spawn (rtlwmbus, rtl433),
// or a special source (stdin, file:<path>, sim:<path>), optionally
// qualified with an explicit dongle type and radio frequency.
//
// # Thread Safety
//
// The global YAML configuration uses sync.Once for safe lazy
// initialization across goroutines. File writes are serialized by a
// mutex and performed atomically via a temp file plus rename.
package config
