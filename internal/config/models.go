package config

import "time"

// GlobalConfig is the whole-process configuration: the settings that
// used to live in wmbusmeters.conf plus the meters that used to live
// as one file per meter under wmbusmeters.d/. Both the classic
// key=value form (ParseGlobalConfigFile/ParseMeterConfigBlock) and the
// consolidated YAML form (LoadGlobalConfigYAML) populate the same
// struct.
type GlobalConfig struct {
	Version int `yaml:"version"`

	LogLevel string   `yaml:"loglevel,omitempty"`
	Devices  []string `yaml:"devices,omitempty"` // raw bus URIs, see ParseBusURI
	ListenTo []string `yaml:"listento,omitempty"`

	ExitAfter  time.Duration `yaml:"exitafter,omitempty"`
	ResetAfter time.Duration `yaml:"resetafter,omitempty"`
	OneShot    bool          `yaml:"oneshot,omitempty"`

	LogTelegrams bool `yaml:"logtelegrams,omitempty"`
	LogSummary   bool `yaml:"logsummary,omitempty"`

	Meterfiles          bool   `yaml:"meterfiles,omitempty"`
	MeterfilesDir       string `yaml:"meterfiles_dir,omitempty"`
	MeterfilesAction    string `yaml:"meterfilesaction,omitempty"`    // overwrite | append
	MeterfilesNaming    string `yaml:"meterfilesnaming,omitempty"`    // name | id | name-id
	MeterfilesTimestamp string `yaml:"meterfilestimestamp,omitempty"` // day | hour | minute | micros | never

	Format    string `yaml:"format,omitempty"` // hr | json | fields
	Separator string `yaml:"separator,omitempty"`

	LogTimestamps string `yaml:"logtimestamps,omitempty"` // never | always | important

	DoNotProbe       []string `yaml:"donotprobe,omitempty"`
	IgnoreDuplicates bool     `yaml:"ignoreduplicates,omitempty"`

	SelectFields []string `yaml:"selectfields,omitempty"`

	Meters []MeterConfig `yaml:"meters,omitempty"`
}

// MeterConfig is one meter configuration block: the Go form of a
// wmbusmeters.d/<name> key=value file, or one entry of a consolidated
// YAML config's meters list.
type MeterConfig struct {
	Name string `yaml:"name"`
	Bus  string `yaml:"bus,omitempty"`

	// Driver is the meter driver name, or "auto" to detect by
	// mfct/media/version at first telegram.
	Driver string `yaml:"driver"`
	// ID is a comma-separated list of address expressions; any one
	// matching selects this meter (see internal/wmbus/address).
	ID string `yaml:"id"`
	// Key is the hex-encoded AES key, empty for an unencrypted meter.
	Key string `yaml:"key,omitempty"`

	PollInterval time.Duration `yaml:"pollinterval,omitempty"`

	Shells      []string `yaml:"shell,omitempty"`
	AlarmShells []string `yaml:"alarmshell,omitempty"`

	SelectFields []string `yaml:"selectfields,omitempty"`
	// ExtraConstantFields holds "key=value" pairs, from the classic
	// format's json_<k>/field_<k> keys.
	ExtraConstantFields []string `yaml:"extra_constant_fields,omitempty"`
	// CalculatedFields holds "key=expression" pairs, from the classic
	// format's calculate_<k> keys.
	CalculatedFields []string `yaml:"calculate_fields,omitempty"`
}

// NewGlobalConfig returns a GlobalConfig with the same defaults
// loadConfiguration assumes before any key is parsed: JSON output,
// append meterfiles action, name-based meterfiles naming.
func NewGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Version:             1,
		Format:              "json",
		Separator:           ";",
		MeterfilesAction:    "append",
		MeterfilesNaming:    "name",
		MeterfilesTimestamp: "day",
		LogTimestamps:       "important",
	}
}

// MeterByName returns the meter configuration with the given name.
func (c *GlobalConfig) MeterByName(name string) (MeterConfig, bool) {
	for _, m := range c.Meters {
		if m.Name == name {
			return m, true
		}
	}
	return MeterConfig{}, false
}
