package config

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseKeyValueLines splits data into key=value pairs, one per line,
// the Go form of config.cc's getNextKeyValue loop: a line starting
// with '#' is a comment and is skipped entirely, a line with no '='
// is skipped, and surrounding whitespace around both key and value is
// trimmed.
func parseKeyValueLines(data []byte) [][2]string {
	var pairs [][2]string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(k), strings.TrimSpace(v)})
	}
	return pairs
}

// ParseMeterConfigBlock parses one meter configuration file's
// contents, the Go form of parseMeterConfig's per-key dispatch. name
// must not contain ':', matching the original's rule.
func ParseMeterConfigBlock(data []byte) (MeterConfig, error) {
	mc := MeterConfig{Driver: "auto"}
	for _, kv := range parseKeyValueLines(data) {
		key, value := kv[0], kv[1]
		switch {
		case key == "name":
			if strings.Contains(value, ":") {
				return MeterConfig{}, fmt.Errorf("config: meter name %q must not contain ':'", value)
			}
			mc.Name = value
		case key == "bus":
			mc.Bus = value
		case key == "type" || key == "driver":
			mc.Driver = value
		case key == "id":
			mc.ID = value
		case key == "key":
			mc.Key = value
		case key == "pollinterval":
			d, err := parseSecondsDuration(value)
			if err != nil {
				return MeterConfig{}, fmt.Errorf("config: pollinterval: %w", err)
			}
			mc.PollInterval = d
		case key == "shell":
			mc.Shells = append(mc.Shells, value)
		case key == "alarmshell":
			mc.AlarmShells = append(mc.AlarmShells, value)
		case key == "selectfields":
			mc.SelectFields = splitNonEmpty(value, ',')
		case strings.HasPrefix(key, "json_"):
			mc.ExtraConstantFields = append(mc.ExtraConstantFields, key[len("json_"):]+"="+value)
		case strings.HasPrefix(key, "field_"):
			mc.ExtraConstantFields = append(mc.ExtraConstantFields, key[len("field_"):]+"="+value)
		case strings.HasPrefix(key, "calculate_"):
			mc.CalculatedFields = append(mc.CalculatedFields, key[len("calculate_"):]+"="+value)
		}
	}
	if mc.Name == "" {
		return MeterConfig{}, fmt.Errorf("config: meter configuration missing required \"name\" key")
	}
	return mc, nil
}

// ParseGlobalConfigFile parses a wmbusmeters.conf-style global
// configuration, the Go form of loadConfiguration's key dispatch over
// everything but the per-meter directory.
func ParseGlobalConfigFile(data []byte) (*GlobalConfig, error) {
	c := NewGlobalConfig()
	for _, kv := range parseKeyValueLines(data) {
		key, value := kv[0], kv[1]
		switch {
		case key == "loglevel":
			c.LogLevel = value
		case key == "device":
			c.Devices = append(c.Devices, value)
		case key == "listento":
			c.ListenTo = append(c.ListenTo, value)
		case key == "exitafter":
			d, err := parseSecondsDuration(value)
			if err != nil {
				return nil, fmt.Errorf("config: exitafter: %w", err)
			}
			c.ExitAfter = d
		case key == "resetafter":
			d, err := parseSecondsDuration(value)
			if err != nil {
				return nil, fmt.Errorf("config: resetafter: %w", err)
			}
			c.ResetAfter = d
		case key == "oneshot":
			c.OneShot = value == "true"
		case key == "logtelegrams":
			c.LogTelegrams = value == "true"
		case key == "logsummary":
			c.LogSummary = value == "true"
		case key == "meterfiles":
			c.Meterfiles = value != ""
			c.MeterfilesDir = value
		case key == "meterfilesaction":
			c.MeterfilesAction = value
		case key == "meterfilesnaming":
			c.MeterfilesNaming = value
		case key == "meterfilestimestamp":
			c.MeterfilesTimestamp = value
		case key == "format":
			switch value {
			case "hr", "json", "fields":
				c.Format = value
				if value == "fields" && c.Separator == "" {
					c.Separator = ";"
				}
			default:
				return nil, fmt.Errorf("config: unknown output format %q", value)
			}
		case key == "separator":
			if len(value) != 1 {
				return nil, fmt.Errorf("config: separator must be a single character, got %q", value)
			}
			c.Separator = value
		case key == "logtimestamps":
			switch value {
			case "never", "always", "important":
				c.LogTimestamps = value
			default:
				return nil, fmt.Errorf("config: unknown logtimestamps setting %q", value)
			}
		case key == "selectfields":
			c.SelectFields = splitNonEmpty(value, ',')
		case key == "donotprobe":
			c.DoNotProbe = append(c.DoNotProbe, value)
		case key == "ignoreduplicates":
			c.IgnoreDuplicates = value == "true"
		case strings.HasPrefix(key, "json_") || strings.HasPrefix(key, "field_") || strings.HasPrefix(key, "calculate_"):
			// Global-scope constant/calculated fields aren't part of
			// spec's global key subset; meter-scoped equivalents are
			// handled by ParseMeterConfigBlock.
		}
	}
	return c, nil
}

func parseSecondsDuration(s string) (time.Duration, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a valid number of seconds: %q", s)
	}
	return time.Duration(n) * time.Second, nil
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	for _, part := range strings.Split(s, string(sep)) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
