package output

import (
	"fmt"
	"strings"

	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/meter"
)

// ShellEnv builds the METER_-prefixed environment list main.cc's
// list_shell_envs documents: METER_DEVICE, METER_ID, METER_DRIVER,
// METER_NAME, METER_JSON, METER_TIMESTAMP(_UTC), then one
// METER_<FIELD> (string fields) or METER_<FIELD>_<UNIT> (numeric
// fields) entry per driver field currently populated. busName is the
// configured bus the meter's telegram arrived on (e.g. "bus0"), used
// for METER_DEVICE the way the original passes Telegram.about.device.
func ShellEnv(busName string, m *meter.Meter) ([]string, error) {
	info, ok := driver.ByName(m.DriverName)
	if !ok {
		return nil, fmt.Errorf("output: unknown driver %q", m.DriverName)
	}
	snap := m.Snapshot()

	env := []string{
		"METER_DEVICE=" + busName,
		"METER_ID=" + fmt.Sprint(snap["id"]),
		"METER_DRIVER=" + m.DriverName,
		"METER_NAME=" + m.Name,
	}

	for _, f := range info.Fields {
		if f.Name == "" {
			continue
		}
		v, ok := snap[f.Name]
		if !ok {
			continue
		}
		envName := strings.ToUpper(f.Name)
		if f.StringLookup != nil {
			env = append(env, fmt.Sprintf("METER_%s=%v", envName, v))
			continue
		}
		unit := strings.ToUpper(f.Quantity.DefaultUnit().Name)
		env = append(env, fmt.Sprintf("METER_%s_%s=%v", envName, unit, v))
	}

	if ts, ok := snap["timestamp"].(string); ok {
		env = append(env, "METER_TIMESTAMP="+ts, "METER_TIMESTAMP_UTC="+ts)
	}

	jsonLine, err := (&Printer{Format: FormatJSON}).Print(m)
	if err != nil {
		return nil, err
	}
	env = append(env, "METER_JSON="+jsonLine)
	return env, nil
}
