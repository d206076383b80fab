package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmbusd/wmbusd/internal/wmbus/address"
	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
	"github.com/wmbusd/wmbusd/internal/wmbus/meter"
	"github.com/wmbusd/wmbusd/internal/wmbus/telegram"
)

func registerOutputTestDriver(t *testing.T, name string) {
	t.Helper()
	driver.Register(driver.Info{
		Name:          name,
		MeterType:     "TestMeter",
		DefaultFields: []string{"name", "id", "total_m3", "status"},
		Fields: []field.Info{
			field.NumericField("total_m3", "running total", field.PropJSON|field.PropField,
				field.QuantityVolume, field.ScalingAuto,
				field.NewMatcher().VIFRange(dif.Volume)),
			field.StringField("status", "device status", field.PropJSON|field.PropStatus,
				field.NewMatcher().VIFRange(dif.ErrorFlags),
				field.Lookup{DefaultLabel: "OK", Bits: []field.BitEntry{{Mask: 0x01, Label: "LOW_BATTERY"}}}),
		},
	})
}

func buildOutputTestMeter(t *testing.T, driverName string) *meter.Meter {
	t.Helper()
	registerOutputTestDriver(t, driverName)
	expr, err := address.Parse("*")
	require.NoError(t, err)
	m, err := meter.New("kitchen", expr, driverName, nil, 0)
	require.NoError(t, err)

	tg := &telegram.Telegram{
		Understood: true,
		Entries: []dif.Entry{
			{Key: "04130000FF", Range: dif.Volume, Measurement: dif.Instantaneous,
				Value: dif.Value{Numeric: 12.5, HasValue: true}},
			{Key: "02FD170000FF", Range: dif.ErrorFlags, RawBytes: []byte{0x00}},
		},
	}
	require.NoError(t, m.ApplyTelegram(tg))
	return m
}

func TestPrintJSONIncludesIdentityAndFields(t *testing.T) {
	m := buildOutputTestMeter(t, "output_test_json")
	p := NewPrinter(FormatJSON, false, 0)
	out, err := p.Print(m)
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"kitchen"`)
	assert.Contains(t, out, `"total_m3":12.5`)
	assert.Contains(t, out, `"status":"OK"`)
	assert.Contains(t, out, `"meter":"output_test_json"`)
}

func TestPrintFieldsEmitsNullForMissingNumericField(t *testing.T) {
	registerOutputTestDriver(t, "output_test_fields_missing")
	expr, err := address.Parse("*")
	require.NoError(t, err)
	m, err := meter.New("hallway", expr, "output_test_fields_missing", nil, 0)
	require.NoError(t, err)
	// No telegram applied: total_m3 was never extracted.
	require.NoError(t, m.ApplyTelegram(&telegram.Telegram{Understood: true}))

	p := NewPrinter(FormatFields, false, ';')
	p.SelectedFields = []string{"total_m3"}
	out, err := p.Print(m)
	require.NoError(t, err)
	assert.Contains(t, out, ";null")
}

func TestPrintFieldsUsesSeparator(t *testing.T) {
	m := buildOutputTestMeter(t, "output_test_fields")
	p := NewPrinter(FormatFields, false, ';')
	out, err := p.Print(m)
	require.NoError(t, err)
	assert.Contains(t, out, "kitchen;")
	assert.Contains(t, out, ";12.5;")
}

func TestPrintHRShowsUnitForNumericFields(t *testing.T) {
	m := buildOutputTestMeter(t, "output_test_hr")
	p := NewPrinter(FormatHR, false, 0)
	out, err := p.Print(m)
	require.NoError(t, err)
	assert.Contains(t, out, "total_m3: 12.5 m3")
	assert.Contains(t, out, "status: OK")
}

func TestShellEnvUsesMeterPrefixAndUnitSuffix(t *testing.T) {
	m := buildOutputTestMeter(t, "output_test_shellenv")
	env, err := ShellEnv("bus0", m)
	require.NoError(t, err)
	assert.Contains(t, env, "METER_DEVICE=bus0")
	assert.Contains(t, env, "METER_NAME=kitchen")
	assert.Contains(t, env, "METER_TOTAL_M3_M3=12.5")
	assert.Contains(t, env, "METER_STATUS=OK")
}
