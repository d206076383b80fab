package meter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmbusd/wmbusd/internal/wmbus/address"

	// Blank import pulls in every built-in driver's init()-based
	// registration (multical603, amiplus, qwater, izar, waterstarm,
	// ei6500), so a plain driver name resolves below exactly as it
	// would for the CLI.
	_ "github.com/wmbusd/wmbusd/internal/wmbus/drivers"
	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/telegram"
)

func scenarioHex(s string) []byte {
	b := make([]byte, len(s)/2)
	for i := range b {
		var v int
		if _, err := fmt.Sscanf(s[i*2:i*2+2], "%02X", &v); err != nil {
			panic(err)
		}
		b[i] = byte(v)
	}
	return b
}

func newScenarioMeter(t *testing.T, driverName string, key []byte) *Meter {
	t.Helper()
	expr, err := address.Parse("*")
	require.NoError(t, err)
	m, err := New("scenario", expr, driverName, key, 0)
	require.NoError(t, err)
	return m
}

// qwater's "MyQWater" telegram, CI=0x7A short header, no encryption.
func TestScenarioQWaterDecodesRealTelegram(t *testing.T) {
	raw := scenarioHex("374493444836351218067ac70000200c13911900004c1391170000426cbf2ccc081391170000c2086cbf2c02bb560000326cffff046d1e02de21fed0")
	tg := telegram.Parse(raw, nil, false)
	require.True(t, tg.Understood, "problem: %v", tg.Problem)
	require.True(t, tg.DecryptOK)

	m := newScenarioMeter(t, "qwater", nil)
	require.NoError(t, m.ApplyTelegram(tg))

	total, ok := m.Value("total_m3")
	require.True(t, ok)
	assert.InDelta(t, 1.991, total, 0.001)

	status, ok := m.StringValue("status")
	require.True(t, ok)
	assert.Equal(t, "OK", status)
}

// izar's "IzarWater" PRIOS telegram, manufacturer-specific CI, no standard
// TPL/decrypt at all.
func TestScenarioIzarDecodesRealTelegram(t *testing.T) {
	raw := scenarioHex("1944304C72242421D401A2013D4013DD8B46A4999C1293E582CC")
	tg := telegram.Parse(raw, nil, false)
	require.True(t, tg.Understood, "problem: %v", tg.Problem)

	m := newScenarioMeter(t, "izar", nil)
	require.NoError(t, m.ApplyTelegram(tg))

	prefix, ok := m.StringValue("prefix")
	require.True(t, ok)
	assert.Equal(t, "C19UA", prefix)

	serial, ok := m.StringValue("serial_number")
	require.True(t, ok)
	assert.Equal(t, "145842", serial)

	alarms, ok := m.StringValue("current_alarms")
	require.True(t, ok)
	assert.Equal(t, "meter_blocked,underflow", alarms)
}

// amiplus's "MyElectricity1" telegram, CI=0x7A short header, no encryption.
func TestScenarioAmiplusDecodesRealTelegram(t *testing.T) {
	raw := scenarioHex("4E4401061010101002027A00004005" +
		"2F2F0E035040691500000B2B300300066D00790C7423400C78371204860BABC8FC100000000E833C8074000000000BAB3C0000000AFDC9FC0136022F2F2F2F2F")
	tg := telegram.Parse(raw, nil, false)
	require.True(t, tg.Understood, "problem: %v", tg.Problem)
	require.True(t, tg.DecryptOK)

	m := newScenarioMeter(t, "amiplus", nil)
	require.NoError(t, m.ApplyTelegram(tg))

	consumption, ok := m.Value("total_energy_consumption")
	require.True(t, ok)
	assert.InDelta(t, 15694.05, consumption, 0.01)

	production, ok := m.Value("total_energy_production")
	require.True(t, ok)
	assert.InDelta(t, 7.48, production, 0.01)

	dateTime, ok := m.StringValue("device_date_time")
	require.True(t, ok)
	assert.Equal(t, "2019-03-20 12:57:00", dateTime)
}

// ei6500's "Smokey" telegram, CI=0x7A short header, no encryption.
func TestScenarioEi6500DecodesRealTelegram(t *testing.T) {
	raw := scenarioHex("58442515747209010C1A7A8B0000000BFD0F070101046D2A06D82502FD17000082206CD825426CD0238440FF2C000F11008250FD61000082506C01018260FD6100008360FD3100000082606C01018270FD61000082706C0101")
	tg := telegram.Parse(raw, nil, false)
	require.True(t, tg.Understood, "problem: %v", tg.Problem)
	require.True(t, tg.DecryptOK)

	m := newScenarioMeter(t, "ei6500", nil)
	require.NoError(t, m.ApplyTelegram(tg))

	status, ok := m.StringValue("status")
	require.True(t, ok)
	assert.Equal(t, "OK", status)

	counter, ok := m.Value("alarm_counter")
	require.True(t, ok)
	assert.InDelta(t, 0, counter, 0.0001)
}

// waterstarm's "Water" NOKEY telegram (id 22996221): the upstream test
// suite ships this variant with its would-be-encrypted block replaced by
// filler plus the equivalent plaintext DV records, so field extraction can
// be verified without an AES key. See DESIGN.md for why the keyed variant
// isn't exercised here.
func TestScenarioWaterstarmDecodesUnencryptedVariant(t *testing.T) {
	raw := scenarioHex("3944FA122162992202067A360420252F2F046D282A9E2704136A00000002FD17400004933C000000002F2F2F2F2F2F03FD0C08000002FD0B0011")
	tg := telegram.Parse(raw, nil, false)
	require.True(t, tg.Understood, "problem: %v", tg.Problem)
	require.True(t, tg.DecryptOK)

	m := newScenarioMeter(t, "waterstarm", nil)
	require.NoError(t, m.ApplyTelegram(tg))

	total, ok := m.Value("total_m3")
	require.True(t, ok)
	assert.InDelta(t, 0.106, total, 0.0001)

	dateTime, ok := m.StringValue("meter_datetime")
	require.True(t, ok)
	assert.Equal(t, "2020-07-30 10:40", dateTime)
}

// multical603's CI=0x8D header shape isn't reproducible with confidence
// from the upstream comments alone (see DESIGN.md), so this scenario
// drives the meter directly at the decoded-entries level, the same way
// meter_test.go's own fixtures do, rather than risk an incorrect raw
// frame. It still exercises the real driver's matchers end to end.
func TestScenarioMulticalDecodesEntries(t *testing.T) {
	tg := &telegram.Telegram{
		Understood: true,
		Entries: []dif.Entry{
			{
				Key:         "0406",
				Range:       dif.AnyEnergyVIF,
				Measurement: dif.Instantaneous,
				Value:       dif.Value{HasValue: true, Numeric: 165},
			},
			{
				Key:         "0413",
				Range:       dif.Volume,
				Measurement: dif.Instantaneous,
				Value:       dif.Value{HasValue: true, Numeric: 5.45},
			},
			{
				Key:   "04FF22",
				Value: dif.Value{HasValue: true, Numeric: 0},
			},
		},
	}

	m := newScenarioMeter(t, "multical603", nil)
	require.NoError(t, m.ApplyTelegram(tg))

	consumption, ok := m.Value("total_energy_consumption")
	require.True(t, ok)
	assert.InDelta(t, 165, consumption, 0.0001)

	volume, ok := m.Value("total_volume")
	require.True(t, ok)
	assert.InDelta(t, 5.45, volume, 0.0001)

	status, ok := m.StringValue("status")
	require.True(t, ok)
	assert.Equal(t, "OK", status)
}
