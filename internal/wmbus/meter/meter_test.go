package meter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmbusd/wmbusd/internal/wmbus/address"
	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
	"github.com/wmbusd/wmbusd/internal/wmbus/telegram"
)

func registerTestDriver(t *testing.T, name string) {
	t.Helper()
	driver.Register(driver.Info{
		Name:          name,
		MeterType:     "TestMeter",
		DefaultFields: []string{"name", "id", "total_m3"},
		Fields: []field.Info{
			field.NumericField("total_m3", "running total", field.PropJSON|field.PropField,
				field.QuantityVolume, field.ScalingAuto,
				field.NewMatcher().VIFRange(dif.Volume)),
			field.StringField("status", "device status", field.PropJSON|field.PropStatus,
				field.NewMatcher().VIFRange(dif.ErrorFlags),
				field.Lookup{DefaultLabel: "OK", Bits: []field.BitEntry{{Mask: 0x01, Label: "LOW_BATTERY"}}}),
			field.CalculatedField("total_liters", "total in liters", field.PropJSON,
				field.QuantityDimensionless,
				func(get func(string) (float64, bool)) (float64, bool) {
					v, ok := get("total_m3")
					if !ok {
						return 0, false
					}
					return v * 1000, true
				}),
		},
	})
}

func volumeEntry(m3 float64) dif.Entry {
	return dif.Entry{
		Key:         "04130000FF",
		Range:       dif.Volume,
		Measurement: dif.Instantaneous,
		Value:       dif.Value{Numeric: m3, HasValue: true},
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	expr, err := address.Parse("*")
	require.NoError(t, err)
	_, err = New("m1", expr, "does-not-exist", nil, 0)
	assert.Error(t, err)
}

func TestApplyTelegramExtractsNumericAndCalculatedFields(t *testing.T) {
	registerTestDriver(t, "meter_test_basic")
	expr, err := address.Parse("*")
	require.NoError(t, err)
	m, err := New("m1", expr, "meter_test_basic", nil, 0)
	require.NoError(t, err)

	tg := &telegram.Telegram{
		Understood: true,
		Entries:    []dif.Entry{volumeEntry(12.5)},
	}
	require.NoError(t, m.ApplyTelegram(tg))

	v, ok := m.Value("total_m3")
	require.True(t, ok)
	assert.InDelta(t, 12.5, v, 0.0001)

	liters, ok := m.Value("total_liters")
	require.True(t, ok)
	assert.InDelta(t, 12500, liters, 0.0001)

	assert.Equal(t, 1, m.NumUpdates())
}

func TestApplyTelegramIgnoresUnunderstoodTelegram(t *testing.T) {
	registerTestDriver(t, "meter_test_ignore")
	expr, err := address.Parse("*")
	require.NoError(t, err)
	m, err := New("m1", expr, "meter_test_ignore", nil, 0)
	require.NoError(t, err)

	tg := &telegram.Telegram{Understood: false}
	require.NoError(t, m.ApplyTelegram(tg))
	assert.Equal(t, 0, m.NumUpdates())
	_, ok := m.Value("total_m3")
	assert.False(t, ok)
}

func TestSnapshotIncludesIdentityFields(t *testing.T) {
	registerTestDriver(t, "meter_test_snapshot")
	expr, err := address.Parse("*")
	require.NoError(t, err)
	m, err := New("m1", expr, "meter_test_snapshot", nil, 0)
	require.NoError(t, err)

	require.NoError(t, m.ApplyTelegram(&telegram.Telegram{
		Understood: true,
		Entries:    []dif.Entry{volumeEntry(1)},
	}))

	snap := m.Snapshot()
	assert.Equal(t, "m1", snap["name"])
	assert.Contains(t, snap, "timestamp")
	assert.Equal(t, 1.0, snap["total_m3"])
}

func TestManagerDispatchRoutesToMatchingMeterOnly(t *testing.T) {
	registerTestDriver(t, "meter_test_dispatch")
	exprA, err := address.Parse("11111111")
	require.NoError(t, err)
	exprB, err := address.Parse("22222222")
	require.NoError(t, err)

	a, err := New("a", exprA, "meter_test_dispatch", nil, 0)
	require.NoError(t, err)
	b, err := New("b", exprB, "meter_test_dispatch", nil, 0)
	require.NoError(t, err)

	mgr := NewManager()
	mgr.AddMeter(a)
	mgr.AddMeter(b)

	tg := &telegram.Telegram{
		Understood: true,
		DLL:        telegram.DLL{Id: 0x11111111},
		Entries:    []dif.Entry{volumeEntry(3)},
	}
	updated := mgr.Dispatch(tg)
	require.Len(t, updated, 1)
	assert.Equal(t, "a", updated[0].Name)

	_, ok := b.Value("total_m3")
	assert.False(t, ok)
}

func TestManagerHasAllReceivedATelegram(t *testing.T) {
	registerTestDriver(t, "meter_test_allreceived")
	expr, err := address.Parse("*")
	require.NoError(t, err)
	m, err := New("only", expr, "meter_test_allreceived", nil, 0)
	require.NoError(t, err)

	mgr := NewManager()
	mgr.AddMeter(m)
	assert.False(t, mgr.HasAllReceivedATelegram())

	require.NoError(t, m.ApplyTelegram(&telegram.Telegram{
		Understood: true,
		Entries:    []dif.Entry{volumeEntry(1)},
	}))
	assert.True(t, mgr.HasAllReceivedATelegram())
}
