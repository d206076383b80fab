package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
)

func TestMatcherDifVifKeyIsSoleConstraint(t *testing.T) {
	m := NewMatcher().Measurement(dif.Maximum).DifVifKey("04ff22")
	e := dif.Entry{Key: "04FF22", Measurement: dif.Instantaneous}
	assert.True(t, m.Matches(e), "DifVifKey should override the unrelated Measurement constraint")
}

func TestMatcherCombinesConstraints(t *testing.T) {
	m := NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.AnyEnergyVIF)
	assert.True(t, m.Matches(dif.Entry{Measurement: dif.Instantaneous, Range: dif.AnyEnergyVIF}))
	assert.False(t, m.Matches(dif.Entry{Measurement: dif.Maximum, Range: dif.AnyEnergyVIF}))
	assert.False(t, m.Matches(dif.Entry{Measurement: dif.Instantaneous, Range: dif.Volume}))
}

func TestMatcherStorageAndTariff(t *testing.T) {
	m := NewMatcher().StorageNr(2).TariffNr(1)
	assert.True(t, m.Matches(dif.Entry{StorageNr: 2, TariffNr: 1}))
	assert.False(t, m.Matches(dif.Entry{StorageNr: 3, TariffNr: 1}))
}

func TestExtractConvertsToDisplayUnit(t *testing.T) {
	info := NumericField("total_energy_consumption", "", PropJSON, QuantityEnergy, ScalingAuto,
		NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.AnyEnergyVIF))

	entries := []dif.Entry{{
		Measurement: dif.Instantaneous,
		Range:       dif.AnyEnergyVIF,
		UnitName:    "Wh",
		Value:       dif.Value{Numeric: 5000, HasValue: true},
	}}
	v, ok := info.Extract(entries)
	require.True(t, ok)
	assert.InDelta(t, 5.0, v, 1e-9) // 5000 Wh -> 5 kWh
}

func TestExtractNoMatchReturnsNotOK(t *testing.T) {
	info := NumericField("power", "", PropJSON, QuantityPower, ScalingAuto,
		NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.AnyPowerVIF))
	_, ok := info.Extract(nil)
	assert.False(t, ok)
}

func TestStringFieldBitToStringLookup(t *testing.T) {
	lookup := Lookup{
		Mask:         0xFFFFFFFF,
		DefaultLabel: "OK",
		Bits: []BitEntry{
			{Mask: 0x01, Label: "VOLTAGE_INTERRUPTED"},
			{Mask: 0x02, Label: "LOW_BATTERY_LEVEL"},
		},
	}
	info := StringField("status", "", PropJSON|PropStatus, NewMatcher().DifVifKey("04FF22"), lookup)

	okEntries := []dif.Entry{{Key: "04FF22", RawBytes: []byte{0x00, 0x00, 0x00, 0x00}}}
	s, ok := info.ExtractString(okEntries, 0)
	require.True(t, ok)
	assert.Equal(t, "OK", s)

	errEntries := []dif.Entry{{Key: "04FF22", RawBytes: []byte{0x03, 0x00, 0x00, 0x00}}}
	s, ok = info.ExtractString(errEntries, 0)
	require.True(t, ok)
	assert.Equal(t, "LOW_BATTERY_LEVEL VOLTAGE_INTERRUPTED", s)
}

func TestStringFieldJoinsTPLStatusByte(t *testing.T) {
	lookup := Lookup{
		Mask:         0xFF,
		DefaultLabel: "OK",
		Bits: []BitEntry{
			{Mask: 0x04, Label: "PERMANENT_ERROR"},
		},
	}
	info := StringField("status", "", PropJSON|PropStatus|PropJoinTPLStatus,
		NewMatcher().DifVifKey("04FF22"), lookup)

	entries := []dif.Entry{{Key: "04FF22", RawBytes: []byte{0x00}}}
	s, ok := info.ExtractString(entries, 0x04)
	require.True(t, ok)
	assert.Equal(t, "PERMANENT_ERROR", s)
}

func TestStringFieldWithNoMatcherReadsTPLStatusDirectly(t *testing.T) {
	lookup := Lookup{
		Mask:         0xFF,
		DefaultLabel: "OK",
		Bits: []BitEntry{
			{Mask: 0x01, Label: "LOW_BATTERY"},
		},
	}
	info := StringField("status", "Meter status tpl status field.", PropJSON|PropStatus|PropJoinTPLStatus,
		NewMatcher(), lookup)

	s, ok := info.ExtractString(nil, 0x01)
	require.True(t, ok)
	assert.Equal(t, "LOW_BATTERY", s)

	s, ok = info.ExtractString(nil, 0x00)
	require.True(t, ok)
	assert.Equal(t, "OK", s)
}

func TestCalculatedFieldUsesGetCallback(t *testing.T) {
	calc := func(get func(string) (float64, bool)) (float64, bool) {
		a, ok1 := get("total_volume")
		b, ok2 := get("volume_flow")
		if !ok1 || !ok2 {
			return 0, false
		}
		return a + b, true
	}
	info := CalculatedField("volume_sum", "", PropJSON, QuantityVolume, calc)
	v, ok := info.Calculator(func(name string) (float64, bool) {
		switch name {
		case "total_volume":
			return 10, true
		case "volume_flow":
			return 2, true
		}
		return 0, false
	})
	require.True(t, ok)
	assert.Equal(t, 12.0, v)
}
