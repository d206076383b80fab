package dif

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDIFLengthTable(t *testing.T) {
	assert.Equal(t, 4, DIFLength(0x04).Bytes)
	assert.True(t, DIFLength(0x0D).Variable)
	assert.True(t, DIFLength(0x09).BCD)
	assert.True(t, DIFLength(0x05).Real)
	assert.True(t, DIFLength(0x0F).Special)
	assert.True(t, DIFLength(0x08).Selection)
}

func TestParseDIFStorageAndTariffExtension(t *testing.T) {
	// DIF 0x84 (extension bit set, instantaneous, storage bit0=0, 4 byte
	// int) followed by DIFE 0x10 (storage bits 1-4 = 0, tariff bits = 1).
	h, n, err := ParseDIF([]byte{0x84, 0x10})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, Instantaneous, h.Measurement)
	assert.Equal(t, uint64(1), h.TariffNr)
}

func TestDecodeBCDPositiveAndNegative(t *testing.T) {
	v, err := decodeBCD([]byte{0x34, 0x12})
	require.NoError(t, err)
	assert.Equal(t, int64(1234), v)

	v, err = decodeBCD([]byte{0x34, 0xF2})
	require.NoError(t, err)
	assert.Equal(t, int64(-234), v)
}

func TestDecodeIntLESignExtends(t *testing.T) {
	assert.Equal(t, int64(-1), decodeIntLE([]byte{0xFF}))
	assert.Equal(t, int64(255), decodeIntLE([]byte{0xFF, 0x00}))
	assert.Equal(t, int64(-2), decodeIntLE([]byte{0xFE, 0xFF}))
}

func TestDecodeRealRejectsWrongLength(t *testing.T) {
	_, err := decodeReal([]byte{0x00, 0x00})
	assert.Error(t, err)
}

func TestDecodeDateZeroIsInvalidNotPanic(t *testing.T) {
	tm, err := DecodeDate([]byte{0x00, 0x00})
	require.NoError(t, err)
	assert.True(t, tm.IsZero())
}

func TestDecodeDateTimeRoundTrip(t *testing.T) {
	// 2023-11-05 14:37, encoded per the type-F bit layout: the year's low
	// 3 bits in the day byte, its high bits in the month byte.
	year := 23
	b := []byte{
		byte(37),
		byte(14),
		byte(5) | byte((year&0x07)<<5),
		byte(11) | byte((year>>3)<<4),
	}
	tm, err := DecodeDateTime(b)
	require.NoError(t, err)
	assert.Equal(t, 2023, tm.Year())
	assert.Equal(t, time.November, tm.Month())
	assert.Equal(t, 5, tm.Day())
	assert.Equal(t, 14, tm.Hour())
	assert.Equal(t, 37, tm.Minute())
}

func TestPrimaryVIFEnergyAndVolume(t *testing.T) {
	e := primaryVIF(0x06)
	assert.Equal(t, AnyEnergyVIF, e.Range)
	assert.Equal(t, "Wh", e.UnitName)
	assert.Equal(t, 3, e.Exponent)

	v := primaryVIF(0x13)
	assert.Equal(t, Volume, v.Range)
	assert.Equal(t, "m3", v.UnitName)
	assert.Equal(t, -3, v.Exponent)
}

func TestPrimaryVIFExtensionMarkers(t *testing.T) {
	assert.Equal(t, byte(0xFD), primaryVIF(0x7D).Extension)
	assert.Equal(t, byte(0xFB), primaryVIF(0x7B).Extension)
	assert.True(t, primaryVIF(0x7C).PlainText)
	assert.True(t, primaryVIF(0x7F).ManufacturerSpecific)
}

func TestWalkEnergyRecord(t *testing.T) {
	// DIF 0x04 (instantaneous, 4 byte int), VIF 0x06 (Wh, *1000), value 1.
	payload := []byte{0x04, 0x06, 0x01, 0x00, 0x00, 0x00}
	entries, err := Walk(payload)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "0406", e.Key)
	assert.Equal(t, AnyEnergyVIF, e.Range)
	assert.True(t, e.Value.HasValue)
	assert.InDelta(t, 1000.0, e.Value.Numeric, 1e-9)
}

func TestWalkSkipsFillerBytes(t *testing.T) {
	payload := []byte{0x2F, 0x2F, 0x04, 0x06, 0x01, 0x00, 0x00, 0x00}
	entries, err := Walk(payload)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Offset)
}

func TestWalkStopsAtManufacturerSpecificMarker(t *testing.T) {
	payload := []byte{0x04, 0x06, 0x01, 0x00, 0x00, 0x00, 0x0F, 0xAA, 0xBB}
	entries, err := Walk(payload)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWalkTruncatedValueReturnsErrorButKeepsPriorEntries(t *testing.T) {
	payload := []byte{0x04, 0x06, 0x01, 0x00, 0x00, 0x00, 0x02, 0x06, 0x00}
	entries, err := Walk(payload)
	assert.Error(t, err)
	require.Len(t, entries, 1)
}

func TestWalkSelectionForReadoutHasNoValue(t *testing.T) {
	payload := []byte{0x08, 0x06}
	entries, err := Walk(payload)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Value.HasValue)
}

func TestDecodeVIFExtensionVoltageAndCombinable(t *testing.T) {
	e := DecodeVIFExtension(0xFD, 0x40)
	assert.Equal(t, Voltage, e.Range)
	assert.Equal(t, "V", e.UnitName)

	unknown := DecodeVIFExtension(0xFD, 0x7F)
	assert.Equal(t, VIFRangeNone, unknown.Range)
}
