package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertSameDimensionScalesByRatio(t *testing.T) {
	assert.InDelta(t, 1000.0, Convert(1.0, M3, L), 1e-9)
	assert.InDelta(t, 1.0, Convert(1000.0, L, M3), 1e-9)
	assert.InDelta(t, 3.6, Convert(1.0, KWH, MJ), 1e-9)
}

func TestConvertTemperatureAbsoluteValues(t *testing.T) {
	assert.InDelta(t, 0.0, Convert(32.0, F, C), 1e-9)
	assert.InDelta(t, 212.0, Convert(100.0, C, F), 1e-9)
	assert.InDelta(t, 273.15, Convert(0.0, C, K), 1e-9)
	assert.InDelta(t, -459.67, Convert(0.0, K, F), 1e-9)
}

func TestConvertTemperatureRoundTrips(t *testing.T) {
	for _, v := range []float64{-40.0, -17.78, 0.0, 21.5, 100.0, 373.15} {
		got := Convert(Convert(v, C, F), F, C)
		assert.InDelta(t, v, got, 1e-6)

		got = Convert(Convert(v, C, K), K, C)
		assert.InDelta(t, v, got, 1e-9)
	}
}

func TestConvertTimeLikeUnits(t *testing.T) {
	assert.InDelta(t, 3600.0, Convert(1.0, Hour, Second), 1e-9)
	assert.InDelta(t, 1.0, Convert(60.0, Minute, Hour), 1e-9)
	assert.InDelta(t, 24.0, Convert(1.0, Day, Hour), 1e-9)
}

func TestConvertIncompatibleDimensionsIsNaN(t *testing.T) {
	assert.True(t, math.IsNaN(Convert(1.0, M3, KWH)))
	assert.True(t, math.IsNaN(Convert(1.0, C, M3)))
	assert.True(t, math.IsNaN(Convert(1.0, Second, M3)))
}

func TestCanConvert(t *testing.T) {
	assert.True(t, CanConvert(M3, L))
	assert.True(t, CanConvert(C, F))
	assert.True(t, CanConvert(Hour, Second))
	assert.False(t, CanConvert(M3, KWH))
	assert.False(t, CanConvert(C, M3))
}

func TestLookupKnownAndUnknownUnits(t *testing.T) {
	u, ok := Lookup("m3")
	assert.True(t, ok)
	assert.Equal(t, "m3", u.Name)

	_, ok = Lookup("does_not_exist")
	assert.False(t, ok)
}

func TestAllIsSortedByName(t *testing.T) {
	all := All()
	require := assert.New(t)
	require.NotEmpty(all)
	for i := 1; i < len(all); i++ {
		require.LessOrEqual(all[i-1].Name, all[i].Name)
	}
}
