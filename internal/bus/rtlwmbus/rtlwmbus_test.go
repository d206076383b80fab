package rtlwmbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineIgnoresExitMarker(t *testing.T) {
	_, ok, err := ParseLine(ExitMarker)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseLineIgnoresShortLines(t *testing.T) {
	_, ok, err := ParseLine("T1;1;1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseLineDecodesSingleTelegram(t *testing.T) {
	line := "T1;1;1;2026-07-30 10:00:00.000;-60;-70;12345678;0x4432123456789911223344"
	parsed, ok, err := ParseLine(line)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "T1", parsed.Mode)
	assert.True(t, parsed.CRCOK)
	assert.True(t, parsed.HasRSSI)
	assert.Equal(t, -60, parsed.RSSIDbm)
	require.Len(t, parsed.Telegrams, 1)
	assert.Equal(t, []byte{0x44, 0x32, 0x12, 0x34, 0x56, 0x78, 0x99, 0x11, 0x22, 0x33, 0x44}, parsed.Telegrams[0])
}

func TestParseLineDecodesMultipleTelegramsOnOneLine(t *testing.T) {
	line := "T1;1;1;ts;-60;-70;id;0x4401;0x4402"
	parsed, ok, err := ParseLine(line)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, parsed.Telegrams, 2)
	assert.Equal(t, []byte{0x44, 0x01}, parsed.Telegrams[0])
	assert.Equal(t, []byte{0x44, 0x02}, parsed.Telegrams[1])
}

func TestParseLineRejectsOddLengthHex(t *testing.T) {
	line := "T1;1;1;ts;-60;-70;id;0x443"
	_, ok, err := ParseLine(line)
	assert.True(t, ok)
	assert.Error(t, err)
}
