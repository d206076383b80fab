package im871a

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFrameRejectsWrongSOF(t *testing.T) {
	_, consumed, err := CheckFrame([]byte{0x00, 0x02, 0x01, 0x00})
	assert.Equal(t, 0, consumed)
	assert.Error(t, err)
}

func TestCheckFrameWaitsForMoreBytes(t *testing.T) {
	_, consumed, err := CheckFrame([]byte{serialSOF, 0x02})
	require.NoError(t, err)
	assert.Equal(t, 0, consumed)
}

func TestCheckFrameNoTrailers(t *testing.T) {
	buf := []byte{serialSOF, 0x02, 0x01, 0x03, 0xAA, 0xBB, 0xCC}
	f, consumed, err := CheckFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, 7, consumed)
	assert.Equal(t, EndpointRadioLink, f.Endpoint)
	assert.Equal(t, 1, f.MsgID)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, f.Payload)
	assert.False(t, f.HasRSSI)
}

func TestCheckFrameWithRSSITrailer(t *testing.T) {
	ctrl := byte(0x04) << 4 // RSSI bit set
	buf := []byte{serialSOF, ctrl | EndpointRadioLink, 0x01, 0x02, 0x11, 0x22, 0xC8}
	f, consumed, err := CheckFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, 7, consumed)
	assert.True(t, f.HasRSSI)
}

func TestCheckFrameRejectsUnknownEndpoint(t *testing.T) {
	buf := []byte{serialSOF, 0x0f, 0x01, 0x00}
	_, _, err := CheckFrame(buf)
	assert.Error(t, err)
}
