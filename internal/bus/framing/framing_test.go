package framing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC16CCITTAppendAndVerifyRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	framed := AppendCRC(append([]byte{}, data...))
	assert.True(t, VerifyCRC(framed))

	payload, ok := StripCRC(framed)
	require.True(t, ok)
	assert.Equal(t, data, payload)
}

func TestVerifyCRCRejectsCorruption(t *testing.T) {
	framed := AppendCRC([]byte{0xAA, 0xBB})
	framed[0] ^= 0xff
	assert.False(t, VerifyCRC(framed))
}

func TestVerifyCRCTooShort(t *testing.T) {
	assert.False(t, VerifyCRC([]byte{0x01}))
}

func TestSLIPRoundTrip(t *testing.T) {
	data := []byte{0x00, slipEnd, slipEsc, 0xFF, slipEnd}
	framed := EncodeSLIP(data)

	got, consumed, err := DecodeSLIP(framed)
	require.NoError(t, err)
	assert.Equal(t, len(framed), consumed)
	assert.Equal(t, data, got)
}

func TestDecodeSLIPWaitsForCompleteFrame(t *testing.T) {
	partial := []byte{slipEnd, 0x01, 0x02}
	payload, consumed, err := DecodeSLIP(partial)
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, 0, consumed)
}

func TestDecodeSLIPRejectsDanglingEscape(t *testing.T) {
	framed := []byte{slipEnd, slipEsc, slipEnd}
	_, _, err := DecodeSLIP(framed)
	assert.Error(t, err)
}

func TestBlockCRCFormatARoundTrip(t *testing.T) {
	payload := make([]byte, 40)
	for i := range payload {
		payload[i] = byte(i)
	}
	framed := InsertBlockCRCsFormatA(payload)
	got, err := StripBlockCRCsFormatA(framed)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestBlockCRCFormatAShortPayloadRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3}
	framed := InsertBlockCRCsFormatA(payload)
	got, err := StripBlockCRCsFormatA(framed)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestBlockCRCFormatADetectsCorruption(t *testing.T) {
	payload := make([]byte, 30)
	framed := InsertBlockCRCsFormatA(payload)
	framed[5] ^= 0xff
	_, err := StripBlockCRCsFormatA(framed)
	assert.Error(t, err)
}

func TestBlockCRCFormatBRoundTrip(t *testing.T) {
	payload := make([]byte, 40)
	for i := range payload {
		payload[i] = byte(i * 3)
	}
	framed := InsertBlockCRCsFormatB(payload)
	got, err := StripBlockCRCsFormatB(framed)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestBlockCRCFormatBShortPayloadRoundTrip(t *testing.T) {
	payload := []byte{0xAB, 0xCD}
	framed := InsertBlockCRCsFormatB(payload)
	got, err := StripBlockCRCsFormatB(framed)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestBlockCRCFormatBDetectsCorruption(t *testing.T) {
	payload := make([]byte, 25)
	framed := InsertBlockCRCsFormatB(payload)
	framed[len(framed)-1] ^= 0xff
	_, err := StripBlockCRCsFormatB(framed)
	assert.Error(t, err)
}
