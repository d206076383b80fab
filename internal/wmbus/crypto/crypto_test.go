package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecryptCBCIVRejectsBadLength(t *testing.T) {
	key := make([]byte, 16)
	_, _, err := DecryptCBCIV(key, FrameHeader{}, 0, []byte{0x01, 0x02, 0x03})
	assert.Error(t, err)
}

func TestDecryptCBCIVEmptyCiphertextIsOK(t *testing.T) {
	key := make([]byte, 16)
	out, ok, err := DecryptCBCIV(key, FrameHeader{}, 0, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, out)
}

func TestDecryptCBCIVDetectsWrongKey(t *testing.T) {
	key := make([]byte, 16)
	h := FrameHeader{Mfct: 0x1234, Id: 0xAABBCCDD, Version: 0x01, Media: 0x07}
	garbage := make([]byte, 16)
	for i := range garbage {
		garbage[i] = byte(i)
	}
	_, ok, err := DecryptCBCIV(key, h, 0x7A, garbage)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCBCRoundTripSatisfiesDecryptCheck(t *testing.T) {
	key := []byte("0123456789ABCDEF")
	h := FrameHeader{Mfct: 0x1234, Id: 0xAABBCCDD, Version: 0x01, Media: 0x07}
	accessNumber := byte(0x42)

	plain := make([]byte, 16)
	plain[0] = 0x2F
	plain[1] = 0x2F
	plain[2] = 0x99

	iv := cbcIV(h, accessNumber)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	enc := cipher.NewCBCEncrypter(block, iv[:])
	ciphertext := make([]byte, 16)
	enc.CryptBlocks(ciphertext, plain)

	out, ok, err := DecryptCBCIV(key, h, accessNumber, ciphertext)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, plain, out)
}

func TestCBCMultiBlockRoundTrip(t *testing.T) {
	key := []byte("ABCDEFGHIJKLMNOP")
	h := FrameHeader{Mfct: 0x4D2C, Id: 0x20096209, Version: 0x20, Media: 0x06}
	accessNumber := byte(0x7A)

	plain := make([]byte, 32)
	plain[0] = 0x2F
	plain[1] = 0x2F
	for i := 2; i < len(plain); i++ {
		plain[i] = byte(i * 3)
	}

	iv := cbcIV(h, accessNumber)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	enc := cipher.NewCBCEncrypter(block, iv[:])
	ciphertext := make([]byte, len(plain))
	enc.CryptBlocks(ciphertext, plain)

	out, ok, err := DecryptCBCIV(key, h, accessNumber, ciphertext)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, plain, out)
}

func TestDecryptCTRIsDeterministicAndReversible(t *testing.T) {
	key := []byte("0123456789ABCDEF")
	h := FrameHeader{Mfct: 0x1234, Id: 0xAABBCCDD, Version: 0x01, Media: 0x07}
	plain := []byte("hello wmbus ELL frame body..xx.")

	ciphertext, err := DecryptCTR(key, h, 7, plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, ciphertext)

	roundTrip, err := DecryptCTR(key, h, 7, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plain, roundTrip)
}

func TestDecryptCTRDifferentSessionCounterDiffers(t *testing.T) {
	key := []byte("0123456789ABCDEF")
	h := FrameHeader{Mfct: 0x1234, Id: 0xAABBCCDD, Version: 0x01, Media: 0x07}
	plain := []byte("same plaintext, different ctr..")

	a, err := DecryptCTR(key, h, 1, plain)
	require.NoError(t, err)
	b, err := DecryptCTR(key, h, 2, plain)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
