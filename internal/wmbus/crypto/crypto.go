package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
)

// FrameHeader carries the DLL fields an IV is built from.
type FrameHeader struct {
	Mfct    uint16
	Id      uint32
	Version byte
	Media   byte
}

// decryptCheckPrefix is the two bytes every correctly-keyed AES-CBC-IV
// frame must begin with once decrypted, per spec.md §4.C step 3.
var decryptCheckPrefix = [2]byte{0x2F, 0x2F}

// cbcIV builds the 16 byte initialization vector for AES-CBC-IV mode: DLL
// header fields followed by eight repetitions of the access number.
func cbcIV(h FrameHeader, accessNumber byte) [16]byte {
	var iv [16]byte
	binary.LittleEndian.PutUint16(iv[0:2], h.Mfct)
	binary.LittleEndian.PutUint32(iv[2:6], h.Id)
	iv[6] = h.Version
	iv[7] = h.Media
	for i := 8; i < 16; i++ {
		iv[i] = accessNumber
	}
	return iv
}

// DecryptCBCIV decrypts ciphertext (a whole number of 16-byte blocks) using
// AES-128/192/256-CBC with the IV built from h and accessNumber. It
// reports ok=false (without an error) when the decrypt-check fails,
// matching spec.md's "mark as bad key, surface the failure without
// aborting the decoder" behavior.
func DecryptCBCIV(key []byte, h FrameHeader, accessNumber byte, ciphertext []byte) (plaintext []byte, ok bool, err error) {
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, false, fmt.Errorf("crypto: ciphertext length %d is not a multiple of the block size", len(ciphertext))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, false, fmt.Errorf("crypto: %w", err)
	}
	if len(ciphertext) == 0 {
		return nil, true, nil
	}
	iv := cbcIV(h, accessNumber)
	out := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv[:])
	mode.CryptBlocks(out, ciphertext)

	if out[0] != decryptCheckPrefix[0] || out[1] != decryptCheckPrefix[1] {
		return out, false, nil
	}
	return out, true, nil
}

// ctrIV builds the 16 byte counter block for AES-CTR (ELL security): DLL
// header fields, the ELL session/frame counter, and a trailing block
// index. DecryptCTR passes 0 and lets cipher.NewCTR advance the counter
// for each following 16-byte block.
func ctrIV(h FrameHeader, sessionCounter uint32, blockIndex byte) [16]byte {
	var iv [16]byte
	binary.LittleEndian.PutUint16(iv[0:2], h.Mfct)
	binary.LittleEndian.PutUint32(iv[2:6], h.Id)
	iv[6] = h.Version
	iv[7] = h.Media
	binary.LittleEndian.PutUint32(iv[8:12], sessionCounter)
	iv[15] = blockIndex
	return iv
}

// DecryptCTR decrypts ciphertext of any length using AES-CTR with the
// counter block built from h and sessionCounter. There is no
// decrypt-check for this mode: a wrong key silently produces garbage,
// left for the APL walk to reject as malformed.
func DecryptCTR(key []byte, h FrameHeader, sessionCounter uint32, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w", err)
	}
	iv := ctrIV(h, sessionCounter, 0)
	stream := cipher.NewCTR(block, iv[:])
	out := make([]byte, len(ciphertext))
	stream.XORKeyStream(out, ciphertext)
	return out, nil
}
