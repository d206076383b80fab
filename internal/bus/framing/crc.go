package framing

// CRC16CCITT computes the CRC-CCITT (poly 0x1021, init 0xffff, no
// reflection) checksum used by the iu891a/iu880b command protocol.
// Callers append the one's-complement of this value, low byte first,
// mirroring `~crc16_CCITT(...)` in the dongle firmware's own framing.
func CRC16CCITT(data []byte) uint16 {
	var crc uint16 = 0xffff
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// AppendCRC appends the complemented CRC16CCITT of data, low byte
// first then high byte, the trailer every iu89xx/iu880b command frame
// carries before SLIP framing.
func AppendCRC(data []byte) []byte {
	crc := ^CRC16CCITT(data)
	return append(data, byte(crc&0xff), byte(crc>>8))
}

// VerifyCRC reports whether the last two bytes of framed are a valid
// complemented CRC16CCITT trailer over the bytes preceding them.
// framed must be at least 2 bytes long.
func VerifyCRC(framed []byte) bool {
	if len(framed) < 2 {
		return false
	}
	body := framed[:len(framed)-2]
	want := ^CRC16CCITT(body)
	gotLo := framed[len(framed)-2]
	gotHi := framed[len(framed)-1]
	return gotLo == byte(want&0xff) && gotHi == byte(want>>8)
}

// StripCRC returns the payload with its trailing CRC16CCITT trailer
// removed, and whether the trailer was valid. It never panics on a
// short input; len(framed) < 2 simply reports a failed check.
func StripCRC(framed []byte) (payload []byte, ok bool) {
	if !VerifyCRC(framed) {
		return nil, false
	}
	return framed[:len(framed)-2], true
}
