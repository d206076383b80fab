package framing

import "fmt"

// SLIP byte-stuffing constants per RFC 1055, used verbatim by the
// iu89xx/iu880b serial protocol's addSlipFraming/removeSlipFraming.
const (
	slipEnd    = 0xC0
	slipEsc    = 0xDB
	slipEscEnd = 0xDC
	slipEscEsc = 0xDD
)

// EncodeSLIP wraps data in SLIP framing: a leading and trailing END
// byte, with any END/ESC byte inside data escaped.
func EncodeSLIP(data []byte) []byte {
	out := make([]byte, 0, len(data)+4)
	out = append(out, slipEnd)
	for _, b := range data {
		switch b {
		case slipEnd:
			out = append(out, slipEsc, slipEscEnd)
		case slipEsc:
			out = append(out, slipEsc, slipEscEsc)
		default:
			out = append(out, b)
		}
	}
	out = append(out, slipEnd)
	return out
}

// DecodeSLIP extracts the first complete SLIP-framed message from buf,
// returning the unescaped payload and the number of bytes of buf it
// consumed. consumed is 0 when no complete frame (a leading and a
// trailing END) is present yet, so the caller can keep buffering.
func DecodeSLIP(buf []byte) (payload []byte, consumed int, err error) {
	start := -1
	for i, b := range buf {
		if b == slipEnd {
			start = i
			break
		}
	}
	if start == -1 {
		return nil, 0, nil
	}
	end := -1
	for i := start + 1; i < len(buf); i++ {
		if buf[i] == slipEnd {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, 0, nil
	}

	raw := buf[start+1 : end]
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b != slipEsc {
			out = append(out, b)
			continue
		}
		if i+1 >= len(raw) {
			return nil, 0, fmt.Errorf("framing: SLIP frame ends on a dangling escape byte")
		}
		i++
		switch raw[i] {
		case slipEscEnd:
			out = append(out, slipEnd)
		case slipEscEsc:
			out = append(out, slipEsc)
		default:
			return nil, 0, fmt.Errorf("framing: invalid SLIP escape 0x%02x", raw[i])
		}
	}
	return out, end + 1, nil
}
