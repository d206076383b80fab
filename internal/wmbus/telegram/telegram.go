package telegram

import (
	"encoding/binary"
	"fmt"

	"github.com/wmbusd/wmbusd/internal/wmbus/crypto"
	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
)

// SecurityMode is the TPL config word's encryption scheme selector.
type SecurityMode int

const (
	SecurityNone SecurityMode = iota
	SecurityAESCBCIV
	SecurityAESCTR
	SecurityAESCBCNoIV
	SecurityUnknown
)

func (m SecurityMode) String() string {
	switch m {
	case SecurityNone:
		return "none"
	case SecurityAESCBCIV:
		return "aes_cbc_iv"
	case SecurityAESCTR:
		return "aes_ctr"
	case SecurityAESCBCNoIV:
		return "aes_cbc_no_iv"
	default:
		return "unknown"
	}
}

// wmbusControlFields whitelists the C-field byte values this decoder
// accepts. Anything else is a parse error unless the caller opts into
// best-effort mode.
var wmbusControlFields = map[byte]bool{
	0x44: true, // SND_NR, no request of acknowledgement
	0x46: true, // SND_IR, installation request/respond
	0x48: true, // RSP_UD, response of user data
	0x7A: true, // SND_NKE variant used by some mfct firmware
}

// DLL is the data-link-layer header common to every wmbus frame.
type DLL struct {
	Length  byte   // [0] frame length, not counting this byte
	C       byte   // [1] control field
	Mfct    uint16 // [2-3] manufacturer, little-endian on the wire
	Id      uint32 // [4-7] device id, little-endian on the wire
	Version byte   // [8] device version/generation
	Media   byte   // [9] device type/media
}

// ParseDLL reads the 10 byte data-link-layer header, validating the
// control field against the accepted whitelist unless bestEffort is set.
func ParseDLL(b []byte, bestEffort bool) (DLL, error) {
	if len(b) < 10 {
		return DLL{}, fmt.Errorf("telegram: frame too short for DLL header, got %d bytes", len(b))
	}
	d := DLL{
		Length:  b[0],
		C:       b[1],
		Mfct:    binary.LittleEndian.Uint16(b[2:4]),
		Id:      binary.LittleEndian.Uint32(b[4:8]),
		Version: b[8],
		Media:   b[9],
	}
	if !bestEffort && !wmbusControlFields[d.C] {
		return d, fmt.Errorf("telegram: unrecognized C-field 0x%02x", d.C)
	}
	return d, nil
}

// IdString renders the device id as the big-endian BCD string printed on
// a meter's nameplate (the wire order is little-endian).
func (d DLL) IdString() string {
	return fmt.Sprintf("%02x%02x%02x%02x", byte(d.Id>>24), byte(d.Id>>16), byte(d.Id>>8), byte(d.Id))
}

// TPLConfig is the decoded 2-byte transport-layer config word.
type TPLConfig struct {
	Security       SecurityMode
	EncryptedBlocks int
	Accessibility  byte
	Synchronous    bool
	Bidirectional  bool
}

func decodeTPLConfig(word uint16) TPLConfig {
	mode := byte(word & 0x1F)
	var sec SecurityMode
	switch mode {
	case 0:
		sec = SecurityNone
	case 5:
		sec = SecurityAESCBCIV
	case 7:
		sec = SecurityAESCTR
	case 4:
		sec = SecurityAESCBCNoIV
	default:
		sec = SecurityUnknown
	}
	return TPLConfig{
		Security:        sec,
		EncryptedBlocks:  int((word >> 8) & 0x0F),
		Accessibility:   byte((word >> 5) & 0x03),
		Synchronous:     word&0x2000 != 0,
		Bidirectional:   word&0x4000 != 0,
	}
}

// TPL is the decoded transport-layer header that follows the DLL on
// long/short/manufacturer-specific frame variants.
type TPL struct {
	CI           byte
	SecondAddr   *DLL
	AccessNo     byte
	Status       byte
	Config       TPLConfig
	HeaderLength int // bytes consumed from the start of the TPL region
}

// ciHasSecondAddress reports whether CI-field ci introduces a long-header
// TPL carrying a second (meter-reported) address block.
func ciHasSecondAddress(ci byte) bool {
	switch ci {
	case 0x72, 0x73:
		return true
	}
	return false
}

// ciIsShortHeader reports whether ci introduces a short-header TPL
// (access number/status/config only, no second address). 0x7A is the
// common case emitted by most meters (amiplus, qwater, waterstarm,
// ei6500 all use it): access number, status and config word only.
func ciIsShortHeader(ci byte) bool {
	switch ci {
	case 0x7A, 0x7B, 0x7D, 0x8C:
		return true
	}
	return false
}

// ciIsMfctSpecific reports whether ci hands the entire rest of the
// telegram to the manufacturer's own format, with no standard TPL
// access-number/status/config fields at all (EN 13757-3's manufacturer-
// specific CI range). A driver.Info.ProcessContent hook is the only way
// to interpret a frame carrying one of these.
func ciIsMfctSpecific(ci byte) bool {
	return ci >= 0xA0 && ci <= 0xB7
}

// ParseTPL reads the transport layer starting at b[0] == CI-field.
func ParseTPL(b []byte) (TPL, error) {
	if len(b) == 0 {
		return TPL{}, fmt.Errorf("telegram: empty TPL region")
	}
	t := TPL{CI: b[0]}
	i := 1

	if ciIsMfctSpecific(t.CI) {
		t.HeaderLength = i
		return t, nil
	}

	if ciHasSecondAddress(t.CI) {
		if len(b) < i+8 {
			return t, fmt.Errorf("telegram: truncated second address block")
		}
		addr := DLL{
			Mfct:    binary.LittleEndian.Uint16(b[i : i+2]),
			Id:      binary.LittleEndian.Uint32(b[i+2 : i+6]),
			Version: b[i+6],
			Media:   b[i+7],
		}
		t.SecondAddr = &addr
		i += 8
	} else if !ciIsShortHeader(t.CI) {
		return t, fmt.Errorf("telegram: unrecognized CI-field 0x%02x", t.CI)
	}

	if len(b) < i+4 {
		return t, fmt.Errorf("telegram: truncated TPL status/config")
	}
	t.AccessNo = b[i]
	t.Status = b[i+1]
	configWord := binary.LittleEndian.Uint16(b[i+2 : i+4])
	t.Config = decodeTPLConfig(configWord)
	i += 4
	t.HeaderLength = i
	return t, nil
}

// Problem describes why a telegram could not be fully understood.
type Problem struct {
	Reason string
}

func (p *Problem) Error() string { return p.Reason }

// Telegram is the fully decoded result of one wmbus/mbus frame.
type Telegram struct {
	DLL         DLL
	TPL         TPL
	DecryptOK   bool
	Entries     []dif.Entry
	Understood  bool
	Problem     *Problem
	RawFrame    []byte
}

// Parse decodes a raw frame (link-layer CRCs already stripped) into a
// Telegram. key is the AES key for the addressed meter, or nil if the
// frame carries no encryption. bestEffort relaxes the DLL C-field
// whitelist for frames from dongles that forward unknown control codes.
func Parse(raw []byte, key []byte, bestEffort bool) *Telegram {
	tg := &Telegram{RawFrame: raw}

	dll, err := ParseDLL(raw, bestEffort)
	tg.DLL = dll
	if err != nil {
		tg.Problem = &Problem{Reason: err.Error()}
		return tg
	}
	if len(raw) <= 10 {
		tg.Understood = true
		return tg
	}

	tpl, err := ParseTPL(raw[10:])
	tg.TPL = tpl
	if err != nil {
		tg.Problem = &Problem{Reason: err.Error()}
		return tg
	}

	aplStart := 10 + tpl.HeaderLength
	if aplStart > len(raw) {
		tg.Problem = &Problem{Reason: "telegram: TPL header runs past end of frame"}
		return tg
	}

	if ciIsMfctSpecific(tpl.CI) {
		// No standard DV records to decrypt or walk: the driver's
		// ProcessContent hook interprets RawFrame itself.
		tg.Understood = true
		return tg
	}

	body := raw[aplStart:]

	payload, err := decryptBody(dll, tpl, key, body)
	if err != nil {
		tg.Problem = &Problem{Reason: err.Error()}
		return tg
	}
	tg.DecryptOK = true

	entries, walkErr := dif.Walk(payload)
	tg.Entries = entries
	if walkErr != nil {
		tg.Problem = &Problem{Reason: walkErr.Error()}
		return tg
	}

	tg.Understood = true
	return tg
}

// decryptBody applies the security mode selected by tpl.Config,
// returning the application-layer payload (decrypted body concatenated
// with any unencrypted tail).
func decryptBody(dll DLL, tpl TPL, key []byte, body []byte) ([]byte, error) {
	switch tpl.Config.Security {
	case SecurityNone:
		return body, nil

	case SecurityAESCBCIV:
		if len(key) == 0 {
			return nil, fmt.Errorf("telegram: frame is AES-CBC-IV encrypted but no key is configured")
		}
		nBytes := tpl.Config.EncryptedBlocks * 16
		if nBytes > len(body) {
			return nil, fmt.Errorf("telegram: declared %d encrypted bytes exceeds body length %d", nBytes, len(body))
		}
		h := crypto.FrameHeader{Mfct: dll.Mfct, Id: dll.Id, Version: dll.Version, Media: dll.Media}
		plain, ok, err := crypto.DecryptCBCIV(key, h, tpl.AccessNo, body[:nBytes])
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("telegram: decrypt-check failed, bad key")
		}
		return append(plain, body[nBytes:]...), nil

	case SecurityAESCTR:
		if len(key) == 0 {
			return nil, fmt.Errorf("telegram: frame is AES-CTR encrypted but no key is configured")
		}
		h := crypto.FrameHeader{Mfct: dll.Mfct, Id: dll.Id, Version: dll.Version, Media: dll.Media}
		sessionCounter := uint32(tpl.AccessNo)
		plain, err := crypto.DecryptCTR(key, h, sessionCounter, body)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		return plain, nil

	default:
		return nil, fmt.Errorf("telegram: unsupported security mode %s", tpl.Config.Security)
	}
}
