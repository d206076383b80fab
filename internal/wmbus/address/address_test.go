package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"12345678",
		"*",
		"123456*",
		"!12345677",
		"R12345678",
		"12345678.M=KAM",
		"12345678.V=01",
		"12345678.T=1b",
		"12345678.M=KAM.V=01.T=1b",
	}
	for _, c := range cases {
		ae, err := Parse(c)
		require.NoError(t, err, c)
		ae2, err := Parse(ae.String())
		require.NoError(t, err, c)
		assert.Equal(t, ae, ae2, "round trip for %q", c)
	}
}

func TestParseAnyidRewrite(t *testing.T) {
	exprs, err := SplitExpressions("ANYID")
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	assert.Equal(t, "*", exprs[0].Id)
}

func TestParseMbusPrimary(t *testing.T) {
	ae, err := Parse("p12")
	require.NoError(t, err)
	assert.True(t, ae.MbusPrimary)

	_, err = Parse("p999")
	assert.Error(t, err)
}

func TestParseInvalid(t *testing.T) {
	for _, bad := range []string{"", "!", "!!12345678", "1234567", "123456789", "xyz"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestWildcardOnlyMatchesAnyId(t *testing.T) {
	ae, err := Parse("*")
	require.NoError(t, err)
	assert.True(t, ae.Match("12345678", 0x1234, 0x01, 0x02))
	assert.True(t, ae.Match("00000000", 0, 0, 0))
}

func TestNegationCancelsMatch(t *testing.T) {
	set, err := NewSet("*,!12345678")
	require.NoError(t, err)
	matched, _ := set.Matches(Address{Id: "12345678", Mfct: WildcardMfct, Version: WildcardVersion, Type: WildcardType})
	assert.False(t, matched)

	matched, _ = set.Matches(Address{Id: "99999999", Mfct: WildcardMfct, Version: WildcardVersion, Type: WildcardType})
	assert.True(t, matched)
}

func TestRequiredExpressionMustMatch(t *testing.T) {
	set, err := NewSet("*,R12345678")
	require.NoError(t, err)

	matched, _ := set.Matches(Address{Id: "99999999"})
	assert.False(t, matched, "required expression absent should reject the telegram")

	matched, _ = set.Matches(Address{Id: "12345678"})
	assert.True(t, matched)
}

func TestUsedWildcardFlag(t *testing.T) {
	set, err := NewSet("1234*")
	require.NoError(t, err)
	_, usedWildcard := set.Matches(Address{Id: "12345678"})
	assert.True(t, usedWildcard)

	set, err = NewSet("12345678")
	require.NoError(t, err)
	_, usedWildcard = set.Matches(Address{Id: "12345678"})
	assert.False(t, usedWildcard)
}

func TestTrimToIdentity(t *testing.T) {
	a := Address{Id: "12345678", Mfct: 0x1234, Version: 0x01, Type: 0x02}

	ae := TrimToIdentity(IdentityFull, a)
	assert.Equal(t, a.Id, ae.Id)
	assert.Equal(t, a.Mfct, ae.Mfct)
	assert.Equal(t, a.Version, ae.Version)
	assert.Equal(t, a.Type, ae.Type)
	assert.True(t, ae.Required)

	ae = TrimToIdentity(IdentityIdMfct, a)
	assert.Equal(t, a.Mfct, ae.Mfct)
	assert.Equal(t, WildcardVersion, ae.Version)

	ae = TrimToIdentity(IdentityId, a)
	assert.Equal(t, WildcardMfct, ae.Mfct)

	ae = TrimToIdentity(IdentityNone, a)
	assert.Equal(t, "", ae.Id)
}

func TestManufacturerFlagRoundTrip(t *testing.T) {
	m, ok := FlagToManufacturer("KAM")
	require.True(t, ok)
	assert.Equal(t, "KAM", ManufacturerFlag(m))
}

func TestDecodeAddressOrderings(t *testing.T) {
	b := []byte{0x24, 0x40, 0x78, 0x56, 0x34, 0x12, 0x01, 0x02}
	a1 := DecodeMfctFirst(b)
	assert.Equal(t, "12345678", a1.Id)
	assert.Equal(t, uint16(0x4024), a1.Mfct)
	assert.Equal(t, byte(0x01), a1.Version)
	assert.Equal(t, byte(0x02), a1.Type)

	b2 := []byte{0x78, 0x56, 0x34, 0x12, 0x24, 0x40, 0x01, 0x02}
	a2 := DecodeIdFirst(b2)
	assert.Equal(t, a1, a2)
}
