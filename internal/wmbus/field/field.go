package field

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/units"
)

// PrintProperty is a bitset of how a field participates in output.
type PrintProperty int

const (
	PropJSON PrintProperty = 1 << iota
	PropField
	PropImportant
	PropOptional
	PropStatus
	PropDeprecated
	PropJoinTPLStatus // OR the decoded TPL status byte into this field
	PropJoinIntoStatus // append this field's string into the shared status field
)

func (p PrintProperty) Has(flag PrintProperty) bool { return p&flag != 0 }

// Quantity names the physical dimension a numeric field holds; it picks
// the field's default display unit.
type Quantity int

const (
	QuantityEnergy Quantity = iota
	QuantityVolume
	QuantityFlow
	QuantityPower
	QuantityTemperature
	QuantityTemperatureDifference
	QuantityVoltage
	QuantityAmperage
	QuantityFrequency
	QuantityPressure
	QuantityTime
	QuantityDimensionless
	QuantityMass
	QuantityPointInTime
)

// DefaultUnit returns the unit a quantity is reported in absent an
// explicit override, per spec.md's "SI-quantified magnitude" rule.
func (q Quantity) DefaultUnit() units.Unit {
	switch q {
	case QuantityEnergy:
		return units.KWH
	case QuantityVolume:
		return units.M3
	case QuantityFlow:
		return units.M3H
	case QuantityPower:
		return units.KW
	case QuantityTemperature:
		return units.C
	case QuantityTemperatureDifference:
		return units.K
	case QuantityVoltage:
		return units.Volt
	case QuantityAmperage:
		return units.Ampere
	case QuantityFrequency:
		return units.Hertz
	case QuantityPressure:
		return units.Bar
	case QuantityTime:
		return units.Second
	case QuantityMass:
		return units.Kilogram
	case QuantityPointInTime:
		return units.UnixTimestamp
	default:
		return units.Number
	}
}

// VifScaling selects how a numeric field's raw value is scaled.
type VifScaling int

const (
	// ScalingAuto lets the matched VIF's own power-of-ten exponent pick
	// the intermediate unit before converting to the field's display unit.
	ScalingAuto VifScaling = iota
	ScalingNone
)

// Matcher narrows which dif.Entry satisfies a FieldInfo. Every non-zero
// constraint must hold; DifVifKey, when set, is the sole constraint (an
// exact-match shortcut, mirroring the FieldMatcher::build().set(DifVifKey(...))
// pattern).
type Matcher struct {
	difVifKey     string
	hasMeasurement bool
	measurement   dif.MeasurementType
	hasVIFRange   bool
	vifRange      dif.VIFRange
	hasStorageNr  bool
	storageNr     uint64
	hasTariffNr   bool
	tariffNr      uint64
	hasSubUnitNr  bool
	subUnitNr     uint64
	combinables   []dif.Combinable
}

// NewMatcher starts a Matcher builder, mirroring FieldMatcher::build().
func NewMatcher() Matcher { return Matcher{} }

// DifVifKey narrows to an exact DIF+VIF key, e.g. "04FF22".
func (m Matcher) DifVifKey(key string) Matcher {
	m.difVifKey = strings.ToUpper(key)
	return m
}

// Measurement narrows to entries of the given measurement type.
func (m Matcher) Measurement(t dif.MeasurementType) Matcher {
	m.hasMeasurement = true
	m.measurement = t
	return m
}

// VIFRange narrows to entries whose VIF falls in the given equivalence
// class.
func (m Matcher) VIFRange(r dif.VIFRange) Matcher {
	m.hasVIFRange = true
	m.vifRange = r
	return m
}

// StorageNr narrows to a specific storage number.
func (m Matcher) StorageNr(n uint64) Matcher {
	m.hasStorageNr = true
	m.storageNr = n
	return m
}

// TariffNr narrows to a specific tariff number.
func (m Matcher) TariffNr(n uint64) Matcher {
	m.hasTariffNr = true
	m.tariffNr = n
	return m
}

// SubUnitNr narrows to a specific sub-unit (device) number, e.g.
// distinguishing a smoke detector's primary unit from its test button or
// removal-detection sub-counters that share the same tariff/VIFRange.
func (m Matcher) SubUnitNr(n uint64) Matcher {
	m.hasSubUnitNr = true
	m.subUnitNr = n
	return m
}

// Combinable requires the entry to carry the given VIFE combinable.
func (m Matcher) Combinable(c dif.Combinable) Matcher {
	m.combinables = append(m.combinables, c)
	return m
}

// isEmpty reports whether m carries no constraint at all, i.e. it was
// never narrowed past NewMatcher(). A field built with such a matcher
// and PropJoinTPLStatus has no DIF/VIF source of its own and is read
// straight off the telegram's TPL status byte instead, mirroring
// FieldInfo entries built with only PrintProperty::INCLUDE_TPL_STATUS
// and no FieldMatcher.
func (m Matcher) isEmpty() bool {
	return m.difVifKey == "" && !m.hasMeasurement && !m.hasVIFRange &&
		!m.hasStorageNr && !m.hasTariffNr && !m.hasSubUnitNr && len(m.combinables) == 0
}

// Matches reports whether e satisfies every constraint set on m.
func (m Matcher) Matches(e dif.Entry) bool {
	if m.difVifKey != "" {
		return e.Key == m.difVifKey
	}
	if m.hasMeasurement && e.Measurement != m.measurement {
		return false
	}
	if m.hasVIFRange && e.Range != m.vifRange {
		return false
	}
	if m.hasStorageNr && e.StorageNr != m.storageNr {
		return false
	}
	if m.hasTariffNr && e.TariffNr != m.tariffNr {
		return false
	}
	if m.hasSubUnitNr && e.SubunitNr != m.subUnitNr {
		return false
	}
	for _, want := range m.combinables {
		found := false
		for _, has := range e.Combinables {
			if has == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// BitEntry is one bit (or bitmask) of a BitToString translation table.
type BitEntry struct {
	Mask  uint64
	Label string
}

// Lookup is a translation table from raw bits (or an exact integer) to a
// human string, mirroring Translate::Lookup. By default it renders
// BitToString: every bit/mask whose pattern is fully set in v contributes
// its label, space-joined. Setting Indexed switches it to IndexToString:
// the masked value is matched exactly (zero included) against Bits'
// Mask entries, falling back to "{IndexName}_{value}" when nothing
// matches instead of DefaultLabel.
type Lookup struct {
	Mask         uint64
	DefaultLabel string // label emitted when the masked value is zero (BitToString only)
	Bits         []BitEntry

	Indexed   bool   // IndexToString semantics instead of BitToString
	IndexName string // fallback label prefix for an unmatched index, e.g. "DUST"
}

// Render expands v (already masked) through the lookup table.
func (l Lookup) Render(v uint64) string {
	v &= l.Mask
	if l.Indexed {
		for _, be := range l.Bits {
			if be.Mask == v {
				return be.Label
			}
		}
		return fmt.Sprintf("%s_%d", l.IndexName, v)
	}
	if v == 0 && l.DefaultLabel != "" {
		return l.DefaultLabel
	}
	var labels []string
	seen := map[string]bool{}
	for _, be := range l.Bits {
		if v&be.Mask == be.Mask && be.Mask != 0 && !seen[be.Label] {
			labels = append(labels, be.Label)
			seen[be.Label] = true
		}
	}
	if len(labels) == 0 {
		return fmt.Sprintf("0x%x", v)
	}
	sort.Strings(labels)
	return strings.Join(labels, " ")
}

// Calculator computes a derived field from already-extracted fields, in
// the field's own SI-quantified magnitude (Exp-checked by the caller).
type Calculator func(get func(name string) (float64, bool)) (float64, bool)

// Info is one declared field: spec.md's FieldInfo.
type Info struct {
	Name        string
	Description string
	Props       PrintProperty
	Matcher     Matcher

	Quantity Quantity
	Scaling  VifScaling

	StringLookup *Lookup

	// IsDateTimeString marks a field rendered as a literal calendar
	// string instead of a display-unit numeric value, e.g. amiplus's
	// device_date_time. Unlike a QuantityPointInTime NumericField (whose
	// JSON rendering is also a calendar string but stays available as a
	// unix-timestamp number for calculated-field arithmetic), a field
	// built this way never participates in Calculator math.
	IsDateTimeString bool

	// IsTextField marks a field rendered straight from a matched entry's
	// Value.Text, with no lookup or numeric conversion at all, e.g. a
	// ProcessContent-synthesized string such as izar's prefix. Mirrors
	// addStringField (no FieldMatcher, value set directly by the driver)
	// in the original.
	IsTextField bool

	Calculator Calculator
}

// NumericField declares a field extracted straight from a matched
// DV-entry's decoded value, with VIF-implied-to-display unit conversion.
func NumericField(name, desc string, props PrintProperty, q Quantity, scaling VifScaling, m Matcher) Info {
	return Info{Name: name, Description: desc, Props: props, Matcher: m, Quantity: q, Scaling: scaling}
}

// StringField declares a field whose raw integer value is rendered
// through a translation Lookup table (status/error-flag fields).
func StringField(name, desc string, props PrintProperty, m Matcher, lookup Lookup) Info {
	l := lookup
	return Info{Name: name, Description: desc, Props: props, Matcher: m, StringLookup: &l}
}

// CalculatedField declares a field whose value comes from other already-
// extracted fields rather than directly from a DV-entry.
func CalculatedField(name, desc string, props PrintProperty, q Quantity, calc Calculator) Info {
	return Info{Name: name, Description: desc, Props: props, Quantity: q, Calculator: calc}
}

// TextField declares a field whose value is the matched entry's raw
// Value.Text, unconverted and unrendered.
func TextField(name, desc string, props PrintProperty, m Matcher) Info {
	return Info{Name: name, Description: desc, Props: props, Matcher: m, IsTextField: true}
}

// ExtractText returns the first matching entry's Value.Text.
func (f Info) ExtractText(entries []dif.Entry) (string, bool) {
	for _, e := range entries {
		if !f.Matcher.Matches(e) {
			continue
		}
		if e.Value.Text == "" {
			return "", false
		}
		return e.Value.Text, true
	}
	return "", false
}

// DateTimeField declares a field rendered as a literal calendar string
// ("2006-01-02 15:04:05") from a matched date/datetime entry, mirroring
// addStringFieldWithExtractor(..., VIFRange::DateTime) in the original —
// a plain string render, not a Quantity::PointInTime numeric field.
func DateTimeField(name, desc string, props PrintProperty, m Matcher) Info {
	return Info{Name: name, Description: desc, Props: props, Matcher: m, IsDateTimeString: true}
}

// intrinsicUnit resolves the unit a matched dif.Entry's Auto-scaled value
// is expressed in before any field-level unit conversion.
func intrinsicUnit(e dif.Entry) (units.Unit, bool) {
	return units.Lookup(e.UnitName)
}

// Extract produces the field's numeric value (in its Quantity's default
// display unit) from the first matching entry in entries, per spec.md
// §4.C step 5. ok is false when no entry matched.
func (f Info) Extract(entries []dif.Entry) (value float64, ok bool) {
	for _, e := range entries {
		if !f.Matcher.Matches(e) {
			continue
		}
		if !e.Value.HasValue {
			return 0, false
		}
		src, found := intrinsicUnit(e)
		if !found {
			return e.Value.Numeric, true
		}
		dst := f.Quantity.DefaultUnit()
		converted := units.Convert(e.Value.Numeric, src, dst)
		if math.IsNaN(converted) {
			return 0, false
		}
		return converted, true
	}
	return 0, false
}

// ExtractDateTimeString renders the first matching entry's decoded
// date/time, for fields built with DateTimeField: "2006-01-02" for a
// VIFRange(Date) entry (type G, no time-of-day component at all), or
// "2006-01-02 15:04:05" for a VIFRange(DateTime) entry (type F, which
// carries no seconds of its own, so the rendered seconds are always
// "00").
func (f Info) ExtractDateTimeString(entries []dif.Entry) (string, bool) {
	for _, e := range entries {
		if !f.Matcher.Matches(e) {
			continue
		}
		if !e.Value.IsTime || e.Value.When.IsZero() {
			return "", false
		}
		if e.Range == dif.Date {
			return e.Value.When.Format("2006-01-02"), true
		}
		return e.Value.When.Format("2006-01-02 15:04:05"), true
	}
	return "", false
}

// FormatPointInTime renders a QuantityPointInTime NumericField's matched
// entry as a calendar string alongside its unix-timestamp numeric value:
// a bare date ("2006-01-02") for a VIFRange(Date) entry, or a naive local
// datetime without seconds ("2006-01-02 15:04") for a VIFRange(DateTime)
// entry — type F itself carries no seconds.
func (f Info) FormatPointInTime(entries []dif.Entry) (string, bool) {
	for _, e := range entries {
		if !f.Matcher.Matches(e) {
			continue
		}
		if !e.Value.IsTime || e.Value.When.IsZero() {
			return "", false
		}
		if e.Range == dif.DateTime {
			return e.Value.When.Format("2006-01-02 15:04"), true
		}
		return e.Value.When.Format("2006-01-02"), true
	}
	return "", false
}

// ExtractString produces the field's string rendering from the first
// matching entry's raw integer value run through StringLookup. tplStatus
// is the telegram's decoded TPL status byte; when the field carries
// PropJoinTPLStatus it is ORed into the matched raw value before
// rendering, and when the field declares no DIF/VIF matcher at all it is
// the field's sole source (a pure TPL-status field, e.g. qwater's
// status).
func (f Info) ExtractString(entries []dif.Entry, tplStatus byte) (string, bool) {
	if f.StringLookup == nil {
		return "", false
	}
	if f.Matcher.isEmpty() && f.Props.Has(PropJoinTPLStatus) {
		return f.StringLookup.Render(uint64(tplStatus)), true
	}
	for _, e := range entries {
		if !f.Matcher.Matches(e) {
			continue
		}
		var raw uint64
		for i := len(e.RawBytes) - 1; i >= 0; i-- {
			raw = raw<<8 | uint64(e.RawBytes[i])
		}
		if f.Props.Has(PropJoinTPLStatus) {
			raw |= uint64(tplStatus)
		}
		return f.StringLookup.Render(raw), true
	}
	return "", false
}
