package units

import (
	"math"
	"sort"
)

// Exp is the 12-dimension signed exponent vector. Temperature is split into
// three distinguished dimensions (K, C, F) rather than unified, so that a
// calculated field mixing e.g. Celsius and Fahrenheit without an explicit
// conversion is caught as an exponent mismatch like any other unit error.
type Exp struct {
	S, M, Kg, A, Mol, Cd   int
	K, C, F                int
	Month, Year, UnixTS    int
}

// Add returns the componentwise sum of two exponent vectors (multiplication
// of the underlying quantities).
func (e Exp) Add(o Exp) Exp {
	return Exp{
		S: e.S + o.S, M: e.M + o.M, Kg: e.Kg + o.Kg, A: e.A + o.A,
		Mol: e.Mol + o.Mol, Cd: e.Cd + o.Cd,
		K: e.K + o.K, C: e.C + o.C, F: e.F + o.F,
		Month: e.Month + o.Month, Year: e.Year + o.Year, UnixTS: e.UnixTS + o.UnixTS,
	}
}

// Sub returns the componentwise difference (division of the underlying
// quantities).
func (e Exp) Sub(o Exp) Exp {
	return Exp{
		S: e.S - o.S, M: e.M - o.M, Kg: e.Kg - o.Kg, A: e.A - o.A,
		Mol: e.Mol - o.Mol, Cd: e.Cd - o.Cd,
		K: e.K - o.K, C: e.C - o.C, F: e.F - o.F,
		Month: e.Month - o.Month, Year: e.Year - o.Year, UnixTS: e.UnixTS - o.UnixTS,
	}
}

// Halve divides every exponent by two; used for sqrt. ok is false if any
// exponent is odd (an illegal square root of that quantity).
func (e Exp) Halve() (Exp, bool) {
	fields := []int{e.S, e.M, e.Kg, e.A, e.Mol, e.Cd, e.K, e.C, e.F, e.Month, e.Year, e.UnixTS}
	for _, f := range fields {
		if f%2 != 0 {
			return Exp{}, false
		}
	}
	return Exp{
		S: e.S / 2, M: e.M / 2, Kg: e.Kg / 2, A: e.A / 2, Mol: e.Mol / 2, Cd: e.Cd / 2,
		K: e.K / 2, C: e.C / 2, F: e.F / 2, Month: e.Month / 2, Year: e.Year / 2, UnixTS: e.UnixTS / 2,
	}, true
}

// IsKCF reports whether e is exactly one of the three temperature exponent
// vectors (pure K, pure C, or pure F).
func (e Exp) IsKCF() bool {
	return e == expK || e == expC || e == expF
}

// IsTimeLike reports whether e is one of {Second, Month, Year,
// UnixTimestamp} alone, the dimensions the calculated-field calendar rule
// operates over.
func (e Exp) IsTimeLike() bool {
	return e == expSecond || e == expMonth || e == expYear || e == expUnixTS
}

var (
	expK       = Exp{K: 1}
	expC       = Exp{C: 1}
	expF       = Exp{F: 1}
	expSecond  = Exp{S: 1}
	expMonth   = Exp{Month: 1}
	expYear    = Exp{Year: 1}
	expUnixTS  = Exp{UnixTS: 1}
	expDimless = Exp{}
)

// Unit is one declared unit of measure: a human name, a scale factor
// relative to its SI-like base, and the exponent vector it belongs to.
type Unit struct {
	Name  string
	Scale float64
	Exp   Exp
}

var registry = map[string]Unit{}

func register(name string, scale float64, e Exp) Unit {
	u := Unit{Name: name, Scale: scale, Exp: e}
	registry[name] = u
	return u
}

// Declared units, grounded on original_source/src/units.cc LIST_OF_SI_CONVERSIONS.
var (
	Second = register("s", 1.0, expSecond)
	Minute = register("min", 60.0, expSecond)
	Hour   = register("h", 3600.0, expSecond)
	Day    = register("day", 3600.0*24, expSecond)
	Month  = register("month", 1, Exp{Month: 1})
	Year   = register("year", 1, Exp{Year: 1})

	Meter    = register("m", 1.0, Exp{M: 1})
	Kilogram = register("kg", 1.0, Exp{Kg: 1})
	Ampere   = register("A", 1.0, Exp{A: 1})
	Mol      = register("mol", 1.0, Exp{Mol: 1})
	Candela  = register("cd", 1.0, Exp{Cd: 1})

	WH    = register("Wh", 3.6e3, Exp{Kg: 1, M: 2, S: -2})
	KWH   = register("kWh", 3.6e6, Exp{Kg: 1, M: 2, S: -2})
	MJ    = register("MJ", 1.0e6, Exp{Kg: 1, M: 2, S: -2})
	GJ    = register("GJ", 1.0e9, Exp{Kg: 1, M: 2, S: -2})
	KVARH = register("kvarh", 3.6e6, Exp{Kg: 1, M: 2, S: -2})
	KVAH  = register("kvah", 3.6e6, Exp{Kg: 1, M: 2, S: -2})

	W    = register("W", 1.0, Exp{Kg: 1, M: 2, S: -3})
	KW   = register("kW", 1000.0, Exp{Kg: 1, M: 2, S: -3})
	JH   = register("J/h", 1.0/3600.0, Exp{Kg: 1, M: 2, S: -3})
	MJH  = register("MJ/h", 1000000.0/3600.0, Exp{Kg: 1, M: 2, S: -3})
	KVAR = register("kvar", 1000.0, Exp{Kg: 1, M: 2, S: -3})
	KVA  = register("kva", 1000.0, Exp{Kg: 1, M: 2, S: -3})

	M3   = register("m3", 1.0, Exp{M: 3})
	L    = register("l", 1.0/1000.0, Exp{M: 3})
	M3H  = register("m3/h", 3600.0, Exp{M: 3, S: -1})
	LH   = register("l/h", 3.6, Exp{M: 3, S: -1})
	M3C  = register("m3C", 1.0, Exp{M: 3, C: 1})
	M3CH = register("m3Ch", 3600.0, Exp{M: 3, C: 1, S: -1})

	C = register("C", 1.0, expC)
	K = register("K", 1.0, expK)
	F = register("F", 1.0, expF)

	Volt  = register("V", 1.0, Exp{Kg: 1, M: 2, S: -3, A: -1})
	Hertz = register("Hz", 1.0, Exp{S: -1})
	Pa    = register("Pa", 1.0, Exp{Kg: 1, M: -1, S: -2})
	Bar   = register("bar", 100000.0, Exp{Kg: 1, M: -1, S: -2})

	UnixTimestamp = register("unixtimestamp", 1.0, expUnixTS)
	DateTimeUTC   = register("datetimeutc", 1.0, expUnixTS)
	DateTimeLT    = register("datetimelt", 1.0, expUnixTS)
	DateLT        = register("datelt", 1.0, expUnixTS)
	TimeLT        = register("timelt", 1.0, expUnixTS)

	RH         = register("RH", 1.0, expDimless)
	HCA        = register("hca", 1.0, expDimless)
	Degree     = register("deg", 1.0, expDimless)
	Radian     = register("rad", 180.0/math.Pi, expDimless)
	Counter    = register("counter", 1.0, expDimless)
	Factor     = register("factor", 1.0, expDimless)
	Number     = register("number", 1.0, expDimless)
	Percentage = register("%", 1.0, expDimless)
	Text       = register("txt", 1.0, expDimless)
)

// Lookup returns the registered unit by its display name.
func Lookup(name string) (Unit, bool) {
	u, ok := registry[name]
	return u, ok
}

// All returns every declared unit, sorted by name, for the list-units
// CLI subcommand.
func All() []Unit {
	out := make([]Unit, 0, len(registry))
	for _, u := range registry {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (u Unit) kcfOffset() (scale, offset float64) {
	switch u.Exp {
	case expK:
		return 1.0, 0.0
	case expC:
		return 1.0, 273.15
	case expF:
		return 5.0 / 9.0, 273.15 - 32.0*5.0/9.0
	}
	return 1, 0
}

// Convert converts v from unit `from` to unit `to`. Same-exponent pairs
// apply a scale ratio; the three temperature dimensions additionally apply
// the documented offset; pairs of time-like dimensions (see IsTimeLike)
// apply the scale ratio alone; anything else returns NaN rather than panicking
// (spec.md §7 "unit conversion failures").
func Convert(v float64, from, to Unit) float64 {
	if from.Exp == to.Exp {
		return v * from.Scale / to.Scale
	}
	if from.Exp.IsKCF() && to.Exp.IsKCF() {
		fromScale, fromOffset := from.kcfOffset()
		fromScale *= from.Scale
		toScale, toOffset := to.kcfOffset()
		toScale *= to.Scale
		kelvin := v*fromScale + fromOffset
		return (kelvin - toOffset) / toScale
	}
	if from.Exp.IsTimeLike() && to.Exp.IsTimeLike() {
		return v * from.Scale / to.Scale
	}
	return math.NaN()
}

// CanConvert reports whether Convert(v, from, to) would produce a real
// number rather than NaN.
func CanConvert(from, to Unit) bool {
	if from.Exp == to.Exp {
		return true
	}
	if from.Exp.IsKCF() && to.Exp.IsKCF() {
		return true
	}
	if from.Exp.IsTimeLike() && to.Exp.IsTimeLike() {
		return true
	}
	return false
}
