// Package address implements the wmbus address-expression grammar: parsing,
// matching against a decoded telegram address, identity trimming, and the
// string round-trip used by configuration reload and --listento reporting.
//
// # Grammar
//
//	expr     := ['!'] ['R'] id-part { '.' qualifier }
//	id-part  := hex-digits | hex-digits '*' | 'p' digits
//	qualifier:= 'M=' flag3 | 'M=' hex4 | 'V=' hex2 | 'T=' hex2
//
// A leading '!' marks the expression negative (any match filters the
// telegram out). A leading 'R' marks it required (at least one required
// expression must match or the telegram is rejected). The literal "ANYID"
// is rewritten to "*" before parsing, matching wmbusmeters' own behaviour.
package address
