// Package units implements the wmbus unit system: each Unit declares a
// scale factor and a 12-dimension signed exponent vector over
// {s, m, kg, A, mol, cd, K, C, F, month, year, unix_timestamp}, with K/C/F
// kept as distinct dimensions (rather than unified into one temperature
// dimension) so that an illegal K<->C<->F mix-up inside a calculated-field
// expression is caught the same way any other dimension mismatch is.
//
// Conversion between two units of the same exponent vector is a scale
// ratio; conversion between the three temperature dimensions additionally
// applies the documented offset. Conversion among the time-like dimensions
// (second, month, year, unix timestamp) applies the scale ratio alone,
// with no calendar arithmetic. Any other conversion request returns NaN
// rather than panicking, per spec.md §4.C and §7.
package units
