// Package field implements the FieldInfo/FieldMatcher builder DSL a
// driver uses to declare which DV-entries populate which output fields:
// a numeric field extracted with unit scaling, or a string field decoded
// through a translation lookup table.
//
// A Matcher narrows by measurement type, VIF range, storage/tariff/
// subunit number, required combinables, or an exact DIF+VIF key; the
// first DV-entry satisfying every constraint set on the matcher wins.
package field
