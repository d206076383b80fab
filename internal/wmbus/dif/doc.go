// Package dif decodes the data-information/value-information record stream
// of a wmbus application layer: DIF+DIFE header bytes, VIF+VIFE bytes, the
// value bytes they describe, and the 35 VIFRange equivalence classes a
// FieldMatcher (package field) matches against.
//
// Walk iterates a decrypted APL payload and returns one Entry per DV
// record, keyed by the uppercase hex of its DIF+DIFE...+VIF+VIFE... bytes,
// per spec.md §4.C step 4. It never panics: a malformed record stops the
// walk and is reported through the returned error, leaving whatever
// entries were already parsed intact.
package dif
