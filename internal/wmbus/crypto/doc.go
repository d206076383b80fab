// Package crypto implements the two wmbus frame-encryption schemes named
// in the transport-layer config word: AES-CBC-IV (TPL security mode 5) and
// AES-CTR (ELL security, used by frame-format-B style short frames).
//
// AES-CBC-IV operates on whole 16-byte blocks; AES-CTR accepts any
// length. Both leave any unencrypted tail bytes untouched; the caller
// concatenates the decrypted bytes with that
// tail to rebuild the application-layer payload, per spec.md §4.C step 3.
package crypto
