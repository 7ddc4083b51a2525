package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainFragment prefixes fragment fingerprints. The version suffix allows
// the algorithm to change without colliding with old fingerprints.
const DomainFragment = "structq/fragment/v1"

// Fingerprint returns a stable content address for f: the SHA-256 of its
// prepared SQL followed by the literal form of each binding.
//
// Two fragments share a fingerprint exactly when they render the same SQL
// with the same bindings in the same order.
func Fingerprint(f Fragment) string {
	sql, bindings := f.Prepare(QuestionMark)
	h := sha256.New()
	h.Write([]byte(DomainFragment))
	h.Write([]byte{0x00})
	h.Write([]byte(sql))
	for _, b := range bindings {
		h.Write([]byte{0x00})
		h.Write([]byte(b.Kind().String()))
		h.Write([]byte{0x00})
		h.Write([]byte(b.String()))
	}
	return hex.EncodeToString(h.Sum(nil))
}
