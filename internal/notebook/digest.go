package notebook

import (
	"crypto/sha256"
	"encoding/hex"
)

// digestDomain is the domain prefix for document content digests.
// Version suffix enables future algorithm migration.
const digestDomain = "rescribe/document/v1"

// Digest computes the content-addressed identity of a document's raw
// bytes: SHA-256 over domain + 0x00 + data. The null separator prevents
// domain/data boundary ambiguity. Stable across runs for identical bytes,
// so before/after digests detect whether a rewrite changed a file.
func Digest(raw []byte) string {
	h := sha256.New()
	h.Write([]byte(digestDomain))
	h.Write([]byte{0x00})
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}
