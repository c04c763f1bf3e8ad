// Package tenant derives opaque tenant identifiers from request metadata.
//
// The store never sees raw client identifiers (IP, user agent) — every
// caller that needs a tenant key goes through DeriveTenantID first.
package tenant

import (
	"crypto/sha256"
	"encoding/hex"
)

// idHexLen is the truncation length of the derived key (16 hex chars = 8 bytes).
const idHexLen = 16

// DeriveTenantID computes SHA-256(ip ∥ userAgent ∥ salt), truncated to the
// first 16 hex characters.
func DeriveTenantID(ip, userAgent, salt string) string {
	h := sha256.New()
	h.Write([]byte(ip))
	h.Write([]byte(userAgent))
	h.Write([]byte(salt))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:idHexLen]
}
