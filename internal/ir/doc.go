// Package ir provides the foundational types shared by every dotrain package.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Hashes are 32-byte Keccak-256 digests of a payload's canonical encoding
//   - Offsets are document-absolute byte offsets, half-open [start, end)
//   - Error codes are stable small integers grouped in bands by category
//   - Canonical JSON (RFC 8785 ordering, NFC strings, no floats) is the only
//     serialization used for hashed payload bodies
package ir
