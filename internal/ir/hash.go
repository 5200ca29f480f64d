package ir

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// HashSize is the byte length of a Hash.
const HashSize = 32

// Hash is a content-derived identifier: the Keccak-256 digest of a payload.
// The zero value is not a valid content hash of anything stored.
type Hash [HashSize]byte

// ContentHash computes the Keccak-256 hash of data.
// This is the legacy (pre-NIST) Keccak used by Ethereum tooling, so hashes
// match the ones published by meta registries.
func ContentHash(data []byte) Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// ParseHash parses a 0x-prefixed 64 digit hex string.
// Upper-case digits are accepted; the canonical form is lower-case.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) != 2+2*HashSize || !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return h, fmt.Errorf("invalid hash %q: want 0x followed by %d hex digits", s, 2*HashSize)
	}
	if _, err := hex.Decode(h[:], []byte(s[2:])); err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return h, nil
}

// MustParseHash is like ParseHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// String returns the canonical 0x-prefixed lower-case hex form (66 chars).
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// IsHashLiteral reports whether s looks like a hash literal: 0x followed by
// exactly 64 hex digits.
func IsHashLiteral(s string) bool {
	if len(s) != 2+2*HashSize || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for i := 2; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
