package parser

import (
	"errors"
	"math/big"
	"strings"
)

var (
	// ErrMalformedLiteral reports text that is not a decimal or hex literal.
	ErrMalformedLiteral = errors.New("malformed literal")
	// ErrOutOfRange reports a literal above MaxValue.
	ErrOutOfRange = errors.New("value out of range")
)

// MaxValue is the largest literal value, 2^256-1.
var MaxValue = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// maxDigits is the number of decimal digits of MaxValue.
const maxDigits = 78

// ParseLiteral parses a decimal literal with an optional 'e' exponent, or
// a 0x-prefixed hex literal.
func ParseLiteral(text string) (*big.Int, error) {
	if rest, ok := strings.CutPrefix(text, "0x"); ok {
		if rest == "" || strings.IndexFunc(rest, func(r rune) bool { return !isHex(r) }) >= 0 {
			return nil, ErrMalformedLiteral
		}
		v, _ := new(big.Int).SetString(rest, 16)
		if v.Cmp(MaxValue) > 0 {
			return nil, ErrOutOfRange
		}
		return v, nil
	}

	mantissa, exp, hasExp := strings.Cut(text, "e")
	if !allDigits(mantissa) || hasExp && !allDigits(exp) {
		return nil, ErrMalformedLiteral
	}
	v, _ := new(big.Int).SetString(mantissa, 10)
	if !hasExp || v.Sign() == 0 {
		if v.Cmp(MaxValue) > 0 {
			return nil, ErrOutOfRange
		}
		return v, nil
	}

	// Bound the exponent before adding the digit count so the sum
	// cannot overflow.
	e, ok := new(big.Int).SetString(exp, 10)
	if !ok || e.Cmp(big.NewInt(maxDigits+1)) > 0 {
		return nil, ErrOutOfRange
	}
	significant := len(strings.TrimLeft(mantissa, "0"))
	if int64(significant)+e.Int64() > maxDigits+1 {
		return nil, ErrOutOfRange
	}
	v.Mul(v, new(big.Int).Exp(big.NewInt(10), e, nil))
	if v.Cmp(MaxValue) > 0 {
		return nil, ErrOutOfRange
	}
	return v, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isHex(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F'
}
