package meta

import (
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"

	"github.com/roach88/dotrain/internal/ir"
)

// Magic numbers prefixing each payload kind.
const (
	MagicDotrain   uint64 = 0xffe5ffb4a3ff2cde
	MagicWords     uint64 = 0xffe9e3a02ca8e235
	MagicDeployer  uint64 = 0xffdb988a8cd04d32
	MagicNamespace uint64 = 0xff0b5e1a7f3c2d94
)

const magicSize = 8

// ErrCorrupt reports a payload whose magic is known but whose body is invalid.
var ErrCorrupt = errors.New("corrupt meta")

// NamePattern is the pattern for words, binding names and namespace segments.
var NamePattern = regexp.MustCompile(`^[a-z][0-9a-z-]*$`)

// Kind identifies the payload variant.
type Kind int

const (
	KindRaw Kind = iota
	KindDotrain
	KindWords
	KindDeployer
	KindNamespace
)

var kindNames = [...]string{
	KindRaw:       "raw",
	KindDotrain:   "dotrain",
	KindWords:     "words",
	KindDeployer:  "deployer",
	KindNamespace: "namespace",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return KindRaw, fmt.Errorf("unknown payload kind %q", s)
}

// Payload is the decoded form of a metadata blob. The concrete type is one of
// *Dotrain, *Words, *Deployer, *Namespace or *Raw.
type Payload interface {
	Kind() Kind
}

// Dotrain is a .rain document stored as metadata.
type Dotrain struct {
	Text string
}

// Kind implements Payload.
func (*Dotrain) Kind() Kind { return KindDotrain }

// Raw is an opaque payload with no known magic.
type Raw struct {
	Bytes []byte
}

// Kind implements Payload.
func (*Raw) Kind() Kind { return KindRaw }

// Encode serializes a payload to its canonical bytes.
func Encode(p Payload) ([]byte, error) {
	switch v := p.(type) {
	case *Dotrain:
		return EncodeDotrain(v.Text), nil
	case *Words:
		return encodeJSON(MagicWords, v.canonical())
	case *Deployer:
		return encodeJSON(MagicDeployer, v.canonical())
	case *Namespace:
		obj, err := v.canonical()
		if err != nil {
			return nil, err
		}
		return encodeJSON(MagicNamespace, obj)
	case *Raw:
		return append([]byte(nil), v.Bytes...), nil
	default:
		return nil, fmt.Errorf("encode: unsupported payload %T", p)
	}
}

// MustEncode is like Encode but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEncode(p Payload) []byte {
	out, err := Encode(p)
	if err != nil {
		panic(err)
	}
	return out
}

// EncodeDotrain wraps document text in a Dotrain payload.
func EncodeDotrain(text string) []byte {
	out := make([]byte, magicSize, magicSize+len(text))
	binary.BigEndian.PutUint64(out, MagicDotrain)
	return append(out, text...)
}

// DotrainHash is the hash a document's text is stored under.
func DotrainHash(text string) ir.Hash {
	return ir.ContentHash(EncodeDotrain(text))
}

// Hash encodes p and returns its content hash.
func Hash(p Payload) (ir.Hash, error) {
	data, err := Encode(p)
	if err != nil {
		return ir.Hash{}, err
	}
	return ir.ContentHash(data), nil
}

func encodeJSON(magic uint64, body ir.Object) ([]byte, error) {
	js, err := ir.MarshalCanonical(body)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	out := make([]byte, magicSize, magicSize+len(js))
	binary.BigEndian.PutUint64(out, magic)
	return append(out, js...), nil
}

// Decode classifies and validates a payload. Known magics with invalid
// bodies fail with ErrCorrupt; unknown magics decode as *Raw.
func Decode(data []byte) (Payload, error) {
	if len(data) < magicSize {
		return &Raw{Bytes: data}, nil
	}
	body := data[magicSize:]
	switch binary.BigEndian.Uint64(data) {
	case MagicDotrain:
		return &Dotrain{Text: string(body)}, nil
	case MagicWords:
		return decodeWords(body)
	case MagicDeployer:
		return decodeDeployer(body)
	case MagicNamespace:
		return decodeNamespace(body)
	default:
		return &Raw{Bytes: data}, nil
	}
}

// KindOf reports the payload kind from the magic alone, without validating the body.
func KindOf(data []byte) Kind {
	if len(data) < magicSize {
		return KindRaw
	}
	switch binary.BigEndian.Uint64(data) {
	case MagicDotrain:
		return KindDotrain
	case MagicWords:
		return KindWords
	case MagicDeployer:
		return KindDeployer
	case MagicNamespace:
		return KindNamespace
	default:
		return KindRaw
	}
}
