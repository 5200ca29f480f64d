package testutil

import (
	"github.com/roach88/dotrain/internal/meta"
)

// Word builds a word with no input or operand bounds.
func Word(name string) meta.Word {
	return meta.Word{Name: name, Description: name}
}

// BoundedWord builds a word with explicit input and operand bounds.
func BoundedWord(name string, inputs, operandArgs int) meta.Word {
	return meta.Word{
		Name:        name,
		Description: name,
		Inputs:      meta.IntPtr(inputs),
		OperandArgs: meta.IntPtr(operandArgs),
	}
}

// WordsPayload encodes a Words payload with unbounded words.
func WordsPayload(names ...string) []byte {
	words := make([]meta.Word, len(names))
	for i, n := range names {
		words[i] = Word(n)
	}
	return meta.MustEncode(&meta.Words{Words: words})
}

// DeployerPayload encodes a Deployer payload.
func DeployerPayload(bytecode []byte, words ...meta.Word) []byte {
	return meta.MustEncode(&meta.Deployer{Bytecode: bytecode, Words: words})
}

// DotrainPayload encodes document text as a Dotrain payload.
func DotrainPayload(text string) []byte {
	return meta.EncodeDotrain(text)
}
