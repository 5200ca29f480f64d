package compiler

import (
	"context"
	"fmt"
)

// Compiler turns a composed program into bytecode.
type Compiler interface {
	Compile(ctx context.Context, p *Program) ([]byte, error)
}

// Func adapts a function to the Compiler interface.
type Func func(ctx context.Context, p *Program) ([]byte, error)

// Compile calls f.
func (f Func) Compile(ctx context.Context, p *Program) ([]byte, error) {
	return f(ctx, p)
}

// StructuredError is the error a Compiler reports when it rejects a
// program. Binding names the offending binding when known.
type StructuredError struct {
	Binding string `json:"binding,omitempty"`
	Message string `json:"msg"`
	// Data carries compiler-specific detail, passed through untouched.
	Data map[string]any `json:"data,omitempty"`
}

func (e *StructuredError) Error() string {
	if e.Binding != "" {
		return fmt.Sprintf("compile %s: %s", e.Binding, e.Message)
	}
	return "compile: " + e.Message
}
