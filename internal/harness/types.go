package harness

import (
	"github.com/roach88/dotrain/internal/document"
	"github.com/roach88/dotrain/internal/ir"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	// Report is the rendered snapshot, see Render.
	Report string `json:"report"`

	// Snapshot is the parsed document.
	Snapshot *document.Snapshot `json:"-"`

	// Hashes maps payload names to their hashes.
	Hashes map[string]ir.Hash `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Hashes: make(map[string]ir.Hash),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
