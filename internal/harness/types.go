package harness

import "github.com/roach88/flatbind/internal/ir"

// EntrySummary is the part of an emitted entry that golden files record.
type EntrySummary struct {
	Identifier string       `json:"identifier"`
	Kind       ir.EntryKind `json:"kind"`
	Path       string       `json:"path"`
}

// Problem is one error reported by validation or generation.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expectation and all assertions match.
	Pass bool `json:"pass"`

	// Entries lists emitted identifiers in emission order.
	// Empty when generation failed.
	Entries []EntrySummary `json:"entries"`

	// Problems are the validation or generation errors, in report order.
	Problems []Problem `json:"problems,omitempty"`

	// Fingerprint is the mapping-table fingerprint of a successful run.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Output is the generation output, nil when generation failed.
	Output *ir.Output `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Entries: []EntrySummary{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Codes returns the problem codes in report order.
func (r *Result) Codes() []string {
	codes := make([]string, 0, len(r.Problems))
	for _, p := range r.Problems {
		codes = append(codes, p.Code)
	}
	return codes
}
