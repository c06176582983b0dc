package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/flatbind/internal/compiler"
	"github.com/roach88/flatbind/internal/emit"
	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/store"
)

// Harness holds the per-scenario execution state.
type Harness struct {
	store *store.Store
	opts  emit.Options
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the declaration model
// 2. Validate it; validation errors stop the pipeline
// 3. Emit; generation errors are recorded as problems
// 4. Record a successful output in the store
// 5. Check the expectation and evaluate assertions
//
// The returned error is reserved for infrastructure failures (unreadable
// model, database errors). Generation failures are results.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for store access.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	target, err := ir.NewTarget(scenario.Target)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store: st,
		opts:  emit.Options{Target: target, AllowSignedEnums: scenario.AllowSignedEnums},
	}

	result, err := h.generate(ctx, scenario.Model)
	if err != nil {
		return nil, err
	}

	switch {
	case scenario.Expect == ExpectError && len(result.Problems) == 0:
		result.AddError("expected generation to fail, but it succeeded")
	case scenario.Expect != ExpectError && len(result.Problems) > 0:
		for _, p := range result.Problems {
			result.AddError(fmt.Sprintf("unexpected %s: %s", p.Code, p.Message))
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}
	return result, nil
}

func (h *Harness) generate(ctx context.Context, modelPath string) (*Result, error) {
	result := NewResult()

	m, err := compiler.LoadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	if verrs := compiler.Validate(m); len(verrs) > 0 {
		for _, ve := range verrs {
			result.Problems = append(result.Problems, Problem{Code: ve.Code, Message: ve.Error()})
		}
		return result, nil
	}

	out, err := emit.Emit(m, h.opts)
	if err != nil {
		var emitErr *emit.Error
		if !errors.As(err, &emitErr) {
			return nil, err
		}
		for _, e := range emitErr.Errors() {
			result.Problems = append(result.Problems, Problem{Code: ErrorCode(e), Message: e.Error()})
		}
		return result, nil
	}

	if _, _, err := h.store.WriteRun(ctx, out); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	result.Output = out
	result.Fingerprint = ir.MustFingerprint(out)
	for _, e := range out.Entries {
		result.Entries = append(result.Entries, EntrySummary{Identifier: e.Identifier, Kind: e.Kind, Path: e.Path})
	}
	return result, nil
}

// ErrorCode returns the E-code carried by a generation or validation error,
// or "" for other errors.
func ErrorCode(err error) string {
	var (
		layout     *ir.LayoutError
		collision  *ir.NamingCollisionError
		unresolved *ir.UnresolvedError
		validation compiler.ValidationError
	)
	switch {
	case errors.As(err, &layout):
		return layout.Code
	case errors.As(err, &collision):
		return collision.Code
	case errors.As(err, &unresolved):
		return unresolved.Code
	case errors.As(err, &validation):
		return validation.Code
	}
	return ""
}
