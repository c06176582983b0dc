package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/flatbind/internal/ir"
)

// Snapshot captures what a scenario produced, for golden comparison.
// Serialized with canonical JSON so snapshots compare byte for byte.
type Snapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Entries      []EntrySummary `json:"entries"`
	Codes        []string       `json:"codes"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles maps, slices and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	entries := make([]any, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = map[string]any{
			"identifier": e.Identifier,
			"kind":       string(e.Kind),
			"path":       e.Path,
		}
	}
	codes := s.Codes
	if codes == nil {
		codes = []string{}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"entries":       entries,
		"codes":         codes,
	}
}

// MarshalSnapshot returns the canonical JSON snapshot of a result.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: name,
		Entries:      result.Entries,
		Codes:        result.Codes(),
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
