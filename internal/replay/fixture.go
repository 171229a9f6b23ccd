package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/digital-twin/internal/logging"
	"github.com/danielpatrickdp/digital-twin/internal/state"
	"github.com/danielpatrickdp/digital-twin/internal/twin"
	"github.com/danielpatrickdp/digital-twin/internal/update"
)

// #region fixture-types
// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	StartState      *state.TwinState        `json:"start_state,omitempty"`
	Config          json.RawMessage         `json:"config,omitempty"`
	Interactions    []FixtureInteraction    `json:"interactions"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureInteraction is one recorded user turn.
type FixtureInteraction struct {
	TurnID string   `json:"turn_id"`
	Input  string   `json:"input"`
	Reward *float64 `json:"reward,omitempty"`
}

// FixtureExpectedResult captures what a turn should produce. An empty
// Output is not compared.
type FixtureExpectedResult struct {
	TurnID string `json:"turn_id"`
	Rule   string `json:"rule"`
	Output string `json:"output,omitempty"`
}
// #endregion fixture-types

// #region fixture-loader
// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Start returns the state a replay begins from: the recorded start state,
// or the built-in default, with the fixture's configuration document merged
// on top.
func (f *Fixture) Start() (state.TwinState, error) {
	st := state.Default()
	if f.StartState != nil {
		st = f.StartState.Clone()
	}
	if len(f.Config) > 0 {
		p, err := twin.DecodePatch(f.Config)
		if err != nil {
			return state.TwinState{}, fmt.Errorf("fixture config: %w", err)
		}
		st = p.Apply(st)
	}
	if err := state.Validate(st); err != nil {
		return state.TwinState{}, fmt.Errorf("fixture start state: %w", err)
	}
	return st, nil
}

// ToInteraction converts a FixtureInteraction to a domain Interaction.
func (fi *FixtureInteraction) ToInteraction() Interaction {
	in := Interaction{TurnID: fi.TurnID, Input: fi.Input}
	if fi.Reward != nil {
		in.Feedback = &update.Feedback{Reward: *fi.Reward}
	}
	return in
}

// ToInteractions converts every fixture turn to a domain Interaction.
func (f *Fixture) ToInteractions() []Interaction {
	out := make([]Interaction, len(f.Interactions))
	for i := range f.Interactions {
		out[i] = f.Interactions[i].ToInteraction()
	}
	return out
}
// #endregion fixture-loader

// #region fixture-export
// FromLog builds a fixture from recorded provenance entries. Each entry's
// rule and output become the expected result for its turn.
func FromLog(description string, start state.TwinState, entries []logging.InteractionEntry) Fixture {
	st := start.Clone()
	f := Fixture{
		Description:     description,
		StartState:      &st,
		Interactions:    make([]FixtureInteraction, len(entries)),
		ExpectedResults: make([]FixtureExpectedResult, len(entries)),
	}
	for i, e := range entries {
		f.Interactions[i] = FixtureInteraction{TurnID: e.TurnID, Input: e.Input, Reward: e.Reward}
		f.ExpectedResults[i] = FixtureExpectedResult{TurnID: e.TurnID, Rule: e.RuleName, Output: e.Output}
	}
	return f
}

// ContiguousTail returns the most recent run of entries in which each turn ran
// directly on the version the previous turn committed. A configure or reset
// between two turns commits a version of its own, so the run starts after it
// and the exported start state already carries that change. parentOf returns
// the parent of a version. Entries without a version are not persisted and are
// kept as they are.
func ContiguousTail(entries []logging.InteractionEntry, parentOf func(versionID string) (string, error)) ([]logging.InteractionEntry, error) {
	start := len(entries) - 1
	for start > 0 {
		cur, prev := entries[start], entries[start-1]
		if cur.VersionID == "" || prev.VersionID == "" {
			start--
			continue
		}
		parent, err := parentOf(cur.VersionID)
		if err != nil {
			return nil, fmt.Errorf("resolve parent of %s: %w", cur.VersionID, err)
		}
		if parent != prev.VersionID {
			break
		}
		start--
	}
	if start < 0 {
		return nil, nil
	}
	return entries[start:], nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(f Fixture, path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}
// #endregion fixture-export
