package replay

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/digital-twin/internal/action"
	"github.com/danielpatrickdp/digital-twin/internal/state"
	"github.com/danielpatrickdp/digital-twin/internal/update"
)

// #region types
// Interaction is one turn fed through the pipeline during replay.
type Interaction struct {
	TurnID   string
	Input    string
	Feedback *update.Feedback
}

// ReplayConfig holds the pipeline used for a replay run.
type ReplayConfig struct {
	UpdateConfig update.UpdateConfig
}

// replayEpoch pins the clock so replays are reproducible.
var replayEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultReplayConfig returns the default pipeline with a frozen clock.
func DefaultReplayConfig() ReplayConfig {
	cfg := update.DefaultUpdateConfig()
	cfg.Now = func() time.Time { return replayEpoch }
	return ReplayConfig{UpdateConfig: cfg}
}

// ReplayResult captures the outcome of one replayed turn.
type ReplayResult struct {
	TurnID       string
	Output       string
	RuleName     string
	Outcome      action.Outcome
	DecisionPath []string
	Passed       bool
	Reason       string
	Warnings     int
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalTurns   int
	Successful   int
	Fallbacks    int
	LookupMisses int
	Warnings     int
	FinalState   state.TwinState
}

// Mismatch is one difference between a replayed turn and its expectation.
type Mismatch struct {
	TurnID string
	Field  string
	Want   string
	Got    string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s: want %q, got %q", m.TurnID, m.Field, m.Want, m.Got)
}
// #endregion types

// #region replay
// Replay runs every interaction through the pipeline in order, threading the
// state from one turn to the next. Operates entirely in-memory.
func Replay(start state.TwinState, interactions []Interaction, config ReplayConfig) ([]ReplayResult, state.TwinState) {
	current := start.Clone()
	results := make([]ReplayResult, 0, len(interactions))
	pipeline := config.UpdateConfig.WithDefaults()

	for _, inter := range interactions {
		res := update.Update(current, update.UpdateContext{Input: inter.Input, Feedback: inter.Feedback}, pipeline)
		current = res.NewState
		results = append(results, ReplayResult{
			TurnID:       inter.TurnID,
			Output:       res.Output,
			RuleName:     res.Decision.RuleName,
			Outcome:      res.Action.Outcome,
			DecisionPath: append([]string(nil), res.NewState.LastDecisionPath...),
			Passed:       res.Eval.Passed,
			Reason:       res.Eval.Reason,
			Warnings:     len(res.Warnings),
		})
	}
	return results, current
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult, finalState state.TwinState) ReplaySummary {
	s := ReplaySummary{
		TotalTurns: len(results),
		FinalState: finalState,
	}
	for _, r := range results {
		if r.Passed {
			s.Successful++
		}
		if r.RuleName == update.LabelFallback {
			s.Fallbacks++
		}
		if r.Outcome == action.OutcomeLookupMiss {
			s.LookupMisses++
		}
		s.Warnings += r.Warnings
	}
	return s
}

// Check compares results against expectations turn by turn.
func Check(results []ReplayResult, expected []FixtureExpectedResult) []Mismatch {
	var out []Mismatch
	if len(results) != len(expected) {
		out = append(out, Mismatch{
			Field: "turns",
			Want:  fmt.Sprint(len(expected)),
			Got:   fmt.Sprint(len(results)),
		})
	}
	for i := 0; i < len(results) && i < len(expected); i++ {
		got, want := results[i], expected[i]
		if got.TurnID != want.TurnID {
			out = append(out, Mismatch{TurnID: want.TurnID, Field: "turn_id", Want: want.TurnID, Got: got.TurnID})
		}
		if got.RuleName != want.Rule {
			out = append(out, Mismatch{TurnID: want.TurnID, Field: "rule", Want: want.Rule, Got: got.RuleName})
		}
		if want.Output != "" && got.Output != want.Output {
			out = append(out, Mismatch{TurnID: want.TurnID, Field: "output", Want: want.Output, Got: got.Output})
		}
	}
	return out
}
// #endregion replay
