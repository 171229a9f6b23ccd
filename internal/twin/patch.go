package twin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/danielpatrickdp/digital-twin/internal/state"
)

// #region patch
// Patch holds the top-level sections of a configuration document. Nil
// sections are left as they are; present sections replace the held section
// wholesale.
type Patch struct {
	Identity              *state.Identity              `json:"identity,omitempty"`
	PromptEngineering     *state.PromptEngineering     `json:"promptEngineering,omitempty"`
	DecisionLogic         *state.DecisionLogic         `json:"decisionLogic,omitempty"`
	ReinforcementLearning *state.ReinforcementLearning `json:"reinforcementLearning,omitempty"`
	Planning              *state.Planning              `json:"planning,omitempty"`
	Memory                *state.Memory                `json:"memory,omitempty"`

	CurrentInput        *string                   `json:"currentInput,omitempty"`
	CurrentOutput       *string                   `json:"currentOutput,omitempty"`
	CurrentStateContext *map[string]any           `json:"currentStateContext,omitempty"`
	LastDecisionPath    *[]string                 `json:"lastDecisionPath,omitempty"`
	PerformanceMetrics  *state.PerformanceMetrics `json:"performanceMetrics,omitempty"`
}

// DecodePatch parses a JSON configuration document. Unknown keys and
// trailing data are rejected.
func DecodePatch(raw []byte) (Patch, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Patch{}, errors.New("empty configuration document")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var p Patch
	if err := dec.Decode(&p); err != nil {
		return Patch{}, fmt.Errorf("decode configuration: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Patch{}, errors.New("decode configuration: trailing data after document")
	}
	return p, nil
}

// Apply returns a copy of base with every present section replaced.
// The patch's values are cloned so later edits to p cannot reach the result.
func (p Patch) Apply(base state.TwinState) state.TwinState {
	out := base.Clone()
	if p.Identity != nil {
		out.Identity = *p.Identity
	}
	if p.PromptEngineering != nil {
		out.PromptEngineering = p.PromptEngineering.Clone()
	}
	if p.DecisionLogic != nil {
		out.DecisionLogic = p.DecisionLogic.Clone()
	}
	if p.ReinforcementLearning != nil {
		out.ReinforcementLearning = p.ReinforcementLearning.Clone()
	}
	if p.Planning != nil {
		out.Planning = p.Planning.Clone()
	}
	if p.Memory != nil {
		out.Memory = p.Memory.Clone()
	}
	if p.CurrentInput != nil {
		out.CurrentInput = *p.CurrentInput
	}
	if p.CurrentOutput != nil {
		out.CurrentOutput = *p.CurrentOutput
	}
	if p.CurrentStateContext != nil {
		out.CurrentStateContext = state.CloneContext(*p.CurrentStateContext)
	}
	if p.LastDecisionPath != nil {
		out.LastDecisionPath = append([]string{}, (*p.LastDecisionPath)...)
	}
	if p.PerformanceMetrics != nil {
		out.PerformanceMetrics = *p.PerformanceMetrics
	}
	return out
}
// #endregion patch
