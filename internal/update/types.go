package update

import (
	"time"

	"github.com/danielpatrickdp/digital-twin/internal/action"
	"github.com/danielpatrickdp/digital-twin/internal/eval"
	"github.com/danielpatrickdp/digital-twin/internal/retrieval"
	"github.com/danielpatrickdp/digital-twin/internal/rules"
	"github.com/danielpatrickdp/digital-twin/internal/signals"
	"github.com/danielpatrickdp/digital-twin/internal/state"
)

// #region stage-labels
// Decision path labels, in pipeline order.
const (
	LabelContextUpdate   = "Context_Update"
	LabelMemoryRetrieval = "Memory_Retrieval"
	LabelDecisionRule    = "Decision_Rule: "
	LabelAction          = "Action: "
	LabelFallback        = "Default_LLM_Fallback"
	LabelFeedback        = "Reinforcement_Learning_Feedback (Reward: %s)"
)
// #endregion stage-labels

// #region update-context
// UpdateContext carries per-turn input into the pure update function.
type UpdateContext struct {
	Input    string
	Feedback *Feedback // nil when the caller gave no feedback
}

// Feedback is the scalar reward signal for a turn.
type Feedback struct {
	Reward float64
}
// #endregion update-context

// #region decision
// Decision records which rule fired, if any.
type Decision struct {
	Matched    bool
	RuleName   string // "Default_LLM_Fallback" when nothing matched
	ActionType state.ActionType
	MemoryID   string // long-term entry surfaced this turn
}
// #endregion decision

// #region metrics
// Metrics captures telemetry from one update cycle.
type Metrics struct {
	DurationMs     float64
	RulesEvaluated int
}
// #endregion metrics

// #region update-config
// UpdateConfig wires the pipeline stages and the clock.
type UpdateConfig struct {
	Producer   *signals.Producer
	Retriever  *retrieval.Retriever
	Evaluator  *rules.Evaluator
	Dispatcher *action.Dispatcher
	Eval       *eval.EvalHarness
	Now        func() time.Time
}

// DefaultUpdateConfig returns a pipeline with the built-in stages and the wall clock.
func DefaultUpdateConfig() UpdateConfig {
	return UpdateConfig{
		Producer:   signals.NewProducer(signals.DefaultProducerConfig()),
		Retriever:  retrieval.NewRetriever(retrieval.DefaultConfig()),
		Evaluator:  rules.NewEvaluator(rules.DefaultEvaluatorConfig()),
		Dispatcher: action.DefaultDispatcher(),
		Eval:       eval.NewEvalHarness(eval.DefaultEvalConfig()),
		Now:        time.Now,
	}
}

// WithDefaults returns c with every nil stage and a nil clock filled from
// DefaultUpdateConfig.
func (c UpdateConfig) WithDefaults() UpdateConfig {
	if c.Producer != nil && c.Retriever != nil && c.Evaluator != nil &&
		c.Dispatcher != nil && c.Eval != nil && c.Now != nil {
		return c
	}
	d := DefaultUpdateConfig()
	if c.Producer == nil {
		c.Producer = d.Producer
	}
	if c.Retriever == nil {
		c.Retriever = d.Retriever
	}
	if c.Evaluator == nil {
		c.Evaluator = d.Evaluator
	}
	if c.Dispatcher == nil {
		c.Dispatcher = d.Dispatcher
	}
	if c.Eval == nil {
		c.Eval = d.Eval
	}
	if c.Now == nil {
		c.Now = d.Now
	}
	return c
}
// #endregion update-config

// #region update-result
// UpdateResult bundles everything returned by Update().
type UpdateResult struct {
	NewState state.TwinState
	Output   string
	Decision Decision
	Action   action.Result
	Eval     eval.EvalResult
	Warnings []rules.Warning
	Metrics  Metrics
}
// #endregion update-result
