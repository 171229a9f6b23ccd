package rules

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/digital-twin/internal/state"
)

// #region evaluator-config
// EvaluatorConfig bounds condition evaluation.
type EvaluatorConfig struct {
	Timeout time.Duration // per-condition wall clock limit; 0 disables
}

// DefaultEvaluatorConfig returns the built-in limits.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{Timeout: 250 * time.Millisecond}
}
// #endregion evaluator-config

// #region warning
// Warning reports a condition that could not be evaluated. The rule is
// treated as non-matching and evaluation continues.
type Warning struct {
	Rule      string
	Condition string
	Err       error
}

func (w Warning) Error() string {
	return fmt.Sprintf("rule %q: condition %q: %v", w.Rule, w.Condition, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }
// #endregion warning

// #region decision
// Decision is the outcome of evaluating a rule set against one context.
type Decision struct {
	Matched   bool
	Rule      state.DecisionRule // zero unless Matched
	Evaluated int                // conditions evaluated, including the winner
	Warnings  []Warning
}
// #endregion decision
