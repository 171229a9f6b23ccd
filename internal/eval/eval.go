package eval

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/digital-twin/internal/action"
)

// #region eval-harness
// EvalHarness decides whether an interaction counts as successful.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run checks the dispatch result of one interaction. An interaction fails when
// its output is empty, a lookup missed, or the action type had no executor.
func (h *EvalHarness) Run(res action.Result, durationMs float64) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	check := func(name string, value float64, pass bool, reason string) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			failReasons = append(failReasons, reason)
		}
	}

	// 1. Non-empty output
	outLen := float64(len(strings.TrimSpace(res.Output)))
	check("output_length", outLen, outLen > 0, "empty output")

	// 2. Lookups resolved
	check("lookup_resolved", boolValue(res.Outcome != action.OutcomeLookupMiss),
		res.Outcome != action.OutcomeLookupMiss, fmt.Sprintf("%s lookup miss", res.Miss))

	// 3. Action handled
	check("action_handled", boolValue(res.Outcome != action.OutcomeUnhandled),
		res.Outcome != action.OutcomeUnhandled, "unhandled action type")

	// 4. Tool arguments accepted
	if h.config.ToolErrorsFail {
		check("tool_ok", boolValue(res.Outcome != action.OutcomeToolError),
			res.Outcome != action.OutcomeToolError, fmt.Sprintf("tool %s rejected its arguments", res.Tool))
	}

	// 5. Latency: informational only, does not fail
	if h.config.LatencyBudgetMs > 0 {
		metrics = append(metrics, EvalMetric{
			Name:  "latency_ms",
			Value: durationMs,
			Pass:  durationMs <= h.config.LatencyBudgetMs,
		})
	}

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}
// #endregion eval-harness

// #region helpers
func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
// #endregion helpers
