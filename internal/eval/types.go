package eval

// #region eval-config
// EvalConfig holds thresholds for per-interaction success checks.
type EvalConfig struct {
	LatencyBudgetMs float64 // informational: flag interactions slower than this
	ToolErrorsFail  bool    // count tool argument errors as unsuccessful
}

// DefaultEvalConfig returns the built-in thresholds.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		LatencyBudgetMs: 50,
		ToolErrorsFail:  true,
	}
}
// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}
// #endregion eval-metric

// #region eval-result
// EvalResult is the outcome of evaluating one interaction.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}
// #endregion eval-result
