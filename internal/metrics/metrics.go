package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// #region collectors
var (
	// interactionsTotal counts processed interactions by eval outcome
	interactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_interactions_total",
		Help: "Total processed interactions by outcome",
	}, []string{"outcome"})

	// ruleFiredTotal counts winning rules, including the fallback
	ruleFiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_rule_fired_total",
		Help: "Total decision rules fired by rule name",
	}, []string{"rule"})

	ruleEvalWarningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "twin_rule_eval_warnings_total",
		Help: "Total rule conditions that failed to evaluate",
	})

	// lookupMissesTotal counts unknown templates and tools
	lookupMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_lookup_misses_total",
		Help: "Total lookup misses by kind",
	}, []string{"kind"})

	processDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "twin_process_duration_seconds",
		Help:    "Interaction processing duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10us to ~330ms
	})

	// configureTotal counts configuration attempts by result
	configureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_configure_total",
		Help: "Total configuration attempts by result",
	}, []string{"result"})
)
// #endregion collectors

// #region recorders
// ObserveInteraction records one processed interaction.
func ObserveInteraction(success bool, rule string, d time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	interactionsTotal.WithLabelValues(outcome).Inc()
	ruleFiredTotal.WithLabelValues(rule).Inc()
	processDuration.Observe(d.Seconds())
}

// ObserveRuleWarnings adds n condition evaluation failures.
func ObserveRuleWarnings(n int) {
	if n > 0 {
		ruleEvalWarningsTotal.Add(float64(n))
	}
}

// ObserveLookupMiss records an unknown template or tool.
func ObserveLookupMiss(kind string) {
	lookupMissesTotal.WithLabelValues(kind).Inc()
}

// ObserveConfigure records a configuration attempt.
func ObserveConfigure(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	configureTotal.WithLabelValues(result).Inc()
}
// #endregion recorders
