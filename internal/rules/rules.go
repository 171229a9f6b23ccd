package rules

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/danielpatrickdp/digital-twin/internal/state"
)

// ErrEmptyCondition is reported for rules whose condition is blank.
var ErrEmptyCondition = errors.New("empty condition")

// #region evaluator
// Evaluator selects the winning decision rule for a context mapping.
// Conditions are jq expressions; compiled programs are cached per expression.
// Safe for concurrent use.
type Evaluator struct {
	config EvaluatorConfig

	mu    sync.RWMutex
	cache map[string]compiled
}

type compiled struct {
	code *gojq.Code
	err  error
}

// NewEvaluator creates an Evaluator with the given config.
func NewEvaluator(config EvaluatorConfig) *Evaluator {
	return &Evaluator{config: config, cache: make(map[string]compiled)}
}
// #endregion evaluator

// #region order
// Order returns a copy of rules sorted by descending priority. Rules of equal
// priority keep their original relative order.
func Order(rules []state.DecisionRule) []state.DecisionRule {
	out := slices.Clone(rules)
	slices.SortStableFunc(out, func(a, b state.DecisionRule) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return out
}
// #endregion order

// #region select
// Select evaluates rules in priority order and returns the first whose
// condition is truthy. Failed conditions are collected as warnings.
func (e *Evaluator) Select(rules []state.DecisionRule, ctx map[string]any) Decision {
	var d Decision
	for _, r := range Order(rules) {
		d.Evaluated++
		ok, err := e.Evaluate(r.Condition, ctx)
		if err != nil {
			d.Warnings = append(d.Warnings, Warning{Rule: r.Name, Condition: r.Condition, Err: err})
			continue
		}
		if ok {
			d.Matched = true
			d.Rule = r
			return d
		}
	}
	return d
}
// #endregion select

// #region evaluate
// Evaluate runs condition against ctx. The result is true when the first
// value produced is neither false nor null; no output counts as false.
func (e *Evaluator) Evaluate(condition string, ctx map[string]any) (bool, error) {
	if strings.TrimSpace(condition) == "" {
		return false, ErrEmptyCondition
	}
	code, err := e.compile(condition)
	if err != nil {
		return false, err
	}

	runCtx := context.Background()
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, e.config.Timeout)
		defer cancel()
	}

	iter := code.RunWithContext(runCtx, ctx)
	v, ok := iter.Next()
	if !ok {
		return false, nil
	}
	if err, isErr := v.(error); isErr {
		return false, fmt.Errorf("evaluate: %w", err)
	}
	return truthy(v), nil
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	default:
		return true
	}
}
// #endregion evaluate

// #region compile
func (e *Evaluator) compile(condition string) (*gojq.Code, error) {
	e.mu.RLock()
	c, ok := e.cache[condition]
	e.mu.RUnlock()
	if ok {
		return c.code, c.err
	}

	c = compileCondition(condition)
	e.mu.Lock()
	e.cache[condition] = c
	e.mu.Unlock()
	return c.code, c.err
}

func compileCondition(condition string) compiled {
	query, err := gojq.Parse(condition)
	if err != nil {
		return compiled{err: fmt.Errorf("parse: %w", err)}
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return compiled{err: fmt.Errorf("compile: %w", err)}
	}
	return compiled{code: code}
}
// #endregion compile
