package twin

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielpatrickdp/digital-twin/internal/action"
	"github.com/danielpatrickdp/digital-twin/internal/logging"
	"github.com/danielpatrickdp/digital-twin/internal/metrics"
	"github.com/danielpatrickdp/digital-twin/internal/rules"
	"github.com/danielpatrickdp/digital-twin/internal/state"
	"github.com/danielpatrickdp/digital-twin/internal/update"
)

// tracerName is the instrumentation scope of controller spans.
const tracerName = "digital-twin/twin"

// #region controller
// Controller owns one twin state. Writers are serialised; readers always see
// a complete state. Every state handed out is a deep copy.
type Controller struct {
	mu    sync.RWMutex
	state state.TwinState

	pipeline  update.UpdateConfig
	logger    *slog.Logger
	tracer    trace.Tracer
	persister Persister
	recorder  Recorder
}

// New creates a controller holding the built-in default twin, or the state
// given with WithInitialState. The starting state must validate.
func New(opts ...Option) (*Controller, error) {
	c := &Controller{
		state:    state.Default(),
		pipeline: update.DefaultUpdateConfig(),
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "twin")
	if err := state.Validate(c.state); err != nil {
		return nil, &ConfigurationError{Stage: "validate", Err: err}
	}
	return c, nil
}

// NewFromConfig creates a controller and applies raw on top of the default twin.
func NewFromConfig(raw []byte, opts ...Option) (*Controller, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if _, err := c.Configure(raw); err != nil {
		return nil, err
	}
	return c, nil
}
// #endregion controller

// #region configure
// Configure decodes raw as a JSON configuration document and merges its
// top-level sections into the held state. On any error the held state is
// unchanged and the error is a *ConfigurationError.
func (c *Controller) Configure(raw []byte) (state.TwinState, error) {
	p, err := DecodePatch(raw)
	if err != nil {
		metrics.ObserveConfigure(false)
		c.logger.Warn("[TWIN] configuration rejected", "stage", "decode", "error", err)
		return state.TwinState{}, &ConfigurationError{Stage: "decode", Err: err}
	}
	return c.ConfigurePatch(p)
}

// ConfigurePatch merges p into the held state.
func (c *Controller) ConfigurePatch(p Patch) (state.TwinState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := p.Apply(c.state)
	if err := state.Validate(next); err != nil {
		metrics.ObserveConfigure(false)
		c.logger.Warn("[TWIN] configuration rejected", "stage", "validate", "error", err)
		return state.TwinState{}, &ConfigurationError{Stage: "validate", Err: err}
	}
	if c.persister != nil {
		if _, err := c.persister.Persist(next, "configure"); err != nil {
			metrics.ObserveConfigure(false)
			return state.TwinState{}, &ConfigurationError{Stage: "persist", Err: err}
		}
	}

	c.state = next
	metrics.ObserveConfigure(true)
	c.logger.Info("[TWIN] configured",
		"twin", next.Identity.ID,
		"rules", len(next.DecisionLogic.Rules),
		"templates", len(next.PromptEngineering.Templates))
	return next.Clone(), nil
}
// #endregion configure

// #region process
// Result is the outcome of one interaction.
type Result struct {
	TurnID    string
	Output    string
	State     state.TwinState
	RuleName  string
	Warnings  []rules.Warning
	VersionID string // empty without a persister
}

// ProcessInteraction runs the interaction pipeline against the held state and
// replaces it with the result. feedback may be nil. Empty input is rejected
// with ErrInvalidInput before anything runs.
func (c *Controller) ProcessInteraction(ctx context.Context, input string, feedback *update.Feedback) (Result, error) {
	if strings.TrimSpace(input) == "" {
		return Result{}, fmt.Errorf("process interaction: %w: input is empty", ErrInvalidInput)
	}
	if feedback != nil && (math.IsNaN(feedback.Reward) || math.IsInf(feedback.Reward, 0)) {
		return Result{}, fmt.Errorf("process interaction: %w: reward must be finite", ErrInvalidInput)
	}

	ctx, span := c.tracer.Start(ctx, "twin.ProcessInteraction",
		trace.WithAttributes(attribute.Int("twin.input_length", len(input))))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	res := update.Update(c.state, update.UpdateContext{Input: input, Feedback: feedback}, c.pipeline)
	turnID := uuid.New().String()

	for _, w := range res.Warnings {
		c.logger.Warn("[RULES] condition failed", "turn", turnID, "rule", w.Rule, "condition", w.Condition, "error", w.Err)
	}
	metrics.ObserveRuleWarnings(len(res.Warnings))
	if res.Action.Outcome == action.OutcomeLookupMiss {
		c.logger.Warn("[ACTION] lookup miss", "turn", turnID, "kind", res.Action.Miss,
			"template", res.Action.Template, "tool", res.Action.Tool)
		metrics.ObserveLookupMiss(string(res.Action.Miss))
	}

	var versionID string
	if c.persister != nil {
		id, err := c.persister.Persist(res.NewState, "interaction")
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist failed")
			return Result{}, fmt.Errorf("persist interaction: %w", err)
		}
		versionID = id
	}
	if c.recorder != nil {
		if err := c.recorder.Record(ctx, c.entry(turnID, versionID, input, feedback, res)); err != nil {
			c.logger.Warn("[TWIN] provenance log failed", "turn", turnID, "error", err)
		}
	}

	c.state = res.NewState
	metrics.ObserveInteraction(res.Eval.Passed, res.Decision.RuleName, time.Since(start))

	span.SetAttributes(
		attribute.String("twin.rule", res.Decision.RuleName),
		attribute.String("twin.outcome", string(res.Action.Outcome)),
		attribute.Int("twin.warnings", len(res.Warnings)),
	)
	c.logger.Debug("[TWIN] interaction processed",
		"turn", turnID, "rule", res.Decision.RuleName, "eval", res.Eval.Reason,
		"total", res.NewState.PerformanceMetrics.TotalInteractions)

	return Result{
		TurnID:    turnID,
		Output:    res.Output,
		State:     res.NewState.Clone(),
		RuleName:  res.Decision.RuleName,
		Warnings:  res.Warnings,
		VersionID: versionID,
	}, nil
}

func (c *Controller) entry(turnID, versionID, input string, feedback *update.Feedback, res update.UpdateResult) logging.InteractionEntry {
	e := logging.InteractionEntry{
		TurnID:       turnID,
		VersionID:    versionID,
		Input:        input,
		Output:       res.Output,
		RuleName:     res.Decision.RuleName,
		Outcome:      string(res.Action.Outcome),
		DecisionPath: append([]string(nil), res.NewState.LastDecisionPath...),
		CreatedAt:    c.pipeline.Now().UTC(),
	}
	if feedback != nil {
		r := feedback.Reward
		e.Reward = &r
	}
	for _, w := range res.Warnings {
		e.Warnings = append(e.Warnings, w.Error())
	}
	return e
}
// #endregion process

// #region snapshot
// GetState returns a deep copy of the held state.
func (c *Controller) GetState() state.TwinState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}
// #endregion snapshot

// #region reset
// ResetOperationalState clears the live fields, the short-term transcript
// and the performance metrics. Configuration, long-term memory, the RL
// experience buffer and planning settings are kept.
func (c *Controller) ResetOperationalState() (state.TwinState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := state.ResetOperational(c.state)
	if c.persister != nil {
		if _, err := c.persister.Persist(next, "reset"); err != nil {
			return state.TwinState{}, fmt.Errorf("persist reset: %w", err)
		}
	}
	c.state = next
	c.logger.Info("[TWIN] operational state reset", "twin", next.Identity.ID)
	return next.Clone(), nil
}
// #endregion reset
