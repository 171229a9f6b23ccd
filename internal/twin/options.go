package twin

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/danielpatrickdp/digital-twin/internal/logging"
	"github.com/danielpatrickdp/digital-twin/internal/state"
	"github.com/danielpatrickdp/digital-twin/internal/update"
)

// #region hooks
// Persister stores a committed state and returns its version ID.
// *state.Store satisfies it.
type Persister interface {
	Persist(st state.TwinState, reason string) (string, error)
}

// Recorder receives one provenance entry per processed interaction.
// *logging.SQLRecorder satisfies it.
type Recorder interface {
	Record(ctx context.Context, entry logging.InteractionEntry) error
}
// #endregion hooks

// #region options
// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock replaces the wall clock used for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.pipeline.Now = now }
}

// WithTracerProvider takes spans from tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Controller) { c.tracer = tp.Tracer(tracerName) }
}

// WithPersister commits every accepted state before it becomes visible.
func WithPersister(p Persister) Option {
	return func(c *Controller) { c.persister = p }
}

// WithRecorder logs every processed interaction.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithUpdateConfig replaces the pipeline stages. A nil clock keeps the current
// one; other nil stages fall back to the defaults.
func WithUpdateConfig(cfg update.UpdateConfig) Option {
	return func(c *Controller) {
		if cfg.Now == nil {
			cfg.Now = c.pipeline.Now
		}
		c.pipeline = cfg.WithDefaults()
	}
}

// WithInitialState starts the controller from st instead of the built-in default.
func WithInitialState(st state.TwinState) Option {
	return func(c *Controller) { c.state = st.Clone() }
}
// #endregion options
