package twin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/danielpatrickdp/digital-twin/internal/action"
	"github.com/danielpatrickdp/digital-twin/internal/logging"
	"github.com/danielpatrickdp/digital-twin/internal/state"
	"github.com/danielpatrickdp/digital-twin/internal/update"
)

// #region helpers
var epoch = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	base := []Option{WithLogger(quietLogger()), WithClock(func() time.Time { return epoch })}
	c, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

type failingPersister struct{ calls int }

func (f *failingPersister) Persist(state.TwinState, string) (string, error) {
	f.calls++
	return "", errors.New("disk full")
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []logging.InteractionEntry
}

func (m *memoryRecorder) Record(_ context.Context, e logging.InteractionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}
// #endregion helpers

// #region snapshot-tests
func TestGetStateIsIndependent(t *testing.T) {
	c := newController(t)
	if _, err := c.ProcessInteraction(context.Background(), "hello", nil); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}

	a := c.GetState()
	b := c.GetState()
	if !reflect.DeepEqual(a, b) {
		t.Fatal("consecutive snapshots should be equal")
	}

	a.Memory.ShortTermMemory[0].Content = "mutated"
	a.LastDecisionPath[0] = "mutated"
	a.CurrentStateContext["input"] = "mutated"
	a.DecisionLogic.Rules = nil

	if !reflect.DeepEqual(b, c.GetState()) {
		t.Fatal("mutating a snapshot leaked into the controller")
	}
}

func TestProcessResultStateIsIndependent(t *testing.T) {
	c := newController(t)
	res, err := c.ProcessInteraction(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	res.State.CurrentOutput = "mutated"
	if c.GetState().CurrentOutput == "mutated" {
		t.Fatal("result state aliases held state")
	}
}
// #endregion snapshot-tests

// #region process-tests
func TestProcessInteraction(t *testing.T) {
	c := newController(t)
	res, err := c.ProcessInteraction(context.Background(), "calculate 2 + 3", nil)
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if res.Output != "5" || res.RuleName != "Calculator" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.TurnID == "" {
		t.Error("expected a turn id")
	}
	if res.VersionID != "" {
		t.Error("expected no version without a persister")
	}
	st := c.GetState()
	if st.CurrentInput != "calculate 2 + 3" || st.CurrentOutput != "5" {
		t.Errorf("held state not updated: %q / %q", st.CurrentInput, st.CurrentOutput)
	}
}

func TestProcessRejectsInvalidInput(t *testing.T) {
	c := newController(t)
	before := c.GetState()

	for _, in := range []string{"", "   ", "\n\t"} {
		if _, err := c.ProcessInteraction(context.Background(), in, nil); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("input %q: expected ErrInvalidInput, got %v", in, err)
		}
	}
	if _, err := c.ProcessInteraction(context.Background(), "hi", &update.Feedback{Reward: math.NaN()}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for NaN reward, got %v", err)
	}
	if !reflect.DeepEqual(before, c.GetState()) {
		t.Fatal("state changed after rejected input")
	}
}

func TestMetricsMonotonicAndReset(t *testing.T) {
	c := newController(t)
	for i := 1; i <= 3; i++ {
		res, err := c.ProcessInteraction(context.Background(), "hello", nil)
		if err != nil {
			t.Fatalf("ProcessInteraction: %v", err)
		}
		if got := res.State.PerformanceMetrics.TotalInteractions; got != i {
			t.Fatalf("after %d calls expected %d, got %d", i, i, got)
		}
	}

	st, err := c.ResetOperationalState()
	if err != nil {
		t.Fatalf("ResetOperationalState: %v", err)
	}
	if st.PerformanceMetrics.TotalInteractions != 0 {
		t.Fatalf("expected 0 after reset, got %d", st.PerformanceMetrics.TotalInteractions)
	}
}

func TestResetScope(t *testing.T) {
	c := newController(t)
	ctx := context.Background()
	if _, err := c.ProcessInteraction(ctx, "What is your return policy?", &update.Feedback{Reward: 1}); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	before := c.GetState()

	st, err := c.ResetOperationalState()
	if err != nil {
		t.Fatalf("ResetOperationalState: %v", err)
	}
	if !reflect.DeepEqual(st.DecisionLogic.Rules, before.DecisionLogic.Rules) {
		t.Error("rules changed by reset")
	}
	if !reflect.DeepEqual(st.Memory.LongTermMemory.Entries, before.Memory.LongTermMemory.Entries) {
		t.Error("long-term entries changed by reset")
	}
	if len(st.Memory.ShortTermMemory) != 0 || len(st.LastDecisionPath) != 0 {
		t.Error("expected transcript and decision path cleared")
	}
	if st.CurrentInput != "" || st.CurrentOutput != "" || len(st.CurrentStateContext) != 0 {
		t.Error("expected live fields cleared")
	}
	if len(st.ReinforcementLearning.ExperienceBuffer) != 1 {
		t.Error("expected experience buffer kept")
	}
	if !reflect.DeepEqual(st, c.GetState()) {
		t.Error("reset snapshot differs from held state")
	}
}

func TestConcurrentProcessing(t *testing.T) {
	c := newController(t)
	const workers, perWorker = 8, 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := c.ProcessInteraction(context.Background(), "hello", nil); err != nil {
					t.Errorf("ProcessInteraction: %v", err)
					return
				}
				st := c.GetState()
				if n := len(st.Memory.ShortTermMemory); n != 2*st.PerformanceMetrics.TotalInteractions {
					t.Errorf("inconsistent snapshot: %d records for %d interactions", n, st.PerformanceMetrics.TotalInteractions)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := c.GetState().PerformanceMetrics.TotalInteractions; got != workers*perWorker {
		t.Fatalf("expected %d interactions, got %d", workers*perWorker, got)
	}
}

func TestMalformedConditionIsNotFatal(t *testing.T) {
	c := newController(t)
	raw := []byte(`{"decisionLogic":{"rules":[
		{"name":"broken","condition":".input | contains(","actionType":"FIXED_RESPONSE","actionPayload":"never","priority":9},
		{"name":"ok","condition":"true","actionType":"FIXED_RESPONSE","actionPayload":"fine","priority":1}
	]}}`)
	if _, err := c.Configure(raw); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	res, err := c.ProcessInteraction(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if res.Output != "fine" || len(res.Warnings) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}
// #endregion process-tests

// #region configure-tests
func TestConfigureMergesTopLevel(t *testing.T) {
	c := newController(t)
	st, err := c.Configure([]byte(`{"identity":{"id":"twin-7","name":"Bolt","description":"A test twin."}}`))
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if st.Identity.Name != "Bolt" {
		t.Fatalf("expected Bolt, got %s", st.Identity.Name)
	}
	if len(st.DecisionLogic.Rules) != len(state.Default().DecisionLogic.Rules) {
		t.Fatal("untouched sections should be kept")
	}

	res, err := c.ProcessInteraction(context.Background(), "What is your name?", nil)
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if res.Output != "My name is Bolt. A test twin." {
		t.Fatalf("unexpected output %q", res.Output)
	}
}

func TestConfigureRejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		stage string
	}{
		{"malformed json", `{"identity": {`, "decode"},
		{"empty document", `   `, "decode"},
		{"unknown section", `{"personality":{}}`, "decode"},
		{"trailing data", `{"identity":{"id":"a","name":"b"}} {}`, "decode"},
		{"missing name", `{"identity":{"id":"a"}}`, "validate"},
		{"bad action type", `{"decisionLogic":{"rules":[{"name":"x","condition":"true","actionType":"DANCE","priority":1}]}}`, "validate"},
		{"fixed response object", `{"decisionLogic":{"rules":[{"name":"x","actionType":"FIXED_RESPONSE","actionPayload":{"a":1}}]}}`, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(t)
			before := c.GetState()

			_, err := c.Configure([]byte(tt.raw))
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) || cfgErr.Stage != tt.stage {
				t.Fatalf("expected stage %s, got %v", tt.stage, err)
			}
			if !reflect.DeepEqual(before, c.GetState()) {
				t.Fatal("state changed after rejected configuration")
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	c, err := NewFromConfig([]byte(`{"decisionLogic":{"rules":[]}}`), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	res, err := c.ProcessInteraction(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	path := res.State.LastDecisionPath
	if path[len(path)-1] != update.LabelFallback {
		t.Fatalf("expected fallback with zero rules, got %v", path)
	}

	if _, err := NewFromConfig([]byte(`not json`)); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewRejectsInvalidInitialState(t *testing.T) {
	bad := state.Default()
	bad.Identity.ID = ""
	if _, err := New(WithInitialState(bad), WithLogger(quietLogger())); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
// #endregion configure-tests

// #region persistence-tests
func TestPersistenceFailureLeavesStateUnchanged(t *testing.T) {
	p := &failingPersister{}
	c := newController(t, WithPersister(p))
	before := c.GetState()

	if _, err := c.ProcessInteraction(context.Background(), "hello", nil); err == nil {
		t.Fatal("expected persistence error")
	}
	if _, err := c.Configure([]byte(`{"identity":{"id":"x","name":"y"}}`)); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error on persist failure, got %v", err)
	}
	if _, err := c.ResetOperationalState(); err == nil {
		t.Fatal("expected reset persistence error")
	}
	if !reflect.DeepEqual(before, c.GetState()) {
		t.Fatal("state changed despite persistence failure")
	}
	if p.calls != 3 {
		t.Fatalf("expected 3 persist attempts, got %d", p.calls)
	}
}

func TestPersistAndRecordWithSQLite(t *testing.T) {
	store, err := state.NewStore(filepath.Join(t.TempDir(), "twin.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()
	recorder, err := logging.NewSQLRecorder(store.DB())
	if err != nil {
		t.Fatalf("NewSQLRecorder: %v", err)
	}

	c := newController(t, WithPersister(store), WithRecorder(recorder))
	reward := 1.0
	res, err := c.ProcessInteraction(context.Background(), "hello", &update.Feedback{Reward: reward})
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if res.VersionID == "" {
		t.Fatal("expected a version id")
	}

	cur, err := store.GetCurrent()
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if cur.VersionID != res.VersionID || cur.State.CurrentOutput != res.Output {
		t.Fatalf("store not in sync: %+v", cur)
	}

	entries, err := logging.ListInteractions(store.DB(), 0)
	if err != nil {
		t.Fatalf("ListInteractions: %v", err)
	}
	if len(entries) != 1 || entries[0].RuleName != "Greeting" || *entries[0].Reward != reward {
		t.Fatalf("unexpected provenance %+v", entries)
	}
}

func TestRecorderReceivesEntries(t *testing.T) {
	rec := &memoryRecorder{}
	c := newController(t, WithRecorder(rec))
	if _, err := c.ProcessInteraction(context.Background(), "tell me a story", nil); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if len(rec.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(rec.entries))
	}
	e := rec.entries[0]
	if e.RuleName != update.LabelFallback || e.Reward != nil || !e.CreatedAt.Equal(epoch) {
		t.Fatalf("unexpected entry %+v", e)
	}
}
// #endregion persistence-tests

// #region logging-tests
func TestWarningsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	c, err := New(WithLogger(logger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Configure([]byte(`{"decisionLogic":{"rules":[{"name":"broken","condition":"((","actionType":"MEMORY_QUERY","priority":1}]}}`)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if _, err := c.ProcessInteraction(context.Background(), "hi", nil); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("[RULES] condition failed")) || !bytes.Contains(buf.Bytes(), []byte("rule=broken")) {
		t.Fatalf("expected rule warning in log, got %s", buf.String())
	}
}
// #endregion logging-tests

// #region tracing-tests
func TestProcessInteractionEmitsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	c := newController(t, WithTracerProvider(tp))
	if _, err := c.ProcessInteraction(context.Background(), "calculate 2 + 3", nil); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "twin.ProcessInteraction" {
		t.Errorf("span name = %s, want twin.ProcessInteraction", span.Name())
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs["twin.rule"].AsString(); got != "Calculator" {
		t.Errorf("twin.rule = %q, want Calculator", got)
	}
	if got := attrs["twin.outcome"].AsString(); got != string(action.OutcomeOK) {
		t.Errorf("twin.outcome = %q, want %s", got, action.OutcomeOK)
	}
	if got := attrs["twin.input_length"].AsInt64(); got != int64(len("calculate 2 + 3")) {
		t.Errorf("twin.input_length = %d", got)
	}
}

func TestRejectedInputEmitsNoSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	c := newController(t, WithTracerProvider(tp))
	if _, err := c.ProcessInteraction(context.Background(), " ", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if n := len(recorder.Ended()); n != 0 {
		t.Fatalf("expected no spans, got %d", n)
	}
}
// #endregion tracing-tests

// #region option-tests
func TestPartialUpdateConfigUsesDefaults(t *testing.T) {
	dispatcher := action.NewDispatcher(action.SimulatedResponder{})
	c := newController(t, WithUpdateConfig(update.UpdateConfig{Dispatcher: dispatcher}))

	res, err := c.ProcessInteraction(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if res.RuleName != "Greeting" {
		t.Fatalf("expected Greeting, got %q", res.RuleName)
	}
	for _, rec := range res.State.Memory.ShortTermMemory {
		if !rec.Timestamp.Equal(epoch) {
			t.Fatalf("expected the configured clock to be kept, got %v", rec.Timestamp)
		}
	}
}
// #endregion option-tests
