package update

import (
	"fmt"
	"strconv"
	"time"

	"github.com/danielpatrickdp/digital-twin/internal/action"
	"github.com/danielpatrickdp/digital-twin/internal/state"
)

// #region update-function
// Update is a pure function that computes the next twin state and output for
// one interaction. old is never modified. Stages run in a fixed order and each
// appends to the decision path.
func Update(old state.TwinState, ctx UpdateContext, config UpdateConfig) UpdateResult {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	s := old.Clone()
	var res UpdateResult

	// 1. Context update
	sig := config.Producer.Produce(ctx.Input)
	s.CurrentInput = ctx.Input
	fields := sig.Context()
	path := []string{LabelContextUpdate}
	s.Memory.ShortTermMemory = append(s.Memory.ShortTermMemory, state.MemoryRecord{
		Timestamp: start,
		Role:      state.RoleUser,
		Content:   ctx.Input,
		Sentiment: string(sig.Sentiment),
		Keywords:  sig.Keywords,
	})

	// 2. Memory retrieval
	if m, ok := config.Retriever.Retrieve(ctx.Input, s.Memory.LongTermMemory.Entries); ok {
		fields["relevantMemory"] = m.Entry.Content
		fields["relevantMemoryId"] = m.Entry.ID
		res.Decision.MemoryID = m.Entry.ID
		path = append(path, LabelMemoryRetrieval)
	}
	contextBefore := state.CloneContext(fields)

	// 3. Rule evaluation
	sel := config.Evaluator.Select(s.DecisionLogic.Rules, fields)
	res.Warnings = sel.Warnings
	res.Metrics.RulesEvaluated = sel.Evaluated

	// 4-5. Action dispatch or fallback
	var out action.Result
	if sel.Matched {
		path = append(path, LabelDecisionRule+sel.Rule.Name)
		out = config.Dispatcher.Dispatch(s, sel.Rule, fields)
		path = append(path, LabelAction+string(sel.Rule.ActionType))
		res.Decision.Matched = true
		res.Decision.RuleName = sel.Rule.Name
		res.Decision.ActionType = sel.Rule.ActionType
	} else {
		path = append(path, LabelFallback)
		out = config.Dispatcher.Fallback(s, fields)
		res.Decision.RuleName = LabelFallback
		res.Decision.ActionType = state.ActionLLMCall
	}

	// 6. Post-processing
	end := now()
	durationMs := float64(end.Sub(start).Microseconds()) / 1000
	if durationMs < 0 {
		durationMs = 0
	}
	s.CurrentOutput = out.Output
	s.CurrentStateContext = fields
	s.Memory.ShortTermMemory = append(s.Memory.ShortTermMemory, state.MemoryRecord{
		Timestamp: end,
		Role:      state.RoleAgent,
		Content:   out.Output,
	})
	s.Memory.ShortTermMemory = trimShortTerm(s.Memory.ShortTermMemory, s.Memory.ShortTermLimit)

	pm := &s.PerformanceMetrics
	pm.TotalInteractions++
	res.Eval = config.Eval.Run(out, durationMs)
	if res.Eval.Passed {
		pm.SuccessfulInteractions++
	}
	pm.AvgResponseTimeMs += (durationMs - pm.AvgResponseTimeMs) / float64(pm.TotalInteractions)

	// 7. Feedback recording
	if s.ReinforcementLearning.Enabled && ctx.Feedback != nil {
		reward := ctx.Feedback.Reward
		path = append(path, fmt.Sprintf(LabelFeedback, strconv.FormatFloat(reward, 'f', -1, 64)))
		s.ReinforcementLearning.ExperienceBuffer = append(s.ReinforcementLearning.ExperienceBuffer, state.Experience{
			State:  contextBefore,
			Action: res.Decision.RuleName,
			Reward: reward,
			NextState: map[string]any{
				"currentOutput":     s.CurrentOutput,
				"totalInteractions": pm.TotalInteractions,
			},
			Timestamp: end,
		})
	}

	s.LastDecisionPath = path
	res.NewState = s
	res.Output = out.Output
	res.Action = out
	res.Metrics.DurationMs = durationMs
	return res
}
// #endregion update-function

// #region trim
// trimShortTerm drops the oldest records beyond limit. limit <= 0 keeps all.
func trimShortTerm(records []state.MemoryRecord, limit int) []state.MemoryRecord {
	if limit <= 0 || len(records) <= limit {
		return records
	}
	return append([]state.MemoryRecord(nil), records[len(records)-limit:]...)
}
// #endregion trim
