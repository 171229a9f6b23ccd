package state

// #region clone
// Clone returns a structurally independent copy of s. Nil slices and maps
// stay nil so that a clone compares equal to its source.
func (s TwinState) Clone() TwinState {
	out := s
	out.PromptEngineering = s.PromptEngineering.Clone()
	out.DecisionLogic = s.DecisionLogic.Clone()
	out.ReinforcementLearning = s.ReinforcementLearning.Clone()
	out.Planning = s.Planning.Clone()
	out.Memory = s.Memory.Clone()
	out.CurrentStateContext = cloneMap(s.CurrentStateContext)
	out.LastDecisionPath = cloneStrings(s.LastDecisionPath)
	return out
}

// Clone returns a deep copy of p.
func (p PromptEngineering) Clone() PromptEngineering {
	out := p
	if p.Templates != nil {
		out.Templates = make([]PromptTemplate, len(p.Templates))
		for i, t := range p.Templates {
			t.Variables = cloneStrings(t.Variables)
			out.Templates[i] = t
		}
	}
	return out
}

// Clone returns a deep copy of d.
func (d DecisionLogic) Clone() DecisionLogic {
	if d.Rules == nil {
		return DecisionLogic{}
	}
	rules := make([]DecisionRule, len(d.Rules))
	for i, r := range d.Rules {
		rules[i] = r.Clone()
	}
	return DecisionLogic{Rules: rules}
}

// Clone returns a deep copy of r.
func (r DecisionRule) Clone() DecisionRule {
	out := r
	if r.ActionPayload != nil {
		out.ActionPayload = r.ActionPayload.clonePayload()
	}
	return out
}

// Clone returns a deep copy of rl.
func (rl ReinforcementLearning) Clone() ReinforcementLearning {
	out := rl
	if rl.ExperienceBuffer != nil {
		out.ExperienceBuffer = make([]Experience, len(rl.ExperienceBuffer))
		for i, e := range rl.ExperienceBuffer {
			e.State = cloneMap(e.State)
			e.NextState = cloneMap(e.NextState)
			out.ExperienceBuffer[i] = e
		}
	}
	return out
}

// Clone returns a deep copy of p.
func (p Planning) Clone() Planning {
	return Planning{
		Enabled: p.Enabled,
		Actions: cloneSlice(p.Actions),
		Goal:    cloneValue(p.Goal),
		Plan:    cloneSlice(p.Plan),
	}
}

// Clone returns a deep copy of m.
func (m Memory) Clone() Memory {
	out := m
	if m.ShortTermMemory != nil {
		out.ShortTermMemory = make([]MemoryRecord, len(m.ShortTermMemory))
		for i, rec := range m.ShortTermMemory {
			rec.Keywords = cloneStrings(rec.Keywords)
			out.ShortTermMemory[i] = rec
		}
	}
	if m.LongTermMemory.Entries != nil {
		out.LongTermMemory.Entries = make([]LongTermEntry, len(m.LongTermMemory.Entries))
		for i, e := range m.LongTermMemory.Entries {
			if e.Embedding != nil {
				e.Embedding = append([]float64(nil), e.Embedding...)
			}
			e.Metadata = cloneMap(e.Metadata)
			out.LongTermMemory.Entries[i] = e
		}
	}
	return out
}
// #endregion clone

// #region helpers
// CloneContext deep-copies a context mapping.
func CloneContext(m map[string]any) map[string]any {
	return cloneMap(m)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}

// cloneValue copies the container shapes produced by JSON and YAML decoding.
// Scalars are immutable and returned as-is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		return cloneSlice(val)
	case []string:
		return cloneStrings(val)
	case []float64:
		if val == nil {
			return val
		}
		return append([]float64(nil), val...)
	default:
		return v
	}
}
// #endregion helpers
