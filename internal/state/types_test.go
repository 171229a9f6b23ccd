package state

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := Default()
	orig.CurrentStateContext = map[string]any{
		"keywords": []any{"return", "policy"},
		"nested":   map[string]any{"a": 1.0},
	}
	orig.LastDecisionPath = []string{"Context_Update"}
	orig.Memory.ShortTermMemory = []MemoryRecord{{Role: RoleUser, Content: "hi", Keywords: []string{"hi"}}}

	c := orig.Clone()
	if !reflect.DeepEqual(orig, c) {
		t.Fatal("clone should be structurally equal")
	}

	c.CurrentStateContext["keywords"].([]any)[0] = "mutated"
	c.CurrentStateContext["nested"].(map[string]any)["a"] = 2.0
	c.LastDecisionPath[0] = "mutated"
	c.Memory.ShortTermMemory[0].Keywords[0] = "mutated"
	c.DecisionLogic.Rules[0].Name = "mutated"
	c.PromptEngineering.Templates[0].Variables[0] = "mutated"
	c.Memory.LongTermMemory.Entries[0].Metadata["topic"] = "mutated"
	c.DecisionLogic.Rules[2].ActionPayload.(ToolUsePayload).Args["num1"] = 99.0

	if orig.CurrentStateContext["keywords"].([]any)[0] != "return" {
		t.Error("context slice aliased")
	}
	if orig.CurrentStateContext["nested"].(map[string]any)["a"] != 1.0 {
		t.Error("nested context map aliased")
	}
	if orig.LastDecisionPath[0] != "Context_Update" {
		t.Error("decision path aliased")
	}
	if orig.Memory.ShortTermMemory[0].Keywords[0] != "hi" {
		t.Error("memory keywords aliased")
	}
	if orig.DecisionLogic.Rules[0].Name != "NameInquiry" {
		t.Error("rules aliased")
	}
	if orig.PromptEngineering.Templates[0].Variables[0] != "twinName" {
		t.Error("template variables aliased")
	}
	if orig.Memory.LongTermMemory.Entries[0].Metadata["topic"] != "returns" {
		t.Error("entry metadata aliased")
	}
	if orig.DecisionLogic.Rules[2].ActionPayload.(ToolUsePayload).Args["num1"] != float64(2) {
		t.Error("tool args aliased")
	}
}

func TestClonePreservesNil(t *testing.T) {
	var s TwinState
	c := s.Clone()
	if c.CurrentStateContext != nil || c.LastDecisionPath != nil || c.Memory.ShortTermMemory != nil {
		t.Fatalf("expected nil fields to stay nil: %+v", c)
	}
}

func TestRulePayloadJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Payload
	}{
		{
			name: "llm call",
			raw:  `{"name":"r","condition":"true","actionType":"LLM_CALL","actionPayload":{"promptName":"p","vars":{"tone":"dry"}},"priority":1}`,
			want: LLMCallPayload{PromptName: "p", Vars: map[string]any{"tone": "dry"}},
		},
		{
			name: "fixed response",
			raw:  `{"name":"r","condition":"true","actionType":"FIXED_RESPONSE","actionPayload":"hello there","priority":1}`,
			want: FixedResponsePayload{Text: "hello there"},
		},
		{
			name: "tool use",
			raw:  `{"name":"r","condition":"true","actionType":"TOOL_USE","actionPayload":{"toolName":"calculator","args":{"num1":2}},"priority":1}`,
			want: ToolUsePayload{ToolName: "calculator", Args: map[string]any{"num1": float64(2)}},
		},
		{
			name: "plan without payload",
			raw:  `{"name":"r","condition":"true","actionType":"PLAN_EXECUTION","priority":1}`,
			want: PlanExecutionPayload{},
		},
		{
			name: "unknown action type",
			raw:  `{"name":"r","condition":"true","actionType":"DANCE","priority":1}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r DecisionRule
			if err := json.Unmarshal([]byte(tt.raw), &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(r.ActionPayload, tt.want) {
				t.Fatalf("expected %#v, got %#v", tt.want, r.ActionPayload)
			}
		})
	}
}

func TestFixedResponseMarshalsAsString(t *testing.T) {
	r := DecisionRule{Name: "r", ActionType: ActionFixedResponse, ActionPayload: FixedResponsePayload{Text: "ok"}}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"actionPayload":"ok"`) {
		t.Fatalf("expected bare string payload, got %s", data)
	}
}

func TestFixedResponseRejectsObject(t *testing.T) {
	raw := `{"name":"r","actionType":"FIXED_RESPONSE","actionPayload":{"text":"x"}}`
	var r DecisionRule
	if err := json.Unmarshal([]byte(raw), &r); err == nil {
		t.Fatal("expected error for object payload on FIXED_RESPONSE")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TwinState)
		want   string
	}{
		{"missing name", func(s *TwinState) { s.Identity.Name = "" }, "name"},
		{"unknown action type", func(s *TwinState) {
			s.DecisionLogic.Rules[0].ActionType = "DANCE"
			s.DecisionLogic.Rules[0].ActionPayload = nil
		}, "actionType"},
		{"missing prompt name", func(s *TwinState) {
			s.DecisionLogic.Rules[0].ActionPayload = LLMCallPayload{}
		}, "promptName"},
		{"payload mismatch", func(s *TwinState) {
			s.DecisionLogic.Rules[0].ActionPayload = FixedResponsePayload{Text: "x"}
		}, "does not match"},
		{"missing payload", func(s *TwinState) {
			s.DecisionLogic.Rules[0].ActionPayload = nil
		}, "required"},
		{"temperature out of range", func(s *TwinState) { s.PromptEngineering.LLMConfig.Temperature = 3 }, "temperature"},
		{"duplicate template", func(s *TwinState) {
			s.PromptEngineering.Templates = append(s.PromptEngineering.Templates, s.PromptEngineering.Templates[0])
		}, "templates"},
		{"duplicate entry id", func(s *TwinState) {
			s.Memory.LongTermMemory.Entries[1].ID = s.Memory.LongTermMemory.Entries[0].ID
		}, "entries"},
		{"bad role", func(s *TwinState) {
			s.Memory.ShortTermMemory = []MemoryRecord{{Role: "system", Content: "x"}}
		}, "role"},
		{"negative limit", func(s *TwinState) { s.Memory.ShortTermLimit = -1 }, "shortTermLimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := Validate(s)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestPlanRuleWithoutPayloadIsValid(t *testing.T) {
	s := Default()
	s.DecisionLogic.Rules = []DecisionRule{{Name: "p", Condition: "true", ActionType: ActionMemoryQuery}}
	if err := Validate(s); err != nil {
		t.Fatalf("expected MEMORY_QUERY without payload to validate: %v", err)
	}
}

func TestResetOperational(t *testing.T) {
	s := Default()
	s.CurrentInput = "hi"
	s.CurrentOutput = "hello"
	s.CurrentStateContext = map[string]any{"input": "hi"}
	s.LastDecisionPath = []string{"Context_Update"}
	s.Memory.ShortTermMemory = []MemoryRecord{{Role: RoleUser, Content: "hi"}}
	s.PerformanceMetrics = PerformanceMetrics{TotalInteractions: 3, SuccessfulInteractions: 2, AvgResponseTimeMs: 1.5}
	s.ReinforcementLearning.ExperienceBuffer = []Experience{{Action: "Greeting", Reward: 1}}

	r := ResetOperational(s)
	if r.CurrentInput != "" || r.CurrentOutput != "" {
		t.Error("expected input/output cleared")
	}
	if len(r.CurrentStateContext) != 0 || len(r.LastDecisionPath) != 0 || len(r.Memory.ShortTermMemory) != 0 {
		t.Error("expected live collections cleared")
	}
	if r.PerformanceMetrics != (PerformanceMetrics{}) {
		t.Errorf("expected zero metrics, got %+v", r.PerformanceMetrics)
	}
	if len(r.ReinforcementLearning.ExperienceBuffer) != 1 {
		t.Error("expected experience buffer kept")
	}
	if !reflect.DeepEqual(r.DecisionLogic, s.DecisionLogic) {
		t.Error("expected rules untouched")
	}
	if s.CurrentInput != "hi" {
		t.Error("ResetOperational must not mutate its argument")
	}
}
