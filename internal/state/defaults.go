package state

// #region template-names
// Template names the processor treats specially.
const (
	TemplateDefault      = "default_response"
	TemplateGreeting     = "greeting_response"
	TemplateNameInquiry  = "name_inquiry_response"
	TemplateMemoryAnswer = "memory_answer"
)
// #endregion template-names

// #region default-state
// Default returns the built-in twin configuration used when no
// configuration document is supplied.
func Default() TwinState {
	return TwinState{
		Identity: Identity{
			ID:          "twin-001",
			Name:        "Aria",
			Description: "I am a simulated customer-support agent.",
		},
		PromptEngineering: PromptEngineering{
			Templates: []PromptTemplate{
				{
					Name:      TemplateDefault,
					Template:  "You are {{twinName}}. Respond helpfully to: {{input}}",
					Variables: []string{"twinName", "input"},
				},
				{
					Name:      TemplateGreeting,
					Template:  "Greet the user in a {{tone}} way. They said: {{input}}",
					Variables: []string{"tone", "input"},
				},
				{
					Name:      TemplateNameInquiry,
					Template:  "Tell the user your name is {{twinName}}. They asked: {{input}}",
					Variables: []string{"twinName", "input"},
				},
				{
					Name:      TemplateMemoryAnswer,
					Template:  "Answer using this note: {{relevantMemory}} Question: {{input}}",
					Variables: []string{"relevantMemory", "input"},
				},
			},
			LLMConfig: LLMConfig{
				Model:       "simulated-llm",
				Temperature: 0.7,
				MaxTokens:   256,
				TopP:        0.9,
			},
		},
		DecisionLogic: DecisionLogic{
			Rules: []DecisionRule{
				{
					Name:          "NameInquiry",
					Condition:     `.input | ascii_downcase | test("your name|who are you")`,
					ActionType:    ActionLLMCall,
					ActionPayload: LLMCallPayload{PromptName: TemplateNameInquiry},
					Priority:      20,
				},
				{
					Name:          "NegativeSentiment",
					Condition:     `.sentiment == "negative"`,
					ActionType:    ActionFixedResponse,
					ActionPayload: FixedResponsePayload{Text: "I'm sorry to hear that. Tell me what went wrong and I'll do my best to help."},
					Priority:      15,
				},
				{
					Name:       "Calculator",
					Condition:  `.input | ascii_downcase | startswith("calculate")`,
					ActionType: ActionToolUse,
					ActionPayload: ToolUsePayload{
						ToolName: "calculator",
						Args:     map[string]any{"operation": "add", "num1": float64(2), "num2": float64(3)},
					},
					Priority: 12,
				},
				{
					Name:          "Greeting",
					Condition:     `.input | ascii_downcase | test("\\b(hello|hi|hey)\\b")`,
					ActionType:    ActionLLMCall,
					ActionPayload: LLMCallPayload{PromptName: TemplateGreeting, Vars: map[string]any{"tone": "friendly"}},
					Priority:      10,
				},
				{
					Name:          "KnowledgeAnswer",
					Condition:     `.isQuestion and .relevantMemory != null`,
					ActionType:    ActionLLMCall,
					ActionPayload: LLMCallPayload{PromptName: TemplateMemoryAnswer},
					Priority:      8,
				},
				{
					Name:          "PlanRequest",
					Condition:     `.input | ascii_downcase | contains("make a plan")`,
					ActionType:    ActionPlanExecution,
					ActionPayload: PlanExecutionPayload{PlanID: "demo-plan"},
					Priority:      5,
				},
			},
		},
		ReinforcementLearning: ReinforcementLearning{Enabled: true},
		Planning:              Planning{Enabled: false},
		Memory: Memory{
			LongTermMemory: LongTermMemory{
				Entries: []LongTermEntry{
					{
						ID:       "ltm-return-policy",
						Content:  "The return policy is 30 days for a full refund.",
						Metadata: map[string]any{"topic": "returns"},
					},
					{
						ID:       "ltm-shipping",
						Content:  "Standard shipping takes 3-5 business days.",
						Metadata: map[string]any{"topic": "shipping"},
					},
				},
			},
		},
		CurrentStateContext: map[string]any{},
		LastDecisionPath:    []string{},
	}
}
// #endregion default-state

// #region reset
// ResetOperational returns a copy of s with every live field cleared and
// metrics zeroed. Configuration, long-term memory, the RL buffer and
// planning settings are kept.
func ResetOperational(s TwinState) TwinState {
	out := s.Clone()
	out.CurrentInput = ""
	out.CurrentOutput = ""
	out.CurrentStateContext = map[string]any{}
	out.LastDecisionPath = []string{}
	out.Memory.ShortTermMemory = []MemoryRecord{}
	out.PerformanceMetrics = PerformanceMetrics{}
	return out
}
// #endregion reset
