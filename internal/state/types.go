package state

import "time"

// #region action-type
// ActionType selects how a winning decision rule produces the twin's output.
type ActionType string

const (
	ActionLLMCall       ActionType = "LLM_CALL"
	ActionFixedResponse ActionType = "FIXED_RESPONSE"
	ActionToolUse       ActionType = "TOOL_USE"
	ActionPlanExecution ActionType = "PLAN_EXECUTION"
	ActionMemoryQuery   ActionType = "MEMORY_QUERY"
)

// IsValid reports whether a is one of the known action types.
func (a ActionType) IsValid() bool {
	switch a {
	case ActionLLMCall, ActionFixedResponse, ActionToolUse, ActionPlanExecution, ActionMemoryQuery:
		return true
	}
	return false
}
// #endregion action-type

// #region role
// Role identifies the speaker of a short-term memory record.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)
// #endregion role

// #region identity
// Identity holds the static descriptive fields of a twin.
type Identity struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}
// #endregion identity

// #region prompt-engineering
// PromptTemplate is a named template with {{var}} placeholders.
type PromptTemplate struct {
	Name      string   `json:"name" validate:"required"`
	Template  string   `json:"template"`
	Variables []string `json:"variables,omitempty"`
}

// LLMConfig describes the simulated language model. Lookup data only.
type LLMConfig struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `json:"maxTokens" validate:"gte=0"`
	TopP        float64 `json:"topP" validate:"gte=0,lte=1"`
}

// PromptEngineering groups the prompt templates and model settings.
type PromptEngineering struct {
	Templates []PromptTemplate `json:"templates" validate:"unique=Name,dive"`
	LLMConfig LLMConfig        `json:"llmConfig"`
}

// Template returns the first template with the given name.
func (p PromptEngineering) Template(name string) (PromptTemplate, bool) {
	for _, t := range p.Templates {
		if t.Name == name {
			return t, true
		}
	}
	return PromptTemplate{}, false
}
// #endregion prompt-engineering

// #region decision-logic
// DecisionRule maps a condition over the interaction context to an action.
// Higher Priority is evaluated first.
type DecisionRule struct {
	Name          string     `json:"name" validate:"required"`
	Condition     string     `json:"condition"`
	ActionType    ActionType `json:"actionType" validate:"required,oneof=LLM_CALL FIXED_RESPONSE TOOL_USE PLAN_EXECUTION MEMORY_QUERY"`
	ActionPayload Payload    `json:"actionPayload" validate:"-"`
	Priority      int        `json:"priority"`
}

// DecisionLogic holds the rule set.
type DecisionLogic struct {
	Rules []DecisionRule `json:"rules" validate:"dive"`
}
// #endregion decision-logic

// #region reinforcement-learning
// Experience is one entry of the reinforcement-learning buffer.
type Experience struct {
	State     map[string]any `json:"state"`
	Action    string         `json:"action"`
	Reward    float64        `json:"reward"`
	NextState map[string]any `json:"nextState"`
	Timestamp time.Time      `json:"timestamp"`
}

// ReinforcementLearning carries the RL flag and its append-only buffer.
type ReinforcementLearning struct {
	Enabled          bool         `json:"enabled"`
	ExperienceBuffer []Experience `json:"experienceBuffer"`
}
// #endregion reinforcement-learning

// #region planning
// Planning is carried through processing unchanged.
type Planning struct {
	Enabled bool  `json:"enabled"`
	Actions []any `json:"actions,omitempty"`
	Goal    any   `json:"goal,omitempty"`
	Plan    []any `json:"plan,omitempty"`
}
// #endregion planning

// #region memory
// MemoryRecord is one turn of the short-term transcript.
type MemoryRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Role      Role      `json:"role" validate:"oneof=user agent"`
	Content   string    `json:"content"`
	Sentiment string    `json:"sentiment,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
}

// LongTermEntry is a read-only knowledge snippet.
type LongTermEntry struct {
	ID        string         `json:"id" validate:"required"`
	Content   string         `json:"content" validate:"required"`
	Embedding []float64      `json:"embedding,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// LongTermMemory holds the configured knowledge entries.
type LongTermMemory struct {
	Entries []LongTermEntry `json:"entries" validate:"unique=ID,dive"`
}

// Memory groups the session transcript and long-term entries.
// ShortTermLimit caps the transcript (0 = unbounded).
type Memory struct {
	ShortTermMemory []MemoryRecord `json:"shortTermMemory" validate:"dive"`
	ShortTermLimit  int            `json:"shortTermLimit,omitempty" validate:"gte=0"`
	LongTermMemory  LongTermMemory `json:"longTermMemory"`
}
// #endregion memory

// #region performance-metrics
// PerformanceMetrics are monotonically updated interaction counters.
type PerformanceMetrics struct {
	TotalInteractions      int     `json:"totalInteractions" validate:"gte=0"`
	SuccessfulInteractions int     `json:"successfulInteractions" validate:"gte=0"`
	AvgResponseTimeMs      float64 `json:"avgResponseTimeMs" validate:"gte=0"`
}
// #endregion performance-metrics

// #region twin-state
// TwinState is the full serializable configuration and runtime state of a twin.
type TwinState struct {
	Identity              Identity              `json:"identity"`
	PromptEngineering     PromptEngineering     `json:"promptEngineering"`
	DecisionLogic         DecisionLogic         `json:"decisionLogic"`
	ReinforcementLearning ReinforcementLearning `json:"reinforcementLearning"`
	Planning              Planning              `json:"planning"`
	Memory                Memory                `json:"memory"`

	CurrentInput        string             `json:"currentInput"`
	CurrentOutput       string             `json:"currentOutput"`
	CurrentStateContext map[string]any     `json:"currentStateContext"`
	LastDecisionPath    []string           `json:"lastDecisionPath"`
	PerformanceMetrics  PerformanceMetrics `json:"performanceMetrics"`
}
// #endregion twin-state

// #region state-record
// StateRecord is a persisted, versioned snapshot of a TwinState.
type StateRecord struct {
	VersionID string
	ParentID  string
	State     TwinState
	Reason    string
	CreatedAt time.Time
}
// #endregion state-record
