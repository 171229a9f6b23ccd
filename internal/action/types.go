package action

import "github.com/danielpatrickdp/digital-twin/internal/state"

// #region outcome
// Outcome classifies how an action produced its text.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeLookupMiss Outcome = "lookup_miss" // unknown template or tool
	OutcomeToolError  Outcome = "tool_error"  // known tool rejected its arguments
	OutcomeUnhandled  Outcome = "unhandled"   // action type without an executor
)

// MissKind names what a lookup miss failed to find.
type MissKind string

const (
	MissTemplate MissKind = "template"
	MissTool     MissKind = "tool"
)
// #endregion outcome

// #region result
// Result is the text produced by one dispatch plus how it was produced.
type Result struct {
	Output   string
	Outcome  Outcome
	Miss     MissKind // set when Outcome is OutcomeLookupMiss
	Template string   // prompt template used by LLM calls
	Prompt   string   // substituted prompt, LLM calls only
	Tool     string   // tool name, TOOL_USE only
}
// #endregion result

// #region request
// Request is a simulated model call.
type Request struct {
	Identity     state.Identity
	Model        string
	TemplateName string
	Prompt       string
	Vars         map[string]any
}
// #endregion request

// #region interfaces
// Responder produces the text for a model call. Implementations must be pure.
type Responder interface {
	Respond(req Request) string
}

// Tool is an invocable TOOL_USE target.
type Tool interface {
	Name() string
	Invoke(args map[string]any) (string, error)
}
// #endregion interfaces
