package action

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/danielpatrickdp/digital-twin/internal/state"
)

// #region dispatcher
// Dispatcher turns a winning decision rule into output text. It never fails:
// every miss becomes descriptive text in the Result.
type Dispatcher struct {
	responder Responder
	tools     map[string]Tool
}

// NewDispatcher creates a Dispatcher. A nil responder uses SimulatedResponder.
func NewDispatcher(responder Responder, tools ...Tool) *Dispatcher {
	if responder == nil {
		responder = SimulatedResponder{}
	}
	d := &Dispatcher{responder: responder, tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		d.tools[t.Name()] = t
	}
	return d
}

// DefaultDispatcher returns a Dispatcher with the simulated responder and the calculator tool.
func DefaultDispatcher() *Dispatcher {
	return NewDispatcher(SimulatedResponder{}, Calculator{})
}
// #endregion dispatcher

// #region dispatch
// Dispatch runs rule's action against st and the interaction context.
func (d *Dispatcher) Dispatch(st state.TwinState, rule state.DecisionRule, ctx map[string]any) Result {
	switch rule.ActionType {
	case state.ActionLLMCall:
		p, ok := rule.ActionPayload.(state.LLMCallPayload)
		if !ok {
			return invalidPayload(rule)
		}
		return d.CallLLM(st, p.PromptName, p.Vars, ctx)
	case state.ActionFixedResponse:
		p, ok := rule.ActionPayload.(state.FixedResponsePayload)
		if !ok {
			return invalidPayload(rule)
		}
		return Result{Output: p.Text, Outcome: OutcomeOK}
	case state.ActionToolUse:
		p, ok := rule.ActionPayload.(state.ToolUsePayload)
		if !ok {
			return invalidPayload(rule)
		}
		return d.UseTool(p.ToolName, p.Args)
	}
	return Result{
		Output:  fmt.Sprintf("Unhandled action type: %s", rule.ActionType),
		Outcome: OutcomeUnhandled,
	}
}

// Fallback answers with the default_response template and the full context as variables.
func (d *Dispatcher) Fallback(st state.TwinState, ctx map[string]any) Result {
	return d.CallLLM(st, state.TemplateDefault, nil, ctx)
}

func invalidPayload(rule state.DecisionRule) Result {
	return Result{
		Output:  fmt.Sprintf("Unhandled action type: %s (rule %q has no usable payload)", rule.ActionType, rule.Name),
		Outcome: OutcomeUnhandled,
	}
}
// #endregion dispatch

// #region llm-call
// CallLLM looks up promptName, substitutes variables and asks the responder.
// Variables are layered identity, then vars, then ctx; later layers win.
func (d *Dispatcher) CallLLM(st state.TwinState, promptName string, vars, ctx map[string]any) Result {
	tmpl, ok := st.PromptEngineering.Template(promptName)
	if !ok {
		return Result{
			Output:   fmt.Sprintf("Error: prompt template %q not found.", promptName),
			Outcome:  OutcomeLookupMiss,
			Miss:     MissTemplate,
			Template: promptName,
		}
	}

	merged := map[string]any{
		"twinName":        st.Identity.Name,
		"twinDescription": st.Identity.Description,
	}
	for k, v := range vars {
		merged[k] = v
	}
	for k, v := range ctx {
		merged[k] = v
	}

	prompt := Substitute(tmpl.Template, merged)
	out := d.responder.Respond(Request{
		Identity:     st.Identity,
		Model:        st.PromptEngineering.LLMConfig.Model,
		TemplateName: tmpl.Name,
		Prompt:       prompt,
		Vars:         merged,
	})
	return Result{Output: out, Outcome: OutcomeOK, Template: tmpl.Name, Prompt: prompt}
}
// #endregion llm-call

// #region tool-use
// UseTool invokes a registered tool, or returns placeholder text naming an unknown one.
func (d *Dispatcher) UseTool(name string, args map[string]any) Result {
	tool, ok := d.tools[name]
	if !ok {
		return Result{
			Output:  simulatedToolOutput(name, args),
			Outcome: OutcomeLookupMiss,
			Miss:    MissTool,
			Tool:    name,
		}
	}
	out, err := tool.Invoke(args)
	if err != nil {
		return Result{
			Output:  fmt.Sprintf("%s error: %v", titleCase(name), err),
			Outcome: OutcomeToolError,
			Tool:    name,
		}
	}
	return Result{Output: out, Outcome: OutcomeOK, Tool: name}
}
func titleCase(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
// #endregion tool-use
