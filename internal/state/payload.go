package state

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// #region payload-interface
// Payload is the action-specific part of a DecisionRule. The concrete type
// is selected by the rule's ActionType.
type Payload interface {
	Type() ActionType
	validate() error
	clonePayload() Payload
}
// #endregion payload-interface

// #region payload-types
// LLMCallPayload names a prompt template and extra template variables.
type LLMCallPayload struct {
	PromptName string         `json:"promptName"`
	Vars       map[string]any `json:"vars,omitempty"`
}

func (LLMCallPayload) Type() ActionType { return ActionLLMCall }

func (p LLMCallPayload) validate() error {
	if p.PromptName == "" {
		return fmt.Errorf("promptName is required")
	}
	return nil
}

func (p LLMCallPayload) clonePayload() Payload {
	return LLMCallPayload{PromptName: p.PromptName, Vars: cloneMap(p.Vars)}
}

// FixedResponsePayload is returned verbatim. Encoded as a bare JSON string.
type FixedResponsePayload struct {
	Text string
}

func (FixedResponsePayload) Type() ActionType { return ActionFixedResponse }

func (FixedResponsePayload) validate() error { return nil }

func (p FixedResponsePayload) clonePayload() Payload { return p }

// MarshalJSON implements json.Marshaler.
func (p FixedResponsePayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *FixedResponsePayload) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &p.Text); err != nil {
		return fmt.Errorf("fixed response payload must be a string: %w", err)
	}
	return nil
}

// ToolUsePayload names a tool and its arguments.
type ToolUsePayload struct {
	ToolName string         `json:"toolName"`
	Args     map[string]any `json:"args,omitempty"`
}

func (ToolUsePayload) Type() ActionType { return ActionToolUse }

func (p ToolUsePayload) validate() error {
	if p.ToolName == "" {
		return fmt.Errorf("toolName is required")
	}
	return nil
}

func (p ToolUsePayload) clonePayload() Payload {
	return ToolUsePayload{ToolName: p.ToolName, Args: cloneMap(p.Args)}
}

// PlanExecutionPayload is carried in configuration; no executor exists.
type PlanExecutionPayload struct {
	PlanID string `json:"planId,omitempty"`
	Steps  []any  `json:"steps,omitempty"`
}

func (PlanExecutionPayload) Type() ActionType { return ActionPlanExecution }

func (PlanExecutionPayload) validate() error { return nil }

func (p PlanExecutionPayload) clonePayload() Payload {
	return PlanExecutionPayload{PlanID: p.PlanID, Steps: cloneSlice(p.Steps)}
}

// MemoryQueryPayload is carried in configuration; no query engine exists.
type MemoryQueryPayload struct {
	Query string `json:"query,omitempty"`
}

func (MemoryQueryPayload) Type() ActionType { return ActionMemoryQuery }

func (MemoryQueryPayload) validate() error { return nil }

func (p MemoryQueryPayload) clonePayload() Payload { return p }
// #endregion payload-types

// #region rule-codec
type ruleJSON struct {
	Name          string          `json:"name"`
	Condition     string          `json:"condition"`
	ActionType    ActionType      `json:"actionType"`
	ActionPayload json.RawMessage `json:"actionPayload,omitempty"`
	Priority      int             `json:"priority"`
}

// MarshalJSON implements json.Marshaler.
func (r DecisionRule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{
		Name:       r.Name,
		Condition:  r.Condition,
		ActionType: r.ActionType,
		Priority:   r.Priority,
	}
	if r.ActionPayload != nil {
		raw, err := json.Marshal(r.ActionPayload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload of rule %q: %w", r.Name, err)
		}
		out.ActionPayload = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. The payload is decoded into the
// variant selected by actionType; unknown action types leave it nil so that
// validation reports them.
func (r *DecisionRule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	payload, err := DecodePayload(in.ActionType, in.ActionPayload)
	if err != nil {
		return fmt.Errorf("rule %q: %w", in.Name, err)
	}
	*r = DecisionRule{
		Name:          in.Name,
		Condition:     in.Condition,
		ActionType:    in.ActionType,
		ActionPayload: payload,
		Priority:      in.Priority,
	}
	return nil
}

// DecodePayload decodes raw JSON into the payload variant for actionType.
func DecodePayload(actionType ActionType, raw json.RawMessage) (Payload, error) {
	empty := len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
	switch actionType {
	case ActionLLMCall:
		var p LLMCallPayload
		if !empty {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode LLM_CALL payload: %w", err)
			}
		}
		return p, nil
	case ActionFixedResponse:
		var p FixedResponsePayload
		if !empty {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, err
			}
		}
		return p, nil
	case ActionToolUse:
		var p ToolUsePayload
		if !empty {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode TOOL_USE payload: %w", err)
			}
		}
		return p, nil
	case ActionPlanExecution:
		var p PlanExecutionPayload
		if !empty {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode PLAN_EXECUTION payload: %w", err)
			}
		}
		return p, nil
	case ActionMemoryQuery:
		var p MemoryQueryPayload
		if !empty {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode MEMORY_QUERY payload: %w", err)
			}
		}
		return p, nil
	}
	return nil, nil
}
// #endregion rule-codec
