package state

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// #region validator
var stateValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so errors read like the configuration document.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
// #endregion validator

// #region validate
// Validate checks that s is shape-conformant: required names, known action
// types, unique template names and entry ids, numeric ranges, and a payload
// matching each rule's action type.
func Validate(s TwinState) error {
	if err := stateValidate.Struct(s); err != nil {
		return fmt.Errorf("validate state: %w", err)
	}
	for i, r := range s.DecisionLogic.Rules {
		if err := validateRule(r); err != nil {
			return fmt.Errorf("validate rule %d (%q): %w", i, r.Name, err)
		}
	}
	return nil
}

func validateRule(r DecisionRule) error {
	if r.ActionPayload == nil {
		switch r.ActionType {
		case ActionPlanExecution, ActionMemoryQuery:
			return nil
		}
		return fmt.Errorf("actionPayload is required for %s", r.ActionType)
	}
	if r.ActionPayload.Type() != r.ActionType {
		return fmt.Errorf("payload type %s does not match actionType %s", r.ActionPayload.Type(), r.ActionType)
	}
	return r.ActionPayload.validate()
}
// #endregion validate
