package action

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// #region calculator
// Calculator adds or multiplies two numeric arguments.
type Calculator struct{}

// Name implements Tool.
func (Calculator) Name() string { return "calculator" }

// Invoke implements Tool. Args: operation ("add" | "multiply"), num1, num2.
// Numbers may be JSON numbers or numeric strings.
func (Calculator) Invoke(args map[string]any) (string, error) {
	op, _ := args["operation"].(string)
	op = strings.ToLower(strings.TrimSpace(op))

	a, err := toNumber(args["num1"])
	if err != nil {
		return "", fmt.Errorf("num1: %w", err)
	}
	b, err := toNumber(args["num2"])
	if err != nil {
		return "", fmt.Errorf("num2: %w", err)
	}

	var result float64
	switch op {
	case "add":
		result = a + b
	case "multiply":
		result = a * b
	default:
		return "", fmt.Errorf("unsupported operation %q", op)
	}
	return strconv.FormatFloat(result, 'f', -1, 64), nil
}

func toNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("missing")
	}
	return 0, fmt.Errorf("not a number: %v", v)
}
// #endregion calculator

// #region simulated-tool
func simulatedToolOutput(name string, args map[string]any) string {
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		data = []byte(fmt.Sprint(args))
	}
	return fmt.Sprintf("[Simulated tool %q invoked with args %s]", name, data)
}
// #endregion simulated-tool
