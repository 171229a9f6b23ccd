package action

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// #region substitute
var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Substitute replaces {{key}} placeholders with values from vars. Placeholders
// without a matching key are left intact.
func Substitute(template string, vars map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		v, ok := vars[key]
		if !ok {
			return m
		}
		return formatValue(v)
	})
}
// #endregion substitute

// #region format
// formatValue renders a context value for inclusion in prompt text.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
// #endregion format
