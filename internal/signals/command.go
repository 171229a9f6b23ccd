package signals

import (
	"strings"
)

// #region command-detection
// IsDirectCommand returns true if the input is a tool-style command or a short
// imperative rather than conversation.
func IsDirectCommand(input string) bool {
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "" {
		return false
	}

	prefixes := []string{
		"calculate ",
		"compute ",
		"make a plan",
		"plan ",
		"remember ",
		"look up ",
		"search for ",
		"show ",
		"list ",
	}
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}

	// Short imperative phrases (1-3 words, no question mark)
	if strings.Contains(lower, "?") {
		return false
	}
	words := strings.Fields(lower)
	if len(words) >= 1 && len(words) <= 3 {
		imperatives := map[string]bool{
			"calculate": true, "compute": true, "list": true, "show": true,
			"run": true, "stop": true, "start": true, "help": true,
			"clear": true, "reset": true, "quit": true, "exit": true,
		}
		if imperatives[words[0]] {
			return true
		}
	}

	return false
}
// #endregion command-detection
