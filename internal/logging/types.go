package logging

import "time"

// #region interaction-entry
// InteractionEntry is a single row in the interaction_log table.
type InteractionEntry struct {
	TurnID       string
	VersionID    string // empty when the twin is not persisted
	Input        string
	Output       string
	RuleName     string
	Outcome      string
	DecisionPath []string
	Reward       *float64 // nil when no feedback was given
	Warnings     []string
	CreatedAt    time.Time
}
// #endregion interaction-entry
